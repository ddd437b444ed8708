package normalize

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var phoneNumber = regexp.MustCompile(`\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)

// addressRule decides what happens where a letter is glued to the
// following text. Rules are consulted in order and the first match wins.
type addressRule struct {
	Name string
	// Token must match at the glue point.
	Token *regexp.Regexp
	// After, when set, must accept the letter before the glue point.
	After func(rune) bool
	// Break starts a new segment; otherwise a single space is inserted.
	Break bool
}

var addressRules = []addressRule{
	{Name: "street suffix", Token: regexp.MustCompile(`^(?:Ave|St|Rd|Blvd|Dr)\.?(?:[^a-z]|$)`), After: unicode.IsLower},
	{Name: "postal code", Token: regexp.MustCompile(`^\d{5}(?:-\d{4})?(?:\D|$)`), Break: true},
	{Name: "capitalized word", Token: regexp.MustCompile(`^[A-Z][a-z]`), After: unicode.IsLower, Break: true},
	{Name: "digits", Token: regexp.MustCompile(`^\d`), Break: true},
}

// AddressSegment is one display line of an address and the rule that
// started it. Rule is empty for segments that began at a comma, a line
// break, or the start of the text.
type AddressSegment struct {
	Text string
	Rule string
}

// SplitAddress breaks OCR address text into display segments. Phone
// numbers are removed first. Commas and line breaks always separate
// segments; inside a chunk the rule table decides where glued words split.
func SplitAddress(raw string) []AddressSegment {
	s := phoneNumber.ReplaceAllString(clean(raw), " ")

	var segments []AddressSegment
	add := func(text, rule string) {
		text = strings.Trim(spaces.ReplaceAllString(text, " "), " ,;")
		if text != "" {
			segments = append(segments, AddressSegment{Text: text, Rule: rule})
		}
	}

	for _, chunk := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == '\n' || r == '\r' }) {
		var b strings.Builder
		rule := ""
		var prev rune
		for i, r := range chunk {
			if i > 0 && unicode.IsLetter(prev) {
				if matched, ok := matchAddressRule(prev, chunk[i:]); ok {
					if matched.Break {
						add(b.String(), rule)
						b.Reset()
						rule = matched.Name
					} else {
						b.WriteByte(' ')
					}
				}
			}
			b.WriteRune(r)
			prev = r
		}
		add(b.String(), rule)
	}
	return segments
}

func matchAddressRule(prev rune, rest string) (addressRule, bool) {
	if first, _ := utf8.DecodeRuneInString(rest); unicode.IsSpace(first) {
		return addressRule{}, false
	}
	for _, rule := range addressRules {
		if rule.After != nil && !rule.After(prev) {
			continue
		}
		if rule.Token.MatchString(rest) {
			return rule, true
		}
	}
	return addressRule{}, false
}

// ParseAddress returns the display lines of an address.
func ParseAddress(raw string) []string {
	segments := SplitAddress(raw)
	lines := make([]string, 0, len(segments))
	for _, seg := range segments {
		lines = append(lines, seg.Text)
	}
	return lines
}

// JoinAddress renders address lines as the single string the backend
// stores.
func JoinAddress(lines []string) string {
	return strings.Join(lines, ", ")
}

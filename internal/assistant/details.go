package assistant

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/zombor/expense-tracker/internal/record"
)

// Categories are the expense categories questions are matched against
var Categories = []string{
	"food", "medicine", "transport", "entertainment", "shopping",
	"utilities", "groceries", "fuel", "dining", "healthcare",
	"education", "clothing", "electronics", "travel", "subscriptions",
	"rent", "insurance", "gym", "movies", "books", "gifts",
}

const monthLayout = "2006-01"

var (
	categoryPattern = regexp.MustCompile(`\b(` + strings.Join(Categories, "|") + `)\b`)
	isoMonthPattern = regexp.MustCompile(`\b(\d{4})-(\d{2})\b`)
	namedMonth      = regexp.MustCompile(`\b(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\b(?:\s+(\d{4}))?`)
	nonWord         = regexp.MustCompile(`[^a-z ]+`)

	// singular forms people type for the plural categories
	categoryAliases = map[string]string{
		"grocery": "groceries", "movie": "movies", "book": "books", "gift": "gifts",
		"subscription": "subscriptions", "medical": "healthcare", "medicines": "medicine",
		"restaurant": "dining", "restaurants": "dining", "petrol": "fuel", "gas": "fuel",
	}
	aliasPattern = regexp.MustCompile(`\b(` + strings.Join(keys(categoryAliases), "|") + `)\b`)

	greetings = map[string]bool{
		"hi": true, "hello": true, "hey": true, "hi there": true, "hello there": true,
		"hey there": true, "good morning": true, "good afternoon": true, "good evening": true,
		"thanks": true, "thank you": true, "yo": true, "howdy": true,
	}

	generalWords = []string{
		"total", "overall", "all my", "everything", "breakdown", "categor",
		"vendor", "biggest", "most", "spent", "spend", "spending", "expenses",
	}
)

func keys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// IsGreeting reports whether the question is small talk rather than a
// spending question
func IsGreeting(question string) bool {
	q := strings.Join(strings.Fields(nonWord.ReplaceAllString(strings.ToLower(question), " ")), " ")
	return greetings[q]
}

// ExtractDetails reads the category, month and scope of a question with
// keyword rules. Month references are resolved against now.
func ExtractDetails(question string, now time.Time) record.ChatDetails {
	q := strings.ToLower(question)
	var details record.ChatDetails

	if m := categoryPattern.FindStringSubmatch(q); m != nil {
		details.Category = m[1]
	} else if m := aliasPattern.FindStringSubmatch(q); m != nil {
		details.Category = categoryAliases[m[1]]
	}

	details.Month = extractMonth(q, now)

	if details.Category == "" {
		for _, w := range generalWords {
			if strings.Contains(q, w) {
				details.IsGeneralQuestion = true
				break
			}
		}
	}

	switch {
	case details.Category != "" && details.Month != "":
		details.Confidence = "high"
	case details.Category != "" || details.Month != "" || details.IsGeneralQuestion:
		details.Confidence = "medium"
	default:
		details.Confidence = "low"
	}
	return details
}

func extractMonth(q string, now time.Time) string {
	switch {
	case strings.Contains(q, "this month"), strings.Contains(q, "current month"):
		return now.Format(monthLayout)
	case strings.Contains(q, "last month"), strings.Contains(q, "previous month"):
		return firstOfMonth(now).AddDate(0, -1, 0).Format(monthLayout)
	}

	if m := isoMonthPattern.FindStringSubmatch(q); m != nil {
		if month, _ := strconv.Atoi(m[2]); month >= 1 && month <= 12 {
			return m[1] + "-" + m[2]
		}
	}

	m := namedMonth.FindStringSubmatch(q)
	if m == nil {
		return ""
	}
	month := monthNumber(m[1])
	year := now.Year()
	if m[2] != "" {
		year, _ = strconv.Atoi(m[2])
	} else if month > now.Month() {
		// a bare month name means the most recent one
		year--
	}
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Format(monthLayout)
}

func monthNumber(name string) time.Month {
	prefix := name
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	for m := time.January; m <= time.December; m++ {
		if strings.EqualFold(m.String()[:3], prefix) {
			return m
		}
	}
	return 0
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

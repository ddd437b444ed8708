package normalize

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("SplitAddress", func() {
	var (
		raw      string
		segments []AddressSegment
	)

	JustBeforeEach(func() {
		segments = SplitAddress(raw)
	})

	When("words are glued together by OCR", func() {
		BeforeEach(func() {
			raw = "123 Main StSpringfield IL62704"
		})

		It("splits at a capitalized word and at a postal code", func() {
			Expect(segments).To(Equal([]AddressSegment{
				{Text: "123 Main St", Rule: ""},
				{Text: "Springfield IL", Rule: "capitalized word"},
				{Text: "62704", Rule: "postal code"},
			}))
		})
	})

	When("a street suffix is glued to the street name", func() {
		BeforeEach(func() {
			raw = "1 MainSt, Springfield"
		})

		It("keeps the suffix on the same line", func() {
			Expect(segments).To(Equal([]AddressSegment{
				{Text: "1 Main St"},
				{Text: "Springfield"},
			}))
		})
	})

	When("a letter is glued to digits", func() {
		BeforeEach(func() {
			raw = "Unit5"
		})

		It("splits before the digits", func() {
			Expect(segments).To(Equal([]AddressSegment{
				{Text: "Unit"},
				{Text: "5", Rule: "digits"},
			}))
		})
	})
})

var _ = Describe("ParseAddress", func() {
	It("strips phone numbers", func() {
		Expect(ParseAddress("Cafe X, 12 Road 555-123-4567")).To(Equal([]string{"Cafe X", "12 Road"}))
	})

	It("splits on line breaks", func() {
		Expect(ParseAddress("12 Road\nColombo")).To(Equal([]string{"12 Road", "Colombo"}))
	})

	It("discards empty segments", func() {
		Expect(ParseAddress(", ,12 Road,,")).To(Equal([]string{"12 Road"}))
	})

	It("returns no lines for blank input", func() {
		Expect(ParseAddress("")).To(BeEmpty())
	})
})

var _ = Describe("JoinAddress", func() {
	It("joins lines with a comma", func() {
		Expect(JoinAddress([]string{"123 Main St", "Springfield IL", "62704"})).To(Equal("123 Main St, Springfield IL, 62704"))
	})
})

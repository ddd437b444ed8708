package normalize

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ParseCurrency", func() {
	DescribeTable("parsing OCR amounts",
		func(raw string, expected float64) {
			Expect(ParseCurrency(raw)).To(Equal(expected))
		},
		Entry("plain decimal", "12.50", 12.5),
		Entry("leading 8 read as a dollar sign", "8817.00", 817.0),
		Entry("leading 8 on a short amount", "817.00", 17.0),
		Entry("8 not followed by a digit", "8.50", 8.5),
		Entry("dollar sign", "$42.75", 42.75),
		Entry("thousands comma", "1,234.56", 1234.56),
		Entry("European order", "1.234,56", 1234.56),
		Entry("single comma as decimal point", "12,50", 12.5),
		Entry("several commas as thousands separators", "1,234,567", 1234567.0),
		Entry("stray dots after the first", "1.234.56", 1.23456),
		Entry("embedded whitespace", " 1 234.00 ", 1234.0),
		Entry("non-breaking space", "12 .50", 12.5),
		Entry("full-width digits", "１２.５０", 12.5),
		Entry("currency code", "LKR 250.00", 250.0),
		Entry("negative amount clamped to zero", "-5.25", 0.0),
		Entry("empty", "", 0.0),
		Entry("letters only", "abc", 0.0),
		Entry("lone minus", "-", 0.0),
	)

	It("is idempotent through the format and parse round trip", func() {
		for _, raw := range []string{"817.00", "12.50", "1234.56", "0.99", "8817.00", "1,000,000.00"} {
			first := ParseCurrency(raw)
			Expect(ParseCurrency(FormatCurrency(first))).To(Equal(first), raw)
		}
	})
})

var _ = Describe("ParseAmount", func() {
	When("the input has no digits", func() {
		It("reports failure", func() {
			_, ok := ParseAmount("abc")
			Expect(ok).To(BeFalse())
		})
	})

	When("the input is blank", func() {
		It("reports failure", func() {
			_, ok := ParseAmount("   ")
			Expect(ok).To(BeFalse())
		})
	})

	When("the input is numeric", func() {
		It("returns the value", func() {
			v, ok := ParseAmount("$19.99")
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(19.99))
		})
	})

	When("the input is negative", func() {
		It("reports failure", func() {
			_, ok := ParseAmount("-5.00")
			Expect(ok).To(BeFalse())
		})
	})
})

var _ = Describe("FormatCurrency", func() {
	DescribeTable("rendering amounts",
		func(v float64, expected string) {
			Expect(FormatCurrency(v)).To(Equal(expected))
		},
		Entry("two fraction digits", 500.0, "$500.00"),
		Entry("grouped digits", 1234.5, "$1,234.50"),
		Entry("zero", 0.0, "$0.00"),
		Entry("negative", -5.0, "-$5.00"),
	)
})

var _ = Describe("FormatAmount", func() {
	It("renders blank input as an empty string", func() {
		Expect(FormatAmount("")).To(Equal(""))
		Expect(FormatAmount("  ")).To(Equal(""))
	})

	It("normalizes OCR amounts", func() {
		Expect(FormatAmount("8817.00")).To(Equal("$817.00"))
	})
})

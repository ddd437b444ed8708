package normalize

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ParseLineItems", func() {
	var (
		raw   string
		items []LineItem
	)

	JustBeforeEach(func() {
		items = ParseLineItems(raw)
	})

	When("a single item has a quantity and a misread dollar sign", func() {
		BeforeEach(func() {
			raw = "Latte 1 8500.00"
		})

		It("recovers the item", func() {
			Expect(items).To(Equal([]LineItem{{Name: "Latte", Quantity: 1, Price: 500}}))
		})
	})

	When("several items lost their line breaks", func() {
		BeforeEach(func() {
			raw = "Latte 1 8500.00 Muffin 2 $3.25 Big Cookie 84.00"
		})

		It("splits after each price", func() {
			Expect(items).To(Equal([]LineItem{
				{Name: "Latte", Quantity: 1, Price: 500},
				{Name: "Muffin", Quantity: 2, Price: 3.25},
				{Name: "Big Cookie", Quantity: 1, Price: 4},
			}))
		})
	})

	When("a quantity is zero", func() {
		BeforeEach(func() {
			raw = "Water 0 1.50"
		})

		It("defaults the quantity to one", func() {
			Expect(items).To(HaveLen(1))
			Expect(items[0].Quantity).To(Equal(1))
		})
	})

	When("a line has no price", func() {
		BeforeEach(func() {
			raw = "Latte 1 8500.00 THANK YOU"
		})

		It("drops the line", func() {
			Expect(items).To(Equal([]LineItem{{Name: "Latte", Quantity: 1, Price: 500}}))
		})
	})

	When("the text is empty", func() {
		BeforeEach(func() {
			raw = ""
		})

		It("returns no items", func() {
			Expect(items).To(BeEmpty())
		})
	})
})

var _ = Describe("SplitItemLines", func() {
	It("cuts after numbers of two or more digits followed by whitespace", func() {
		Expect(SplitItemLines("Tea 2 12.00 Cake 1 5.50")).To(Equal([]string{"Tea 2 12.00", "Cake 1 5.50"}))
	})
})

var _ = Describe("FieldLabel", func() {
	It("title-cases snake case keys", func() {
		Expect(FieldLabel("invoice_total")).To(Equal("Invoice Total"))
	})

	It("keeps camel case keys", func() {
		Expect(FieldLabel("TotalPrice")).To(Equal("TotalPrice"))
	})
})

package draft

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("PassThroughToggle", func() {
	var (
		d      *Draft
		toggle *PassThroughToggle
	)

	BeforeEach(func() {
		d = New(RawFields{"Title": str("Cafe X")}, "Food")
		toggle = NewPassThroughToggle(d)
	})

	It("flips edit mode", func() {
		Expect(toggle.Toggle()).To(Succeed())
		Expect(d.Editing()).To(BeTrue())
		Expect(toggle.Toggle()).To(Succeed())
		Expect(d.Editing()).To(BeFalse())
	})

	It("keeps edits when cancelled", func() {
		Expect(toggle.Toggle()).To(Succeed())
		Expect(d.Edit("Title", "Cafe Y")).To(Succeed())
		Expect(toggle.Cancel()).To(Succeed())
		Expect(d.Editing()).To(BeFalse())
		Expect(d.Get("Title")).To(Equal("Cafe Y"))
	})
})

var _ = Describe("RestoringToggle", func() {
	var (
		d      *Draft
		toggle *RestoringToggle
	)

	BeforeEach(func() {
		d = New(RawFields{"Title": str("Cafe X"), "Tax": str("1.00")}, "Food")
		toggle = NewRestoringToggle(d)
		Expect(toggle.Toggle()).To(Succeed())
		Expect(d.Edit("Title", "Cafe Y")).To(Succeed())
		Expect(d.Edit("Tax", "2.00")).To(Succeed())
	})

	It("restores the snapshot when cancelled", func() {
		Expect(toggle.Cancel()).To(Succeed())
		Expect(d.Editing()).To(BeFalse())
		Expect(d.Get("Title")).To(Equal("Cafe X"))
		Expect(d.Get("Tax")).To(Equal("1.00"))
	})

	It("restores the snapshot when toggled off", func() {
		Expect(toggle.Toggle()).To(Succeed())
		Expect(d.Get("Title")).To(Equal("Cafe X"))
	})

	It("keeps edits when committed", func() {
		Expect(toggle.Commit()).To(Succeed())
		Expect(d.Editing()).To(BeFalse())
		Expect(d.Get("Title")).To(Equal("Cafe Y"))

		By("not restoring on a later cancel")
		Expect(toggle.Cancel()).To(Succeed())
		Expect(d.Get("Title")).To(Equal("Cafe Y"))
	})

	It("cannot enter edit mode on a saved draft", func() {
		Expect(toggle.Commit()).To(Succeed())
		d.MarkSaved("doc-1")
		Expect(toggle.Toggle()).To(MatchError(ErrReadOnly))
	})
})

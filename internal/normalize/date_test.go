package normalize

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ParseDate", func() {
	DescribeTable("accepted shapes",
		func(raw string, expected time.Time) {
			t, ok := ParseDate(raw)
			Expect(ok).To(BeTrue())
			Expect(t).To(BeTemporally("==", expected))
			Expect(t.Location()).To(Equal(time.UTC))
		},
		Entry("ISO date", "2024-03-15", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)),
		Entry("RFC 3339", "2024-03-15T10:20:30Z", time.Date(2024, 3, 15, 10, 20, 30, 0, time.UTC)),
		Entry("stored timestamp", "2024-03-15T00:00:00.000Z", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)),
		Entry("named month", "March 15, 2024", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)),
		Entry("short named month", "Mar 5, 2024", time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)),
		Entry("day first", "15/03/2024", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)),
		Entry("two digit year with time", "15/03/24 14:30", time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)),
		Entry("seconds", "15-03-2024 14:30:45", time.Date(2024, 3, 15, 14, 30, 45, 0, time.UTC)),
		Entry("asterisk time separator", "15.03.2024 14*30", time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)),
		Entry("day above 12 stays put", "13/02/2024", time.Date(2024, 2, 13, 0, 0, 0, 0, time.UTC)),
		Entry("month above 12 is swapped", "02/13/2024", time.Date(2024, 2, 13, 0, 0, 0, 0, time.UTC)),
		Entry("ambiguous numeric date reads day first", "01/02/2024", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)),
	)

	DescribeTable("rejected input",
		func(raw string) {
			_, ok := ParseDate(raw)
			Expect(ok).To(BeFalse())
		},
		Entry("empty", ""),
		Entry("words", "yesterday"),
		Entry("both slots above 12", "13/13/2024"),
		Entry("day past month end", "31/02/2024"),
		Entry("three digit year", "15/03/202"),
		Entry("hour out of range", "15/03/2024 25:00"),
	)
})

var _ = Describe("DateOrNow", func() {
	var now time.Time

	BeforeEach(func() {
		now = time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	})

	It("keeps a parseable date", func() {
		Expect(DateOrNow("15/03/2024", now)).To(BeTemporally("==", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)))
	})

	// Secondary dates fall back silently; the receipt Date field is blocked
	// by the review gate instead.
	It("substitutes now for an unparseable date", func() {
		Expect(DateOrNow("not a date", now)).To(BeTemporally("==", now))
	})
})

var _ = Describe("ISO", func() {
	It("renders milliseconds and a Z suffix", func() {
		Expect(ISO(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))).To(Equal("2024-03-15T00:00:00.000Z"))
	})

	It("converts to UTC", func() {
		zone := time.FixedZone("plus5", 5*60*60)
		Expect(ISO(time.Date(2024, 3, 15, 5, 0, 0, 0, zone))).To(Equal("2024-03-15T00:00:00.000Z"))
	})
})

var _ = Describe("FormatDate", func() {
	It("renders parseable dates in ISO form", func() {
		Expect(FormatDate("15/03/2024")).To(Equal("2024-03-15T00:00:00.000Z"))
	})

	It("leaves unparseable text alone", func() {
		Expect(FormatDate(" soon ")).To(Equal("soon"))
	})
})

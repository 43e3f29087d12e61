package stats_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"wtftrace/stats"
	"wtftrace/trace"
)

func buildScopeZone(db *trace.Database, durationsMs ...float64) *trace.Zone {
	z := db.Zone("main", "renderer", "")
	enter := db.Types.Define("app#x", trace.ClassScope, 0, nil).ID
	leave := db.Types.Define(trace.TypeScopeLeave, trace.ClassInstance, 0, nil).ID

	tUs := int64(0)
	for _, d := range durationsMs {
		_, _ = z.Store.Insert(enter, tUs, nil)
		tUs += int64(d * 1000)
		_, _ = z.Store.Insert(leave, tUs, nil)
		tUs += 1000
	}
	_ = z.Rebuild()
	return z
}

var _ = Describe("Aggregator", func() {
	// S5: histogram scenario.
	It("buckets user durations and preserves total_time as the sum of actual durations", func() {
		db := trace.NewDatabase()
		z := buildScopeZone(db, 0.4, 5.7, 999.9)

		agg := stats.NewAggregator()
		agg.Rebuild([]*trace.Zone{z}, 0, 1<<40, nil)

		entry, ok := agg.Lookup("app#x")
		Expect(ok).To(BeTrue())
		Expect(entry.Count).To(BeEquivalentTo(3))
		Expect(entry.Histogram[0]).To(BeEquivalentTo(1))
		Expect(entry.Histogram[6]).To(BeEquivalentTo(1))
		Expect(entry.Histogram[999]).To(BeEquivalentTo(1))
		Expect(entry.TotalTimeMs).To(BeNumerically("~", 0.4+5.7+999.9, 0.001))

		var bucketSum int64
		for _, c := range entry.Histogram {
			bucketSum += c
		}
		Expect(bucketSum).To(Equal(entry.Count))
	})

	It("skips INTERNAL and BUILTIN flagged event types", func() {
		db := trace.NewDatabase()
		z := db.Zone("main", "renderer", "")
		internal := db.Types.Define("app#hidden", trace.ClassInstance, trace.FlagInternal, nil).ID
		visible := db.Types.Define("app#visible", trace.ClassInstance, 0, nil).ID
		_, _ = z.Store.Insert(internal, 0, nil)
		_, _ = z.Store.Insert(visible, 10, nil)
		Expect(z.Rebuild()).To(Succeed())

		agg := stats.NewAggregator()
		agg.Rebuild([]*trace.Zone{z}, 0, 1<<40, nil)

		_, ok := agg.Lookup("app#hidden")
		Expect(ok).To(BeFalse())
		_, ok = agg.Lookup("app#visible")
		Expect(ok).To(BeTrue())
	})

	It("orders TOTAL_TIME with scope entries before instance entries", func() {
		db := trace.NewDatabase()
		z := buildScopeZone(db, 10)
		instType := db.Types.Define("app#tick", trace.ClassInstance, 0, nil).ID
		_, _ = z.Store.Insert(instType, 999999, nil)
		Expect(z.Rebuild()).To(Succeed())

		agg := stats.NewAggregator()
		agg.Rebuild([]*trace.Zone{z}, 0, 1<<40, nil)

		var order []trace.EventClass
		agg.ForEach(stats.SortByTotalTime, func(e *stats.Entry) bool {
			order = append(order, e.Class)
			return true
		})
		Expect(order[0]).To(Equal(trace.ClassScope))
		Expect(order[len(order)-1]).To(Equal(trace.ClassInstance))
	})
})

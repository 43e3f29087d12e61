package trace_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/google/go-cmp/cmp"

	"wtftrace/trace"
)

func buildSampleStore() (*trace.TypeTable, *trace.EventStore) {
	types := trace.NewTypeTable()
	store := trace.NewEventStore(types)
	enter := types.Define(trace.TypeScopeEnter, trace.ClassScope, 0, nil).ID
	leave := types.Define(trace.TypeScopeLeave, trace.ClassInstance, 0, nil).ID

	_, _ = store.Insert(enter, 0, nameArgs("A"))
	_, _ = store.Insert(enter, 100, nameArgs("B"))
	_, _ = store.Insert(leave, 200, nil)
	_, _ = store.Insert(enter, 250, nameArgs("C"))
	_, _ = store.Insert(leave, 300, nil)
	_, _ = store.Insert(leave, 400, nil)
	return types, store
}

var _ = Describe("EventStore invariants", func() {
	It("sorts by (time, insertion order) and renumbers IDs to match index", func() {
		types := trace.NewTypeTable()
		store := trace.NewEventStore(types)
		et := types.Define("x", trace.ClassInstance, 0, nil).ID

		_, _ = store.Insert(et, 300, nil)
		_, _ = store.Insert(et, 100, nil)
		_, _ = store.Insert(et, 100, nil) // same time, later insertion
		_, _ = store.Insert(et, 200, nil)

		Expect(store.Rebuild()).To(Succeed())

		prevTime := int64(-1)
		for i := 0; i < store.Count(); i++ {
			it := store.GetEvent(i)
			Expect(it.ID()).To(Equal(i))
			Expect(it.TimeMs()).To(BeNumerically(">=", prevTime))
			prevTime = it.TimeMs()
		}
	})

	It("keeps every child's [time, end] within its parent scope's span", func() {
		_, store := buildSampleStore()
		Expect(store.Rebuild()).To(Succeed())

		for i := 0; i < store.Count(); i++ {
			child := store.GetEvent(i)
			parent := child.Parent(false)
			if parent.Done() {
				continue
			}
			Expect(child.TimeMs()).To(BeNumerically(">=", parent.TimeMs()))
			childEnd := child.TimeMs()
			if child.IsScope() {
				childEnd = child.EndTimeMs()
			}
			Expect(childEnd).To(BeNumerically("<=", parent.EndTimeMs()))
		}
	})

	It("enumerates a scope's direct children via the sibling chain, in time order, terminating at 0", func() {
		_, store := buildSampleStore()
		Expect(store.Rebuild()).To(Succeed())

		a := store.GetEvent(0)
		Expect(a.Name()).To(Equal("A"))

		first := store.GetEvent(1) // B, the first child of A
		Expect(first.Parent(false).ID()).To(Equal(a.ID()))

		var names []string
		cur := *first
		for !cur.Done() {
			names = append(names, cur.Name())
			cur.NextSibling()
		}
		Expect(names).To(Equal([]string{"B", "C"}))
	})

	It("is idempotent: rebuilding an already-rebuilt store is a no-op", func() {
		_, store := buildSampleStore()
		Expect(store.Rebuild()).To(Succeed())
		first := store.Snapshot()

		Expect(store.Rebuild()).To(Succeed())
		second := store.Snapshot()

		if diff := cmp.Diff(first, second); diff != "" {
			Fail("rebuild is not idempotent: " + diff)
		}
	})

	It("computes total = user + system/1000 within 1us and total >= own, child", func() {
		_, store := buildSampleStore()
		Expect(store.Rebuild()).To(Succeed())

		a := store.GetEvent(0)
		Expect(a.TotalDurationMs()).To(BeNumerically("~", a.UserDurationMs()+a.SystemTimeMs(), 0.001))
		Expect(a.TotalDurationMs()).To(BeNumerically(">=", a.OwnDurationMs()))
		Expect(a.TotalDurationMs()).To(BeNumerically(">=", a.ChildTimeMs()))
	})
})

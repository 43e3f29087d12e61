package trace_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"wtftrace/trace"
)

func nameArgs(name string) *trace.ArgumentData {
	return trace.NewArgs().Str("name", name).Build()
}

var _ = Describe("Scope rebuilder", func() {
	var (
		types *trace.TypeTable
		store *trace.EventStore

		enterID, leaveID uint32
	)

	BeforeEach(func() {
		types = trace.NewTypeTable()
		store = trace.NewEventStore(types)
		enterID = types.Define(trace.TypeScopeEnter, trace.ClassScope, 0, nil).ID
		leaveID = types.Define(trace.TypeScopeLeave, trace.ClassInstance, 0, nil).ID
	})

	// S1: nested scope timing.
	It("reconstructs nested scope timing in program order", func() {
		_, _ = store.Insert(enterID, 0, nameArgs("A"))
		_, _ = store.Insert(enterID, 100000, nameArgs("B"))
		_, _ = store.Insert(leaveID, 400000, nil)
		_, _ = store.Insert(leaveID, 500000, nil)

		Expect(store.Rebuild()).To(Succeed())

		a := store.Begin()
		Expect(a.Name()).To(Equal("A"))
		Expect(a.TimeMs()).To(BeEquivalentTo(0))
		Expect(a.EndTimeMs()).To(BeEquivalentTo(500))
		Expect(a.Depth()).To(Equal(0))
		Expect(a.ChildTimeMs()).To(BeEquivalentTo(300))
		Expect(a.SystemTimeMs()).To(BeEquivalentTo(0))

		b := store.GetEvent(1)
		Expect(b.Name()).To(Equal("B"))
		Expect(b.TimeMs()).To(BeEquivalentTo(100))
		Expect(b.EndTimeMs()).To(BeEquivalentTo(400))
		Expect(b.Depth()).To(Equal(1))
		Expect(b.Parent(false).ID()).To(Equal(a.ID()))
	})

	// S2: out-of-order insertion produces the same result as S1.
	It("produces identical output regardless of insertion order", func() {
		leaveB, _ := store.Insert(leaveID, 400000, nil)
		leaveA, _ := store.Insert(leaveID, 500000, nil)
		enterB, _ := store.Insert(enterID, 100000, nameArgs("B"))
		enterA, _ := store.Insert(enterID, 0, nameArgs("A"))
		_ = leaveB
		_ = leaveA
		_ = enterB
		_ = enterA

		Expect(store.Rebuild()).To(Succeed())

		a := store.GetEvent(0)
		b := store.GetEvent(1)
		Expect(a.Name()).To(Equal("A"))
		Expect(a.TimeMs()).To(BeEquivalentTo(0))
		Expect(a.EndTimeMs()).To(BeEquivalentTo(500))
		Expect(b.Name()).To(Equal("B"))
		Expect(b.TimeMs()).To(BeEquivalentTo(100))
		Expect(b.EndTimeMs()).To(BeEquivalentTo(400))
	})

	// S3: system-time attribution.
	It("attributes a SYSTEM_TIME-flagged child scope's duration to the parent", func() {
		sysType := types.Define("app#sysScope", trace.ClassScope, trace.FlagSystemTime, nil)

		aEnter, _ := store.Insert(enterID, 0, nameArgs("A"))
		_ = aEnter
		_, _ = store.Insert(sysType.ID, 50000, nil)
		_, _ = store.Insert(leaveID, 250000, nil) // closes sysType scope, duration 200ms
		_, _ = store.Insert(leaveID, 300000, nil) // closes A

		Expect(store.Rebuild()).To(Succeed())

		a := store.GetEvent(0)
		Expect(a.SystemTimeMs()).To(BeEquivalentTo(200))
		Expect(a.TotalDurationMs()).To(BeEquivalentTo(300))
		Expect(a.UserDurationMs()).To(BeEquivalentTo(100))
	})

	It("ignores appendScopeData and leave events with no open scope", func() {
		appendID := types.Define(trace.TypeScopeAppendData, trace.ClassInstance, 0, nil).ID
		_, _ = store.Insert(appendID, 0, nameArgs("orphan"))
		_, _ = store.Insert(leaveID, 1, nil)

		Expect(store.Rebuild()).To(Succeed())
		Expect(store.Count()).To(Equal(2))
	})

	It("merges appendScopeData into the open scope's arguments", func() {
		appendID := types.Define(trace.TypeScopeAppendData, trace.ClassInstance, 0, nil).ID

		_, _ = store.Insert(enterID, 0, nameArgs("A"))
		appendArgs := trace.NewArgs().Str("extra", "value").Build()
		_, _ = store.Insert(appendID, 10, appendArgs)
		_, _ = store.Insert(leaveID, 20, nil)

		Expect(store.Rebuild()).To(Succeed())

		a := store.GetEvent(0)
		v, ok := a.Argument("extra")
		Expect(ok).To(BeTrue())
		Expect(v.Str).To(Equal("value"))
	})

	It("resolves wtf.trace#timeStamp into a named instance type", func() {
		tsID := types.Define(trace.TypeTimeStamp, trace.ClassInstance, 0, nil).ID
		_, _ = store.Insert(tsID, 5, nameArgs("paint"))

		Expect(store.Rebuild()).To(Succeed())

		ev := store.GetEvent(0)
		Expect(ev.Name()).To(Equal("paint"))
		Expect(ev.IsInstance()).To(BeTrue())
	})
})

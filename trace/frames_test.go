package trace_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"wtftrace/trace"
)

var _ = Describe("FrameList", func() {
	// S4: an unmatched frameStart is discarded by the rebuild that runs
	// before its frameEnd ever arrives.
	It("discards an unmatched frameStart and resolves frame_at_time from complete frames only", func() {
		types := trace.NewTypeTable()
		store := trace.NewEventStore(types)
		frames := trace.NewFrameList()
		store.RegisterAncillary(frames)

		start := types.Define(trace.TypeFrameStart, trace.ClassInstance, 0, nil).ID
		end := types.Define(trace.TypeFrameEnd, trace.ClassInstance, 0, nil).ID

		numArgs := func(n int64) *trace.ArgumentData {
			return trace.NewArgumentData(trace.KeyValue{Key: "number", Value: trace.IntValue(n)})
		}

		_, _ = store.Insert(start, 1000, numArgs(1))
		_, _ = store.Insert(end, 17000, numArgs(1))
		_, _ = store.Insert(start, 17000, numArgs(2))

		Expect(store.Rebuild()).To(Succeed())

		Expect(frames.Count()).To(Equal(1))
		f := frames.At(0)
		Expect(f.Number).To(BeEquivalentTo(1))
		Expect(f.StartMs).To(BeEquivalentTo(1))
		Expect(f.EndMs).To(BeEquivalentTo(17))

		found := frames.FrameAtTime(10)
		Expect(found).NotTo(BeNil())
		Expect(found.Number).To(BeEquivalentTo(1))

		Expect(frames.FrameAtTime(20)).To(BeNil())
	})

	It("completes frame 2 once its frameEnd arrives on a later rebuild", func() {
		types := trace.NewTypeTable()
		store := trace.NewEventStore(types)
		frames := trace.NewFrameList()
		store.RegisterAncillary(frames)

		start := types.Define(trace.TypeFrameStart, trace.ClassInstance, 0, nil).ID
		end := types.Define(trace.TypeFrameEnd, trace.ClassInstance, 0, nil).ID
		numArgs := func(n int64) *trace.ArgumentData {
			return trace.NewArgumentData(trace.KeyValue{Key: "number", Value: trace.IntValue(n)})
		}

		_, _ = store.Insert(start, 1000, numArgs(1))
		_, _ = store.Insert(end, 17000, numArgs(1))
		_, _ = store.Insert(start, 17000, numArgs(2))
		Expect(store.Rebuild()).To(Succeed())
		Expect(frames.Count()).To(Equal(1))

		_, _ = store.Insert(end, 33000, numArgs(2))
		Expect(store.Rebuild()).To(Succeed())
		Expect(frames.Count()).To(Equal(2))
	})
})

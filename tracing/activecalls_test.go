package tracing

import (
	"bytes"
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/functrace/advice"
)

var _ = Describe("ActiveCallReporter", func() {
	var (
		table    *advice.Table
		registry *Registry
		active   *ActiveCallReporter
	)

	BeforeEach(func() {
		table = advice.NewTable()
		active = NewActiveCallReporter()
		registry = NewRegistry().WithReporter(active)
	})

	It("should list a call while it is in flight", func() {
		var inFlight []ActiveCall
		target := table.Define("demo", "work",
			func(ctx context.Context, args ...any) (any, error) {
				inFlight = active.ActiveCalls()
				return nil, nil
			})

		Expect(registry.Trace(target)).To(Succeed())

		_, err := target.Call(context.Background(), "job-1")
		Expect(err).ToNot(HaveOccurred())

		Expect(inFlight).To(HaveLen(1))
		Expect(inFlight[0].Target).To(Equal("demo/work"))
		Expect(inFlight[0].Depth).To(Equal(0))
		Expect(inFlight[0].Args).To(Equal([]any{"job-1"}))
	})

	It("should clear a call on completion", func() {
		target := table.Define("demo", "work",
			func(ctx context.Context, args ...any) (any, error) {
				return nil, nil
			})

		Expect(registry.Trace(target)).To(Succeed())

		_, err := target.Call(context.Background())
		Expect(err).ToNot(HaveOccurred())

		Expect(active.ActiveCalls()).To(BeEmpty())
	})

	It("should keep a call that ended in an error", func() {
		failing := table.Define("demo", "failing",
			func(ctx context.Context, args ...any) (any, error) {
				return nil, errors.New("boom")
			})

		Expect(registry.Trace(failing)).To(Succeed())

		_, err := failing.Call(context.Background())
		Expect(err).To(HaveOccurred())

		calls := active.ActiveCalls()
		Expect(calls).To(HaveLen(1))
		Expect(calls[0].Target).To(Equal("demo/failing"))
	})

	It("should order the snapshot parents first", func() {
		var inFlight []ActiveCall
		inner := table.Define("demo", "inner",
			func(ctx context.Context, args ...any) (any, error) {
				inFlight = active.ActiveCalls()
				return nil, nil
			})
		outer := table.Define("demo", "outer",
			func(ctx context.Context, args ...any) (any, error) {
				return inner.Call(ctx)
			})

		Expect(registry.Trace(outer)).To(Succeed())
		Expect(registry.Trace(inner)).To(Succeed())

		_, err := outer.Call(context.Background())
		Expect(err).ToNot(HaveOccurred())

		Expect(inFlight).To(HaveLen(2))
		Expect(inFlight[0].Target).To(Equal("demo/outer"))
		Expect(inFlight[1].Target).To(Equal("demo/inner"))
		Expect(inFlight[1].ParentID).To(Equal(inFlight[0].ID))
	})

	It("should dump an active call with its parent chain", func() {
		var dump bytes.Buffer
		inner := table.Define("demo", "inner",
			func(ctx context.Context, args ...any) (any, error) {
				active.DumpActive(&dump)
				return nil, nil
			})
		outer := table.Define("demo", "outer",
			func(ctx context.Context, args ...any) (any, error) {
				return inner.Call(ctx, "x")
			})

		Expect(registry.Trace(outer)).To(Succeed())
		Expect(registry.Trace(inner)).To(Succeed())

		_, err := outer.Call(context.Background(), 1)
		Expect(err).ToNot(HaveOccurred())

		Expect(dump.String()).To(Equal(
			"active: demo/outer (1)\n" +
				"active: demo/inner (\"x\")\n" +
				"  in: demo/outer\n"))
	})

	It("should ignore reports without a call ID", func() {
		active.Before(context.Background(), []any{1})

		Expect(active.ActiveCalls()).To(BeEmpty())
	})
})

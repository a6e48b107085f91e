package monitoring

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"

	"github.com/gorilla/mux"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/functrace/advice"
	"github.com/sarchlab/functrace/tracing"
)

// record invokes one handler directly, injecting mux path variables when the
// handler reads them.
func record(
	h http.HandlerFunc,
	vars map[string]string,
) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if vars != nil {
		r = mux.SetURLVars(r, vars)
	}

	h(w, r)

	return w
}

func mustLookup(t *advice.Table, namespace, name string) *advice.Slot {
	s, ok := t.Lookup(namespace, name)
	Expect(ok).To(BeTrue())

	return s
}

var _ = Describe("Monitor", func() {
	var (
		table    *advice.Table
		registry *tracing.Registry
		m        *Monitor
	)

	BeforeEach(func() {
		table = advice.NewTable()
		table.Define("math", "double",
			func(_ context.Context, args ...any) (any, error) {
				return args[0].(int) * 2, nil
			})
		table.Define("math", "square",
			func(_ context.Context, args ...any) (any, error) {
				n := args[0].(int)
				return n * n, nil
			})
		table.Define("text", "greet",
			func(_ context.Context, args ...any) (any, error) {
				return "hi " + args[0].(string), nil
			})
		table.Define("math", "broken", nil)

		registry = tracing.NewRegistry().
			WithWriter(io.Discard).
			WithLogger(log.New(io.Discard, "", 0))

		m = NewMonitor().
			WithTable(table).
			WithRegistry(registry)
	})

	It("should list targets with their traced state", func() {
		Expect(registry.Trace(mustLookup(table, "math", "double"))).
			To(Succeed())

		rec := record(m.listTargets, nil)

		var targets []targetRsp
		Expect(json.Unmarshal(rec.Body.Bytes(), &targets)).To(Succeed())
		Expect(targets).To(Equal([]targetRsp{
			{Namespace: "math", Name: "broken", Traced: false, Bound: false},
			{Namespace: "math", Name: "double", Traced: true, Bound: true},
			{Namespace: "math", Name: "square", Traced: false, Bound: true},
			{Namespace: "text", Name: "greet", Traced: false, Bound: true},
		}))
	})

	It("should trace a target", func() {
		rec := record(m.traceTarget,
			map[string]string{"namespace": "math", "name": "double"})

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(registry.IsTraced(mustLookup(table, "math", "double"))).
			To(BeTrue())

		result, err := table.Call(context.Background(), "math", "double", 21)
		Expect(err).ToNot(HaveOccurred())
		Expect(result).To(Equal(42))
	})

	It("should refuse to trace an unknown target", func() {
		rec := record(m.traceTarget,
			map[string]string{"namespace": "math", "name": "missing"})

		Expect(rec.Code).To(Equal(http.StatusNotFound))
		Expect(rec.Body.String()).To(Equal("Target not found"))
	})

	It("should refuse to trace a target with no bound function", func() {
		rec := record(m.traceTarget,
			map[string]string{"namespace": "math", "name": "broken"})

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(rec.Body.String()).To(
			ContainSubstring("does not resolve to a callable function"))
	})

	It("should untrace a target", func() {
		Expect(registry.Trace(mustLookup(table, "math", "double"))).
			To(Succeed())

		rec := record(m.untraceTarget,
			map[string]string{"namespace": "math", "name": "double"})

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(registry.Traced()).To(BeEmpty())
	})

	It("should accept untracing a target that is not traced", func() {
		rec := record(m.untraceTarget,
			map[string]string{"namespace": "math", "name": "double"})

		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("should untrace a namespace", func() {
		Expect(registry.Trace(mustLookup(table, "math", "double"))).
			To(Succeed())
		Expect(registry.Trace(mustLookup(table, "math", "square"))).
			To(Succeed())
		Expect(registry.Trace(mustLookup(table, "text", "greet"))).
			To(Succeed())

		rec := record(m.untraceNamespace,
			map[string]string{"namespace": "math"})

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(registry.Traced()).To(HaveLen(1))
		Expect(registry.Traced()[0].String()).To(Equal("text/greet"))
	})

	It("should untrace everything", func() {
		Expect(registry.Trace(mustLookup(table, "math", "double"))).
			To(Succeed())
		Expect(registry.Trace(mustLookup(table, "text", "greet"))).
			To(Succeed())

		rec := record(m.untraceAll, nil)

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(registry.Traced()).To(BeEmpty())
	})

	It("should list traced targets", func() {
		Expect(registry.Trace(mustLookup(table, "math", "double"))).
			To(Succeed())
		Expect(registry.Trace(mustLookup(table, "text", "greet"))).
			To(Succeed())

		rec := record(m.listTraced, nil)

		Expect(rec.Body.String()).To(Equal(`["math/double","text/greet"]`))
	})

	It("should serialize target details", func() {
		rec := record(m.listTargetDetails,
			map[string]string{"namespace": "math", "name": "broken"})

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.Len()).ToNot(BeZero())
	})

	It("should report calls in flight", func() {
		active := tracing.NewActiveCallReporter()
		registry.WithReporter(active)
		m.WithActiveCallReporter(active)

		captured := ""
		table.Define("demo", "watch",
			func(_ context.Context, _ ...any) (any, error) {
				rec := record(m.listActiveCalls, nil)
				captured = rec.Body.String()
				return nil, nil
			})
		Expect(registry.Trace(mustLookup(table, "demo", "watch"))).
			To(Succeed())

		_, err := table.Call(context.Background(), "demo", "watch", 1)
		Expect(err).ToNot(HaveOccurred())

		Expect(captured).To(ContainSubstring(`"target":"demo/watch"`))

		rec := record(m.listActiveCalls, nil)
		Expect(rec.Body.String()).To(Equal("[]"))
	})

	It("should count calls per target", func() {
		stats := NewCallStats()
		registry.WithReporter(stats)
		m.WithCallStats(stats)

		Expect(registry.Trace(mustLookup(table, "math", "double"))).
			To(Succeed())

		for i := 0; i < 3; i++ {
			_, err := table.Call(context.Background(), "math", "double", i)
			Expect(err).ToNot(HaveOccurred())
		}

		rec := record(m.listCallCounters, nil)

		var counters []struct {
			Target     string `json:"target"`
			Started    uint64 `json:"started"`
			Returned   uint64 `json:"returned"`
			InProgress uint64 `json:"in_progress"`
		}
		Expect(json.Unmarshal(rec.Body.Bytes(), &counters)).To(Succeed())
		Expect(counters).To(HaveLen(1))
		Expect(counters[0].Target).To(Equal("math/double"))
		Expect(counters[0].Started).To(Equal(uint64(3)))
		Expect(counters[0].Returned).To(Equal(uint64(3)))
		Expect(counters[0].InProgress).To(BeZero())
	})

	It("should toggle eager forcing", func() {
		rec := record(m.setForcing, map[string]string{"enable": "false"})

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(registry.EagerForcing()).To(BeFalse())

		rec = record(m.listForcing, nil)
		Expect(rec.Body.String()).To(Equal(`{"eager_forcing":false}`))
	})

	It("should reject an invalid forcing state", func() {
		rec := record(m.setForcing, map[string]string{"enable": "sometimes"})

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})
})

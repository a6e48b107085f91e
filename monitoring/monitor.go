// Package monitoring turns a program's dispatch table and trace registry
// into a web server, so tracing can be inspected and controlled while the
// program runs.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/sarchlab/functrace/advice"
	"github.com/sarchlab/functrace/monitoring/web"
	"github.com/sarchlab/functrace/tracing"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
)

// Monitor serves a dispatch table and a trace registry over HTTP, allowing
// external inspection and control of which functions are traced.
type Monitor struct {
	table      *advice.Table
	registry   *tracing.Registry
	active     *tracing.ActiveCallReporter
	stats      *CallStats
	portNumber int
	browse     bool
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithTable sets the dispatch table whose targets the monitor lists and
// traces.
func (m *Monitor) WithTable(t *advice.Table) *Monitor {
	m.table = t

	return m
}

// WithRegistry sets the registry that carries out the monitor's trace and
// untrace requests.
func (m *Monitor) WithRegistry(r *tracing.Registry) *Monitor {
	m.registry = r

	return m
}

// WithActiveCallReporter sets the reporter whose in-flight calls the monitor
// shows. The reporter must also be attached to the registry, typically
// through a MultiReporter, or it sees no calls.
func (m *Monitor) WithActiveCallReporter(a *tracing.ActiveCallReporter) *Monitor {
	m.active = a

	return m
}

// WithCallStats sets the per-target call counters the monitor shows. Like
// the active-call reporter, the stats only fill up while attached to the
// registry.
func (m *Monitor) WithCallStats(s *CallStats) *Monitor {
	m.stats = s

	return m
}

// OpenBrowser makes StartServer open the monitor page in the default
// browser once the server is listening.
func (m *Monitor) OpenBrowser() *Monitor {
	m.browse = true

	return m
}

// StartServer starts the monitor as a web server with a custom port if
// wanted.
func (m *Monitor) StartServer() {
	r := mux.NewRouter()

	fs := web.GetAssets()
	fServer := http.FileServer(fs)
	r.HandleFunc("/api/targets", m.listTargets)
	r.HandleFunc("/api/traced", m.listTraced)
	r.HandleFunc("/api/trace/{namespace}/{name}", m.traceTarget).
		Methods("POST")
	r.HandleFunc("/api/untrace/{namespace}/{name}", m.untraceTarget).
		Methods("POST")
	r.HandleFunc("/api/untrace_namespace/{namespace}", m.untraceNamespace).
		Methods("POST")
	r.HandleFunc("/api/untrace_all", m.untraceAll).Methods("POST")
	r.HandleFunc("/api/target/{namespace}/{name}", m.listTargetDetails)
	r.HandleFunc("/api/active", m.listActiveCalls)
	r.HandleFunc("/api/progress", m.listCallCounters)
	r.HandleFunc("/api/forcing", m.listForcing)
	r.HandleFunc("/api/forcing/{enable}", m.setForcing).Methods("POST")
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)
	r.PathPrefix("/").Handler(fServer)

	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)

	fmt.Fprintf(os.Stderr, "Monitoring traced functions with %s\n", url)

	if m.browse {
		err := browser.OpenURL(url)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open browser: %s\n", err)
		}
	}

	go func() {
		err = http.Serve(listener, r)
		dieOnErr(err)
	}()
}

type targetRsp struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
	Traced    bool   `json:"traced"`
	Bound     bool   `json:"bound"`
}

func (m *Monitor) listTargets(w http.ResponseWriter, _ *http.Request) {
	slots := m.table.Slots()

	rsp := make([]targetRsp, 0, len(slots))
	for _, s := range slots {
		rsp = append(rsp, targetRsp{
			Namespace: s.Namespace(),
			Name:      s.Name(),
			Traced:    m.registry.IsTraced(s),
			Bound:     s.Resolve() != nil,
		})
	}

	bytes, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) listTraced(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprint(w, "[")
	for i, s := range m.registry.Traced() {
		if i > 0 {
			fmt.Fprint(w, ",")
		}

		fmt.Fprintf(w, "\"%s\"", s.String())
	}
	fmt.Fprint(w, "]")
}

func (m *Monitor) traceTarget(w http.ResponseWriter, r *http.Request) {
	target := m.findTargetOr404(w, r)
	if target == nil {
		return
	}

	err := m.registry.Trace(target)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) untraceTarget(w http.ResponseWriter, r *http.Request) {
	target := m.findTargetOr404(w, r)
	if target == nil {
		return
	}

	m.registry.Untrace(target)
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) untraceNamespace(w http.ResponseWriter, r *http.Request) {
	namespace := mux.Vars(r)["namespace"]

	m.registry.UntraceNamespace(namespace)
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) untraceAll(w http.ResponseWriter, _ *http.Request) {
	m.registry.UntraceAll()
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) listTargetDetails(w http.ResponseWriter, r *http.Request) {
	target := m.findTargetOr404(w, r)
	if target == nil {
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(target)
	serializer.SetMaxDepth(1)
	err := serializer.Serialize(w)

	dieOnErr(err)
}

func (m *Monitor) listActiveCalls(w http.ResponseWriter, _ *http.Request) {
	calls := []tracing.ActiveCall{}
	if m.active != nil {
		calls = m.active.ActiveCalls()
	}

	bytes, err := json.Marshal(calls)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) listCallCounters(w http.ResponseWriter, _ *http.Request) {
	counters := []*CallCounter{}
	if m.stats != nil {
		counters = m.stats.Counters()
	}

	bytes, err := json.Marshal(counters)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) listForcing(w http.ResponseWriter, _ *http.Request) {
	fmt.Fprintf(w, "{\"eager_forcing\":%t}", m.registry.EagerForcing())
}

func (m *Monitor) setForcing(w http.ResponseWriter, r *http.Request) {
	enable, err := strconv.ParseBool(mux.Vars(r)["enable"])
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, "Error: %s", err)
		return
	}

	m.registry.WithEagerForcing(enable)
	w.WriteHeader(http.StatusOK)
}

func (m *Monitor) findTargetOr404(
	w http.ResponseWriter,
	r *http.Request,
) *advice.Slot {
	namespace := mux.Vars(r)["namespace"]
	name := mux.Vars(r)["name"]

	target, ok := m.table.Lookup(namespace, name)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Target not found"))
		dieOnErr(err)

		return nil
	}

	return target
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	}

	bytes, err := json.Marshal(rsp)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	dieOnErr(err)

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	bytes, err := json.Marshal(prof)
	dieOnErr(err)

	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}

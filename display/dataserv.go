package madrigal

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/maroda/madrigal/cycle"
	Mpat "github.com/maroda/madrigal/pattern"
	Mp "github.com/maroda/madrigal/plugin"
	Mt "github.com/maroda/madrigal/types"
)

var Version = "dev"

// SetupMux handles all data serving:
// - Prometheus metric endpoint
// - Websocket trigger stream
// - Transport control, tempo and sliders
// - Version and system info for programmatic use
func (v *View) SetupMux() *mux.Router {
	r := mux.NewRouter()

	if v.Stats != nil {
		r.Handle("/metrics", v.Stats.Handler())
	}
	r.HandleFunc("/ws", v.WebsocketHandler)

	api := r.PathPrefix("/api").Subrouter()
	if v.Stats != nil {
		api.Use(v.StatsMiddleware)
	}
	api.HandleFunc("/version", v.VersionHandler)
	api.HandleFunc("/transport", v.TransportHandler)
	api.HandleFunc("/transport/{command}", v.TransportControlHandler)
	api.HandleFunc("/cps", v.CPSHandler)
	api.HandleFunc("/sliders", v.SlidersHandler)
	api.HandleFunc("/sliders/{name}", v.SliderSetHandler)
	api.HandleFunc("/system", v.SystemInfoHandler)
	api.HandleFunc("/activity", v.ActivityHandler)
	api.HandleFunc("/samples", v.SamplesHandler)
	api.HandleFunc("/samples/{key}", v.SampleLookupHandler)

	return r
}

// Handler is the full API with tracing around it
func (v *View) Handler() http.Handler {
	return otelhttp.NewHandler(v.SetupMux(), "madrigal")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Could not encode response", slog.Any("error", err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (v *View) VersionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": Version})
}

// WebsocketHandler hands the connection to the Hub
func (v *View) WebsocketHandler(w http.ResponseWriter, r *http.Request) {
	if v.Hub == nil {
		writeError(w, http.StatusServiceUnavailable, "no websocket stream")
		return
	}
	v.Hub.WebsocketHandler(w, r)
}

// TransportStatus is the transport snapshot plus the counters around it
type TransportStatus struct {
	Mt.Transport
	Fired int64 `json:"fired"`
	Rate  int64 `json:"rate"`
}

func (v *View) transportStatus() TransportStatus {
	status := TransportStatus{
		Transport: v.Engine.State(),
		Fired:     v.Engine.Fired(),
	}
	if v.Rate != nil {
		status.Rate = v.Rate()
	}
	return status
}

func (v *View) TransportHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "invalid method")
		return
	}
	writeJSON(w, http.StatusOK, v.transportStatus())
}

// TransportControlHandler runs /api/transport/{start|pause|resume|stop}
func (v *View) TransportControlHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "invalid method")
		return
	}

	command := mux.Vars(r)["command"]

	var err error
	switch command {
	case "start":
		err = v.Engine.Start()
	case "pause":
		err = v.Engine.Pause()
	case "resume":
		err = v.Engine.Resume()
	case "stop":
		err = v.Engine.Stop()
	default:
		writeError(w, http.StatusBadRequest, "invalid command: "+command)
		return
	}
	if err != nil {
		slog.Warn("Transport command refused", slog.String("command", command), slog.Any("error", err))
		writeError(w, http.StatusConflict, err.Error())
		return
	}

	slog.Info("Transport command", slog.String("command", command))
	writeJSON(w, http.StatusOK, v.transportStatus())
}

// CPSHandler reads or sets the tempo, as {"cps": "3/4"}
func (v *View) CPSHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]string{"cps": v.Engine.State().CPS})
		return
	case http.MethodPost, http.MethodPut:
	default:
		writeError(w, http.StatusMethodNotAllowed, "invalid method")
		return
	}

	var body struct {
		CPS string `json:"cps"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	cps, err := cycle.Parse(body.CPS)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid cps: "+err.Error())
		return
	}
	if err := v.Engine.SetCPS(cps); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"cps": cps.String()})
}

// SamplesHandler lists the sounds of the loaded sample maps
func (v *View) SamplesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "invalid method")
		return
	}
	names := []string{}
	if v.Samples != nil {
		names = v.Samples.Names()
	}
	writeJSON(w, http.StatusOK, names)
}

// SampleLookupHandler resolves a dotted key like "bd.1" to its file
func (v *View) SampleLookupHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "invalid method")
		return
	}
	key := mux.Vars(r)["key"]
	if v.Samples == nil {
		writeError(w, http.StatusNotFound, "no sample maps loaded")
		return
	}
	file, err := v.Samples.Lookup(key)
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{key: file})
}

func (v *View) SlidersHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "invalid method")
		return
	}
	values := map[string]float64{}
	if v.Sliders != nil {
		values = v.Sliders.Values()
	}
	writeJSON(w, http.StatusOK, values)
}

// SliderSetHandler moves one slider, as {"value": 0.5}.
// The value is clamped to the slider's range and the clamped value returned.
func (v *View) SliderSetHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "invalid method")
		return
	}

	name := mux.Vars(r)["name"]
	if v.Sliders == nil {
		writeError(w, http.StatusNotFound, "no slider "+name)
		return
	}

	var body struct {
		Value *float64 `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Value == nil {
		writeError(w, http.StatusBadRequest, "invalid body, want {\"value\": number}")
		return
	}

	got, err := v.Sliders.Set(name, *body.Value)
	var unknown *Mpat.UnknownReferenceError
	if errors.As(err, &unknown) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{name: got})
}

// SystemInfo is what /api/system reports
type SystemInfo struct {
	Version     string   `json:"version"`
	Sheet       string   `json:"sheet"`
	Outputs     []string `json:"outputs"`
	Clients     int      `json:"clients"`
	MIDIPort    string   `json:"midiPort,omitempty"`
	MIDIChannel int      `json:"midiChannel,omitempty"`
	MIDIPorts   []string `json:"midiPorts,omitempty"`
}

func (v *View) SystemInfoHandler(w http.ResponseWriter, r *http.Request) {
	info := SystemInfo{
		Version: Version,
		Sheet:   v.Sheet,
	}
	for _, o := range outputsOf(v.Output) {
		info.Outputs = append(info.Outputs, o.Type())
	}
	if v.Hub != nil {
		info.Clients = v.Hub.Clients()
	}
	v.getMIDISystemInfo(&info)

	writeJSON(w, http.StatusOK, info)
}

// outputsOf flattens a Fanout into the outputs it feeds
func outputsOf(o Mp.OutputAdapter) []Mp.OutputAdapter {
	if o == nil {
		return nil
	}
	f, ok := o.(*Mp.Fanout)
	if !ok {
		return []Mp.OutputAdapter{o}
	}
	if f == nil {
		return nil
	}
	var all []Mp.OutputAdapter
	for _, inner := range f.Outputs {
		all = append(all, outputsOf(inner)...)
	}
	return all
}

// ActivityEntry is one sound's timeline
type ActivityEntry struct {
	Sound    string `json:"sound"`
	Count    int64  `json:"count"`
	Timeline string `json:"timeline"`
}

func (v *View) ActivityHandler(w http.ResponseWriter, r *http.Request) {
	entries := []ActivityEntry{}
	if v.Activity != nil {
		for _, name := range v.Activity.Names() {
			entries = append(entries, ActivityEntry{
				Sound:    name,
				Count:    v.Activity.Count(name),
				Timeline: strings.ReplaceAll(string(v.Activity.GetDisplay(name)), "\x00", " "),
			})
		}
	}
	writeJSON(w, http.StatusOK, entries)
}

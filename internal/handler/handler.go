package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"wifiutils/internal/adapter"
	"wifiutils/internal/bridge"
	"wifiutils/internal/codec"
	"wifiutils/internal/core/bootstrap"
	"wifiutils/internal/domain"
)

// Executor runs bridge actions
type Executor interface {
	ExecuteContext(ctx context.Context, action string, args json.RawMessage, cb bridge.Callback) bool
}

// Journal is the read side of the repository plus neighbour import
type Journal interface {
	ListTransitions(ctx context.Context, limit int) ([]domain.Transition, error)
	LatestReport(ctx context.Context) (*domain.AdapterReport, error)
	ListNeighbors(ctx context.Context) ([]domain.Neighbor, error)
	UpsertNeighbors(ctx context.Context, neighbors []domain.Neighbor) error
}

// AdapterRegistry lists platform monitors and triggers them by hand
type AdapterRegistry interface {
	ListAdapters() []adapter.AdapterInfo
	TriggerSync(ctx context.Context, name string) error
}

// CapabilitySource reports what the startup bootstrap found
type CapabilitySource interface {
	Capabilities() bootstrap.Capabilities
}

const (
	defaultTransitionLimit = 100
	maxImportBytes         = 4 << 20
)

// InspectorHandler serves the inspector API
type InspectorHandler struct {
	exec         Executor
	journal      Journal
	adapters     AdapterRegistry
	capabilities CapabilitySource
}

// NewInspectorHandler creates a handler dispatching actions to exec
func NewInspectorHandler(exec Executor, journal Journal) *InspectorHandler {
	return &InspectorHandler{exec: exec, journal: journal}
}

// SetAdapterRegistry sets the adapter registry
func (h *InspectorHandler) SetAdapterRegistry(r AdapterRegistry) {
	h.adapters = r
}

// SetCapabilitySource sets the bootstrap result
func (h *InspectorHandler) SetCapabilitySource(c CapabilitySource) {
	h.capabilities = c
}

// Register adds the API routes to mux
func (h *InspectorHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/actions/{action}", h.ExecuteAction)
	mux.HandleFunc("GET /api/actions/onConnectionStateChange", h.StreamStates)
	mux.HandleFunc("GET /api/infos", h.GetInfos)
	mux.HandleFunc("GET /api/transitions", h.ListTransitions)
	mux.HandleFunc("GET /api/reports/latest", h.LatestReport)
	mux.HandleFunc("GET /api/neighbors", h.ListNeighbors)
	mux.HandleFunc("GET /api/capabilities", h.GetCapabilities)
	mux.HandleFunc("GET /api/adapters", h.ListAdapters)
	mux.HandleFunc("POST /api/adapters/{name}/sync", h.TriggerSync)
	mux.HandleFunc("GET /api/export", h.Export)
	mux.HandleFunc("POST /api/import", h.Import)
}

// ErrorResponse is the body of every non-bridge error
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type outcome struct {
	result interface{}
	doc    *bridge.ErrorDocument
}

// run executes a one-shot action and waits for its callback
func (h *InspectorHandler) run(ctx context.Context, action string, args json.RawMessage) (outcome, bool, error) {
	done := make(chan outcome, 1)
	cb := bridge.CallbackFuncs{
		OnSuccess: func(result interface{}) { done <- outcome{result: result} },
		OnError:   func(doc bridge.ErrorDocument) { done <- outcome{doc: &doc} },
	}
	if !h.exec.ExecuteContext(ctx, action, args, cb) {
		return outcome{}, false, nil
	}
	select {
	case out := <-done:
		return out, true, nil
	case <-ctx.Done():
		return outcome{}, true, ctx.Err()
	}
}

// ExecuteAction runs the bridge action named in the path. The request body,
// if any, is passed through as the action's arguments.
func (h *InspectorHandler) ExecuteAction(w http.ResponseWriter, r *http.Request) {
	action := r.PathValue("action")
	if action == bridge.ActionOnConnectionStateChange {
		h.StreamStates(w, r)
		return
	}

	var args json.RawMessage
	if r.Body != nil {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
		if err != nil {
			h.writeError(w, "Failed to read request body", err.Error(), http.StatusBadRequest)
			return
		}
		if len(body) > 0 {
			args = body
		}
	}

	out, known, err := h.run(r.Context(), action, args)
	if !known {
		h.writeError(w, bridge.ErrUnknownAction.Error(), action, http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("Action %s abandoned: %v", action, err)
		return
	}
	if out.doc != nil {
		h.writeJSON(w, out.doc, http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, out.result, http.StatusOK)
}

// StreamStates registers an onConnectionStateChange subscriber for the
// lifetime of the request and streams every delivered label as SSE
func (h *InspectorHandler) StreamStates(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.writeError(w, "Streaming not supported", "", http.StatusInternalServerError)
		return
	}

	states := make(chan string, 16)
	failed := make(chan bridge.ErrorDocument, 1)
	cb := bridge.CallbackFuncs{
		OnSuccess: func(result interface{}) {
			s, _ := result.(string)
			select {
			case states <- s:
			default:
				log.Printf("State stream is slow, dropping %s", s)
			}
		},
		OnError: func(doc bridge.ErrorDocument) {
			select {
			case failed <- doc:
			default:
			}
		},
	}
	h.exec.ExecuteContext(r.Context(), bridge.ActionOnConnectionStateChange, nil, cb)

	select {
	case doc := <-failed:
		h.writeJSON(w, doc, http.StatusInternalServerError)
		return
	default:
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case s := <-states:
			if _, err := fmt.Fprintf(w, "event: state\ndata: %s\n\n", s); err != nil {
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

// GetInfos inspects the adapter now. ?format=yaml renders the report with
// the YAML codec.
func (h *InspectorHandler) GetInfos(w http.ResponseWriter, r *http.Request) {
	out, _, err := h.run(r.Context(), bridge.ActionGetInfos, nil)
	if err != nil {
		return
	}
	if out.doc != nil {
		h.writeJSON(w, out.doc, http.StatusInternalServerError)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		h.writeJSON(w, out.result, http.StatusOK)
		return
	}
	report, _ := out.result.(*domain.AdapterReport)
	h.writeSnapshot(w, format, &codec.Snapshot{ExportedAt: time.Now().UTC(), Report: report})
}

// ListTransitions returns the newest journaled transitions
func (h *InspectorHandler) ListTransitions(w http.ResponseWriter, r *http.Request) {
	limit := defaultTransitionLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.writeError(w, "Invalid limit", v, http.StatusBadRequest)
			return
		}
		limit = n
	}

	transitions, err := h.journal.ListTransitions(r.Context(), limit)
	if err != nil {
		log.Printf("Failed to list transitions: %v", err)
		h.writeError(w, "Failed to list transitions", err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, transitions, http.StatusOK)
}

// LatestReport returns the last report forwarded by the notifier
func (h *InspectorHandler) LatestReport(w http.ResponseWriter, r *http.Request) {
	report, err := h.journal.LatestReport(r.Context())
	if err != nil {
		log.Printf("Failed to get latest report: %v", err)
		h.writeError(w, "Failed to get latest report", err.Error(), http.StatusInternalServerError)
		return
	}
	if report == nil {
		h.writeError(w, "No report recorded yet", "", http.StatusNotFound)
		return
	}
	h.writeJSON(w, report, http.StatusOK)
}

// ListNeighbors returns hosts seen on the active subnet
func (h *InspectorHandler) ListNeighbors(w http.ResponseWriter, r *http.Request) {
	neighbors, err := h.journal.ListNeighbors(r.Context())
	if err != nil {
		log.Printf("Failed to list neighbors: %v", err)
		h.writeError(w, "Failed to list neighbors", err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, neighbors, http.StatusOK)
}

// GetCapabilities returns the bootstrap evidence summary
func (h *InspectorHandler) GetCapabilities(w http.ResponseWriter, r *http.Request) {
	if h.capabilities == nil {
		h.writeError(w, "Capabilities not available", "bootstrap has not run", http.StatusServiceUnavailable)
		return
	}
	h.writeJSON(w, h.capabilities.Capabilities(), http.StatusOK)
}

// ListAdapters returns the registered platform monitors
func (h *InspectorHandler) ListAdapters(w http.ResponseWriter, r *http.Request) {
	if h.adapters == nil {
		h.writeJSON(w, []adapter.AdapterInfo{}, http.StatusOK)
		return
	}
	h.writeJSON(w, h.adapters.ListAdapters(), http.StatusOK)
}

// TriggerSync runs one sync of the named adapter
func (h *InspectorHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	if h.adapters == nil {
		h.writeError(w, "Adapter registry not configured", "", http.StatusServiceUnavailable)
		return
	}
	name := r.PathValue("name")
	if err := h.adapters.TriggerSync(r.Context(), name); err != nil {
		log.Printf("Failed to sync adapter %s: %v", name, err)
		h.writeError(w, "Failed to sync adapter", err.Error(), http.StatusBadRequest)
		return
	}
	h.writeJSON(w, map[string]string{"status": "synced", "adapter": name}, http.StatusOK)
}

// Export writes the journal as a snapshot in the requested format
func (h *InspectorHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := &codec.Snapshot{ExportedAt: time.Now().UTC()}

	var err error
	if s.Report, err = h.journal.LatestReport(ctx); err != nil {
		log.Printf("Failed to export report: %v", err)
		h.writeError(w, "Failed to export", err.Error(), http.StatusInternalServerError)
		return
	}
	if s.Transitions, err = h.journal.ListTransitions(ctx, defaultTransitionLimit); err != nil {
		log.Printf("Failed to export transitions: %v", err)
		h.writeError(w, "Failed to export", err.Error(), http.StatusInternalServerError)
		return
	}
	if s.Neighbors, err = h.journal.ListNeighbors(ctx); err != nil {
		log.Printf("Failed to export neighbors: %v", err)
		h.writeError(w, "Failed to export", err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeSnapshot(w, r.URL.Query().Get("format"), s)
}

// Import merges the neighbours of an uploaded snapshot or inventory into
// the journal
func (h *InspectorHandler) Import(w http.ResponseWriter, r *http.Request) {
	c, err := codec.ForFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.writeError(w, "Unsupported format", err.Error(), http.StatusBadRequest)
		return
	}

	s, err := c.Parse(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		h.writeError(w, "Failed to parse import", err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.journal.UpsertNeighbors(r.Context(), s.Neighbors); err != nil {
		log.Printf("Failed to import neighbors: %v", err)
		h.writeError(w, "Failed to import neighbors", err.Error(), http.StatusInternalServerError)
		return
	}

	log.Printf("Imported %d neighbors (%s)", len(s.Neighbors), c.Format())
	h.writeJSON(w, map[string]int{"imported": len(s.Neighbors)}, http.StatusOK)
}

func (h *InspectorHandler) writeSnapshot(w http.ResponseWriter, format string, s *codec.Snapshot) {
	c, err := codec.ForFormat(format)
	if err != nil {
		h.writeError(w, "Unsupported format", err.Error(), http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", c.ContentType())
	if err := c.Export(s, w); err != nil {
		log.Printf("Failed to export %s: %v", c.Format(), err)
	}
}

func (h *InspectorHandler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Failed to encode JSON: %v", err)
	}
}

func (h *InspectorHandler) writeError(w http.ResponseWriter, error, details string, statusCode int) {
	h.writeJSON(w, ErrorResponse{Error: error, Details: details}, statusCode)
}

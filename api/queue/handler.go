// Package queue exposes the dispatch queue, batch optimizer and pack tracker
// over a small JSON HTTP API consumed by the dashboard.
package queue

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/parcelops/dispatchd/core/batch"
	"github.com/parcelops/dispatchd/core/logger"
	"github.com/parcelops/dispatchd/core/model"
	"github.com/parcelops/dispatchd/core/pack"
	corequeue "github.com/parcelops/dispatchd/core/queue"
)

// Handler serves the dashboard API.
type Handler struct {
	queue   *corequeue.Manager
	opt     *batch.Optimizer
	tracker *pack.Tracker
	log     logger.Logger
}

// NewHandler creates the API handler.
func NewHandler(q *corequeue.Manager, opt *batch.Optimizer, tracker *pack.Tracker, log logger.Logger) *Handler {
	return &Handler{queue: q, opt: opt, tracker: tracker, log: log}
}

// Routes returns the ServeMux with all API endpoints registered.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/queue/top", h.handleTop)
	mux.HandleFunc("/api/batches", h.handleBatches)
	mux.HandleFunc("/api/batches/execute", h.handleExecuteBatch)
	mux.HandleFunc("/api/pack/start", h.handlePackStart)
	mux.HandleFunc("/api/pack/status", h.handlePackStatus)
	mux.HandleFunc("/api/pack/sessions", h.handleSessions)
	mux.HandleFunc("/api/pack/metrics", h.handleWorkerMetrics)
	mux.HandleFunc("/api/pack/snapshot", h.handleSnapshot)
	return mux
}

// handleTop serves GET /api/queue/top?n=10. The ranking is recomputed first
// so a read after a mutation never sees a stale generation.
func (h *Handler) handleTop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	n := 10
	if s := r.URL.Query().Get("n"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			http.Error(w, "n must be a positive integer", http.StatusBadRequest)
			return
		}
		n = v
	}
	h.queue.Recompute()
	writeJSON(w, h.queue.TopN(n))
}

// handleBatches serves GET /api/batches?order=ORD-1. Orders already in the
// pack workflow are excluded from the candidate pool, and a target with an
// active pack session cannot start new batch work.
func (h *Handler) handleBatches(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	orderNumber := r.URL.Query().Get("order")
	if orderNumber == "" {
		http.Error(w, "order query parameter is required", http.StatusBadRequest)
		return
	}
	target, ok := h.queue.Get(orderNumber)
	if !ok {
		http.Error(w, "order "+orderNumber+" not found", http.StatusNotFound)
		return
	}
	if h.tracker.InWorkflow(orderNumber) {
		http.Error(w, "order "+orderNumber+" has an active pack session", http.StatusConflict)
		return
	}
	var pool []model.Order
	for _, o := range h.queue.Orders() {
		if !h.tracker.InWorkflow(o.OrderNumber) {
			pool = append(pool, o)
		}
	}
	writeJSON(w, h.opt.FindBatchOpportunities(target, pool))
}

type executeBatchRequest struct {
	OrderNumbers []string `json:"order_numbers"`
}

// handleExecuteBatch serves POST /api/batches/execute with a list of order
// numbers. Every order must be known to the queue.
func (h *Handler) handleExecuteBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req executeBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	orders := make([]model.Order, 0, len(req.OrderNumbers))
	for _, num := range req.OrderNumbers {
		o, ok := h.queue.Get(num)
		if !ok {
			http.Error(w, "order "+num+" not found", http.StatusNotFound)
			return
		}
		orders = append(orders, o)
	}
	exec, err := h.opt.ExecuteBatch(orders)
	if err != nil {
		switch {
		case errors.Is(err, batch.ErrBatchTooSmall), errors.Is(err, batch.ErrBatchTooLarge):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, batch.ErrCriticalOrder):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			h.writeError(w, err)
		}
		return
	}
	writeJSON(w, exec)
}

type packStartRequest struct {
	OrderNumber string `json:"order_number"`
	Worker      string `json:"worker"`
}

func (h *Handler) handlePackStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req packStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	session, err := h.tracker.Start(req.OrderNumber, req.Worker)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, session)
}

type packStatusRequest struct {
	OrderNumber string `json:"order_number"`
	Status      string `json:"status"`
	Note        string `json:"note,omitempty"`
}

func (h *Handler) handlePackStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req packStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	session, err := h.tracker.UpdateStatus(req.OrderNumber, model.PackStatus(req.Status), req.Note)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, session)
}

func (h *Handler) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, h.tracker.ActiveSessions())
}

func (h *Handler) handleWorkerMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, struct {
		Workers []pack.WorkerStats `json:"workers"`
		Summary pack.Summary       `json:"summary"`
	}{h.tracker.WorkerMetrics(), h.tracker.Summary()})
}

// handleSnapshot exports tracker state on GET and restores it on POST.
func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, h.tracker.ExportSnapshot())
	case http.MethodPost:
		var snap pack.Snapshot
		if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
			http.Error(w, "invalid snapshot body", http.StatusBadRequest)
			return
		}
		h.tracker.RestoreSnapshot(snap)
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// writeError maps the error taxonomy onto HTTP statuses: not-found to 404,
// workflow misuse to 409, bad status values to 400.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, pack.ErrOrderNotFound), errors.Is(err, pack.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, pack.ErrSessionExists), errors.Is(err, pack.ErrInvalidTransition):
		status = http.StatusConflict
	case errors.Is(err, pack.ErrUnknownStatus):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		h.log.Errorf("api error: %v", err)
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

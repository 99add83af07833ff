package queue

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/parcelops/dispatchd/core/batch"
	"github.com/parcelops/dispatchd/core/model"
	"github.com/parcelops/dispatchd/core/pack"
	corequeue "github.com/parcelops/dispatchd/core/queue"
	"github.com/parcelops/dispatchd/core/scoring"
	infralogger "github.com/parcelops/dispatchd/infra/logger"
)

func newTestHandler(t *testing.T, orders []model.Order) *Handler {
	t.Helper()
	log := infralogger.NopLogger{}
	mgr, err := corequeue.NewManager(scoring.NewScorer(), log, nil, nil)
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	mgr.LoadOrders(orders)
	opt, err := batch.NewOptimizer(batch.DefaultConfig(), log, nil, nil)
	if err != nil {
		t.Fatalf("optimizer: %v", err)
	}
	tracker, err := pack.NewTracker(mgr, log, nil, nil)
	if err != nil {
		t.Fatalf("tracker: %v", err)
	}
	return NewHandler(mgr, opt, tracker, log)
}

func testOrders() []model.Order {
	now := time.Now()
	return []model.Order{
		{OrderNumber: "ORD-1", OrderDate: now.Add(-48 * time.Hour), ExpectedDispatch: now.Add(30 * time.Hour), SKU: "WID-1001", County: "Kent", OrderTotal: 120},
		{OrderNumber: "ORD-2", OrderDate: now.Add(-24 * time.Hour), ExpectedDispatch: now.Add(32 * time.Hour), SKU: "WID-1001", County: "Kent", OrderTotal: 80},
		{OrderNumber: "ORD-3", OrderDate: now.Add(-12 * time.Hour), ExpectedDispatch: now.Add(28 * time.Hour), SKU: "WID-1001", County: "Kent", OrderTotal: 60},
		{OrderNumber: "ORD-4", OrderDate: now.Add(-10 * time.Hour), ExpectedDispatch: now.Add(30 * time.Hour), SKU: "WID-1001", County: "Kent", OrderTotal: 55},
		{OrderNumber: "ORD-5", OrderDate: now.Add(-2 * time.Hour), ExpectedDispatch: now.Add(72 * time.Hour), SKU: "GAD-2002", County: "Essex", OrderTotal: 40},
	}
}

func TestHandler_Top(t *testing.T) {
	h := newTestHandler(t, testOrders())
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/queue/top?n=2", nil)
	h.Routes().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	var out []corequeue.RankedOrder
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 ranked orders, got %d", len(out))
	}
	if out[0].Order.OrderNumber != "ORD-1" {
		t.Fatalf("expected ORD-1 first, got %s", out[0].Order.OrderNumber)
	}
}

func TestHandler_Top_BadN(t *testing.T) {
	h := newTestHandler(t, testOrders())
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/queue/top?n=zero", nil)
	h.Routes().ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rr.Code)
	}
}

func TestHandler_Batches(t *testing.T) {
	h := newTestHandler(t, testOrders())
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/batches?order=ORD-1", nil)
	h.Routes().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	var out batch.Result
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Opportunities) == 0 {
		t.Fatalf("expected batch opportunities, got reason %q", out.Reason)
	}
}

func TestHandler_Batches_UnknownOrder(t *testing.T) {
	h := newTestHandler(t, testOrders())
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/batches?order=ORD-999", nil)
	h.Routes().ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status %d", rr.Code)
	}
}

func TestHandler_Batches_ExcludesWorkflowOrders(t *testing.T) {
	h := newTestHandler(t, testOrders())
	if _, err := h.tracker.Start("ORD-2", "amy"); err != nil {
		t.Fatalf("start: %v", err)
	}
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/batches?order=ORD-1", nil)
	h.Routes().ServeHTTP(rr, req)
	var out batch.Result
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, rec := range out.Opportunities {
		if rec.Contains("ORD-2") {
			t.Fatalf("order in pack workflow must not be batched: %#v", rec.OrderNumbers())
		}
	}
}

func TestHandler_Batches_RejectsWorkflowTarget(t *testing.T) {
	h := newTestHandler(t, testOrders())
	if _, err := h.tracker.Start("ORD-1", "amy"); err != nil {
		t.Fatalf("start: %v", err)
	}
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/batches?order=ORD-1", nil)
	h.Routes().ServeHTTP(rr, req)
	if rr.Code != http.StatusConflict {
		t.Fatalf("target with an active pack session should get 409, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHandler_PackFlow(t *testing.T) {
	h := newTestHandler(t, testOrders())
	mux := h.Routes()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/pack/start", strings.NewReader(`{"order_number":"ORD-1","worker":"amy"}`))
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("start status %d: %s", rr.Code, rr.Body.String())
	}
	var session model.PackSession
	if err := json.Unmarshal(rr.Body.Bytes(), &session); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if session.Status != model.PackPicking {
		t.Fatalf("expected PICKING, got %s", session.Status)
	}

	// Starting twice conflicts.
	rr = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/api/pack/start", strings.NewReader(`{"order_number":"ORD-1","worker":"amy"}`))
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusConflict {
		t.Fatalf("duplicate start status %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/api/pack/status", strings.NewReader(`{"order_number":"ORD-1","status":"PACKING"}`))
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status update %d: %s", rr.Code, rr.Body.String())
	}

	// Skipping straight to DISPATCHED is an invalid transition.
	rr = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/api/pack/status", strings.NewReader(`{"order_number":"ORD-1","status":"DISPATCHED"}`))
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusConflict {
		t.Fatalf("invalid transition status %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/api/pack/status", strings.NewReader(`{"order_number":"ORD-1","status":"SHIPPED"}`))
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown status %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/api/pack/sessions", nil)
	mux.ServeHTTP(rr, req)
	var sessions []model.PackSession
	if err := json.Unmarshal(rr.Body.Bytes(), &sessions); err != nil {
		t.Fatalf("decode sessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 active session, got %d", len(sessions))
	}
}

func TestHandler_ExecuteBatch(t *testing.T) {
	h := newTestHandler(t, testOrders())
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/batches/execute", strings.NewReader(`{"order_numbers":["ORD-1","ORD-2"]}`))
	h.Routes().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rr.Code, rr.Body.String())
	}
	var exec batch.Execution
	if err := json.Unmarshal(rr.Body.Bytes(), &exec); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if exec.ID == "" || len(exec.OrderNumbers) != 2 {
		t.Fatalf("unexpected execution %#v", exec)
	}
}

func TestHandler_ExecuteBatch_TooSmall(t *testing.T) {
	h := newTestHandler(t, testOrders())
	rr := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/batches/execute", strings.NewReader(`{"order_numbers":["ORD-1"]}`))
	h.Routes().ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rr.Code)
	}
}

func TestHandler_Snapshot(t *testing.T) {
	h := newTestHandler(t, testOrders())
	mux := h.Routes()
	if _, err := h.tracker.Start("ORD-1", "amy"); err != nil {
		t.Fatalf("start: %v", err)
	}

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/pack/snapshot", nil)
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("export status %d", rr.Code)
	}

	rr2 := httptest.NewRecorder()
	req2 := httptest.NewRequest("POST", "/api/pack/snapshot", rr.Body)
	mux.ServeHTTP(rr2, req2)
	if rr2.Code != http.StatusNoContent {
		t.Fatalf("restore status %d: %s", rr2.Code, rr2.Body.String())
	}
	if !h.tracker.InWorkflow("ORD-1") {
		t.Fatalf("session lost after restore")
	}
}

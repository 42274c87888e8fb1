package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/mgorcz2/shipment-monitoring-project/internal/pricing"
)

// helper to parse the standardized error envelope
type stdError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func TestHealthz(t *testing.T) {
	h := New(nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if body := rr.Body.String(); body != "ok" {
		t.Fatalf("expected body 'ok', got %q", body)
	}
}

func TestRequestIDHeaderPresent(t *testing.T) {
	h := New(nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rid := rr.Header().Get("X-Request-ID"); rid == "" {
		t.Fatalf("expected X-Request-ID header to be set")
	}
}

func TestGetRates_NoSurcharges(t *testing.T) {
	h := New(nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/rates?weight_kg=1&length_cm=1&width_cm=1&height_cm=1&distance_km=10", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body=%s", rr.Code, rr.Body.String())
	}
	var bd pricing.Breakdown
	if err := json.Unmarshal(rr.Body.Bytes(), &bd); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	// both lower boundaries: basic cost only
	if bd.Total != 15.0 || bd.WeightCost != 0 || bd.VolumeCost != 0 || bd.DistanceCost != 0 {
		t.Fatalf("unexpected breakdown: %+v", bd)
	}
}

func TestGetRates_FragileTiered(t *testing.T) {
	h := New(nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/rates?weight_kg=41&length_cm=1&width_cm=1&height_cm=1&distance_km=110&fragile=true", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body=%s", rr.Code, rr.Body.String())
	}
	var bd pricing.Breakdown
	if err := json.Unmarshal(rr.Body.Bytes(), &bd); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	// (15 + 45 + 40) * 1.2
	if bd.WeightCost != 45.0 || bd.DistanceCost != 40.0 || bd.Total != 120.0 {
		t.Fatalf("unexpected breakdown: %+v", bd)
	}
}

func TestGetRates_OutOfRange(t *testing.T) {
	h := New(nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/rates?weight_kg=0.5&length_cm=1&width_cm=1&height_cm=1&distance_km=10", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d; body=%s", rr.Code, rr.Body.String())
	}
	var e stdError
	if err := json.Unmarshal(rr.Body.Bytes(), &e); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if e.Error.Code != "invalid_package" {
		t.Fatalf("unexpected error code: %s", e.Error.Code)
	}
}

func TestGetRates_NonFiniteDistance(t *testing.T) {
	h := New(nil, nil)
	// strconv.ParseFloat accepts these spellings; the handler must not
	for _, dist := range []string{"NaN", "Inf", "+Inf", "-Inf", "Infinity"} {
		req := httptest.NewRequest(http.MethodGet, "/rates?weight_kg=1&length_cm=1&width_cm=1&height_cm=1&distance_km="+dist, nil)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("distance_km=%s: expected 400, got %d; body=%s", dist, rr.Code, rr.Body.String())
		}
		var e stdError
		if err := json.Unmarshal(rr.Body.Bytes(), &e); err != nil {
			t.Fatalf("distance_km=%s: unmarshal error: %v", dist, err)
		}
		if e.Error.Code != "invalid_request" {
			t.Fatalf("distance_km=%s: unexpected error code: %s", dist, e.Error.Code)
		}
	}
}

func TestGetRates_MissingParam(t *testing.T) {
	h := New(nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/rates?weight_kg=1&length_cm=1&width_cm=1&height_cm=1", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	var e stdError
	if err := json.Unmarshal(rr.Body.Bytes(), &e); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if e.Error.Code != "invalid_request" {
		t.Fatalf("unexpected error code: %s", e.Error.Code)
	}
}

func TestCreateShipment_Unauthenticated(t *testing.T) {
	h := New(nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/shipments", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
	var e stdError
	if err := json.Unmarshal(rr.Body.Bytes(), &e); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if e.Error.Code != "unauthenticated" {
		t.Fatalf("unexpected error code: %s", e.Error.Code)
	}
}

func TestCreateShipment_ForbiddenRole(t *testing.T) {
	h := New(nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/shipments", nil)
	req.Header.Set("X-User-ID", uuid.New().String())
	req.Header.Set("X-User-Role", "courier")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d; body=%s", rr.Code, rr.Body.String())
	}
}

func TestSessionMiddleware_UnknownRole(t *testing.T) {
	h := New(nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/shipments", nil)
	req.Header.Set("X-User-ID", uuid.New().String())
	req.Header.Set("X-User-Role", "superuser")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d; body=%s", rr.Code, rr.Body.String())
	}
	var e stdError
	if err := json.Unmarshal(rr.Body.Bytes(), &e); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if e.Error.Code != "invalid_session" {
		t.Fatalf("unexpected error code: %s", e.Error.Code)
	}
}

package server

import (
	"math"
	"net/http"

	"github.com/mgorcz2/shipment-monitoring-project/internal/pricing"
)

// handleGetRates prices a package directly from query parameters; the
// caller supplies the distance, so no geocoding happens here.
func (s *Server) handleGetRates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var spec pricing.PackageSpec
	fields := []struct {
		name string
		dst  *float64
	}{
		{"weight_kg", &spec.WeightKg},
		{"length_cm", &spec.LengthCm},
		{"width_cm", &spec.WidthCm},
		{"height_cm", &spec.HeightCm},
	}
	for _, f := range fields {
		v := q.Get(f.name)
		if v == "" {
			writeErrorJSON(w, http.StatusBadRequest, "invalid_request", f.name+" required")
			return
		}
		fv, err := parseFloat(v)
		if err != nil {
			writeErrorJSON(w, http.StatusBadRequest, "invalid_request", f.name+" must be a number")
			return
		}
		*f.dst = fv
	}
	distStr := q.Get("distance_km")
	if distStr == "" {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "distance_km required")
		return
	}
	dist, err := parseFloat(distStr)
	if err != nil || dist < 0 || math.IsNaN(dist) || math.IsInf(dist, 0) {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "distance_km must be a finite non-negative number")
		return
	}
	spec.Fragile = q.Get("fragile") == "true"

	if err := spec.Validate(); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_package", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, pricing.Calculate(spec, &dist))
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/mgorcz2/shipment-monitoring-project/internal/address"
	"github.com/mgorcz2/shipment-monitoring-project/internal/geo"
	"github.com/mgorcz2/shipment-monitoring-project/internal/geocode"
	"github.com/mgorcz2/shipment-monitoring-project/internal/pricing"
)

type QuoteRequest struct {
	Origin      address.Address     `json:"origin"`
	Destination address.Address     `json:"destination"`
	Package     pricing.PackageSpec `json:"package"`
}

type QuoteResponse struct {
	OriginCoords      geo.Point          `json:"origin_coords"`
	DestinationCoords geo.Point          `json:"destination_coords"`
	DistanceKm        float64            `json:"distance_km"`
	Cost              *pricing.Breakdown `json:"cost"`
}

// handleCreateQuote geocodes both addresses, computes the distance and
// prices the package in one shot. Nothing is persisted.
func (s *Server) handleCreateQuote(w http.ResponseWriter, r *http.Request) {
	var req QuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	if !s.validateAddress(w, "origin", req.Origin) {
		return
	}
	if !s.validateAddress(w, "destination", req.Destination) {
		return
	}
	if err := req.Package.Validate(); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_package", err.Error())
		return
	}

	o, d, ok := s.geocodePair(w, r, req.Origin, req.Destination)
	if !ok {
		return
	}
	dist := geo.Distance(&o, &d)
	writeJSON(w, http.StatusOK, QuoteResponse{
		OriginCoords:      o,
		DestinationCoords: d,
		DistanceKm:        *dist,
		Cost:              pricing.Calculate(req.Package, dist),
	})
}

// validateAddress checks an address before any lookup is issued. A bad
// postcode gets its own error code so the client can point at the field.
func (s *Server) validateAddress(w http.ResponseWriter, label string, a address.Address) bool {
	err := a.Validate()
	if err == nil {
		return true
	}
	code := "invalid_address"
	if errors.Is(err, address.ErrInvalidPostcode) {
		code = "invalid_postcode"
	}
	writeErrorJSON(w, http.StatusBadRequest, code, label+": "+err.Error())
	return false
}

// geocodePair resolves both addresses in parallel; each result writes only
// its own slot. On failure it writes the error response and reports
// ok=false. Not-found is distinguished from transport failure so the
// caller can tell "no such address" from "search failed, retry".
func (s *Server) geocodePair(w http.ResponseWriter, r *http.Request, origin, destination address.Address) (geo.Point, geo.Point, bool) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	type result struct {
		label string
		pt    geo.Point
		err   error
	}
	ch := make(chan result, 2)
	go func() {
		pt, err := s.geocoder.Geocode(ctx, origin.Format())
		ch <- result{label: "origin", pt: pt, err: err}
	}()
	go func() {
		pt, err := s.geocoder.Geocode(ctx, destination.Format())
		ch <- result{label: "destination", pt: pt, err: err}
	}()

	var o, d geo.Point
	for i := 0; i < 2; i++ {
		res := <-ch
		if res.err != nil {
			if errors.Is(res.err, geocode.ErrNotFound) {
				writeErrorJSON(w, http.StatusUnprocessableEntity, "address_not_found", res.label+" address not found")
			} else {
				s.log.WithError(res.err).Error("geocoding failed")
				writeErrorJSON(w, http.StatusBadGateway, "geocoding_failed", res.label+" address lookup failed")
			}
			return geo.Point{}, geo.Point{}, false
		}
		if res.label == "origin" {
			o = res.pt
		} else {
			d = res.pt
		}
	}
	return o, d, true
}

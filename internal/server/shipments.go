package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mgorcz2/shipment-monitoring-project/internal/address"
	"github.com/mgorcz2/shipment-monitoring-project/internal/auth"
	"github.com/mgorcz2/shipment-monitoring-project/internal/geo"
	"github.com/mgorcz2/shipment-monitoring-project/internal/pricing"
	"github.com/mgorcz2/shipment-monitoring-project/internal/shipment"
)

type ShipmentCreateRequest struct {
	Origin         address.Address `json:"origin"`
	Destination    address.Address `json:"destination"`
	RecipientEmail string          `json:"recipient_email"`
}

type ShipmentCreateResponse struct {
	ShipmentID string  `json:"shipment_id"`
	Status     string  `json:"status"`
	DistanceKm float64 `json:"distance_km"`
	CreatedAt  string  `json:"created_at"`
}

func (s *Server) handleCreateShipment(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.requireCapability(w, r, auth.CapCreateShipment)
	if !ok {
		return
	}
	var req ShipmentCreateRequest
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

	o, d, ok := s.geocodePair(w, r, req.Origin, req.Destination)
	if !ok {
		return
	}
	dist := geo.Distance(&o, &d)

	shipmentID := uuid.New()
	now := time.Now().UTC()
	originJSON, _ := json.Marshal(req.Origin)
	destinationJSON, _ := json.Marshal(req.Destination)

	_, err := s.db.Exec(r.Context(), `
		INSERT INTO shipments (
			id, sender_id, status, recipient_email,
			origin, destination,
			origin_lat, origin_lon, destination_lat, destination_lon,
			distance_km, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4,
			$5::jsonb, $6::jsonb,
			$7, $8, $9, $10,
			$11, $12, $12
		)
	`,
		shipmentID,
		sess.UserID,
		shipment.StatusReadyForPickup,
		req.RecipientEmail,
		string(originJSON),
		string(destinationJSON),
		o.Lat, o.Lon, d.Lat, d.Lon,
		*dist,
		now,
	)
	if err != nil {
		s.log.WithError(err).Error("insert shipment failed")
		writeErrorJSON(w, http.StatusInternalServerError, "db_error", "failed to create shipment")
		return
	}

	writeJSON(w, http.StatusCreated, ShipmentCreateResponse{
		ShipmentID: shipmentID.String(),
		Status:     string(shipment.StatusReadyForPickup),
		DistanceKm: *dist,
		CreatedAt:  now.Format(time.RFC3339),
	})
}

type PackageCreateResponse struct {
	PackageID  string             `json:"package_id"`
	ShipmentID string             `json:"shipment_id"`
	Cost       *pricing.Breakdown `json:"cost"`
}

func (s *Server) handleAttachPackage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.requireCapability(w, r, auth.CapCreateShipment)
	if !ok {
		return
	}
	shipmentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "invalid shipment id")
		return
	}
	var spec pricing.PackageSpec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	// Out-of-range attributes are rejected at submission; interactive
	// clients clamp on input, the server does not silently fix values.
	if err := spec.Validate(); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_package", err.Error())
		return
	}

	ctx := r.Context()
	var senderID uuid.UUID
	var dist float64
	err = s.db.QueryRow(ctx, `SELECT sender_id, distance_km FROM shipments WHERE id = $1`, shipmentID).Scan(&senderID, &dist)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeErrorJSON(w, http.StatusNotFound, "resource_not_found", "shipment not found")
			return
		}
		writeErrorJSON(w, http.StatusInternalServerError, "db_error", "db error")
		return
	}
	if sess.Role == auth.RoleClient && senderID != sess.UserID {
		writeErrorJSON(w, http.StatusForbidden, "forbidden", "not the sender of this shipment")
		return
	}

	cost := pricing.Calculate(spec, &dist)
	packageID := uuid.New()
	now := time.Now().UTC()
	_, err = s.db.Exec(ctx, `
		INSERT INTO packages (
			id, shipment_id,
			weight_kg, length_cm, width_cm, height_cm, fragile,
			basic_cost, weight_cost, volume_cost, distance_cost, fragile_multiplier, total_cost,
			created_at
		) VALUES (
			$1, $2,
			$3, $4, $5, $6, $7,
			$8, $9, $10, $11, $12, $13,
			$14
		)
	`,
		packageID,
		shipmentID,
		spec.WeightKg, spec.LengthCm, spec.WidthCm, spec.HeightCm, spec.Fragile,
		cost.BasicCost, cost.WeightCost, cost.VolumeCost, cost.DistanceCost, cost.FragileMultiplier, cost.Total,
		now,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			writeErrorJSON(w, http.StatusConflict, "package_exists", "shipment already has a package")
			return
		}
		s.log.WithError(err).Error("insert package failed")
		writeErrorJSON(w, http.StatusInternalServerError, "db_error", "failed to create package")
		return
	}

	writeJSON(w, http.StatusCreated, PackageCreateResponse{
		PackageID:  packageID.String(),
		ShipmentID: shipmentID.String(),
		Cost:       cost,
	})
}

type ShipmentResponse struct {
	ID                string             `json:"id"`
	Status            string             `json:"status"`
	RecipientEmail    string             `json:"recipient_email"`
	Origin            json.RawMessage    `json:"origin"`
	Destination       json.RawMessage    `json:"destination"`
	OriginCoords      geo.Point          `json:"origin_coords"`
	DestinationCoords geo.Point          `json:"destination_coords"`
	DistanceKm        float64            `json:"distance_km"`
	CourierID         string             `json:"courier_id,omitempty"`
	Cost              *pricing.Breakdown `json:"cost,omitempty"`
	CreatedAt         string             `json:"created_at"`
}

func (s *Server) handleGetShipment(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.requireCapability(w, r, auth.CapViewShipment)
	if !ok {
		return
	}
	shipmentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "invalid shipment id")
		return
	}

	var (
		senderID                                               uuid.UUID
		status, recipientEmail, originRaw, destinationRaw      string
		originLat, originLon, destinationLat, destinationLon   float64
		distanceKm                                             float64
		courierID                                              *uuid.UUID
		createdAt                                              time.Time
		basicCost, weightCost, volumeCost, distanceCost, total *float64
		fragileMultiplier                                      *float64
	)
	err = s.db.QueryRow(r.Context(), `
		SELECT sh.sender_id, sh.status, sh.recipient_email,
		       sh.origin::text, sh.destination::text,
		       sh.origin_lat, sh.origin_lon, sh.destination_lat, sh.destination_lon,
		       sh.distance_km, sh.courier_id, sh.created_at,
		       p.basic_cost, p.weight_cost, p.volume_cost, p.distance_cost, p.fragile_multiplier, p.total_cost
		FROM shipments sh
		LEFT JOIN packages p ON p.shipment_id = sh.id
		WHERE sh.id = $1
	`, shipmentID).Scan(
		&senderID, &status, &recipientEmail,
		&originRaw, &destinationRaw,
		&originLat, &originLon, &destinationLat, &destinationLon,
		&distanceKm, &courierID, &createdAt,
		&basicCost, &weightCost, &volumeCost, &distanceCost, &fragileMultiplier, &total,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeErrorJSON(w, http.StatusNotFound, "resource_not_found", "shipment not found")
			return
		}
		writeErrorJSON(w, http.StatusInternalServerError, "db_error", "db error")
		return
	}

	// Clients see their own shipments, couriers the ones assigned to them.
	switch sess.Role {
	case auth.RoleClient:
		if senderID != sess.UserID {
			writeErrorJSON(w, http.StatusForbidden, "forbidden", "not the sender of this shipment")
			return
		}
	case auth.RoleCourier:
		if courierID == nil || *courierID != sess.UserID {
			writeErrorJSON(w, http.StatusForbidden, "forbidden", "shipment not assigned to this courier")
			return
		}
	}

	resp := ShipmentResponse{
		ID:                shipmentID.String(),
		Status:            status,
		RecipientEmail:    recipientEmail,
		Origin:            json.RawMessage(originRaw),
		Destination:       json.RawMessage(destinationRaw),
		OriginCoords:      geo.Point{Lat: originLat, Lon: originLon},
		DestinationCoords: geo.Point{Lat: destinationLat, Lon: destinationLon},
		DistanceKm:        distanceKm,
		CreatedAt:         createdAt.UTC().Format(time.RFC3339),
	}
	if courierID != nil {
		resp.CourierID = courierID.String()
	}
	if total != nil {
		resp.Cost = &pricing.Breakdown{
			BasicCost:         *basicCost,
			WeightCost:        *weightCost,
			VolumeCost:        *volumeCost,
			DistanceCost:      *distanceCost,
			FragileMultiplier: *fragileMultiplier,
			Total:             *total,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type StatusUpdateRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireCapability(w, r, auth.CapUpdateStatus); !ok {
		return
	}
	shipmentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "invalid shipment id")
		return
	}
	var req StatusUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	st, err := shipment.ParseStatus(req.Status)
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_status", err.Error())
		return
	}

	tag, err := s.db.Exec(r.Context(),
		`UPDATE shipments SET status = $2, updated_at = $3 WHERE id = $1`,
		shipmentID, st, time.Now().UTC())
	if err != nil {
		writeErrorJSON(w, http.StatusInternalServerError, "db_error", "db error")
		return
	}
	if tag.RowsAffected() == 0 {
		writeErrorJSON(w, http.StatusNotFound, "resource_not_found", "shipment not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"shipment_id": shipmentID.String(),
		"status":      string(st),
	})
}

type AssignCourierRequest struct {
	CourierID string `json:"courier_id"`
}

func (s *Server) handleAssignCourier(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireCapability(w, r, auth.CapAssignCourier); !ok {
		return
	}
	shipmentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "invalid shipment id")
		return
	}
	var req AssignCourierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	courierID, err := uuid.Parse(req.CourierID)
	if err != nil {
		writeErrorJSON(w, http.StatusBadRequest, "invalid_request", "invalid courier id")
		return
	}

	tag, err := s.db.Exec(r.Context(),
		`UPDATE shipments SET courier_id = $2, updated_at = $3 WHERE id = $1`,
		shipmentID, courierID, time.Now().UTC())
	if err != nil {
		writeErrorJSON(w, http.StatusInternalServerError, "db_error", "db error")
		return
	}
	if tag.RowsAffected() == 0 {
		writeErrorJSON(w, http.StatusNotFound, "resource_not_found", "shipment not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"shipment_id": shipmentID.String(),
		"courier_id":  courierID.String(),
	})
}

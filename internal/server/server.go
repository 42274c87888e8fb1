package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/mgorcz2/shipment-monitoring-project/internal/auth"
	"github.com/mgorcz2/shipment-monitoring-project/internal/geocode"
)

type Server struct {
	db       *pgxpool.Pool
	geocoder geocode.Geocoder
	log      logrus.FieldLogger
}

// New builds the HTTP surface.
func New(db *pgxpool.Pool, g geocode.Geocoder) http.Handler {
	s := &Server{db: db, geocoder: g, log: logrus.StandardLogger()}
	r := chi.NewRouter()
	// Observability: Request ID and basic logger
	r.Use(requestIDMiddleware)
	r.Use(middleware.Logger)
	r.Use(sessionMiddleware)
	r.Get("/healthz", s.handleHealth)
	r.Get("/rates", s.handleGetRates)
	r.Post("/quotes", s.handleCreateQuote)
	r.Post("/shipments", s.handleCreateShipment)
	r.Get("/shipments/{id}", s.handleGetShipment)
	r.Post("/shipments/{id}/packages", s.handleAttachPackage)
	r.Put("/shipments/{id}/status", s.handleUpdateStatus)
	r.Put("/shipments/{id}/assign", s.handleAssignCourier)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// writeErrorJSON writes a standardized JSON error response:
// {"error": {"code": string, "message": string}}
func writeErrorJSON(w http.ResponseWriter, status int, code string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// requestIDMiddleware ensures X-Request-ID is set on the response.
// If provided in the request header, it is propagated; otherwise a UUID is generated.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rid := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if rid == "" {
			rid = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", rid)
		next.ServeHTTP(w, r)
	})
}

// sessionMiddleware turns the gateway-authenticated identity headers into
// an explicit session on the request context. Requests without the headers
// proceed anonymously; handlers that need a capability reject them.
func sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid := strings.TrimSpace(r.Header.Get("X-User-ID"))
		roleStr := strings.TrimSpace(r.Header.Get("X-User-Role"))
		if uid == "" && roleStr == "" {
			next.ServeHTTP(w, r)
			return
		}
		id, err := uuid.Parse(uid)
		if err != nil {
			writeErrorJSON(w, http.StatusUnauthorized, "invalid_session", "invalid user id")
			return
		}
		role, err := auth.ParseRole(roleStr)
		if err != nil {
			writeErrorJSON(w, http.StatusUnauthorized, "invalid_session", "unknown role")
			return
		}
		ctx := auth.WithSession(r.Context(), auth.Session{UserID: id, Role: role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireCapability resolves the session and checks the capability. On
// failure it writes the error response and returns ok=false.
func (s *Server) requireCapability(w http.ResponseWriter, r *http.Request, capability auth.Capability) (auth.Session, bool) {
	sess, ok := auth.FromContext(r.Context())
	if !ok {
		writeErrorJSON(w, http.StatusUnauthorized, "unauthenticated", "session required")
		return auth.Session{}, false
	}
	if !sess.Role.Can(capability) {
		writeErrorJSON(w, http.StatusForbidden, "forbidden", "role not permitted")
		return auth.Session{}, false
	}
	return sess, true
}

func parseFloat(s string) (float64, error) {
	var n json.Number = json.Number(s)
	return n.Float64()
}

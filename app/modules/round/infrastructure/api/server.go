// Package roundapi exposes the round module over HTTP: outing launch, roster
// import, and health.
package roundapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	roundservice "github.com/Back-Nine-Social-Club/fairway-bot/app/modules/round/application"
	"github.com/Back-Nine-Social-Club/fairway-bot/observability/attr"
	roundtypes "github.com/Back-Nine-Social-Club/fairway-bot/types/round"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uptrace/bun"
)

// maxRosterUpload bounds roster workbook uploads.
const maxRosterUpload = 5 << 20

// Server serves the round module's HTTP surface.
type Server struct {
	service  roundservice.Service
	verifier *TokenVerifier
	limiter  *IPRateLimiter
	logger   *slog.Logger
	db       *bun.DB
	promReg  *prometheus.Registry
}

// NewServer creates a new Server.
func NewServer(
	service roundservice.Service,
	verifier *TokenVerifier,
	limiter *IPRateLimiter,
	logger *slog.Logger,
	db *bun.DB,
	promReg *prometheus.Registry,
) *Server {
	return &Server{
		service:  service,
		verifier: verifier,
		limiter:  limiter,
		logger:   logger,
		db:       db,
		promReg:  promReg,
	}
}

// Routes mounts the module's routes on a new chi router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(RateLimitMiddleware(s.limiter))

	r.Get("/healthz", s.handleHealth)
	if s.promReg != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.promReg, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/outings", func(r chi.Router) {
		r.Use(AuthMiddleware(s.verifier))
		r.Post("/launch", s.handleLaunch)
		r.Post("/roster-import", s.handleRosterImport)
	})

	return r
}

func (s *Server) handleLaunch(w http.ResponseWriter, r *http.Request) {
	playerID, ok := PlayerIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "missing identity")
		return
	}

	var req roundtypes.LaunchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid-argument", "request body is not valid JSON")
		return
	}
	// The authenticated caller is the organizer regardless of the body.
	req.OrganizerID = playerID

	result, err := s.service.LaunchOuting(r.Context(), req)
	if err != nil {
		if roundservice.IsValidationError(err) {
			writeError(w, http.StatusBadRequest, "invalid-argument", err.Error())
			return
		}
		s.logger.ErrorContext(r.Context(), "Launch failed",
			attr.PlayerID("organizer_id", playerID),
			attr.Error(err),
		)
		writeError(w, http.StatusInternalServerError, "internal", "launch failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRosterImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxRosterUpload+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid-argument", "failed to read upload")
		return
	}
	if len(data) > maxRosterUpload {
		writeError(w, http.StatusRequestEntityTooLarge, "invalid-argument", "workbook exceeds upload limit")
		return
	}

	imported, err := s.service.ParseRoster(r.Context(), data)
	if err != nil {
		if roundservice.IsValidationError(err) {
			writeError(w, http.StatusBadRequest, "invalid-argument", err.Error())
			return
		}
		s.logger.ErrorContext(r.Context(), "Roster import failed", attr.Error(err))
		writeError(w, http.StatusInternalServerError, "internal", "roster import failed")
		return
	}

	writeJSON(w, http.StatusOK, imported)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.PingContext(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "unavailable", "database unreachable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

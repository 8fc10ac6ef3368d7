package httpserver

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appanalysis "github.com/bryanwahyu/lexiguard/internal/application/analysis"
	domain "github.com/bryanwahyu/lexiguard/internal/domain/analysis"
	"github.com/bryanwahyu/lexiguard/internal/domain/history"
	"github.com/bryanwahyu/lexiguard/internal/domain/identity"
	"github.com/bryanwahyu/lexiguard/internal/middleware"
)

type Router struct {
	svc     *appanalysis.Service
	version string
}

// StatusResponse is the success payload of GET /status.
type StatusResponse struct {
	Response string `json:"response"`
	Cache    bool   `json:"cache"`
}

// HealthResponse is the payload of GET /health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

func NewRouter(svc *appanalysis.Service, verifier identity.Verifier, version string) http.Handler {
	r := &Router{svc: svc, version: version}
	mux := chi.NewRouter()

	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)

	mux.Get("/health", r.handleHealth)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Group(func(g chi.Router) {
		// throttle before verifying, so bad tokens cannot burn JWKS checks
		g.Use(middleware.RateLimitMiddleware(30, 1))
		g.Use(middleware.BearerAuth(verifier))
		g.Get("/status", r.wrap(r.handleStatus))
		g.Get("/history", r.wrap(r.handleHistory))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			writeError(w, err)
		}
	}
}

// writeError maps pipeline errors onto the error envelope. Internal
// details are logged in full and suppressed from the caller.
func writeError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		status := http.StatusUnprocessableEntity
		if verr.Rule == domain.RuleObjectTooLarge {
			status = http.StatusRequestEntityTooLarge
		}
		middleware.WriteJSONError(w, status, middleware.CodeValidationError, verr.Error())
	case identity.IsAuthError(err):
		middleware.WriteJSONError(w, http.StatusUnauthorized, middleware.CodeHTTPException, err.Error())
	case errors.Is(err, domain.ErrObjectNotFound):
		middleware.WriteJSONError(w, http.StatusNotFound, middleware.CodeHTTPException, err.Error())
	case errors.Is(err, domain.ErrNoPendingDocument):
		middleware.WriteJSONError(w, http.StatusBadRequest, middleware.CodeHTTPException, err.Error())
	case errors.Is(err, domain.ErrWaitTimeout):
		middleware.WriteJSONError(w, http.StatusServiceUnavailable, middleware.CodeHTTPException, err.Error())
	default:
		log.Printf("httpserver: internal error: %v", err)
		middleware.IncrementAnalysesFailed()
		middleware.WriteJSONError(w, http.StatusInternalServerError, middleware.CodeInternalError, "internal server error")
	}
}

// GET /health
func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   r.version,
	})
}

// GET /status — run (or join) the analysis for the caller's most
// recent uploaded document and return the verdict.
func (r *Router) handleStatus(w http.ResponseWriter, req *http.Request) error {
	ident, ok := middleware.IdentityFromContext(req.Context())
	if !ok {
		return identity.ErrMissingCredential
	}

	out, err := r.svc.Check(req.Context(), ident)
	if err != nil {
		return err
	}

	if out.Cached {
		middleware.IncrementCacheHits()
	} else {
		middleware.IncrementCacheMisses()
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(StatusResponse{
		Response: out.Result.Verdict,
		Cache:    out.Cached,
	})
}

// GET /history?limit=20
func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) error {
	ident, ok := middleware.IdentityFromContext(req.Context())
	if !ok {
		return identity.ErrMissingCredential
	}

	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	list, err := r.svc.Recent(req.Context(), ident, limit)
	if err != nil {
		return err
	}
	if list == nil {
		// empty history is an empty array, not null
		list = []*history.Record{}
	}

	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(list)
}

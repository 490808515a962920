package httpapi

import (
	"net/http"
	"time"

	"labtrack/internal/domain"

	"go.uber.org/zap"
)

// Router wraps the standard http.ServeMux; no third-party router is
// needed for this surface.
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

// HandleHandler supports the http.Handler interface (used for /metrics).
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	r.mux.ServeHTTP(w, req)
	r.logger.Debug("request handled",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Duration("elapsed", time.Since(start)))
}

// RegisterCoreRoutes wires the conversion and recycle surface.
func (r *Router) RegisterCoreRoutes(a *API) {
	r.Handle("/leads/", a.LeadsHandler)
	r.Handle("/samples/", a.SamplesHandler)

	// generic delete for the remaining registry tags
	for _, t := range []domain.EntityType{
		domain.EntityUsers,
		domain.EntityLabProcessing,
		domain.EntityFinanceRecords,
		domain.EntityGeneticCounselling,
		domain.EntityReports,
	} {
		r.Handle("/"+string(t)+"/", a.EntityDeleteHandler(t))
	}

	r.Handle("/recycle", a.RecycleHandler)
	r.Handle("/recycle/", a.RecycleHandler)

	r.Handle("/healthz", a.Healthz)
}

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/incommon/internal/models"
	"github.com/desertthunder/incommon/internal/services"
	"github.com/desertthunder/incommon/internal/shared"
	"github.com/desertthunder/incommon/internal/tasks"
)

const defaultListLimit = 20

// ComparisonStore persists finished comparisons.
//
// [repositories.ComparisonRepository] satisfies it.
type ComparisonStore interface {
	Save(result *models.ComparisonResult) (*models.SavedComparison, error)
	Get(id string) (*models.SavedComparison, error)
	List(limit int) ([]*models.SavedComparison, error)
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// CompareHandler runs a comparison for the members named in the a and b query parameters.
//
// With save=true and a store configured, the result is archived and the saved record is returned.
// Failures past input validation are reported as a generic 500; details go to the log.
type CompareHandler struct {
	comparer tasks.Comparer
	store    ComparisonStore
	logger   *log.Logger
}

// NewCompareHandler creates a CompareHandler. store may be nil.
func NewCompareHandler(comparer tasks.Comparer, store ComparisonStore, logger *log.Logger) *CompareHandler {
	return &CompareHandler{comparer: comparer, store: store, logger: logger}
}

func (h *CompareHandler) Routes() []string  { return []string{"/compare"} }
func (h *CompareHandler) Methods() []string { return []string{http.MethodGet} }

func (h *CompareHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	a, b, err := services.ParsePair(q.Get("a"), q.Get("b"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	save, _ := strconv.ParseBool(q.Get("save"))
	if save && h.store == nil {
		writeError(w, http.StatusBadRequest, "saving is not enabled")
		return
	}

	result, err := h.comparer.Compare(r.Context(), nil, a, b)
	if err != nil {
		h.logger.Error("comparison failed", "a", a, "b", b, "error", err)
		writeError(w, http.StatusInternalServerError, "comparison failed")
		return
	}

	if !save {
		writeJSON(w, http.StatusOK, result)
		return
	}

	saved, err := h.store.Save(result)
	if err != nil {
		h.logger.Error("failed to save comparison", "a", a, "b", b, "error", err)
		writeError(w, http.StatusInternalServerError, "comparison failed")
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// ComparisonsHandler serves archived comparisons.
type ComparisonsHandler struct {
	store  ComparisonStore
	logger *log.Logger
}

// NewComparisonsHandler creates a ComparisonsHandler over store.
func NewComparisonsHandler(store ComparisonStore, logger *log.Logger) *ComparisonsHandler {
	return &ComparisonsHandler{store: store, logger: logger}
}

func (h *ComparisonsHandler) Routes() []string  { return []string{"/comparisons", "/comparisons/{id}"} }
func (h *ComparisonsHandler) Methods() []string { return []string{http.MethodGet} }

func (h *ComparisonsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if id := r.PathValue("id"); id != "" {
		h.get(w, id)
		return
	}

	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	saved, err := h.store.List(limit)
	if err != nil {
		h.logger.Error("failed to list comparisons", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if saved == nil {
		saved = []*models.SavedComparison{}
	}
	writeJSON(w, http.StatusOK, saved)
}

func (h *ComparisonsHandler) get(w http.ResponseWriter, id string) {
	saved, err := h.store.Get(id)
	switch {
	case errors.Is(err, shared.ErrComparisonNotFound):
		writeError(w, http.StatusNotFound, "comparison not found")
	case err != nil:
		h.logger.Error("failed to load comparison", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	default:
		writeJSON(w, http.StatusOK, saved)
	}
}

// HealthHandler reports liveness.
type HealthHandler struct{}

func (HealthHandler) Routes() []string  { return []string{"/health"} }
func (HealthHandler) Methods() []string { return []string{http.MethodGet} }

func (HealthHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// RouterOption customizes [NewRouter].
type RouterOption func(*routerOptions)

type routerOptions struct {
	metrics *Metrics
}

// WithMetrics instruments every route and comparison and serves GET /metrics.
func WithMetrics(m *Metrics) RouterOption {
	return func(o *routerOptions) { o.metrics = m }
}

// NewRouter wires the comparison API. store may be nil, in which case archive routes are not registered.
func NewRouter(comparer tasks.Comparer, store ComparisonStore, logger *log.Logger, opts ...RouterOption) *BasicRouter {
	var o routerOptions
	for _, opt := range opts {
		opt(&o)
	}

	r := NewBasicRouter()
	if o.metrics != nil {
		r.Use(o.metrics.Instrument())
		comparer = o.metrics.Comparer(comparer)
	}
	r.Use(Recover(logger), Logging(logger))

	r.Handler(HealthHandler{})
	r.Handler(NewCompareHandler(comparer, store, logger))
	r.Handler(NewStreamHandler(comparer, logger))
	if store != nil {
		r.Handler(NewComparisonsHandler(store, logger))
	}
	if o.metrics != nil {
		r.Handler(NewMetricsHandler(o.metrics))
	}
	return r
}

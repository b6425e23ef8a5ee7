// Package chi exposes the HTTP API: search, event ingestion, catalog
// management, and health.
package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	gochi "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/shopsense/searchcore/internal/domain"
	"github.com/shopsense/searchcore/internal/metrics"
	cataloguc "github.com/shopsense/searchcore/internal/usecase/catalog"
	eventuc "github.com/shopsense/searchcore/internal/usecase/event"
	healthuc "github.com/shopsense/searchcore/internal/usecase/health"
	searchuc "github.com/shopsense/searchcore/internal/usecase/search"
)

// Server wires the use case services to HTTP handlers.
type Server struct {
	search        *searchuc.Service
	events        *eventuc.Service
	catalog       *cataloguc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates the HTTP API server.
func NewServer(
	search *searchuc.Service,
	events *eventuc.Service,
	catalog *cataloguc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:  search,
		events:  events,
		catalog: catalog,
		health:  health,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, "invalid_request"),
		sentinelHandler(domain.ErrProductNotFound, http.StatusNotFound, "product_not_found"),
		sentinelHandler(domain.ErrEventDropped, http.StatusTooManyRequests, "event_dropped"),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, "embedding_provider_error"),
		sentinelHandler(domain.ErrRetrievalUnavailable, http.StatusServiceUnavailable, "retrieval_unavailable"),
	}
	return s
}

// Routes registers all endpoints on the given router.
func (s *Server) Routes(r gochi.Router) {
	r.Route("/api/v1", func(r gochi.Router) {
		r.Post("/search", s.handleSearch)
		r.Post("/events", s.handleSubmitEvent)
		r.Put("/products/{id}", s.handleUpsertProduct)
		r.Get("/products/{id}", s.handleGetProduct)
	})
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
}

// handleSearch handles POST /api/v1/search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body: "+err.Error())
		return
	}

	res, err := s.search.Search(r.Context(), &searchuc.Request{
		Query:       req.Query,
		Constraints: req.Constraints.toDomain(),
		Limit:       req.Limit,
	})
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	results := make([]searchResultDTO, len(res.Items))
	for i, item := range res.Items {
		results[i] = searchResultDTO{
			ID:              item.Product.ID,
			Title:           item.Product.Title,
			Description:     item.Product.Description,
			Price:           item.Product.Price,
			Rating:          item.Product.Rating,
			Category:        item.Product.Category,
			Brand:           item.Product.Brand,
			Attributes:      item.Product.Attributes,
			Score:           item.Score,
			SimilarityScore: item.Similarity,
			EngagementRatio: item.EngagementRatio,
			ColdStart:       item.ColdStart,
			Explanation:     item.Explanation,
		}
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Query:        req.Query,
		CleanedQuery: res.Cleaned,
		Constraints:  constraintsToDTO(res.Constraints),
		Fallback:     res.Fallback,
		Count:        len(results),
		Results:      results,
	})
}

// handleSubmitEvent handles POST /api/v1/events. Accepted events are
// processed asynchronously, hence 202.
func (s *Server) handleSubmitEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body: "+err.Error())
		return
	}

	ev := domain.Event{
		Type:      domain.EventType(req.Type),
		Query:     req.Query,
		ProductID: req.ProductID,
		SessionID: req.SessionID,
	}
	if req.Timestamp != nil {
		ev.Timestamp = *req.Timestamp
	}

	if err := s.events.Submit(r.Context(), &ev); err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// handleUpsertProduct handles PUT /api/v1/products/{id}.
func (s *Server) handleUpsertProduct(w http.ResponseWriter, r *http.Request) {
	var req productUpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body: "+err.Error())
		return
	}

	p := domain.Product{
		ID:          gochi.URLParam(r, "id"),
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Rating:      req.Rating,
		Category:    req.Category,
		Brand:       req.Brand,
		Attributes:  req.Attributes,
	}
	if err := s.catalog.Upsert(r.Context(), &p); err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, productToDTO(&p))
}

// handleGetProduct handles GET /api/v1/products/{id}.
func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.catalog.Get(r.Context(), gochi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, productToDTO(p))
}

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	st := s.health.Check(ctx)
	status := http.StatusOK
	if !st.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponse{Healthy: st.Healthy, Components: st.Components})
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("unhandled domain error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}

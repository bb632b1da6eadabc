package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/groupdir-io/groupdir/internal/models"
	"github.com/groupdir-io/groupdir/internal/query"
)

// Searcher executes a compiled predicate tree against the group index.
// Implemented by *groups.Index.
type Searcher interface {
	Search(ctx context.Context, p query.Predicate) ([]models.Group, error)
}

// SearchHandler serves the group search endpoint.
type SearchHandler struct {
	builder *query.Builder
	index   Searcher
	timeout time.Duration
}

// NewSearchHandler wires the query compiler to the index executor.
func NewSearchHandler(builder *query.Builder, index Searcher, timeout time.Duration) *SearchHandler {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &SearchHandler{builder: builder, index: index, timeout: timeout}
}

type searchResponse struct {
	Query string         `json:"query"`
	Total int            `json:"total"`
	Took  int64          `json:"took_ms"`
	Hits  []models.Group `json:"hits"`
}

// HandleSearch handles GET /api/v1/groups/search?q=...
func (h *SearchHandler) HandleSearch(c *gin.Context) {
	raw := c.Query("q")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing q parameter"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	start := time.Now()
	pred, err := h.builder.Compile(ctx, raw)
	if err != nil {
		h.writeError(c, err)
		return
	}

	hits, err := h.index.Search(ctx, pred)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if hits == nil {
		hits = []models.Group{}
	}

	searchesTotal.WithLabelValues("ok").Inc()
	searchDuration.Observe(time.Since(start).Seconds())
	c.JSON(http.StatusOK, searchResponse{
		Query: raw,
		Total: len(hits),
		Took:  time.Since(start).Milliseconds(),
		Hits:  hits,
	})
}

// writeError maps the query error taxonomy onto HTTP statuses: user
// mistakes are 400, schema gaps 422, operational failures 503.
func (h *SearchHandler) writeError(c *gin.Context, err error) {
	kind := query.KindOf(err)
	searchesTotal.WithLabelValues(kind.String()).Inc()

	status := http.StatusBadRequest
	message := err.Error()
	switch kind {
	case query.KindUnsupported:
		status = http.StatusUnprocessableEntity
	case query.KindUnavailable:
		status = http.StatusServiceUnavailable
		// Operational detail stays in the log, not the response.
		var qe *query.Error
		if errors.As(err, &qe) {
			message = qe.Message
		}
		log.Printf("group search unavailable: %v", err)
	}
	c.JSON(status, gin.H{"error": message, "kind": kind.String()})
}

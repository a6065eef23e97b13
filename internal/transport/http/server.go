package transporthttp

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"signalpost/internal/signal"
	"signalpost/internal/store"
)

// Runner executes one pipeline pass. The orchestrator satisfies this; tests
// substitute fakes.
type Runner interface {
	Run(ctx context.Context) signal.RunResult
}

type Server struct {
	runner        Runner
	store         store.Store
	hardCharLimit int
	maxPerDay     int
	log           *slog.Logger
}

func NewServer(runner Runner, st store.Store, hardCharLimit, maxPerDay int, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		runner:        runner,
		store:         st,
		hardCharLimit: hardCharLimit,
		maxPerDay:     maxPerDay,
		log:           log,
	}
}

func (s *Server) Routes() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", s.health)
	r.POST("/run", s.handleRun)
	r.GET("/items", s.handleListItems)
	r.GET("/drafts", s.handleListDrafts)
	r.POST("/drafts/:id/review", s.handleReviewDraft)
	r.GET("/schedule", s.handleSchedule)
	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "signalpost"})
}

// handleRun executes one pipeline pass synchronously. A run that finished
// with recorded errors reports 500 with the full result so callers can see
// partial progress.
func (s *Server) handleRun(c *gin.Context) {
	result := s.runner.Run(c.Request.Context())
	status := http.StatusOK
	if len(result.Errors) > 0 {
		status = http.StatusInternalServerError
	}
	c.JSON(status, result)
}

// handleListItems returns stored signal items, optionally restricted to a
// collected-at time range (RFC3339 "since"/"until" query params).
func (s *Server) handleListItems(c *gin.Context) {
	var since, until time.Time
	if raw := c.Query("since"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be RFC3339"})
			return
		}
		since = ts
	}
	if raw := c.Query("until"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "until must be RFC3339"})
			return
		}
		until = ts
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	items, err := signal.ItemsCollectedBetween(c.Request.Context(), s.store, since, until, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "count": len(items)})
}

func (s *Server) handleListDrafts(c *gin.Context) {
	q := store.Query{}
	if status := c.Query("status"); status != "" {
		parsed, err := signal.ParseDraftStatus(status)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		q.FieldEquals = map[string]string{"status": string(parsed)}
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil && limit > 0 {
		q.Limit = limit
	}

	docs, err := s.store.List(c.Request.Context(), signal.CollectionDrafts, q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	drafts := make([]signal.DraftPost, 0, len(docs))
	for _, doc := range docs {
		draft, err := signal.DraftFromFields(doc)
		if err != nil {
			s.log.Warn("skipping malformed draft document", "error", err)
			continue
		}
		drafts = append(drafts, draft)
	}
	sort.Slice(drafts, func(i, j int) bool {
		return drafts[i].CreatedAt.After(drafts[j].CreatedAt)
	})

	c.JSON(http.StatusOK, gin.H{"drafts": drafts, "count": len(drafts)})
}

type reviewRequest struct {
	Status      string `json:"status" binding:"required"`
	Content     string `json:"content"`
	HumanLines  string `json:"human_lines"`
	ReviewNotes string `json:"review_notes"`
}

// handleReviewDraft applies a human review decision: approve or reject, with
// optional content edits and signature lines.
func (s *Server) handleReviewDraft(c *gin.Context) {
	id := c.Param("id")

	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status, err := signal.ParseDraftStatus(req.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if status == signal.StatusPending {
		c.JSON(http.StatusBadRequest, gin.H{"error": "review must set status to approved or rejected"})
		return
	}
	if err := signal.ValidateHumanLines(req.HumanLines); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if n := len([]rune(req.Content)); n > s.hardCharLimit {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content exceeds " + strconv.Itoa(s.hardCharLimit) + " chars"})
		return
	}

	doc, err := s.store.Get(c.Request.Context(), signal.CollectionDrafts, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if doc == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "draft not found"})
		return
	}

	fields := map[string]any{
		"status":      string(status),
		"reviewed_at": time.Now().UTC().Format(time.RFC3339),
	}
	if req.Content != "" {
		fields["content"] = req.Content
	}
	if req.HumanLines != "" {
		fields["human_lines"] = req.HumanLines
	}
	if req.ReviewNotes != "" {
		fields["review_notes"] = req.ReviewNotes
	}

	if err := s.store.UpsertMerge(c.Request.Context(), signal.CollectionDrafts, id, fields); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	updated, err := s.store.Get(c.Request.Context(), signal.CollectionDrafts, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, updated)
}

// handleSchedule compiles the weekly schedule over currently approved drafts.
func (s *Server) handleSchedule(c *gin.Context) {
	drafts, err := signal.ApprovedDrafts(c.Request.Context(), s.store)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	schedule := signal.CompileWeek(drafts, time.Now(), s.maxPerDay)
	c.JSON(http.StatusOK, schedule)
}

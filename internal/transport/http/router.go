package http

import (
	"errors"
	"net/http"
	"strconv"

	"geoquiz-service/internal/app"
	"geoquiz-service/internal/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// API bundles the use cases served over HTTP.
type API struct {
	Service      *app.QuizService
	Pools        *app.PoolLoader
	Leaderboard  *app.Leaderboard
	Achievements *app.Achievements
	// Catalog backs GET /categories; the route is absent when nil.
	Catalog app.CategoryCatalog
	Log     *zap.Logger
}

// NewRouter mounts the REST endpoints and the quiz websocket on a gin engine.
func NewRouter(api API) *gin.Engine {
	if api.Log == nil {
		api.Log = zap.NewNop()
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(api.Log))

	router.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	router.GET("/leaderboard", api.leaderboard)
	router.GET("/users/:id", api.userRecord)
	router.GET("/users/:id/achievements", api.achievements)
	router.GET("/users/:id/session", api.activeSession)
	router.GET("/achievements", func(c *gin.Context) {
		c.JSON(http.StatusOK, domain.Milestones())
	})
	if api.Catalog != nil {
		router.GET("/categories", api.categories)
	}
	router.GET("/categories/:id", api.category)
	router.GET("/ws", gin.WrapF(NewWSHandler(api.Service, api.Log).ServeWS))
	return router
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		log.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()))
	}
}

type leaderboardResponse struct {
	Window  domain.Window              `json:"window"`
	Entries []domain.LeaderboardRecord `json:"entries"`
}

func (a API) leaderboard(c *gin.Context) {
	window, err := domain.ParseWindow(c.Query("window"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	entries, err := a.Leaderboard.Ranked(c.Request.Context(), window)
	if err != nil {
		a.Log.Warn("rank leaderboard failed", zap.String("window", string(window)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		if limit < len(entries) {
			entries = entries[:limit]
		}
	}
	c.JSON(http.StatusOK, leaderboardResponse{Window: window, Entries: entries})
}

func (a API) userRecord(c *gin.Context) {
	rec, err := a.Leaderboard.Record(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (a API) achievements(c *gin.Context) {
	progress, err := a.Achievements.Progress(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, progress)
}

type activeSessionResponse struct {
	Active    bool   `json:"active"`
	SessionID string `json:"sessionId,omitempty"`
}

func (a API) activeSession(c *gin.Context) {
	id, ok := a.Service.ActiveSessionID(c.Request.Context(), c.Param("id"))
	c.JSON(http.StatusOK, activeSessionResponse{Active: ok, SessionID: id})
}

func (a API) categories(c *gin.Context) {
	cats, err := a.Catalog.Categories(c.Request.Context())
	switch {
	case errors.Is(err, domain.ErrContentUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if cats == nil {
		cats = []domain.Category{}
	}
	c.JSON(http.StatusOK, cats)
}

type categoryResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Playable int    `json:"playableQuestions"`
}

func (a API) category(c *gin.Context) {
	category, playable, err := a.Pools.Playable(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, domain.ErrContentUnavailable):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, categoryResponse{ID: category.ID, Name: category.Name, Playable: playable})
}

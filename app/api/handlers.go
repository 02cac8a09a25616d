package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feedmill/feedmill/app/feed"
	"github.com/feedmill/feedmill/app/gather"
)

func NewHandler(gatherer *gather.Gatherer) *Handler {
	return &Handler{
		gatherer:  gatherer,
		generator: feed.NewGenerator(),
	}
}

func (h *Handler) GetFeed(c *gin.Context) {
	feedURL := c.Query("url")
	if feedURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing url parameter"})
		return
	}

	opts := gather.OptionsFromQuery(c.Request.URL.Query())

	parsed, baseURL, err := h.gatherer.FetchFeed(c.Request.Context(), feedURL, opts)
	if err != nil {
		slog.Error("Feed fetch failed", "url", feedURL, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch feed", "details": err.Error()})
		return
	}

	result := h.gatherer.Run(c.Request.Context(), parsed, baseURL, opts)

	body, contentType, err := h.generator.Run(result, opts.Format)
	if err != nil {
		slog.Error("Feed rendering failed", "url", feedURL, "format", opts.Format, "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to render feed", "details": err.Error()})
		return
	}

	c.Header("Content-Type", contentType)
	c.Header("X-Feed-Items", strconv.Itoa(result.Len()))

	c.String(http.StatusOK, body)
}

func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	})
}

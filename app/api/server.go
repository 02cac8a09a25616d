package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feedmill/feedmill/app/cfg"
)

// NewServer creates the HTTP engine with all routes configured
func NewServer(handler *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.Request.Proto,
				param.StatusCode,
				param.Latency,
				param.Request.UserAgent(),
				param.ErrorMessage,
			)
		},
	}))

	r.Use(gin.Recovery())

	// CORS middleware, feeds get consumed by in-browser readers
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	setupRoutes(r, handler)

	return r
}

func setupRoutes(r *gin.Engine, handler *Handler) {
	r.GET("/feed", handler.GetFeed)
	r.GET("/health", handler.GetHealth)

	r.GET("/", func(c *gin.Context) {
		base := cfg.Get().BaseUrl
		c.JSON(200, gin.H{
			"service":     "feedmill",
			"version":     cfg.Get().Version,
			"description": "Turns partial RSS/Atom feeds into full-text feeds",
			"endpoints": map[string]string{
				"feed":   base + "/feed?url=<feed url>",
				"health": base + "/health",
			},
			"options": "proxy, cache, hungry, firstlink, resolve, nolink, noref, clip, newest, mono, search=<text>, format=rss|json|html|csv",
		})
	})

	// return 204 to avoid 404s
	r.GET("/favicon.ico", func(c *gin.Context) {
		c.Status(204)
	})
}

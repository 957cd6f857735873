package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"procagent/internal/config"
)

func attachRoutes(r *gin.Engine, cfg config.ServerConfig, deps Deps) {
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:  cfg.AllowedOrigins,
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type"},
			ExposeHeaders: []string{"Content-Length"},
		}))
	}

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	missionH := NewMissions(deps.Agents, deps.DefaultMode)
	procH := NewProcesses(deps.Processes)
	journalH := NewJournal(deps.History)

	v1 := r.Group("/v1")
	{
		v1.POST("/missions", missionH.Perform)
		v1.GET("/processes", procH.List)
		v1.GET("/processes/:key", procH.Get)
		v1.GET("/journal", journalH.Recent)
		v1.GET("/journal/:id", journalH.Get)
		v1.GET("/stats", journalH.Stats)
		v1.GET("/usage", usageHandler(deps.Usage))
	}
}

func usageHandler(source UsageSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		if source == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"err": "usage accounting disabled"})
			return
		}
		c.JSON(http.StatusOK, source.Stats())
	}
}

package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"procagent/internal/agent"
)

type Missions struct {
	agents      map[agent.Mode]Runner
	defaultMode agent.Mode
}

func NewMissions(agents map[agent.Mode]Runner, defaultMode agent.Mode) Missions {
	return Missions{agents: agents, defaultMode: defaultMode}
}

// Perform runs one mission. Success answers 200, an insufficient decision
// 422, a fatal brain or cognition error 502 and anything else 500.
func (m Missions) Perform(c *gin.Context) {
	var req struct {
		Mission  string `json:"mission" binding:"required"`
		Stimulus string `json:"stimulus"`
		Mode     string `json:"mode" binding:"omitempty,oneof=select synthesize"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"err": err.Error()})
		return
	}

	mode := m.defaultMode
	if req.Mode != "" {
		mode = agent.Mode(req.Mode)
	}
	runner, ok := m.agents[mode]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"err": "mode not available: " + string(mode)})
		return
	}

	report, err := runner.Run(c.Request.Context(), req.Mission, req.Stimulus)
	switch {
	case err != nil && agent.IsFatal(err):
		c.JSON(http.StatusBadGateway, gin.H{"err": err.Error(), "report": report})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error(), "report": report})
	case report.Result == agent.InsufficientProcessingFailure:
		c.JSON(http.StatusUnprocessableEntity, gin.H{"report": report})
	default:
		c.JSON(http.StatusOK, gin.H{"report": report})
	}
}

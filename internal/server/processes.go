package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"procagent/internal/process"
	"procagent/internal/types"
)

type Processes struct{ source types.ProcessSource }

func NewProcesses(source types.ProcessSource) Processes { return Processes{source: source} }

type processSummary struct {
	Key         string `json:"key"`
	Version     int    `json:"version"`
	Description string `json:"description,omitempty"`
	Nodes       int    `json:"nodes"`
}

func (p Processes) List(c *gin.Context) {
	all := p.source.All()
	out := make([]processSummary, 0, len(all))
	for _, proc := range all {
		out = append(out, processSummary{
			Key:         proc.Key,
			Version:     proc.Version,
			Description: proc.Description,
			Nodes:       len(proc.Nodes),
		})
	}
	c.JSON(http.StatusOK, out)
}

func (p Processes) Get(c *gin.Context) {
	proc, err := p.source.Build(c.Param("key"))
	if errors.Is(err, process.ErrUnknownProcess) {
		c.JSON(http.StatusNotFound, gin.H{"err": "process not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, proc)
}

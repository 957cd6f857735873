package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"procagent/internal/journal"
)

const (
	defaultJournalLimit = 20
	maxJournalLimit     = 500
)

type Journal struct{ history History }

func NewJournal(history History) Journal { return Journal{history: history} }

func (j Journal) enabled(c *gin.Context) bool {
	if j.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"err": "journal disabled"})
		return false
	}
	return true
}

func (j Journal) Recent(c *gin.Context) {
	if !j.enabled(c) {
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultJournalLimit)))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"err": "bad limit"})
		return
	}
	if limit > maxJournalLimit {
		limit = maxJournalLimit
	}
	entries, err := j.history.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	c.JSON(http.StatusOK, entries)
}

func (j Journal) Get(c *gin.Context) {
	if !j.enabled(c) {
		return
	}
	entry, err := j.history.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, journal.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"err": "invocation not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (j Journal) Stats(c *gin.Context) {
	if !j.enabled(c) {
		return
	}
	counts, err := j.history.CountByResult(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"err": err.Error()})
		return
	}
	c.JSON(http.StatusOK, counts)
}

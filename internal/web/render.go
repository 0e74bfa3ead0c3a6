package web

import (
	"encoding/gob"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bigredeye/raport/internal/models"
)

const (
	flashError   = "error"
	flashSuccess = "success"
)

type Flash struct {
	Category string
	Message  string
}

// memstore copies session values through gob.
func init() {
	gob.Register(Flash{})
}

func addFlash(c *gin.Context, category, message string) {
	sessions.Default(c).AddFlash(Flash{Category: category, Message: message})
}

func (s *server) saveSession(c *gin.Context) {
	if err := sessions.Default(c).Save(); err != nil {
		s.logger.Error("Failed to save session", zap.Error(err))
	}
}

// redirectWithFlash queues a message for the next rendered page and answers
// with 303 so the browser follows up with a GET.
func (s *server) redirectWithFlash(c *gin.Context, location, category, message string) {
	addFlash(c, category, message)
	s.saveSession(c)
	c.Redirect(http.StatusSeeOther, location)
}

// render fills in the values every page uses and consumes pending flashes.
func (s *server) render(c *gin.Context, name string, data gin.H) {
	session := sessions.Default(c)
	flashes := make([]Flash, 0)
	for _, v := range session.Flashes() {
		if flash, ok := v.(Flash); ok {
			flashes = append(flashes, flash)
		}
	}
	s.saveSession(c)

	data["Config"] = s.config
	data["Flashes"] = flashes
	data["Admin"] = sessionAdmin(c)
	data["Subjects"] = models.Subjects
	c.HTML(http.StatusOK, name, data)
}

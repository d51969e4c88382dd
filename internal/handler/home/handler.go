package home

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-booking/internal/handler"
)

const welcomeMessage = "Welcome to the Clinic Management System!"

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/chatbot", h.Chatbot)
	r.GET("/welcome", h.Welcome)
}

func (h *Handler) Chatbot(c *gin.Context) {
	handler.Render(c, http.StatusOK, "chatbot.html", nil)
}

// Welcome returns a JSON greeting.
func (h *Handler) Welcome(c *gin.Context) {
	log.Info().
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Msg("Request received")
	c.JSON(http.StatusOK, gin.H{"message": welcomeMessage})
}

package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-booking/internal/handler"
	"github.com/jwalitptl/clinic-booking/internal/middleware"
	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/service/auth"
	"github.com/jwalitptl/clinic-booking/internal/session"
	apperrors "github.com/jwalitptl/clinic-booking/pkg/errors"
	"github.com/jwalitptl/clinic-booking/pkg/validator"
)

type Handler struct {
	svc     *auth.Service
	limiter *middleware.RateLimiter
}

// NewHandler wires the account pages. limiter may be nil to disable
// throttling of credential posts.
func NewHandler(svc *auth.Service, limiter *middleware.RateLimiter) *Handler {
	return &Handler{svc: svc, limiter: limiter}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	anon := r.Group("", middleware.RequireAnonymous())
	{
		anon.GET("/register", h.RegisterForm)
		anon.POST("/register", h.throttle(), h.Register)
		anon.GET("/doctor_register", h.DoctorRegisterForm)
		anon.POST("/doctor_register", h.throttle(), h.DoctorRegister)
		anon.GET("/login", h.LoginForm)
		anon.POST("/login", h.throttle(), h.Login)
	}
	r.GET("/logout", middleware.RequireLogin(), h.Logout)
}

func (h *Handler) throttle() gin.HandlerFunc {
	if h.limiter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return h.limiter.RateLimit()
}

func (h *Handler) RegisterForm(c *gin.Context) {
	handler.Render(c, http.StatusOK, "register.html", gin.H{"Form": model.RegisterRequest{}})
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if errs := handler.Bind(c, &req); errs != nil {
		handler.Render(c, http.StatusUnprocessableEntity, "register.html", gin.H{"Form": req, "Errors": errs})
		return
	}

	if _, err := h.svc.Register(c.Request.Context(), req); err != nil {
		if h.rejected(c, err, "register.html", req) {
			return
		}
		handler.Fail(c, err)
		return
	}

	handler.Flash(c, session.FlashSuccess, "Registered successfully. Please login.")
	handler.Redirect(c, "/login")
}

func (h *Handler) DoctorRegisterForm(c *gin.Context) {
	handler.Render(c, http.StatusOK, "doctor_register.html", gin.H{
		"Form": model.DoctorRegisterRequest{DoctorProfileRequest: model.DoctorProfileRequest{VisitTypes: model.VisitBoth}},
	})
}

func (h *Handler) DoctorRegister(c *gin.Context) {
	var req model.DoctorRegisterRequest
	if errs := handler.Bind(c, &req); errs != nil {
		handler.Render(c, http.StatusUnprocessableEntity, "doctor_register.html", gin.H{"Form": req, "Errors": errs})
		return
	}

	if _, _, err := h.svc.RegisterDoctor(c.Request.Context(), req); err != nil {
		if h.rejected(c, err, "doctor_register.html", req) {
			return
		}
		handler.Fail(c, err)
		return
	}

	handler.Flash(c, session.FlashSuccess, "Doctor registration submitted. Awaiting admin approval.")
	handler.Redirect(c, "/login")
}

// rejected re-renders the form for errors the user can fix.
func (h *Handler) rejected(c *gin.Context, err error, page string, form any) bool {
	switch apperrors.CodeOf(err) {
	case apperrors.ErrConflict:
		handler.Flash(c, session.FlashDanger, apperrors.UserMessage(err))
		handler.Render(c, http.StatusOK, page, gin.H{"Form": form})
		return true
	case apperrors.ErrBadRequest:
		handler.Render(c, http.StatusUnprocessableEntity, page, gin.H{
			"Form":   form,
			"Errors": map[string]string{validator.FormErrorKey: apperrors.UserMessage(err)},
		})
		return true
	}
	return false
}

func (h *Handler) LoginForm(c *gin.Context) {
	handler.Render(c, http.StatusOK, "login.html", gin.H{
		"Form": model.LoginRequest{},
		"Next": c.Query("next"),
	})
}

func (h *Handler) Login(c *gin.Context) {
	next := c.Query("next")

	var req model.LoginRequest
	if errs := handler.Bind(c, &req); errs != nil {
		handler.Render(c, http.StatusUnprocessableEntity, "login.html", gin.H{"Form": req, "Errors": errs, "Next": next})
		return
	}

	user, err := h.svc.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			handler.Fail(c, err)
			return
		}
		log.Info().Str("client_ip", c.ClientIP()).Msg("login rejected")
		handler.Flash(c, session.FlashDanger, "Invalid credentials")
		handler.Render(c, http.StatusOK, "login.html", gin.H{"Form": model.LoginRequest{Username: req.Username}, "Next": next})
		return
	}

	session.Renew(c).SetUser(user.ID)
	handler.Flash(c, session.FlashSuccess, "Logged in successfully")
	handler.Redirect(c, middleware.SafeNext(next))
}

func (h *Handler) Logout(c *gin.Context) {
	session.Renew(c)
	handler.Flash(c, session.FlashInfo, "Logged out")
	handler.Redirect(c, "/")
}

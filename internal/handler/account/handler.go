package account

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-booking/internal/handler"
	"github.com/jwalitptl/clinic-booking/internal/middleware"
	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/service/user"
	"github.com/jwalitptl/clinic-booking/internal/session"
)

type Handler struct {
	users *user.Service
}

func NewHandler(users *user.Service) *Handler {
	return &Handler{users: users}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	profile := r.Group("/profile", middleware.RequireLogin())
	{
		profile.GET("", h.ProfileForm)
		profile.POST("", h.UpdateProfile)
	}
}

// ProfileFormFor pre-fills the profile form from a stored user.
func ProfileFormFor(u *model.User) model.ProfileRequest {
	return model.ProfileRequest{
		Address: u.Address,
		City:    u.City,
		DOB:     u.DOBString(),
	}
}

func (h *Handler) ProfileForm(c *gin.Context) {
	current := middleware.CurrentUser(c)
	handler.Render(c, http.StatusOK, "profile.html", gin.H{"Form": ProfileFormFor(current)})
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	current := middleware.CurrentUser(c)

	var req model.ProfileRequest
	if errs := handler.Bind(c, &req); errs != nil {
		handler.Render(c, http.StatusUnprocessableEntity, "profile.html", gin.H{"Form": req, "Errors": errs})
		return
	}

	if err := h.users.UpdateProfile(c.Request.Context(), current.ID, req); err != nil {
		handler.Fail(c, err)
		return
	}

	handler.Flash(c, session.FlashSuccess, "Profile updated.")
	handler.Redirect(c, "/profile")
}

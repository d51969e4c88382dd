package admin

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-booking/internal/handler"
	"github.com/jwalitptl/clinic-booking/internal/handler/account"
	"github.com/jwalitptl/clinic-booking/internal/middleware"
	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/service/appointment"
	"github.com/jwalitptl/clinic-booking/internal/service/doctor"
	"github.com/jwalitptl/clinic-booking/internal/service/user"
	"github.com/jwalitptl/clinic-booking/internal/session"
)

const (
	panelPath = "/admin"
	usersPath = "/admin_users"
)

// Contact is the administrator contact shown on the panel.
type Contact struct {
	Email string
	Phone string
}

type Handler struct {
	doctors      *doctor.Service
	users        *user.Service
	appointments *appointment.Service
	contact      Contact
}

func NewHandler(doctors *doctor.Service, users *user.Service, appointments *appointment.Service, contact Contact) *Handler {
	return &Handler{
		doctors:      doctors,
		users:        users,
		appointments: appointments,
		contact:      contact,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	admin := r.Group("", middleware.RequireLogin(), middleware.RequireAdmin())
	{
		admin.GET("/admin", h.Panel)
		admin.GET("/admin/add_doctor", h.AddDoctorForm)
		admin.POST("/admin/add_doctor", h.AddDoctor)
		admin.POST("/admin/approve_doctor/:id", h.ApproveDoctor)
		admin.GET("/admin/schedule/:id", h.Schedule)
		admin.POST("/admin/delete_doctor/:id", h.DeleteDoctor)

		admin.GET("/admin_users", h.Users)
		admin.GET("/admin_edit_user/:id", h.EditUserForm)
		admin.POST("/admin_edit_user/:id", h.EditUser)
		admin.POST("/admin_delete_user/:id", h.DeleteUser)
	}
}

// panelData loads the doctor and user lists shown on every panel view.
func (h *Handler) panelData(c *gin.Context) (gin.H, error) {
	ctx := c.Request.Context()
	doctors, err := h.doctors.List(ctx)
	if err != nil {
		return nil, err
	}
	users, err := h.users.List(ctx)
	if err != nil {
		return nil, err
	}
	return gin.H{
		"Doctors":      doctors,
		"Users":        users,
		"AdminEmail":   h.contact.Email,
		"AdminContact": h.contact.Phone,
	}, nil
}

func (h *Handler) Panel(c *gin.Context) {
	data, err := h.panelData(c)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Render(c, http.StatusOK, "admin_panel.html", data)
}

func (h *Handler) AddDoctorForm(c *gin.Context) {
	handler.Render(c, http.StatusOK, "add_doctor.html", gin.H{
		"Form": model.DoctorProfileRequest{VisitTypes: model.VisitBoth},
	})
}

func (h *Handler) AddDoctor(c *gin.Context) {
	var req model.DoctorProfileRequest
	if errs := handler.Bind(c, &req); errs != nil {
		handler.Render(c, http.StatusUnprocessableEntity, "add_doctor.html", gin.H{"Form": req, "Errors": errs})
		return
	}

	if _, err := h.doctors.Add(c.Request.Context(), req); err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Flash(c, session.FlashSuccess, "Doctor added")
	handler.Redirect(c, panelPath)
}

// ApproveDoctor takes the doctor's user id. Non-doctor users are ignored.
func (h *Handler) ApproveDoctor(c *gin.Context) {
	userID, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	doc, err := h.doctors.Approve(c.Request.Context(), userID)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	if doc != nil {
		handler.Flash(c, session.FlashSuccess, fmt.Sprintf("Doctor %s approved.", doc.Name))
	}
	handler.Redirect(c, panelPath)
}

// Schedule shows the panel with one doctor's appointments for ?date=.
func (h *Handler) Schedule(c *gin.Context) {
	doctorID, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	doc, day, appts, err := h.appointments.Schedule(c.Request.Context(), doctorID, c.Query("date"))
	if err != nil {
		handler.Fail(c, err)
		return
	}

	data, err := h.panelData(c)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	data["ScheduleDoctor"] = doc
	data["ScheduleDate"] = day
	data["Schedule"] = appts
	handler.Render(c, http.StatusOK, "admin_panel.html", data)
}

func (h *Handler) DeleteDoctor(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.doctors.Delete(c.Request.Context(), id); err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Flash(c, session.FlashSuccess, "Doctor deleted successfully")
	handler.Redirect(c, panelPath)
}

func (h *Handler) Users(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Render(c, http.StatusOK, "admin_users.html", gin.H{"Users": users})
}

func (h *Handler) EditUserForm(c *gin.Context) {
	u, ok := h.user(c)
	if !ok {
		return
	}
	handler.Render(c, http.StatusOK, "admin_edit_user.html", gin.H{"User": u, "Form": account.ProfileFormFor(u)})
}

func (h *Handler) EditUser(c *gin.Context) {
	u, ok := h.user(c)
	if !ok {
		return
	}

	var req model.ProfileRequest
	if errs := handler.Bind(c, &req); errs != nil {
		handler.Render(c, http.StatusUnprocessableEntity, "admin_edit_user.html", gin.H{"User": u, "Form": req, "Errors": errs})
		return
	}

	if err := h.users.UpdateProfile(c.Request.Context(), u.ID, req); err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Flash(c, session.FlashSuccess, "User updated.")
	handler.Redirect(c, usersPath)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.users.Delete(c.Request.Context(), id); err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Flash(c, session.FlashSuccess, "User deleted successfully")
	handler.Redirect(c, usersPath)
}

func (h *Handler) user(c *gin.Context) (*model.User, bool) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return nil, false
	}
	u, err := h.users.Get(c.Request.Context(), id)
	if err != nil {
		handler.Fail(c, err)
		return nil, false
	}
	return u, true
}

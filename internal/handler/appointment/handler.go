package appointment

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-booking/internal/handler"
	"github.com/jwalitptl/clinic-booking/internal/middleware"
	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/service/appointment"
	"github.com/jwalitptl/clinic-booking/internal/session"
	apperrors "github.com/jwalitptl/clinic-booking/pkg/errors"
)

const (
	adminPanelPath      = "/admin"
	myAppointmentsPath  = "/my_appointments"
	doctorDashboardPath = "/doctor_dashboard"
)

type Handler struct {
	svc *appointment.Service
}

func NewHandler(svc *appointment.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	appts := r.Group("", middleware.RequireLogin())
	{
		appts.GET("/book/:id", h.BookForm)
		appts.POST("/book/:id", h.Book)
		appts.GET("/my_appointments", h.MyAppointments)
		appts.GET("/cancel/:id", h.Cancel)
		appts.POST("/cancel/:id", h.Cancel)
		appts.GET("/reschedule/:id", h.RescheduleForm)
		appts.POST("/reschedule/:id", h.Reschedule)
		appts.GET("/doctor_dashboard", h.Dashboard)
		appts.POST("/accept_appointment/:id", h.Accept)
		appts.POST("/decline_appointment/:id", h.Decline)
	}
}

func (h *Handler) BookForm(c *gin.Context) {
	doc, ok := h.bookable(c)
	if !ok {
		return
	}
	form := model.AppointmentRequest{}
	if len(doc.VisitTypes) > 0 {
		form.VisitType = doc.VisitTypes[0]
	}
	handler.Render(c, http.StatusOK, "book_appointment.html", gin.H{"Doctor": doc, "Form": form})
}

func (h *Handler) Book(c *gin.Context) {
	doc, ok := h.bookable(c)
	if !ok {
		return
	}

	var req model.AppointmentRequest
	if errs := handler.Bind(c, &req); errs != nil {
		handler.Render(c, http.StatusUnprocessableEntity, "book_appointment.html", gin.H{"Doctor": doc, "Form": req, "Errors": errs})
		return
	}

	user := middleware.CurrentUser(c)
	if _, err := h.svc.Book(c.Request.Context(), user, doc.ID, req); err != nil {
		if errors.Is(err, appointment.ErrSlotTaken) {
			handler.Flash(c, session.FlashWarning, apperrors.UserMessage(err))
			handler.Render(c, http.StatusOK, "book_appointment.html", gin.H{"Doctor": doc, "Form": req})
			return
		}
		if h.redirected(c, err) {
			return
		}
		handler.Fail(c, err)
		return
	}

	handler.Flash(c, session.FlashSuccess, "Appointment requested. You can view in My Appointments.")
	handler.Redirect(c, myAppointmentsPath)
}

// bookable resolves the doctor from the path, redirecting admins and
// unverified doctors away.
func (h *Handler) bookable(c *gin.Context) (*model.Doctor, bool) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return nil, false
	}
	doc, err := h.svc.BookableDoctor(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		if !h.redirected(c, err) {
			handler.Fail(c, err)
		}
		return nil, false
	}
	return doc, true
}

// redirected turns booking refusals into a warning and a redirect.
func (h *Handler) redirected(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, appointment.ErrAdminCannotBook):
		handler.Flash(c, session.FlashWarning, apperrors.UserMessage(err))
		handler.Redirect(c, adminPanelPath)
	case errors.Is(err, appointment.ErrDoctorNotVerified):
		handler.Flash(c, session.FlashWarning, apperrors.UserMessage(err))
		handler.Redirect(c, "/")
	default:
		return false
	}
	return true
}

func (h *Handler) MyAppointments(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user.IsAdmin() {
		handler.Flash(c, session.FlashWarning, "Admins cannot view personal appointments. Please manage doctors from the admin panel.")
		handler.Redirect(c, adminPanelPath)
		return
	}

	appts, err := h.svc.ListForPatient(c.Request.Context(), user)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Render(c, http.StatusOK, "my_appointments.html", gin.H{"Appointments": appts})
}

func (h *Handler) Cancel(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Cancel(c.Request.Context(), middleware.CurrentUser(c), id); err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Flash(c, session.FlashInfo, "Appointment cancelled")
	handler.Redirect(c, myAppointmentsPath)
}

func (h *Handler) RescheduleForm(c *gin.Context) {
	appt, ok := h.reschedulable(c)
	if !ok {
		return
	}
	handler.Render(c, http.StatusOK, "reschedule.html", gin.H{
		"Appointment": appt,
		"Form":        model.RescheduleRequest{Date: appt.Date, Time: appt.Time, Notes: appt.Notes},
	})
}

func (h *Handler) Reschedule(c *gin.Context) {
	appt, ok := h.reschedulable(c)
	if !ok {
		return
	}

	var req model.RescheduleRequest
	if errs := handler.Bind(c, &req); errs != nil {
		handler.Render(c, http.StatusUnprocessableEntity, "reschedule.html", gin.H{"Appointment": appt, "Form": req, "Errors": errs})
		return
	}

	if _, err := h.svc.Reschedule(c.Request.Context(), middleware.CurrentUser(c), appt.ID, req); err != nil {
		switch {
		case errors.Is(err, appointment.ErrSlotTaken):
			handler.Flash(c, session.FlashWarning, apperrors.UserMessage(err))
			handler.Render(c, http.StatusOK, "reschedule.html", gin.H{"Appointment": appt, "Form": req})
		case errors.Is(err, model.ErrNotReschedulable):
			handler.Flash(c, session.FlashWarning, apperrors.UserMessage(err))
			handler.Redirect(c, myAppointmentsPath)
		default:
			handler.Fail(c, err)
		}
		return
	}

	handler.Flash(c, session.FlashSuccess, "Appointment rescheduled.")
	handler.Redirect(c, myAppointmentsPath)
}

func (h *Handler) reschedulable(c *gin.Context) (*model.Appointment, bool) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return nil, false
	}
	appt, err := h.svc.ReschedulableAppointment(c.Request.Context(), middleware.CurrentUser(c), id)
	if err != nil {
		if errors.Is(err, model.ErrNotReschedulable) {
			handler.Flash(c, session.FlashWarning, apperrors.UserMessage(err))
			handler.Redirect(c, myAppointmentsPath)
		} else {
			handler.Fail(c, err)
		}
		return nil, false
	}
	return appt, true
}

// Dashboard is only for doctors whose profile has been verified.
func (h *Handler) Dashboard(c *gin.Context) {
	doc, appts, err := h.svc.DoctorDashboard(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Render(c, http.StatusOK, "doctor_dashboard.html", gin.H{"Doctor": doc, "Appointments": appts})
}

func (h *Handler) Accept(c *gin.Context) {
	h.respond(c, true, "Appointment accepted.")
}

func (h *Handler) Decline(c *gin.Context) {
	h.respond(c, false, "Appointment declined.")
}

func (h *Handler) respond(c *gin.Context, accept bool, done string) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	if _, err := h.svc.Respond(c.Request.Context(), middleware.CurrentUser(c), id, accept); err != nil {
		if errors.Is(err, model.ErrAlreadyCancelled) {
			handler.Flash(c, session.FlashWarning, apperrors.UserMessage(err))
			handler.Redirect(c, doctorDashboardPath)
			return
		}
		handler.Fail(c, err)
		return
	}

	handler.Flash(c, session.FlashSuccess, done)
	handler.Redirect(c, doctorDashboardPath)
}

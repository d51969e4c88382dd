package doctor

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/clinic-booking/internal/handler"
	"github.com/jwalitptl/clinic-booking/internal/middleware"
	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/service/doctor"
	"github.com/jwalitptl/clinic-booking/internal/session"
)

type Handler struct {
	svc *doctor.Service
}

func NewHandler(svc *doctor.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/", h.Index)
	r.GET("/search", h.Search)
	r.POST("/search", h.Search)
	r.GET("/doctor/:id", h.Profile)

	contact := r.Group("/contact", middleware.RequireLogin())
	{
		contact.GET("/:id", h.ContactForm)
		contact.POST("/:id", h.Contact)
	}
}

// Index lists every doctor, newest first.
func (h *Handler) Index(c *gin.Context) {
	doctors, err := h.svc.List(c.Request.Context())
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Render(c, http.StatusOK, "index.html", gin.H{"Doctors": doctors})
}

// Search filters verified doctors. A bare GET shows the empty form.
func (h *Handler) Search(c *gin.Context) {
	var req model.SearchRequest
	if c.Request.Method == http.MethodGet && len(c.Request.URL.Query()) == 0 {
		handler.Render(c, http.StatusOK, "search_results.html", gin.H{"Form": req})
		return
	}

	if errs := handler.Bind(c, &req); errs != nil {
		handler.Render(c, http.StatusUnprocessableEntity, "search_results.html", gin.H{"Form": req, "Errors": errs})
		return
	}

	doctors, err := h.svc.Search(c.Request.Context(), req.Filter())
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Render(c, http.StatusOK, "search_results.html", gin.H{
		"Form":     req,
		"Doctors":  doctors,
		"Searched": true,
	})
}

func (h *Handler) Profile(c *gin.Context) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	profile, err := h.svc.Profile(c.Request.Context(), id)
	if err != nil {
		handler.Fail(c, err)
		return
	}
	handler.Render(c, http.StatusOK, "doctor_profile.html", gin.H{
		"Doctor":   profile.Doctor,
		"Feedback": profile.Feedback,
	})
}

func (h *Handler) ContactForm(c *gin.Context) {
	doc, ok := h.doctor(c)
	if !ok {
		return
	}
	handler.Render(c, http.StatusOK, "contact_form.html", gin.H{"Doctor": doc, "Form": model.InquiryRequest{}})
}

// Contact validates an inquiry. Inquiries are acknowledged, not stored.
func (h *Handler) Contact(c *gin.Context) {
	doc, ok := h.doctor(c)
	if !ok {
		return
	}

	var req model.InquiryRequest
	if errs := handler.Bind(c, &req); errs != nil {
		handler.Render(c, http.StatusUnprocessableEntity, "contact_form.html", gin.H{"Doctor": doc, "Form": req, "Errors": errs})
		return
	}

	handler.Flash(c, session.FlashSuccess, "Inquiry submitted.")
	handler.Redirect(c, "/doctor/"+c.Param("id"))
}

func (h *Handler) doctor(c *gin.Context) (*model.Doctor, bool) {
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return nil, false
	}
	doc, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		handler.Fail(c, err)
		return nil, false
	}
	return doc, true
}

// Package handler holds the helpers shared by the page handlers: rendering
// with session state, redirects with flash messages and error pages.
package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-booking/internal/middleware"
	"github.com/jwalitptl/clinic-booking/internal/session"
	"github.com/jwalitptl/clinic-booking/internal/templates"
	"github.com/jwalitptl/clinic-booking/pkg/validator"
)

// Render writes a page with the layout data every template expects: the
// current user, the CSRF token, pending flashes and the form errors map.
func Render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	if _, ok := data["Errors"]; !ok {
		data["Errors"] = map[string]string{}
	}
	data["CurrentUser"] = middleware.CurrentUser(c)

	if sess := session.Get(c); sess != nil {
		data["CSRFToken"] = sess.CSRFToken
		data["Flashes"] = sess.PopFlashes()
	}
	saveSession(c)
	c.HTML(status, name, data)
}

// Redirect saves the session so flashes survive and sends a 302.
func Redirect(c *gin.Context, location string) {
	saveSession(c)
	c.Redirect(http.StatusFound, location)
}

// Flash queues a message for the next rendered page.
func Flash(c *gin.Context, category, message string) {
	if sess := session.Get(c); sess != nil {
		sess.AddFlash(category, message)
	}
}

// Fail hands err to the error page middleware and stops the chain.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// Abort ends the request with the error page for status.
func Abort(c *gin.Context, status int) {
	c.Status(status)
	c.Abort()
}

// ErrorPage renders the generic message page. It is the renderer used by the
// error and recovery middleware.
func ErrorPage(c *gin.Context, status int, message string) {
	Render(c, status, templates.ErrorPage, gin.H{"Message": message})
}

// ParamID parses a numeric path parameter. Anything else is a 404, matching
// an unmatched route.
func ParamID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		Abort(c, http.StatusNotFound)
		return 0, false
	}
	return id, true
}

// Bind decodes the posted form into req. It returns the field errors to show
// next to the form, or nil when the input is valid.
func Bind(c *gin.Context, req any) map[string]string {
	if err := c.ShouldBind(req); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return map[string]string{validator.FormErrorKey: "Request too large."}
		}
		return validator.FieldErrors(err)
	}
	return nil
}

func saveSession(c *gin.Context) {
	if err := session.Save(c); err != nil {
		log.Error().Err(err).Str("request_id", c.GetString(middleware.ContextRequestID)).Msg("failed to save session")
	}
}

package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// PageRenderer writes the generic message page.
type PageRenderer func(c *gin.Context, status int, message string)

// PageMessage is the text shown on the error page for a status.
func PageMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "Bad request (400)"
	case http.StatusForbidden:
		return "Forbidden (403)"
	case http.StatusNotFound:
		return "Not found (404)"
	case http.StatusMethodNotAllowed:
		return "Method not allowed (405)"
	case http.StatusRequestEntityTooLarge:
		return "Request too large (413)"
	case http.StatusTooManyRequests:
		return "Too many requests (429)"
	}
	if status >= 500 {
		return "Internal server error (500)"
	}
	return fmt.Sprintf("%s (%d)", http.StatusText(status), status)
}

// ErrorPages renders the message page for requests that ended in an error
// status without a body: guards that aborted with c.Status, handlers that
// attached an error with c.Error, and unmatched routes.
func ErrorPages(render PageRenderer) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		status := c.Writer.Status()
		if last := c.Errors.Last(); last != nil {
			var coded interface{ StatusCode() int }
			if errors.As(last.Err, &coded) {
				status = coded.StatusCode()
			} else if status < http.StatusBadRequest {
				status = http.StatusInternalServerError
			}
			if status >= 500 {
				log.Error().
					Err(last.Err).
					Str("request_id", c.GetString(ContextRequestID)).
					Str("path", c.Request.URL.Path).
					Str("method", c.Request.Method).
					Msg("Request error")
			}
		}

		if c.Writer.Written() || status < http.StatusBadRequest {
			return
		}
		render(c, status, PageMessage(status))
	}
}

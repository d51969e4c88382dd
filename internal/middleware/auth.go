package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-booking/internal/model"
	"github.com/jwalitptl/clinic-booking/internal/session"
	apperrors "github.com/jwalitptl/clinic-booking/pkg/errors"
)

const ContextUser = "current_user"

// UserLoader resolves the session's user id.
type UserLoader interface {
	Get(ctx context.Context, id int64) (*model.User, error)
}

// LoadPrincipal attaches the logged-in user to the context. A session that
// points at a deleted user is logged out.
func LoadPrincipal(users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := session.Get(c)
		if !sess.Authenticated() {
			c.Next()
			return
		}

		user, err := users.Get(c.Request.Context(), sess.UserID)
		switch {
		case err == nil:
			c.Set(ContextUser, user)
		case apperrors.IsNotFound(err):
			sess.SetUser(0)
		default:
			log.Error().Err(err).Int64("user_id", sess.UserID).Msg("failed to load session user")
			_ = c.Error(err)
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the logged-in user or nil.
func CurrentUser(c *gin.Context) *model.User {
	v, ok := c.Get(ContextUser)
	if !ok {
		return nil
	}
	u, _ := v.(*model.User)
	return u
}

// LoginPath is where anonymous users are sent by RequireLogin.
const LoginPath = "/login"

// RequireLogin redirects anonymous users to the login page, remembering the
// requested path in next.
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) != nil {
			c.Next()
			return
		}
		if sess := session.Get(c); sess != nil {
			sess.AddFlash(session.FlashInfo, "Please log in to access this page.")
			if err := session.Save(c); err != nil {
				log.Error().Err(err).Msg("failed to save session")
			}
		}
		target := LoginPath + "?next=" + url.QueryEscape(c.Request.URL.RequestURI())
		c.Redirect(http.StatusFound, target)
		c.Abort()
	}
}

// RequireAnonymous sends logged-in users home.
func RequireAnonymous() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) != nil {
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin must run after RequireLogin.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CurrentUser(c).IsAdmin() {
			c.Status(http.StatusForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// SafeNext returns next when it is a local path, otherwise "/".
func SafeNext(next string) string {
	if next == "" || next[0] != '/' || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" {
		return "/"
	}
	return next
}

package session

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	contextKey = "session"
	managerKey = "session_manager"
)

type Options struct {
	CookieName string
	TTL        time.Duration
	Secure     bool
}

// Manager loads the session for every request and writes it back.
type Manager struct {
	store Store
	codec *Codec
	opts  Options
}

func NewManager(store Store, codec *Codec, opts Options) *Manager {
	if opts.CookieName == "" {
		opts.CookieName = "clinic_session"
	}
	if opts.TTL <= 0 {
		opts.TTL = 24 * time.Hour
	}
	return &Manager{store: store, codec: codec, opts: opts}
}

func newData() *Data {
	return &Data{
		ID:        uuid.NewString(),
		CSRFToken: uuid.NewString(),
		dirty:     true,
	}
}

// Middleware attaches the request's session, starting a fresh one when the
// cookie is missing, tampered with or expired. Dirty sessions that no handler
// saved are persisted after the chain returns.
func (m *Manager) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(managerKey, m)
		c.Set(contextKey, m.load(c))
		c.Next()

		d := Get(c)
		if d == nil || !d.dirty {
			return
		}
		if err := m.Save(c); err != nil {
			log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("failed to persist session")
		}
	}
}

func (m *Manager) load(c *gin.Context) *Data {
	raw, err := c.Cookie(m.opts.CookieName)
	if err != nil || raw == "" {
		return newData()
	}
	id, err := m.codec.Decode(raw)
	if err != nil {
		log.Debug().Err(err).Msg("discarding session cookie")
		return newData()
	}
	d, err := m.store.Load(c.Request.Context(), id)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			log.Error().Err(err).Msg("failed to load session")
		}
		return newData()
	}
	return d
}

// Get returns the session attached by Middleware, or nil.
func Get(c *gin.Context) *Data {
	v, ok := c.Get(contextKey)
	if !ok {
		return nil
	}
	d, _ := v.(*Data)
	return d
}

// Save persists the session and refreshes the cookie. It must run before the
// response body is written.
func (m *Manager) Save(c *gin.Context) error {
	d := Get(c)
	if d == nil {
		return nil
	}
	if err := m.store.Save(c.Request.Context(), d, m.opts.TTL); err != nil {
		return err
	}
	d.dirty = false
	if c.Writer.Written() {
		return nil
	}
	value, err := m.codec.Encode(d.ID, m.opts.TTL)
	if err != nil {
		return err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.opts.CookieName, value, int(m.opts.TTL.Seconds()), "/", "", m.opts.Secure, true)
	return nil
}

// Renew moves the session to a new id and CSRF token, keeping pending flashes.
// Called on login and logout.
func (m *Manager) Renew(c *gin.Context) *Data {
	old := Get(c)
	fresh := newData()
	if old != nil {
		fresh.Flashes = old.Flashes
		if err := m.store.Delete(c.Request.Context(), old.ID); err != nil {
			log.Error().Err(err).Msg("failed to delete old session")
		}
	}
	c.Set(contextKey, fresh)
	return fresh
}

func managerFrom(c *gin.Context) *Manager {
	v, ok := c.Get(managerKey)
	if !ok {
		return nil
	}
	m, _ := v.(*Manager)
	return m
}

// Save persists the request's session through the Manager that loaded it.
func Save(c *gin.Context) error {
	m := managerFrom(c)
	if m == nil {
		return nil
	}
	return m.Save(c)
}

// Renew rotates the request's session through the Manager that loaded it.
func Renew(c *gin.Context) *Data {
	m := managerFrom(c)
	if m == nil {
		return Get(c)
	}
	return m.Renew(c)
}

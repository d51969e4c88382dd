package session

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("session not found")

// Flash categories
const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashWarning = "warning"
	FlashDanger  = "danger"
)

type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// Data is the server-side session body.
type Data struct {
	ID        string  `json:"-"`
	UserID    int64   `json:"user_id,omitempty"`
	CSRFToken string  `json:"csrf_token"`
	Flashes   []Flash `json:"flashes,omitempty"`

	dirty bool
}

func (d *Data) AddFlash(category, message string) {
	d.Flashes = append(d.Flashes, Flash{Category: category, Message: message})
	d.dirty = true
}

// PopFlashes returns and clears the pending flash messages.
func (d *Data) PopFlashes() []Flash {
	if len(d.Flashes) == 0 {
		return nil
	}
	out := d.Flashes
	d.Flashes = nil
	d.dirty = true
	return out
}

func (d *Data) SetUser(id int64) {
	d.UserID = id
	d.dirty = true
}

func (d *Data) Authenticated() bool {
	return d != nil && d.UserID != 0
}

// Store persists session bodies by id.
type Store interface {
	// Load returns ErrNotFound for unknown or expired ids.
	Load(ctx context.Context, id string) (*Data, error)
	Save(ctx context.Context, d *Data, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

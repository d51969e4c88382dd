package email

import (
	"context"
	"crypto/tls"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/clinic-booking/internal/config"
	"github.com/jwalitptl/clinic-booking/pkg/circuitbreaker"
)

const sendTimeout = 30 * time.Second

var ErrInvalidMessage = errors.New("email: message needs a recipient and a subject")

type Message struct {
	To      string
	Subject string
	Body    string
}

type Service interface {
	Send(ctx context.Context, msg Message) error
}

// sender is the part of *gomail.Dialer the service needs.
type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

type smtpService struct {
	from    string
	sender  sender
	breaker *circuitbreaker.CircuitBreaker
}

// NewService returns an SMTP backed service, or a no-op one when no mail host
// is configured.
func NewService(cfg config.MailConfig) Service {
	if strings.TrimSpace(cfg.Host) == "" {
		return NoopService{}
	}

	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	if cfg.UseTLS {
		d.TLSConfig = &tls.Config{ServerName: cfg.Host}
	}

	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &smtpService{from: from, sender: d, breaker: newBreaker()}
}

// newBreaker stops dialing an SMTP server that keeps failing.
func newBreaker() *circuitbreaker.CircuitBreaker {
	return circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{
		Name:        "smtp",
		MaxFailures: 5,
		Timeout:     time.Minute,
		OnStateChange: func(name string, from, to circuitbreaker.State) {
			log.Warn().Str("breaker", name).Stringer("from", from).Stringer("to", to).Msg("circuit breaker state changed")
		},
	})
}

func (s *smtpService) Send(ctx context.Context, msg Message) error {
	m, err := buildMessage(s.from, msg)
	if err != nil {
		return err
	}

	return s.breaker.Execute(func() error {
		done := make(chan error, 1)
		go func() {
			done <- s.sender.DialAndSend(m)
		}()

		select {
		case err := <-done:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

func buildMessage(from string, msg Message) (*gomail.Message, error) {
	to := strings.TrimSpace(msg.To)
	subject := strings.TrimSpace(msg.Subject)
	if to == "" || subject == "" {
		return nil, ErrInvalidMessage
	}

	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", msg.Body)
	return m, nil
}

// NoopService drops every message.
type NoopService struct{}

func (NoopService) Send(_ context.Context, msg Message) error {
	log.Debug().Str("to", msg.To).Str("subject", msg.Subject).Msg("mail disabled, notification dropped")
	return nil
}

type asyncService struct {
	next    Service
	onError func(Message, error)
}

// Async delivers each message on its own goroutine so a slow SMTP server
// never holds up a request. Failures go to onError.
func Async(next Service, onError func(Message, error)) Service {
	return &asyncService{next: next, onError: onError}
}

func (a *asyncService) Send(ctx context.Context, msg Message) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
	go func() {
		defer cancel()
		if err := a.next.Send(ctx, msg); err != nil && a.onError != nil {
			a.onError(msg, err)
		}
	}()
	return nil
}

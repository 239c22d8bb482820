package prediction

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/nats-io/nats.go"
)

// Publisher announces quotes to other services.
type Publisher interface {
	PublishQuote(ctx context.Context, ev QuoteEvent) error
}

// NATSPublisher publishes quote events on <subject>.<session id>.
type NATSPublisher struct {
	nc      *nats.Conn
	subject string
}

func NewNATSPublisher(nc *nats.Conn, subject string) *NATSPublisher {
	if subject == "" {
		subject = "farecast.quotes"
	}
	return &NATSPublisher{nc: nc, subject: subject}
}

func (p *NATSPublisher) PublishQuote(_ context.Context, ev QuoteEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.nc.Publish(p.subject+"."+subjectToken(ev.SessionID), b)
}

func (p *NATSPublisher) Close() {
	if p.nc != nil {
		_ = p.nc.Drain()
	}
}

func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	// NATS tokens cannot contain spaces, '>', '*' or '.'
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}

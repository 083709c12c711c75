package publisher

import (
	"commute-service/internal/api/dto"
	"commute-service/internal/ports"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

const (
	DefaultSubjectPrefix = "commute.routes"
	flushTimeout         = 2 * time.Second
)

// conn is the part of *nats.Conn the publisher uses.
type conn interface {
	Publish(subj string, data []byte) error
	FlushWithContext(ctx context.Context) error
}

// NATSPublisher sends every computed batch to <prefix>.<direction> as the same
// JSON the HTTP API returns. It implements ports.ResultPublisher.
type NATSPublisher struct {
	nc     conn
	raw    *nats.Conn
	prefix string
}

func NewNATSPublisher(url, prefix string, logger zerolog.Logger) (*NATSPublisher, error) {
	logger = logger.With().Str("component", "nats").Logger()

	nc, err := nats.Connect(url,
		nats.Name("commute-service"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info().Str("url", c.ConnectedUrl()).Msg("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			logger.Info().Msg("nats closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats %q: %w", url, err)
	}

	p := newPublisher(nc, prefix)
	p.raw = nc
	return p, nil
}

func newPublisher(nc conn, prefix string) *NATSPublisher {
	prefix = strings.Trim(strings.TrimSpace(prefix), ".")
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &NATSPublisher{nc: nc, prefix: prefix}
}

func (p *NATSPublisher) Publish(ctx context.Context, batch ports.CommuteBatch) error {
	b, err := json.Marshal(dto.FromBatch(batch))
	if err != nil {
		return fmt.Errorf("publish commute batch: encode: %w", err)
	}

	subject := p.Subject(string(batch.Direction))
	if err := p.nc.Publish(subject, b); err != nil {
		return fmt.Errorf("publish commute batch to %s: %w", subject, err)
	}

	// Flushing requires a deadline.
	ctx, cancel := context.WithTimeout(ctx, flushTimeout)
	defer cancel()
	if err := p.nc.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("publish commute batch to %s: flush: %w", subject, err)
	}
	return nil
}

func (p *NATSPublisher) Subject(direction string) string {
	return p.prefix + "." + subjectToken(direction)
}

func (p *NATSPublisher) Close() {
	if p.raw != nil {
		_ = p.raw.Drain()
	}
}

func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	// NATS token cannot contain spaces, '>', '*', or trailing '.'
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}

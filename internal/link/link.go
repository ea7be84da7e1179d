// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package link moves ESP packets between a transport and the packet queue.
//
// A Link runs two goroutines: the reader decodes transport bytes and pushes
// packets inbound, the writer pops outbound packets and writes them. Decode
// errors are counted and logged here and never reach the queue.
package link

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Thermoquad/espbus/internal/metrics"
	"github.com/Thermoquad/espbus/internal/queue"
	"github.com/Thermoquad/espbus/pkg/esp"
)

const readBufferSize = 256

// Link connects a transport to a queue
type Link struct {
	conn    io.ReadWriteCloser
	queue   *queue.Queue
	framing Framing
	logger  *zap.Logger
	metrics *metrics.LinkMetrics
	onError func(error)
	tap     func(queue.Direction, esp.Packet, []esp.ValidationError)

	decoder *esp.Decoder

	mu    sync.Mutex
	stats *esp.Statistics
}

// Option configures a Link
type Option func(*Link)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(l *Link) {
		l.logger = logger
	}
}

// WithMetrics records traffic in m
func WithMetrics(m *metrics.LinkMetrics) Option {
	return func(l *Link) {
		l.metrics = m
	}
}

// WithFraming sets the transport framing (raw by default)
func WithFraming(f Framing) Option {
	return func(l *Link) {
		l.framing = f
	}
}

// WithErrorHandler is called for every rejected frame
func WithErrorHandler(fn func(error)) Option {
	return func(l *Link) {
		l.onError = fn
	}
}

// WithTap is called for every packet read or written, after validation.
// Written packets carry no validation errors.
func WithTap(fn func(queue.Direction, esp.Packet, []esp.ValidationError)) Option {
	return func(l *Link) {
		l.tap = fn
	}
}

// New creates a link over conn
func New(conn io.ReadWriteCloser, q *queue.Queue, opts ...Option) *Link {
	l := &Link{
		conn:    conn,
		queue:   q,
		framing: RawFraming{},
		logger:  zap.NewNop(),
		decoder: esp.NewDecoder(),
		stats:   esp.NewStatistics(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Stats returns a copy of the link statistics with rates calculated
func (l *Link) Stats() esp.Statistics {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stats.CalculateRates()
	return *l.stats
}

// Run pumps packets until ctx is done or the transport fails. On return the
// connection and the queue are closed. A closed transport is not an error.
func (l *Link) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return l.readLoop(ctx)
	})
	g.Go(func() error {
		defer cancel()
		return l.writeLoop(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		l.queue.Close()
		if err := l.conn.Close(); err != nil {
			l.logger.Debug("close connection", zap.Error(err))
		}
		return nil
	})

	return g.Wait()
}

func (l *Link) readLoop(ctx context.Context) error {
	buf := make([]byte, readBufferSize)
	for {
		n, err := l.conn.Read(buf)
		if n > 0 {
			if l.metrics != nil {
				l.metrics.BytesRead.Add(float64(n))
			}
			l.consume(buf[:n])
		}
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) || errors.Is(err, ErrConnectionClosed) {
				l.logger.Info("connection closed")
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
	}
}

// consume feeds transport bytes through the framing and the decoder
func (l *Link) consume(chunk []byte) {
	packets, errs := l.decoder.Decode(l.framing.Unwrap(chunk))

	for _, err := range errs {
		l.record(nil, err, nil)
		l.logger.Debug("frame rejected", zap.Error(err))
		if l.metrics != nil {
			l.metrics.DecodeErrors.WithLabelValues(errorKind(err)).Inc()
		}
		if l.onError != nil {
			l.onError(err)
		}
	}

	for _, p := range packets {
		anomalies := esp.ValidatePacket(p)
		l.record(p, nil, anomalies)
		for _, a := range anomalies {
			l.logger.Debug("packet anomaly",
				zap.Stringer("id", p.ID()),
				zap.Stringer("type", a.Type),
				zap.String("message", a.Message))
			if l.metrics != nil {
				l.metrics.Anomalies.WithLabelValues(a.Type.String()).Inc()
			}
		}
		if l.metrics != nil {
			l.metrics.Packets.WithLabelValues(p.ID().String(), "in").Inc()
		}
		if l.tap != nil {
			l.tap(queue.Inbound, p, anomalies)
		}
		l.queue.PushInbound(p)
	}

	l.observeDepth(queue.Inbound)
}

func (l *Link) writeLoop(ctx context.Context) error {
	for {
		p, err := l.queue.PopOutbound(ctx)
		if err != nil {
			if errors.Is(err, queue.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		l.observeDepth(queue.Outbound)

		frame := l.framing.Wrap(esp.EncodePacket(p))
		n, err := l.conn.Write(frame)
		if l.metrics != nil {
			l.metrics.BytesWritten.Add(float64(n))
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("write %s: %w", p.ID(), err)
		}

		l.logger.Debug("packet sent",
			zap.Stringer("id", p.ID()),
			zap.Stringer("destination", p.Destination()))
		if l.metrics != nil {
			l.metrics.Packets.WithLabelValues(p.ID().String(), "out").Inc()
		}
		if l.tap != nil {
			l.tap(queue.Outbound, p, nil)
		}
	}
}

func (l *Link) record(p esp.Packet, decodeErr error, anomalies []esp.ValidationError) {
	l.mu.Lock()
	l.stats.Update(p, decodeErr, anomalies)
	l.mu.Unlock()
}

func (l *Link) observeDepth(d queue.Direction) {
	if l.metrics != nil {
		l.metrics.QueueDepth.WithLabelValues(d.String()).Set(float64(l.queue.Len(d)))
	}
}

// errorKind labels a decode error for metrics
func errorKind(err error) string {
	switch {
	case errors.Is(err, esp.ErrChecksum):
		return "checksum"
	case errors.Is(err, esp.ErrShortPayload):
		return "short_payload"
	case errors.Is(err, esp.ErrLength):
		return "length"
	case errors.Is(err, esp.ErrFraming):
		return "framing"
	default:
		return "other"
	}
}

// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Thermoquad/espbus/internal/demo"
	"github.com/Thermoquad/espbus/internal/link"
	"github.com/Thermoquad/espbus/internal/metrics"
	"github.com/Thermoquad/espbus/internal/queue"
	"github.com/Thermoquad/espbus/internal/session"
	"github.com/Thermoquad/espbus/pkg/esp"
)

// displayInterval is how often the simulated detector broadcasts its display
const displayInterval = 500 * time.Millisecond

// busOptions are the per-command hooks into a running bus
type busOptions struct {
	onError   func(error)
	tap       func(queue.Direction, esp.Packet, []esp.ValidationError)
	broadcast bool // simulated display broadcasts (demo only)
}

// bus is a running packet queue fed either by a link or by the simulator
type bus struct {
	queue *queue.Queue
	app   esp.Device
	info  string
	link  *link.Link
	sim   *demo.Simulator

	done chan struct{}
	err  error
}

// startBus opens the configured transport, or the simulator in demo mode,
// and runs it until ctx is done.
func startBus(ctx context.Context, opts busOptions) (*bus, error) {
	app, err := cfg.AppDevice()
	if err != nil {
		return nil, err
	}

	b := &bus{
		queue: queue.New(),
		app:   app,
		done:  make(chan struct{}),
	}

	var linkMetrics *metrics.LinkMetrics
	if cfg.Metrics.Addr != "" {
		reg := metrics.NewRegistry()
		linkMetrics = metrics.NewLinkMetrics(reg)
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr, cfg.Metrics.Path, reg, logger); err != nil {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	if cfg.Demo.Enabled {
		return b, b.startDemo(ctx, opts)
	}

	conn, info, err := link.Open(ctx, cfg.Link)
	if err != nil {
		return nil, err
	}
	framing, err := link.NewFraming(cfg.Link.Framing)
	if err != nil {
		conn.Close()
		return nil, err
	}

	linkOpts := []link.Option{
		link.WithLogger(logger),
		link.WithFraming(framing),
	}
	if linkMetrics != nil {
		linkOpts = append(linkOpts, link.WithMetrics(linkMetrics))
	}
	if opts.onError != nil {
		linkOpts = append(linkOpts, link.WithErrorHandler(opts.onError))
	}
	if opts.tap != nil {
		linkOpts = append(linkOpts, link.WithTap(opts.tap))
	}

	b.info = fmt.Sprintf("%s (%s framing)", info, framing.Name())
	b.link = link.New(conn, b.queue, linkOpts...)
	logger.Info("link started", zap.String("connection", b.info))

	go func() {
		b.err = b.link.Run(ctx)
		close(b.done)
	}()
	return b, nil
}

func (b *bus) startDemo(ctx context.Context, opts busOptions) error {
	packets, source, err := demoPackets(b.app)
	if err != nil {
		return err
	}

	b.sim = demo.New(b.queue,
		demo.WithLogger(logger),
		demo.WithUserSettingsHandler(func(s esp.UserSettings) {
			logger.Info("user settings changed", zap.String("bytes", fmt.Sprintf("% X", s.Payload())))
		}))
	b.sim.Load(packets)
	b.info = "Demo: " + source
	logger.Info("simulated bus started", zap.String("source", source), zap.Int("packets", len(packets)))

	if opts.broadcast {
		go b.sim.Broadcast(ctx, displayInterval)
	}

	go func() {
		<-ctx.Done()
		b.queue.Close()
	}()
	go func() {
		b.err = b.sim.Serve(ctx)
		close(b.done)
	}()
	return nil
}

// demoPackets loads the configured script or recording, or the built-in
// default session.
func demoPackets(app esp.Device) ([]esp.Packet, string, error) {
	switch {
	case cfg.Demo.Script != "":
		script, err := session.LoadScript(cfg.Demo.Script)
		if err != nil {
			return nil, "", err
		}
		packets, err := script.Packets(app)
		if err != nil {
			return nil, "", fmt.Errorf("%s: %w", cfg.Demo.Script, err)
		}
		return packets, "script " + cfg.Demo.Script, nil

	case cfg.Demo.Recording != "":
		rec, err := session.ReadRecordingFile(cfg.Demo.Recording)
		if err != nil {
			return nil, "", err
		}
		packets, err := rec.Packets()
		if err != nil {
			return nil, "", fmt.Errorf("%s: %w", cfg.Demo.Recording, err)
		}
		return packets, fmt.Sprintf("recording %s (%s)", cfg.Demo.Recording, rec.ID), nil

	default:
		return demo.DefaultSession(app), "built-in session", nil
	}
}

// route readdresses a detector query to the detector address the simulated
// session was captured from. Live buses and explicit destinations are left
// alone.
func (b *bus) route(q query) query {
	if b.sim == nil || !q.dest.IsDetector() {
		return q
	}
	versions := b.sim.Snapshot().Versions
	if _, ok := versions[q.dest]; ok {
		return q
	}
	for _, d := range []esp.Device{esp.DeviceV1WithChecksum, esp.DeviceV1WithoutChecksum, esp.DeviceV1Legacy} {
		if _, ok := versions[d]; ok {
			q.dest = d
			return q
		}
	}
	return q
}

// Wait blocks until the bus stops and returns its error
func (b *bus) Wait() error {
	<-b.done
	return b.err
}

// Stats returns the link statistics. The simulated bus has none.
func (b *bus) Stats() (esp.Statistics, bool) {
	if b.link == nil {
		return esp.Statistics{}, false
	}
	return b.link.Stats(), true
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package queue routes ESP packets between the link and application code.
//
// A Queue holds two FIFOs: inbound packets decoded from the bus, and
// outbound packets waiting to be written. Pushes never block; pops block
// until a packet arrives, the context is done or the queue is closed.
package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/Thermoquad/espbus/pkg/esp"
)

// ErrClosed is returned by blocking pops once the queue is closed and drained
var ErrClosed = errors.New("packet queue closed")

// Direction selects one of the two FIFOs
type Direction int

const (
	Inbound Direction = iota
	Outbound
)

func (d Direction) String() string {
	if d == Outbound {
		return "outbound"
	}
	return "inbound"
}

// Queue is a thread-safe pair of packet FIFOs
type Queue struct {
	mu      sync.Mutex
	fifo    [2][]esp.Packet
	notify  [2]chan struct{}
	closed  chan struct{}
	closing sync.Once
}

// New creates an empty queue
func New() *Queue {
	return &Queue{
		notify: [2]chan struct{}{make(chan struct{}, 1), make(chan struct{}, 1)},
		closed: make(chan struct{}),
	}
}

var (
	defaultQueue *Queue
	defaultOnce  sync.Once
)

// Default returns the process-wide queue
func Default() *Queue {
	defaultOnce.Do(func() {
		defaultQueue = New()
	})
	return defaultQueue
}

// PushInbound appends a packet received from the bus. nil is ignored.
func (q *Queue) PushInbound(p esp.Packet) {
	q.push(Inbound, p)
}

// PushOutbound appends a packet to be written to the bus. nil is ignored.
func (q *Queue) PushOutbound(p esp.Packet) {
	q.push(Outbound, p)
}

// PopInbound blocks until an inbound packet is available
func (q *Queue) PopInbound(ctx context.Context) (esp.Packet, error) {
	return q.pop(ctx, Inbound)
}

// PopOutbound blocks until an outbound packet is available
func (q *Queue) PopOutbound(ctx context.Context) (esp.Packet, error) {
	return q.pop(ctx, Outbound)
}

// TryPopInbound returns the oldest inbound packet, or false if there is none
func (q *Queue) TryPopInbound() (esp.Packet, bool) {
	return q.tryPop(Inbound)
}

// TryPopOutbound returns the oldest outbound packet, or false if there is none
func (q *Queue) TryPopOutbound() (esp.Packet, bool) {
	return q.tryPop(Outbound)
}

// Len returns the number of packets waiting in one direction
func (q *Queue) Len(d Direction) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.fifo[d])
}

// Close wakes every blocked pop. Packets already queued can still be popped;
// afterwards pops return ErrClosed. Pushes after Close are dropped.
func (q *Queue) Close() {
	q.closing.Do(func() {
		close(q.closed)
	})
}

// Closed returns a channel that is closed when the queue is closed
func (q *Queue) Closed() <-chan struct{} {
	return q.closed
}

func (q *Queue) isClosed() bool {
	select {
	case <-q.closed:
		return true
	default:
		return false
	}
}

func (q *Queue) push(d Direction, p esp.Packet) {
	if p == nil || q.isClosed() {
		return
	}
	q.mu.Lock()
	q.fifo[d] = append(q.fifo[d], p)
	q.mu.Unlock()
	q.signal(d)
}

func (q *Queue) signal(d Direction) {
	select {
	case q.notify[d] <- struct{}{}:
	default:
	}
}

func (q *Queue) tryPop(d Direction) (esp.Packet, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.fifo[d]) == 0 {
		return nil, false
	}
	p := q.fifo[d][0]
	q.fifo[d][0] = nil
	q.fifo[d] = q.fifo[d][1:]
	if len(q.fifo[d]) > 0 {
		// Wake the next waiter
		q.signal(d)
	}
	return p, true
}

func (q *Queue) pop(ctx context.Context, d Direction) (esp.Packet, error) {
	for {
		if p, ok := q.tryPop(d); ok {
			return p, nil
		}
		if q.isClosed() {
			return nil, ErrClosed
		}
		select {
		case <-q.notify[d]:
		case <-q.closed:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Thermoquad/espbus/pkg/esp"
)

// ErrRejected is returned when the addressed device answers a request with
// respUnsupportedPacket, respRequestNotProcessed or respDataError.
var ErrRejected = errors.New("request rejected")

// Exchange pushes a request and waits for the first inbound packet of kind
// want addressed to the request's origin. Unrelated inbound packets are
// consumed and discarded while waiting.
func (q *Queue) Exchange(ctx context.Context, request esp.Packet, want esp.PacketID) (esp.Packet, error) {
	q.PushOutbound(request)
	for {
		p, err := q.PopInbound(ctx)
		if err != nil {
			return nil, fmt.Errorf("waiting for %s: %w", want, err)
		}
		if err := rejection(request, p); err != nil {
			return nil, err
		}
		if p.ID() == want && addressedTo(p, request.Origin()) {
			return p, nil
		}
	}
}

// Collect pushes a request and gathers every inbound packet of kind want.
// It waits on ctx for the first match, then stops once no further match
// arrives within quiet.
func (q *Queue) Collect(ctx context.Context, request esp.Packet, want esp.PacketID, quiet time.Duration) ([]esp.Packet, error) {
	q.PushOutbound(request)
	var packets []esp.Packet
	for {
		waitCtx, cancel := ctx, context.CancelFunc(func() {})
		if len(packets) > 0 {
			waitCtx, cancel = context.WithTimeout(ctx, quiet)
		}
		p, err := q.PopInbound(waitCtx)
		cancel()
		if err != nil {
			if len(packets) > 0 {
				return packets, nil
			}
			return nil, fmt.Errorf("collecting %s: %w", want, err)
		}
		if err := rejection(request, p); err != nil {
			return packets, err
		}
		if p.ID() == want && addressedTo(p, request.Origin()) {
			packets = append(packets, p)
		}
	}
}

func addressedTo(p esp.Packet, d esp.Device) bool {
	dest := p.Destination()
	return dest == d || dest == esp.DeviceGeneralBroadcast || dest == esp.DeviceUnknown
}

// rejection reports whether p refuses request
func rejection(request, p esp.Packet) error {
	if !addressedTo(p, request.Origin()) {
		return nil
	}
	var rejected esp.PacketID
	switch v := p.(type) {
	case *esp.UnsupportedPacketResponse:
		rejected = v.Rejected()
	case *esp.RequestNotProcessedResponse:
		rejected = v.NotProcessed().Request
	case *esp.DataErrorResponse:
		rejected = v.Rejected()
	default:
		return nil
	}
	if rejected != request.ID() {
		return nil
	}
	return fmt.Errorf("%s by %s (%s): %w", request.ID(), p.Origin(), p.ID(), ErrRejected)
}

// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkMetrics(t *testing.T) {
	reg := NewRegistry()
	m := NewLinkMetrics(reg)

	m.Packets.WithLabelValues("reqVersion", "out").Inc()
	m.Packets.WithLabelValues("respVersion", "in").Add(2)
	m.DecodeErrors.WithLabelValues("checksum").Inc()
	m.BytesRead.Add(14)
	m.QueueDepth.WithLabelValues("inbound").Set(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Packets.WithLabelValues("respVersion", "in")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DecodeErrors.WithLabelValues("checksum")))
	assert.Equal(t, 14.0, testutil.ToFloat64(m.BytesRead))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.QueueDepth.WithLabelValues("inbound")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.Packets))
}

func TestHandler(t *testing.T) {
	reg := NewRegistry()
	m := NewLinkMetrics(reg)
	m.BytesWritten.Add(7)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "espbus_bytes_written_total 7")
	assert.Contains(t, string(body), "go_goroutines")
}

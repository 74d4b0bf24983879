// SPDX-License-Identifier: GPL-3.0-or-later

package eventlog

import (
	"bytes"
	"encoding/csv"
	"net/netip"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rbmk-project/dpiprobe/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteEvents(t *testing.T) {
	fixedTime := time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)
	events := []Event{{
		Time:          fixedTime,
		Port:          53,
		Transport:     wire.UDP,
		Label:         "DNS",
		ClientAddr:    netip.MustParseAddrPort("10.0.0.1:40000"),
		PayloadLen:    3,
		PayloadPrefix: []byte{0xAA, 0xBB, 0xCC},
		Status:        StatusReceived,
	}, {
		Time:       fixedTime,
		Port:       22,
		Transport:  wire.TCP,
		Label:      "SSH",
		ClientAddr: netip.MustParseAddrPort("10.0.0.2:40001"),
		Status:     StatusError,
		Message:    "read: connection reset, by peer",
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteEvents(&buf, events))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"timestamp", "port", "protocol", "client", "data_len", "data_hex", "status"},
		{"2024-01-01T10:30:00Z", "53", "UDP-DNS", "10.0.0.1:40000", "3", "aabbcc", "RECEIVED"},
		{"2024-01-01T10:30:00Z", "22", "TCP-SSH", "10.0.0.2:40001", "0", "", "ERROR:read: connection reset, by peer"},
	}, records)
}

func TestLog_Export(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		log := New()
		log.Append(newTestEvent(5353, "TEST", "10.0.0.1:1", 2))
		log.Append(newTestEvent(5353, "TEST", "10.0.0.1:2", 2))

		path := filepath.Join(t.TempDir(), "events.csv")
		require.NoError(t, log.Export(path))

		filep, err := os.Open(path)
		require.NoError(t, err)
		defer filep.Close()
		records, err := csv.NewReader(filep).ReadAll()
		require.NoError(t, err)
		assert.Len(t, records, 3)

		entries, err := os.ReadDir(filepath.Dir(path))
		require.NoError(t, err)
		assert.Len(t, entries, 1, "temporary file left behind")
	})

	t.Run("failure preserves the log", func(t *testing.T) {
		log := New()
		log.Append(newTestEvent(5353, "TEST", "10.0.0.1:1", 2))

		path := filepath.Join(t.TempDir(), "missing-dir", "events.csv")
		err := log.Export(path)
		assert.ErrorIs(t, err, ErrExport)
		assert.Equal(t, 1, log.Len())

		// retrying with a good path works
		assert.NoError(t, log.Export(filepath.Join(t.TempDir(), "events.csv")))
	})
}

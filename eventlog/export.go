// SPDX-License-Identifier: GPL-3.0-or-later

package eventlog

import (
	"encoding/csv"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// ErrExport indicates that we could not export the log.
var ErrExport = errors.New("eventlog: export failed")

// exportHeader is the first line of the exported CSV.
var exportHeader = []string{"timestamp", "port", "protocol", "client", "data_len", "data_hex", "status"}

// Export writes a snapshot of the log to the given path as CSV.
//
// We write to a temporary file in the same directory and rename it into
// place, so a failed export never leaves a truncated file at path. On
// failure we return an error wrapping [ErrExport] and the log is untouched.
func (l *Log) Export(path string) error {
	snap := l.Snapshot()
	if err := writeFileAtomic(path, func(w io.Writer) error {
		return WriteEvents(w, snap.Events)
	}); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrExport, path, err)
	}
	return nil
}

// WriteEvents writes the CSV header followed by one line per event.
func WriteEvents(w io.Writer, events []Event) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for idx := range events {
		ev := &events[idx]
		record := []string{
			ev.Time.Format(time.RFC3339Nano),
			strconv.Itoa(int(ev.Port)),
			ev.Protocol(),
			ev.ClientAddr.String(),
			strconv.Itoa(ev.PayloadLen),
			hex.EncodeToString(ev.PayloadPrefix),
			ev.StatusString(),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// writeFileAtomic writes a file using a temporary file and a rename.
func writeFileAtomic(path string, fx func(w io.Writer) error) error {
	filep, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpname := filep.Name()
	if err := fx(filep); err != nil {
		filep.Close()
		os.Remove(tmpname)
		return err
	}
	if err := filep.Close(); err != nil {
		os.Remove(tmpname)
		return err
	}
	if err := os.Rename(tmpname, path); err != nil {
		os.Remove(tmpname)
		return err
	}
	return nil
}

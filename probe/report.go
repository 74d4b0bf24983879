// SPDX-License-Identifier: GPL-3.0-or-later

package probe

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
)

// ErrDuplicateLabel indicates that a [*Report] already contains a label.
var ErrDuplicateLabel = errors.New("probe: duplicate label")

// Report contains the results in the order they were added.
//
// Construct using [NewReport]. A report is not safe for concurrent use.
type Report struct {
	results []Result
	index   map[string]int
}

// NewReport constructs a new empty [*Report].
func NewReport() *Report {
	return &Report{index: make(map[string]int)}
}

// Add appends a result. Results are never overwritten: adding a result
// whose label is already present fails with [ErrDuplicateLabel].
func (r *Report) Add(result Result) error {
	if _, found := r.index[result.Label]; found {
		return fmt.Errorf("%w: %q", ErrDuplicateLabel, result.Label)
	}
	r.index[result.Label] = len(r.results)
	r.results = append(r.results, result)
	return nil
}

// Get returns the result with the given label.
func (r *Report) Get(label string) (Result, bool) {
	idx, found := r.index[label]
	if !found {
		return Result{}, false
	}
	return r.results[idx], true
}

// Len returns the number of results.
func (r *Report) Len() int {
	return len(r.results)
}

// Results returns a copy of the results in order.
func (r *Report) Results() []Result {
	return slices.Clone(r.results)
}

// SuccessCount returns the number of [StatusSuccess] results.
func (r *Report) SuccessCount() (count int) {
	for idx := range r.results {
		if r.results[idx].Status == StatusSuccess {
			count++
		}
	}
	return
}

// WriteTo implements [io.WriterTo] by writing the results as CSV with
// the "protocol,status,sent_bytes,recv_bytes,time_ms" header.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	cw.Write([]string{"protocol", "status", "sent_bytes", "recv_bytes", "time_ms"})
	for idx := range r.results {
		result := &r.results[idx]
		cw.Write([]string{
			result.Label,
			result.StatusString(),
			strconv.Itoa(result.BytesSent),
			strconv.Itoa(result.BytesReceived),
			strconv.FormatInt(result.Elapsed.Milliseconds(), 10),
		})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, err
	}
	return buf.WriteTo(w)
}

// Export writes the CSV results to path, see [*Report.WriteTo].
func (r *Report) Export(path string) error {
	filep, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := r.WriteTo(filep); err != nil {
		filep.Close()
		return err
	}
	return filep.Close()
}

// tableWidth is the width of the table rules.
const tableWidth = 70

// WriteTable writes a human readable summary table to w.
func (r *Report) WriteTable(w io.Writer) error {
	var sb strings.Builder
	rule := strings.Repeat("=", tableWidth)
	fmt.Fprintf(&sb, "%s\nRESULTS SUMMARY\n%s\n", rule, rule)
	fmt.Fprintf(&sb, "%-20s %-15s %-8s %-8s %-10s\n", "Protocol", "Status", "Sent", "Recv", "Time(ms)")
	fmt.Fprintf(&sb, "%s\n", strings.Repeat("-", tableWidth))
	for idx := range r.results {
		result := &r.results[idx]
		fmt.Fprintf(&sb, "%-20s %-15s %-8d %-8d %-10d\n", result.Label, result.Status,
			result.BytesSent, result.BytesReceived, result.Elapsed.Milliseconds())
	}
	fmt.Fprintf(&sb, "%s\n", rule)
	var percent int
	if len(r.results) > 0 {
		percent = 100 * r.SuccessCount() / len(r.results)
	}
	fmt.Fprintf(&sb, "Success Rate: %d/%d (%d%%)\n", r.SuccessCount(), len(r.results), percent)
	_, err := io.WriteString(w, sb.String())
	return err
}

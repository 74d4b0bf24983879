// SPDX-License-Identifier: GPL-3.0-or-later

package fleet

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rbmk-project/dpiprobe/eventlog"
)

// DefaultStatsInterval is the default interval between statistics reports.
const DefaultStatsInterval = 30 * time.Second

// Reporter periodically writes the [*eventlog.Log] statistics.
type Reporter struct {
	// Interval is the OPTIONAL interval between reports. If zero,
	// we use [DefaultStatsInterval].
	Interval time.Duration

	// Log is the MANDATORY log to report about.
	Log *eventlog.Log

	// Output is the OPTIONAL writer to use. If nil, we use [os.Stdout].
	Output io.Writer
}

// Run writes a report every interval until ctx is done.
func (r *Reporter) Run(ctx context.Context) {
	interval := r.Interval
	if interval <= 0 {
		interval = DefaultStatsInterval
	}
	output := r.Output
	if output == nil {
		output = os.Stdout
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Log.Snapshot().WriteStats(output)
		}
	}
}

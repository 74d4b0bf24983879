// SPDX-License-Identifier: GPL-3.0-or-later

package probe

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/miekg/dns"
	"github.com/rbmk-project/common/errclass"
	"github.com/rbmk-project/common/runtimex"
	"github.com/rbmk-project/dpiprobe/netcore"
	"github.com/rbmk-project/dpiprobe/wire"
)

const (
	// DefaultDelay is the default pause between two probes.
	DefaultDelay = 500 * time.Millisecond

	// DefaultMaxChunk is the default maximum response size we read.
	DefaultMaxChunk = 4096

	// maxErrSize is the maximum size of [Result.Err].
	maxErrSize = 64
)

// errInterrupted is the diagnostic of probes that did not run
// because the context was done.
var errInterrupted = errors.New("interrupted")

// Runner runs probes sequentially.
//
// Construct using [NewRunner].
type Runner struct {
	// Delay is the pause between two consecutive probes.
	//
	// Set by [NewRunner] to [DefaultDelay].
	Delay time.Duration

	// Logger is the OPTIONAL [*slog.Logger] to use.
	Logger *slog.Logger

	// MaxChunk is the maximum response size we read.
	//
	// Set by [NewRunner] to [DefaultMaxChunk].
	MaxChunk int

	// Network is the [*netcore.Network] used to dial.
	//
	// Set by [NewRunner] to [netcore.NewNetwork].
	Network *netcore.Network

	// TimeNow is the OPTIONAL function returning the current time.
	TimeNow func() time.Time
}

// NewRunner constructs a new [*Runner] with default settings.
func NewRunner() *Runner {
	return &Runner{
		Delay:    DefaultDelay,
		MaxChunk: DefaultMaxChunk,
		Network:  netcore.NewNetwork(),
	}
}

// Run runs the specs in order against host and returns the [*Report].
//
// When ctx is done, the remaining specs still produce a [StatusError]
// result so that every spec appears in the report.
func (r *Runner) Run(ctx context.Context, host string, specs []Spec) *Report {
	report := NewReport()
	for _, spec := range specs {
		if _, found := report.Get(spec.Label); found {
			r.logAttrs(ctx, slog.LevelWarn, "probeDiscarded",
				slog.String("label", spec.Label),
				slog.Any("err", ErrDuplicateLabel),
			)
			continue
		}
		if report.Len() > 0 && r.Delay > 0 {
			r.sleep(ctx, r.Delay)
		}
		runtimex.Try0(report.Add(r.Probe(ctx, host, spec)))
	}
	return report
}

// sleep waits for the given duration or until ctx is done.
func (r *Runner) sleep(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// Probe runs a single spec against host.
func (r *Runner) Probe(ctx context.Context, host string, spec Spec) Result {
	result := Result{
		Label:     spec.Label,
		Port:      spec.Port,
		Transport: spec.Transport,
		Family:    spec.Family,
		Kind:      spec.Kind,
	}
	address := net.JoinHostPort(host, strconv.Itoa(int(spec.Port)))
	t0 := r.timeNow()
	r.logAttrs(ctx, slog.LevelInfo, "probeStart",
		slog.String("label", spec.Label),
		slog.String("protocol", spec.Transport.Network()),
		slog.String("remoteAddr", address),
		slog.Int("payloadLen", len(spec.Payload)),
		slog.Time("t", t0),
	)

	err := r.exchange(ctx, address, &spec, &result)
	result.Elapsed = r.timeNow().Sub(t0)
	if err != nil && result.ErrClass == "" {
		result.ErrClass = errclass.New(err)
	}

	r.logAttrs(ctx, slog.LevelInfo, "probeDone",
		slog.String("label", spec.Label),
		slog.String("protocol", spec.Transport.Network()),
		slog.String("remoteAddr", address),
		slog.String("status", result.Status.String()),
		slog.Int("bytesSent", result.BytesSent),
		slog.Int("bytesReceived", result.BytesReceived),
		slog.Any("err", err),
		slog.String("errClass", result.ErrClass),
		slog.Time("t0", t0),
		slog.Time("t", t0.Add(result.Elapsed)),
	)
	return result
}

// exchange dials, sends, and reads, filling the result.
func (r *Runner) exchange(ctx context.Context, address string, spec *Spec, result *Result) error {
	if err := ctx.Err(); err != nil {
		result.Status, result.Err = StatusError, errInterrupted.Error()
		result.ErrClass = errclass.EINTR
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, spec.timeout())
	defer cancel()
	conn, err := r.network().DialContext(ctx, spec.Transport.Network(), address)
	if err != nil {
		err = interruptedOr(ctx, err)
		r.classify(result, err, false)
		return err
	}
	defer conn.Close()

	// The dial consumed part of the budget: the rest bounds the I/O.
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { conn.SetDeadline(time.Unix(1, 0)) })
	defer stop()

	count, err := conn.Write(spec.Payload)
	result.BytesSent = count
	if err != nil {
		err = interruptedOr(ctx, err)
		r.classify(result, err, false)
		return err
	}

	buffer := make([]byte, r.maxChunk())
	count, err = conn.Read(buffer)
	result.BytesReceived = count
	if count > 0 {
		result.Status = StatusSuccess
		if spec.Family == FamilyDNS {
			result.Answers = decodeAnswers(spec.Transport, buffer[:count])
		}
		return nil
	}
	if err == nil {
		err = io.EOF
	}
	err = interruptedOr(ctx, err)
	r.classify(result, err, true)
	return err
}

// interruptedOr returns the context error when ctx has been canceled,
// since then the I/O error only reflects our forced deadline.
func interruptedOr(ctx context.Context, err error) error {
	if cause := ctx.Err(); errors.Is(cause, context.Canceled) {
		return cause
	}
	return err
}

// classify maps a failure to a [Status]. The sent argument tells whether
// the whole payload was written before the failure.
func (r *Runner) classify(result *Result, err error, sent bool) {
	switch {
	case errors.Is(err, context.Canceled):
		result.Status, result.Err = StatusError, errInterrupted.Error()
	case errclass.New(err) == errclass.ECONNREFUSED:
		result.Status = StatusRefused
	case isTimeout(err) && sent:
		result.Status = StatusNoResponse
	case isTimeout(err):
		result.Status = StatusTimeout
	case sent && errors.Is(err, io.EOF):
		result.Status = StatusNoResponse
	default:
		result.Status, result.Err = StatusError, truncateErr(err.Error())
	}
}

// isTimeout returns whether err is a deadline or timeout error.
func isTimeout(err error) bool {
	if errclass.New(err) == errclass.ETIMEDOUT {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func truncateErr(msg string) string {
	if len(msg) > maxErrSize {
		return msg[:maxErrSize]
	}
	return msg
}

// decodeAnswers returns the A records in a DNS reply, stripping the
// length prefix for TCP. Undecodable replies yield no answers.
func decodeAnswers(transport wire.Transport, data []byte) []string {
	if transport == wire.TCP {
		if len(data) < 2 {
			return nil
		}
		data = data[2:]
	}
	msg := &dns.Msg{}
	if err := msg.Unpack(data); err != nil {
		return nil
	}
	var answers []string
	for _, rr := range msg.Answer {
		if a, ok := rr.(*dns.A); ok {
			answers = append(answers, a.A.String())
		}
	}
	return answers
}

// logAttrs emits a structured log entry if we have a logger.
func (r *Runner) logAttrs(ctx context.Context, level slog.Level, msg string, attrs ...slog.Attr) {
	if r.Logger != nil {
		r.Logger.LogAttrs(ctx, level, msg, attrs...)
	}
}

func (r *Runner) maxChunk() int {
	if r.MaxChunk > 0 {
		return r.MaxChunk
	}
	return DefaultMaxChunk
}

func (r *Runner) network() *netcore.Network {
	if r.Network != nil {
		return r.Network
	}
	return &netcore.Network{}
}

func (r *Runner) timeNow() time.Time {
	if r.TimeNow != nil {
		return r.TimeNow()
	}
	return time.Now()
}

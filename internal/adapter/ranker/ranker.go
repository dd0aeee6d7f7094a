// Package ranker runs an external semantic ranking process and reads
// its ordered identifier list.
//
// The process receives the raw text as its last argument and must
// exit with status 0, write nothing to stderr and print a JSON array
// of identifiers to stdout. Anything else is a [FailureError].
package ranker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"slices"
	"time"

	"github.com/niksmo/shop-assistant/internal/core/domain"
	"github.com/niksmo/shop-assistant/internal/core/port"
	"github.com/niksmo/shop-assistant/internal/metrics"
)

const (
	DefaultTimeout        = 10 * time.Second
	DefaultMaxOutputBytes = 1 << 20

	waitDelay = time.Second
)

var _ port.Ranker = (*Process)(nil)

type Reason string

const (
	ReasonExit     Reason = "exit"
	ReasonStderr   Reason = "stderr"
	ReasonTimeout  Reason = "timeout"
	ReasonCanceled Reason = "canceled"
	ReasonSchema   Reason = "schema"
	ReasonStart    Reason = "start"
)

// A FailureError describes a failed ranking run.
// It matches [domain.ErrRankingFailed] with errors.Is.
type FailureError struct {
	Ranker   string
	Reason   Reason
	ExitCode int
	Stderr   string
	Err      error
}

func (e *FailureError) Error() string {
	msg := fmt.Sprintf("ranker %q failed: %s", e.Ranker, e.Reason)
	if e.Reason == ReasonExit {
		msg += fmt.Sprintf(" (code %d)", e.ExitCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FailureError) Unwrap() error {
	return e.Err
}

func (e *FailureError) Is(target error) bool {
	return target == domain.ErrRankingFailed
}

type Config struct {
	// Name labels logs and metrics, e.g. "search" or "user".
	Name string

	// Command is the executable followed by its fixed arguments.
	Command []string

	Timeout        time.Duration
	MaxOutputBytes int
}

type Process struct {
	cfg Config
}

func New(cfg Config) (*Process, error) {
	const op = "ranker.New"

	if len(cfg.Command) == 0 || cfg.Command[0] == "" {
		return nil, fmt.Errorf("%s: empty command", op)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxOutputBytes <= 0 {
		cfg.MaxOutputBytes = DefaultMaxOutputBytes
	}
	cfg.Command = slices.Clone(cfg.Command)
	return &Process{cfg: cfg}, nil
}

// Rank runs the process with arg and returns the identifiers
// most relevant first. An empty slice is a valid result.
func (p *Process) Rank(ctx context.Context, arg string) ([]string, error) {
	const op = "Process.Rank"
	log := slog.With("op", op, "ranker", p.cfg.Name)

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	args := append(slices.Clone(p.cfg.Command[1:]), arg)
	cmd := exec.CommandContext(ctx, p.cfg.Command[0], args...)
	cmd.WaitDelay = waitDelay

	stdout := newLimitedBuffer(p.cfg.MaxOutputBytes)
	stderr := newLimitedBuffer(p.cfg.MaxOutputBytes)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	start := time.Now()
	runErr := cmd.Run()

	ids, err := p.outcome(ctx, runErr, stdout, stderr)
	if err != nil {
		var fe *FailureError
		if errors.As(err, &fe) {
			metrics.RankerRuns.WithLabelValues(p.cfg.Name, string(fe.Reason)).Inc()
			log.Error(
				"ranking process failed",
				"reason", fe.Reason,
				"exit_code", fe.ExitCode,
				"stderr", fe.Stderr,
				"elapsed", time.Since(start),
				"err", fe.Err,
			)
		}
		return nil, err
	}

	metrics.RankerRuns.WithLabelValues(p.cfg.Name, "ok").Inc()
	log.Debug("ranking received", "count", len(ids), "elapsed", time.Since(start))
	return ids, nil
}

func (p *Process) outcome(
	ctx context.Context, runErr error, stdout, stderr *limitedBuffer,
) ([]string, error) {
	fail := func(reason Reason, err error) *FailureError {
		return &FailureError{
			Ranker: p.cfg.Name,
			Reason: reason,
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	switch ctxErr := ctx.Err(); {
	case errors.Is(ctxErr, context.DeadlineExceeded):
		return nil, fail(ReasonTimeout, ctxErr)
	case errors.Is(ctxErr, context.Canceled):
		return nil, fail(ReasonCanceled, ctxErr)
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			fe := fail(ReasonExit, runErr)
			fe.ExitCode = exitErr.ExitCode()
			return nil, fe
		}
		return nil, fail(ReasonStart, runErr)
	}

	if stderr.Len() != 0 {
		return nil, fail(ReasonStderr, nil)
	}

	if stdout.Overflow() {
		return nil, fail(
			ReasonSchema,
			fmt.Errorf("output exceeds %d bytes", p.cfg.MaxOutputBytes),
		)
	}

	ids, err := parseRanking(stdout.Bytes())
	if err != nil {
		return nil, fail(ReasonSchema, err)
	}
	return ids, nil
}

// parseRanking accepts a JSON array of distinct non-empty strings.
func parseRanking(data []byte) ([]string, error) {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, err
	}
	if ids == nil {
		return nil, errors.New("output is not an array")
	}

	seen := make(map[string]struct{}, len(ids))
	for i, id := range ids {
		if id == "" {
			return nil, fmt.Errorf("empty identifier at index %d", i)
		}
		if _, ok := seen[id]; ok {
			return nil, fmt.Errorf("duplicate identifier %q", id)
		}
		seen[id] = struct{}{}
	}
	return ids, nil
}

// limitedBuffer keeps at most max bytes and silently discards the rest,
// so the child never blocks on a full pipe.
type limitedBuffer struct {
	buf      bytes.Buffer
	max      int
	overflow bool
}

func newLimitedBuffer(max int) *limitedBuffer {
	return &limitedBuffer{max: max}
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if room := b.max - b.buf.Len(); n > room {
		p = p[:max(room, 0)]
		b.overflow = true
	}
	b.buf.Write(p)
	return n, nil
}

func (b *limitedBuffer) Bytes() []byte  { return b.buf.Bytes() }
func (b *limitedBuffer) String() string { return b.buf.String() }
func (b *limitedBuffer) Len() int       { return b.buf.Len() }
func (b *limitedBuffer) Overflow() bool { return b.overflow }

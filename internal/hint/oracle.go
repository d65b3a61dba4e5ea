package hint

import (
	"context"
	"strings"
	"sync"
	"time"

	"mindmaster/internal/telemetry"
)

const (
	FallbackEmpty  = "The spirits are mumbling... try asking again."
	FallbackFailed = "The spirits are silent... check your internet connection."

	DefaultTimeout = 15 * time.Second
)

type Answer struct {
	Text     string
	Fallback bool
	Err      error
	Elapsed  time.Duration
}

// Oracle is a single-flight slot in front of a Requester. While a request is
// pending further asks are refused. Failures never surface as errors; they
// become one of the fallback texts.
type Oracle struct {
	requester Requester
	timeout   time.Duration
	logger    telemetry.Logger

	mu      sync.Mutex
	pending bool
}

func NewOracle(requester Requester, timeout time.Duration, logger telemetry.Logger) *Oracle {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = telemetry.Nop()
	}
	return &Oracle{requester: requester, timeout: timeout, logger: logger}
}

func (o *Oracle) Pending() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pending
}

// Ask starts a request in the background and calls done with the answer.
// It returns false, without calling done, if a request is already pending.
func (o *Oracle) Ask(ctx context.Context, question, contextLabel string, done func(Answer)) bool {
	if !o.begin() {
		return false
	}
	go func() {
		ans := o.request(ctx, question, contextLabel)
		o.finish()
		if done != nil {
			done(ans)
		}
	}()
	return true
}

// AskSync is Ask for callers that can block, such as `auth check`.
func (o *Oracle) AskSync(ctx context.Context, question, contextLabel string) (Answer, bool) {
	if !o.begin() {
		return Answer{}, false
	}
	defer o.finish()
	return o.request(ctx, question, contextLabel), true
}

func (o *Oracle) begin() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.pending {
		return false
	}
	o.pending = true
	return true
}

func (o *Oracle) finish() {
	o.mu.Lock()
	o.pending = false
	o.mu.Unlock()
}

func (o *Oracle) request(ctx context.Context, question, contextLabel string) Answer {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()
	text, err := o.requester.RequestHint(ctx, question, contextLabel)
	ans := Answer{Text: strings.TrimSpace(text), Err: err, Elapsed: time.Since(start)}
	switch {
	case err != nil:
		o.logger.Error("oracle.failed", map[string]any{"context": contextLabel, "error": err, "elapsed_ms": ans.Elapsed.Milliseconds()})
		ans.Text = FallbackFailed
		ans.Fallback = true
	case ans.Text == "":
		o.logger.Info("oracle.empty", map[string]any{"context": contextLabel})
		ans.Text = FallbackEmpty
		ans.Fallback = true
	default:
		o.logger.Info("oracle.answered", map[string]any{"context": contextLabel, "elapsed_ms": ans.Elapsed.Milliseconds()})
	}
	return ans
}

package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/applyhawk/applyhawk/internal/model"
)

// outcome classifies one failed attempt.
type outcome int

const (
	// outcomeTransient covers network failures, rate limits, server errors
	// and anything else unclassified: back off and retry.
	outcomeTransient outcome = iota
	// outcomeAuth means the backend rejected our credentials: switch to the
	// fallback backend, or give up if none is available.
	outcomeAuth
)

// classify maps an attempt error to retry behavior. The decision is made on
// the typed status code, never on error message text.
func classify(err error) outcome {
	var be *model.BackendError
	if errors.As(err, &be) {
		if be.StatusCode == http.StatusUnauthorized || be.StatusCode == http.StatusForbidden {
			return outcomeAuth
		}
	}
	return outcomeTransient
}

// invokerState is the per-call transient state: which backend is active,
// whether the fallback switch already happened, and the current backoff
// delay. Created per invocation, discarded when the call finishes.
type invokerState struct {
	backend        Backend
	fallbackActive bool
	delay          time.Duration
}

// Invoker wraps a backend with bounded retry, exponential backoff and a
// one-time fallback switch on authentication failure. Invocation is
// synchronous; backoff sleeps block the calling goroutine and are only
// interruptible through ctx.
type Invoker struct {
	backend      Backend
	fallback     func() (Backend, error) // nil when no fallback is configured
	callLog      *CallLogger
	maxRetries   int
	initialDelay time.Duration
	logger       *slog.Logger
}

// NewInvoker wires an invoker around backend. fallback may be nil; when set
// it is constructed lazily, only after the primary's credentials are
// rejected.
func NewInvoker(backend Backend, fallback func() (Backend, error), callLog *CallLogger, maxRetries int, initialDelay time.Duration, logger *slog.Logger) *Invoker {
	return &Invoker{
		backend:      backend,
		fallback:     fallback,
		callLog:      callLog,
		maxRetries:   maxRetries,
		initialDelay: initialDelay,
		logger:       logger,
	}
}

// Invoke issues the call, retrying until it succeeds or the attempt budget
// runs out. On success the reply is normalized, logged, and returned; there
// is no partial result on failure.
func (iv *Invoker) Invoke(ctx context.Context, messages []ChatMessage) (ParsedReply, error) {
	state := invokerState{
		backend: iv.backend,
		delay:   iv.initialDelay,
	}

	var lastErr error
	for attempt := 1; attempt <= iv.maxRetries; attempt++ {
		raw, err := callBackend(ctx, state.backend, messages)
		if err == nil {
			reply := Normalize(raw)
			if reply.ID == parseErrorID {
				iv.logger.Warn("unrecognized reply shape, defaulted all metadata",
					"backend", state.backend.Name(),
				)
			}
			if logErr := iv.callLog.Log(messages, reply); logErr != nil {
				return ParsedReply{}, logErr
			}
			return reply, nil
		}

		// Never retry a cancelled call.
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return ParsedReply{}, fmt.Errorf("llm invoke cancelled: %w", err)
		}
		lastErr = err

		switch classify(err) {
		case outcomeAuth:
			if state.fallbackActive || iv.fallback == nil {
				return ParsedReply{}, fmt.Errorf("llm credentials rejected and no fallback available: %w", err)
			}
			fb, ferr := iv.fallback()
			if ferr != nil {
				return ParsedReply{}, fmt.Errorf("constructing fallback backend: %w", ferr)
			}
			iv.logger.Warn("credentials rejected, switching to fallback backend",
				"from", state.backend.Name(),
				"to", fb.Name(),
				"attempt", attempt,
			)
			state.backend = fb
			state.fallbackActive = true

		case outcomeTransient:
			if attempt == iv.maxRetries {
				break
			}
			wait := retryWait(err, state.delay)
			iv.logger.Warn("retrying after transient error",
				"backend", state.backend.Name(),
				"attempt", attempt,
				"max_retries", iv.maxRetries,
				"delay", wait,
				"error", err,
			)
			select {
			case <-ctx.Done():
				return ParsedReply{}, fmt.Errorf("llm invoke cancelled: %w", ctx.Err())
			case <-time.After(wait):
			}
			state.delay *= 2
		}
	}

	return ParsedReply{}, fmt.Errorf("no response from llm after %d attempts: %w", iv.maxRetries, lastErr)
}

// retryWait returns how long to sleep before the next attempt. A server that
// names its own Retry-After (HTTP 429) takes precedence over the computed
// backoff; the backoff schedule itself keeps doubling underneath.
func retryWait(err error, backoff time.Duration) time.Duration {
	var be *model.BackendError
	if errors.As(err, &be) && be.RetryAfter > 0 {
		return be.RetryAfter
	}
	return backoff
}

// callBackend issues one attempt, flattening the message list for backends
// whose API takes a single text prompt.
func callBackend(ctx context.Context, backend Backend, messages []ChatMessage) (*RawReply, error) {
	if fb, ok := backend.(FlatPromptBackend); ok {
		return fb.InvokePrompt(ctx, FlattenMessages(messages))
	}
	return backend.Invoke(ctx, messages)
}

package llm

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/applyhawk/applyhawk/internal/model"
)

// mockBackend calls a function on each invocation, tracking call count.
type mockBackend struct {
	name  string
	calls int
	fn    func(attempt int) (*RawReply, error)
}

func (m *mockBackend) Name() string     { return m.name }
func (m *mockBackend) Pricing() Pricing { return Pricing{} }

func (m *mockBackend) Invoke(_ context.Context, _ []ChatMessage) (*RawReply, error) {
	m.calls++
	return m.fn(m.calls)
}

// flatMockBackend records the flattened prompt it receives.
type flatMockBackend struct {
	mockBackend
	gotPrompt string
}

func (m *flatMockBackend) InvokePrompt(_ context.Context, prompt string) (*RawReply, error) {
	m.gotPrompt = prompt
	m.calls++
	return m.fn(m.calls)
}

func testCallLogger(t *testing.T) *CallLogger {
	t.Helper()
	return NewCallLogger(filepath.Join(t.TempDir(), "calls.json"), Pricing{}, discardLogger())
}

func okReply(content string) *RawReply {
	return &RawReply{Content: content}
}

func authErr() error {
	return &model.BackendError{StatusCode: 401, Err: errors.New("invalid api key")}
}

func TestInvoke_SucceedsOnFirstAttempt(t *testing.T) {
	mock := &mockBackend{name: "mock", fn: func(_ int) (*RawReply, error) {
		return okReply("hi"), nil
	}}

	iv := NewInvoker(mock, nil, testCallLogger(t), 3, 10*time.Millisecond, discardLogger())
	got, err := iv.Invoke(context.Background(), []ChatMessage{UserMessage("q")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Content != "hi" {
		t.Errorf("Content = %q", got.Content)
	}
	if mock.calls != 1 {
		t.Errorf("expected 1 call, got %d", mock.calls)
	}
}

func TestInvoke_TransientFailuresThenSuccess(t *testing.T) {
	mock := &mockBackend{name: "mock", fn: func(attempt int) (*RawReply, error) {
		if attempt < 3 {
			return nil, &model.BackendError{StatusCode: 503, Err: errors.New("overloaded")}
		}
		return okReply("eventually"), nil
	}}

	iv := NewInvoker(mock, nil, testCallLogger(t), 5, 10*time.Millisecond, discardLogger())
	start := time.Now()
	got, err := iv.Invoke(context.Background(), []ChatMessage{UserMessage("q")})
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Content != "eventually" {
		t.Errorf("Content = %q", got.Content)
	}
	if mock.calls != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", mock.calls)
	}
	// Backoff doubles: 10ms after attempt 1, 20ms after attempt 2.
	if elapsed < 30*time.Millisecond {
		t.Errorf("elapsed %v, want at least 30ms of backoff", elapsed)
	}
}

func TestInvoke_RateLimitHonorsRetryAfter(t *testing.T) {
	mock := &mockBackend{name: "mock", fn: func(attempt int) (*RawReply, error) {
		if attempt == 1 {
			return nil, &model.BackendError{
				StatusCode: 429,
				RetryAfter: 50 * time.Millisecond,
				Err:        errors.New("rate limited"),
			}
		}
		return okReply("after limit"), nil
	}}

	iv := NewInvoker(mock, nil, testCallLogger(t), 3, 1*time.Millisecond, discardLogger())
	start := time.Now()
	got, err := iv.Invoke(context.Background(), []ChatMessage{UserMessage("q")})
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Content != "after limit" {
		t.Errorf("Content = %q", got.Content)
	}
	if mock.calls != 2 {
		t.Errorf("expected 2 calls, got %d", mock.calls)
	}
	// The server-named delay must override the 1ms computed backoff.
	if elapsed < 50*time.Millisecond {
		t.Errorf("slept %v, want at least the 50ms Retry-After", elapsed)
	}
}

func TestRetryWait(t *testing.T) {
	backoff := 10 * time.Millisecond

	limited := &model.BackendError{StatusCode: 429, RetryAfter: time.Second, Err: errors.New("rate limited")}
	if got := retryWait(limited, backoff); got != time.Second {
		t.Errorf("retryWait with Retry-After = %v, want 1s", got)
	}

	plain := &model.BackendError{StatusCode: 503, Err: errors.New("overloaded")}
	if got := retryWait(plain, backoff); got != backoff {
		t.Errorf("retryWait without Retry-After = %v, want %v", got, backoff)
	}

	if got := retryWait(errors.New("dial tcp: timeout"), backoff); got != backoff {
		t.Errorf("retryWait for untyped error = %v, want %v", got, backoff)
	}
}

func TestInvoke_ExhaustsAttemptBudget(t *testing.T) {
	mock := &mockBackend{name: "mock", fn: func(_ int) (*RawReply, error) {
		return nil, errors.New("connection refused")
	}}

	iv := NewInvoker(mock, nil, testCallLogger(t), 3, time.Millisecond, discardLogger())
	_, err := iv.Invoke(context.Background(), []ChatMessage{UserMessage("q")})
	if err == nil {
		t.Fatal("expected exhaustion error, got nil")
	}
	if mock.calls != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", mock.calls)
	}
	if !strings.Contains(err.Error(), "3 attempts") {
		t.Errorf("error %q should name the attempt count", err)
	}
}

func TestInvoke_AuthError_SwitchesToFallback(t *testing.T) {
	primary := &mockBackend{name: "openai", fn: func(_ int) (*RawReply, error) {
		return nil, authErr()
	}}
	fallback := &mockBackend{name: "ollama", fn: func(_ int) (*RawReply, error) {
		return okReply("from fallback"), nil
	}}

	var constructed int
	factory := func() (Backend, error) {
		constructed++
		return fallback, nil
	}

	iv := NewInvoker(primary, factory, testCallLogger(t), 10, time.Millisecond, discardLogger())
	got, err := iv.Invoke(context.Background(), []ChatMessage{UserMessage("q")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Content != "from fallback" {
		t.Errorf("Content = %q, want fallback's reply", got.Content)
	}
	if primary.calls != 1 {
		t.Errorf("primary called %d times, want 1 (switch on first auth error)", primary.calls)
	}
	if fallback.calls != 1 {
		t.Errorf("fallback called %d times, want 1", fallback.calls)
	}
	if constructed != 1 {
		t.Errorf("fallback constructed %d times, want 1 (lazy, once)", constructed)
	}
}

func TestInvoke_AuthError_NoFallbackConfigured(t *testing.T) {
	mock := &mockBackend{name: "openai", fn: func(_ int) (*RawReply, error) {
		return nil, authErr()
	}}

	iv := NewInvoker(mock, nil, testCallLogger(t), 10, time.Millisecond, discardLogger())
	_, err := iv.Invoke(context.Background(), []ChatMessage{UserMessage("q")})
	if err == nil {
		t.Fatal("expected immediate terminal error")
	}
	if mock.calls != 1 {
		t.Errorf("expected 1 call (no retry on auth without fallback), got %d", mock.calls)
	}
}

func TestInvoke_AuthError_FallbackConstructionFails(t *testing.T) {
	mock := &mockBackend{name: "openai", fn: func(_ int) (*RawReply, error) {
		return nil, authErr()
	}}
	factory := func() (Backend, error) {
		return nil, errors.New("ollama unreachable")
	}

	iv := NewInvoker(mock, factory, testCallLogger(t), 10, time.Millisecond, discardLogger())
	_, err := iv.Invoke(context.Background(), []ChatMessage{UserMessage("q")})
	if err == nil {
		t.Fatal("expected terminal error when fallback construction fails")
	}
	if !strings.Contains(err.Error(), "fallback") {
		t.Errorf("error %q should mention the fallback", err)
	}
}

func TestInvoke_AuthErrorOnFallback_IsTerminal(t *testing.T) {
	primary := &mockBackend{name: "openai", fn: func(_ int) (*RawReply, error) {
		return nil, authErr()
	}}
	fallback := &mockBackend{name: "other", fn: func(_ int) (*RawReply, error) {
		return nil, authErr()
	}}

	iv := NewInvoker(primary, func() (Backend, error) { return fallback, nil },
		testCallLogger(t), 10, time.Millisecond, discardLogger())
	_, err := iv.Invoke(context.Background(), []ChatMessage{UserMessage("q")})
	if err == nil {
		t.Fatal("expected terminal error, got nil")
	}
	// The switch happens once; a second auth failure must not loop.
	if fallback.calls != 1 {
		t.Errorf("fallback called %d times, want 1", fallback.calls)
	}
}

func TestInvoke_FlattensForPromptOnlyBackend(t *testing.T) {
	mock := &flatMockBackend{mockBackend: mockBackend{name: "ollama", fn: func(_ int) (*RawReply, error) {
		return okReply("flat"), nil
	}}}

	path := filepath.Join(t.TempDir(), "calls.json")
	cl := NewCallLogger(path, Pricing{}, discardLogger())
	iv := NewInvoker(mock, nil, cl, 3, time.Millisecond, discardLogger())

	messages := []ChatMessage{SystemMessage("context"), UserMessage("question")}
	if _, err := iv.Invoke(context.Background(), messages); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if mock.gotPrompt != "context\n\nquestion" {
		t.Errorf("flattened prompt = %q, want blank-line join", mock.gotPrompt)
	}

	// The call log keeps the structured message form, not the flattened one.
	entries := readEntries(t, path)
	prompts, ok := entries[0].Prompts.(map[string]any)
	if !ok {
		t.Fatalf("logged Prompts = %T, want structured map", entries[0].Prompts)
	}
	if prompts["prompt_1"] != "context" || prompts["prompt_2"] != "question" {
		t.Errorf("logged Prompts = %v", prompts)
	}
}

func TestInvoke_RespectsContextCancellation(t *testing.T) {
	mock := &mockBackend{name: "mock", fn: func(_ int) (*RawReply, error) {
		return nil, errors.New("transient")
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	iv := NewInvoker(mock, nil, testCallLogger(t), 5, time.Second, discardLogger())
	_, err := iv.Invoke(ctx, []ChatMessage{UserMessage("q")})
	if err == nil {
		t.Fatal("expected error from cancellation")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if mock.calls != 1 {
		t.Errorf("expected 1 call before cancellation, got %d", mock.calls)
	}
}

func TestInvoke_CallLogWriteFailureIsFatal(t *testing.T) {
	mock := &mockBackend{name: "mock", fn: func(_ int) (*RawReply, error) {
		return okReply("fine"), nil
	}}

	badLog := NewCallLogger(filepath.Join(t.TempDir(), "missing", "calls.json"), Pricing{}, discardLogger())
	iv := NewInvoker(mock, nil, badLog, 3, time.Millisecond, discardLogger())
	_, err := iv.Invoke(context.Background(), []ChatMessage{UserMessage("q")})
	if err == nil {
		t.Fatal("expected error when the call log cannot be written")
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want outcome
	}{
		{"unauthorized", &model.BackendError{StatusCode: 401}, outcomeAuth},
		{"forbidden", &model.BackendError{StatusCode: 403}, outcomeAuth},
		{"rate limited", &model.BackendError{StatusCode: 429}, outcomeTransient},
		{"server error", &model.BackendError{StatusCode: 500}, outcomeTransient},
		{"not found", &model.BackendError{StatusCode: 404}, outcomeTransient},
		{"plain error", errors.New("dial tcp: connection refused"), outcomeTransient},
		{"wrapped auth", &model.BackendError{StatusCode: 401, Err: errors.New("bad key")}, outcomeAuth},
	}
	for _, tc := range cases {
		if got := classify(tc.err); got != tc.want {
			t.Errorf("%s: classify = %v, want %v", tc.name, got, tc.want)
		}
	}
}

package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

type sleepRecorder struct{ delays []time.Duration }

func (s *sleepRecorder) Sleep(_ context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return nil
}

func TestRetry(t *testing.T) {
	errFatal := errors.New("bad request")

	tests := []struct {
		name       string
		errs       []error
		wantCalls  int
		wantDelays []time.Duration
		wantErr    error
	}{
		{name: "first try", errs: nil, wantCalls: 1},
		{name: "second try", errs: []error{errTest}, wantCalls: 2, wantDelays: []time.Duration{time.Second}},
		{
			name:       "exhausted",
			errs:       []error{errTest, errTest, errTest},
			wantCalls:  3,
			wantDelays: []time.Duration{time.Second, 2 * time.Second},
			wantErr:    errTest,
		},
		{name: "not retryable", errs: []error{errFatal}, wantCalls: 1, wantErr: errFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &sleepRecorder{}
			calls := 0
			got, err := Retry(context.Background(), RetryConfig{
				Name:        "test",
				IsRetryable: func(err error) bool { return !errors.Is(err, errFatal) },
				Sleep:       rec.Sleep,
			}, func(context.Context) (int, error) {
				calls++
				if calls <= len(tt.errs) {
					return 0, tt.errs[calls-1]
				}
				return 42, nil
			})

			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if len(rec.delays) != len(tt.wantDelays) {
				t.Fatalf("delays = %v, want %v", rec.delays, tt.wantDelays)
			}
			for i := range rec.delays {
				if rec.delays[i] != tt.wantDelays[i] {
					t.Errorf("delay[%d] = %v, want %v", i, rec.delays[i], tt.wantDelays[i])
				}
			}
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil || got != 42 {
				t.Fatalf("got (%d, %v), want (42, nil)", got, err)
			}
		})
	}
}

func TestRetry_AttemptTimeoutIsRetried(t *testing.T) {
	rec := &sleepRecorder{}
	calls := 0
	_, err := Retry(context.Background(), RetryConfig{
		AttemptTimeout: 5 * time.Millisecond,
		Sleep:          rec.Sleep,
	}, func(ctx context.Context) (string, error) {
		calls++
		<-ctx.Done()
		return "", ctx.Err()
	})
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want wrapped DeadlineExceeded", err)
	}
}

func TestRetry_CallerCancellationStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	_, err := Retry(ctx, RetryConfig{Sleep: (&sleepRecorder{}).Sleep}, func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, errTest
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{10, 5 * time.Second},
		{80, 5 * time.Second},
	}
	for _, tt := range tests {
		if got := Backoff(time.Second, 5*time.Second, 0, tt.attempt); got != tt.want {
			t.Errorf("Backoff(attempt=%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestDefaultIsRetryable(t *testing.T) {
	if DefaultIsRetryable(nil) {
		t.Error("nil should not be retryable")
	}
	if DefaultIsRetryable(context.Canceled) {
		t.Error("context.Canceled should not be retryable")
	}
	if !DefaultIsRetryable(errTest) {
		t.Error("plain error should be retryable")
	}
}

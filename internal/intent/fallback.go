package intent

import (
	"context"

	"github.com/MrWong99/flightdesk/internal/observe"
)

// FallbackClassifier asks primary first and answers from fallback whenever
// primary fails. With a fallback that never fails, such as
// [RuleBasedClassifier], Classify never fails either.
type FallbackClassifier struct {
	primary  Classifier
	fallback Classifier
	metrics  *observe.Metrics
}

var _ Classifier = (*FallbackClassifier)(nil)

// NewFallbackClassifier composes primary and fallback. primary may be nil,
// in which case every request goes to fallback. m may be nil to use
// [observe.DefaultMetrics].
func NewFallbackClassifier(primary, fallback Classifier, m *observe.Metrics) *FallbackClassifier {
	if m == nil {
		m = observe.DefaultMetrics()
	}
	return &FallbackClassifier{primary: primary, fallback: fallback, metrics: m}
}

// Classify implements [Classifier].
func (f *FallbackClassifier) Classify(ctx context.Context, req Request) (Result, error) {
	if f.primary != nil {
		res, err := f.primary.Classify(ctx, req)
		if err == nil {
			return res, nil
		}
		observe.Logger(ctx).Warn("intent: primary classifier failed, using rules", "state", req.State.String(), "err", err)
		f.metrics.ClassifierFallbacks.Add(ctx, 1)
	}
	return f.fallback.Classify(ctx, req)
}

package intent

import (
	"context"
	"fmt"

	"github.com/MrWong99/flightdesk/internal/contentfilter"
	"github.com/MrWong99/flightdesk/internal/observe"
)

// Recognizer is the entry point of intent recognition:
//
//  1. the content filter screens the raw utterance; unsafe input becomes
//     inappropriate_content and never reaches the classifier,
//  2. the classifier labels the utterance,
//  3. the extractor fills entity gaps the classifier left, without
//     overwriting what it supplied.
//
// Recognize always returns a Result with a valid intent.
type Recognizer struct {
	filter     *contentfilter.Filter
	classifier Classifier
	extractor  *Extractor
	metrics    *observe.Metrics
}

// NewRecognizer wires a Recognizer. m may be nil to use
// [observe.DefaultMetrics].
func NewRecognizer(filter *contentfilter.Filter, classifier Classifier, x *Extractor, m *observe.Metrics) *Recognizer {
	if m == nil {
		m = observe.DefaultMetrics()
	}
	return &Recognizer{filter: filter, classifier: classifier, extractor: x, metrics: m}
}

// Recognize classifies req.Utterance.
func (r *Recognizer) Recognize(ctx context.Context, req Request) Result {
	log := observe.Logger(ctx)

	if v := r.filter.Classify(req.Utterance); !v.Appropriate {
		log.Info("intent: utterance rejected by content filter", "category", string(v.Category))
		r.metrics.RecordContentViolation(ctx, string(v.Category))
		res := Result{
			Intent:     InappropriateContent,
			Confidence: 1,
			Entities:   Entities{Reason: v.Reason, Category: string(v.Category)},
			Source:     SourceFilter,
		}
		r.metrics.RecordIntent(ctx, string(res.Intent), string(res.Source))
		return res
	}

	res, err := r.classify(ctx, req)
	if err != nil || !res.Intent.Valid() {
		log.Warn("intent: classification failed", "err", err, "intent", string(res.Intent))
		res = Result{Intent: Question, Confidence: DefaultConfidence, Source: SourceRules}
	}

	if perr := r.postProcess(req, &res); perr != nil {
		log.Error("intent: entity post-processing failed", "err", perr)
		res = Result{Intent: Question, Confidence: DefaultConfidence, Source: res.Source}
	}
	r.metrics.RecordIntent(ctx, string(res.Intent), string(res.Source))
	return res
}

// classify runs the classifier, turning a panic in the rule or extractor
// code into an error.
func (r *Recognizer) classify(ctx context.Context, req Request) (res Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("intent: classifier panic: %v", p)
		}
	}()
	return r.classifier.Classify(ctx, req)
}

// postProcess merges pattern-extracted entities into res. A panic in the
// extractor is returned as an error so one odd utterance cannot take the
// conversation down.
func (r *Recognizer) postProcess(req Request, res *Result) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("intent: post-process panic: %v", p)
		}
	}()
	if res.Source == SourceRules {
		// The rules already ran the extractor.
		return nil
	}
	extra := r.extractor.Extract(req.Utterance, req.State)
	// A name the model found in an itinerary sentence is usually a city.
	if res.Entities.HasName() && res.Intent != ProvideName && MentionsTrip(req.Utterance) && !extra.HasName() {
		res.Entities.FirstName, res.Entities.LastName = "", ""
	}
	res.Entities.Merge(extra)
	return nil
}

package intent

import (
	"context"
	"regexp"
	"strings"

	"github.com/MrWong99/flightdesk/internal/booking"
)

// DefaultConfidence is the confidence of the catch-all question result.
const DefaultConfidence = 0.4

var (
	greetingRe = regexp.MustCompile(`^\s*(?:hi|hello|hey|hiya|howdy|greetings|good\s+(?:morning|afternoon|evening|day))\b[\s,!.]*`)
	cancelRe   = regexp.MustCompile(`\b(?:cancel|start\s+over|restart|reset|never\s*mind|forget\s+it|forget\s+about\s+it|scrap\s+(?:it|that|everything))\b`)

	correctionRe = regexp.MustCompile(`\b(?:actually|correction|i\s+meant|i\s+mean|meant\s+to\s+say|sorry,?\s+(?:i|it'?s|it\s+is|that'?s)|change\s+(?:my|the|it)|that'?s\s+(?:wrong|not\s+right)|typo|mistake|instead|make\s+(?:that|it)|update\s+(?:my|the)|scratch\s+that|not\s+\w+,?\s+but)\b`)

	yesRe = regexp.MustCompile(`^\s*(?:yes|yeah|yep|yup|ya|sure|correct|confirm(?:ed)?|absolutely|definitely|of\s+course|sounds\s+good|that'?s\s+(?:right|correct|perfect)|perfect|great|ok(?:ay)?|please\s+do|go\s+ahead|do\s+it|let'?s\s+do\s+it)\b|\b(?:book\s+it|confirm\s+(?:it|the\s+booking|my\s+booking))\b`)
	noRe  = regexp.MustCompile(`^\s*(?:no|nope|nah|not\s+really|negative|wrong|don'?t|do\s+not)\b|\b(?:go\s+back|different\s+(?:flight|option)|other\s+options|something\s+else|show\s+me\s+(?:other|more|others))\b`)

	questionRe = regexp.MustCompile(`\?\s*$|^\s*(?:what|how|when|where|why|which|who|can|could|do|does|is|are|will|would|should|may)\b|\b(?:tell\s+me\s+about|i\s+have\s+a\s+question|wondering|help)\b`)
)

var greetingWords = setOf("hi", "hello", "hey", "hiya", "howdy", "greetings", "morning", "evening", "afternoon")

var yesNoWords = setOf("yes", "yeah", "yep", "yup", "no", "nope", "nah", "sure", "ok", "okay")

// tripVocabRe matches words that only make sense when talking about the
// itinerary.
var tripVocabRe = regexp.MustCompile(`\b(?:fly|flying|flight|flights|trip|depart|departing|departure|leaving|arrive|arriving|arrival|destination|return|returning|round|one[\s-]?way|travel|traveling|travelling|ticket|airport)\b`)

// MentionsTrip reports whether utterance talks about the itinerary. A name
// entity in such an utterance is most likely a misread city or date.
func MentionsTrip(utterance string) bool {
	return tripVocabRe.MatchString(strings.ToLower(utterance))
}

// RuleBasedClassifier classifies with ordered keyword and pattern rules. Its
// result depends only on the utterance and the dialog state, it never fails
// and it never blocks.
type RuleBasedClassifier struct {
	extractor *Extractor
}

var _ Classifier = (*RuleBasedClassifier)(nil)

// NewRuleBasedClassifier returns a classifier that uses x for entities.
func NewRuleBasedClassifier(x *Extractor) *RuleBasedClassifier {
	return &RuleBasedClassifier{extractor: x}
}

// Classify implements [Classifier]. The error is always nil.
func (c *RuleBasedClassifier) Classify(_ context.Context, req Request) (Result, error) {
	return c.Rules(req.Utterance, req.State), nil
}

// Rules classifies utterance in state. The first matching rule wins; an
// utterance no rule recognizes is a question with [DefaultConfidence].
func (c *RuleBasedClassifier) Rules(utterance string, state booking.State) Result {
	lower := strings.ToLower(strings.TrimSpace(utterance))
	e := c.extractor.Extract(utterance, state)
	res := func(i Intent, conf float64) Result {
		return Result{Intent: i, Confidence: conf, Entities: e, Source: SourceRules}
	}
	question := questionRe.MatchString(lower)

	switch {
	case lower == "":
		return res(Question, DefaultConfidence)

	case cancelRe.MatchString(lower) && !question:
		return res(Cancel, 0.9)

	case correctionRe.MatchString(lower) && e.HasSlotData():
		return res(Correction, 0.85)

	case state == booking.StateConfirmingSelection && yesRe.MatchString(lower):
		return res(ConfirmYes, 0.9)
	case state == booking.StateConfirmingSelection && noRe.MatchString(lower):
		return res(ConfirmNo, 0.9)

	case correctionRe.MatchString(lower):
		return res(Correction, 0.6)

	// In COLLECTING_TRIP_TYPE a trip-type phrase is always a trip detail,
	// even when it reads like something else ("one way please, no return").
	case state == booking.StateCollectingTripType && e.TripType != "":
		return res(ProvideCity, 0.9)

	case state == booking.StatePresentingOptions && e.OptionNumber > 0:
		return res(SelectOption, 0.9)
	case state == booking.StatePresentingOptions && e.TimePreference != "" && !e.HasDate():
		return res(TimePreference, 0.85)

	case e.HasName():
		return res(ProvideName, 0.85)
	case e.Flexible:
		return res(FlexibleSearch, 0.8)
	case e.HasCity(), e.TripType != "":
		return res(ProvideCity, 0.8)
	case e.HasDate():
		return res(ProvideDate, 0.8)
	case e.TimePreference != "" && !greetingRe.MatchString(lower):
		return res(TimePreference, 0.75)
	case e.OptionNumber > 0:
		return res(SelectOption, 0.6)
	// Passenger count and cabin are trip details without an intent of
	// their own.
	case e.PassengerCount > 0, e.CabinClass != "", e.Email != "", e.Phone != "":
		return res(ProvideCity, 0.6)

	case greetingRe.MatchString(lower):
		return res(Greeting, 0.9)
	case yesRe.MatchString(lower) && !question:
		return res(ConfirmYes, 0.6)
	case noRe.MatchString(lower) && !question:
		return res(ConfirmNo, 0.6)
	case question || e.Topic != "":
		return res(Question, 0.7)
	}
	return res(Question, DefaultConfidence)
}

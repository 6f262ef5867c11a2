package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/MrWong99/flightdesk/internal/booking"
	"github.com/MrWong99/flightdesk/internal/contentfilter"
	"github.com/MrWong99/flightdesk/internal/observe"
	"github.com/MrWong99/flightdesk/internal/resilience"
	"github.com/MrWong99/flightdesk/pkg/provider/llm"
)

const (
	defaultTemperature   = 0.0
	defaultMaxTokens     = 300
	defaultSnapshotLimit = 600
	historyTurnRunes     = 200
	// missingConfidence is assumed when the model omits a confidence.
	missingConfidence = 0.7
)

const systemPrompt = `You classify messages sent to a flight booking assistant.

Classify the user's latest message into exactly one intent:
- greeting: hello or small talk without booking details
- provide_name: the user's first and/or last name
- provide_city: departure or arrival city, or trip details (one-way/round trip, passengers, cabin)
- provide_date: a departure or return date
- select_option: picking one of the numbered flight options
- time_preference: morning, afternoon, evening or red-eye
- flexible_search: the dates are flexible
- confirm_yes: agreeing to book the selected flight
- confirm_no: declining the selected flight
- correction: changing something said earlier
- question: asking about baggage, refunds, pets or anything else
- cancel: starting over or abandoning the booking
- inappropriate_content: abusive or unsafe content

Extract only entities present in the message. Entity fields:
first_name, last_name, departure_city, arrival_city, city (role unclear),
departure_date, return_date, date (leg unclear) as the user's own words,
trip_type ("oneway" or "roundtrip"), passenger_count (integer),
cabin_class ("economy", "premium_economy", "business", "first"),
option_number (integer, 1-based), time_preference, flexible (boolean), topic.

Respond with ONLY a JSON object in this exact format (no markdown, no prose):
{"intent": "<intent>", "confidence": <0.0-1.0>, "entities": {<entity fields>}}`

// LLMOption configures a [RemoteLLMClassifier].
type LLMOption func(*RemoteLLMClassifier)

// WithRetry replaces the retry policy. The default is three attempts with
// 1s and 2s backoff and a 10s per-attempt timeout.
func WithRetry(cfg resilience.RetryConfig) LLMOption {
	return func(c *RemoteLLMClassifier) { c.retry = cfg }
}

// WithBreaker puts a circuit breaker in front of the LLM. While it is open,
// Classify fails immediately and the caller falls back to the rules.
func WithBreaker(cb *resilience.CircuitBreaker) LLMOption {
	return func(c *RemoteLLMClassifier) { c.breaker = cb }
}

// WithSnapshotLimit caps the booking snapshot embedded in the prompt, in
// bytes. Default: 600.
func WithSnapshotLimit(n int) LLMOption {
	return func(c *RemoteLLMClassifier) { c.snapshotLimit = n }
}

// WithMetrics sets the metrics sink. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) LLMOption {
	return func(c *RemoteLLMClassifier) { c.metrics = m }
}

// RemoteLLMClassifier classifies through an [llm.Provider] in JSON mode.
// Transport errors, timeouts and malformed replies are retried; once the
// retry budget is spent Classify returns the last error.
//
// Model selection happens when the provider is constructed. The classifier is
// safe for concurrent use.
type RemoteLLMClassifier struct {
	provider      llm.Provider
	retry         resilience.RetryConfig
	breaker       *resilience.CircuitBreaker
	snapshotLimit int
	metrics       *observe.Metrics
}

var _ Classifier = (*RemoteLLMClassifier)(nil)

// NewRemoteLLMClassifier returns a classifier backed by p.
func NewRemoteLLMClassifier(p llm.Provider, opts ...LLMOption) *RemoteLLMClassifier {
	c := &RemoteLLMClassifier{
		provider: p,
		retry: resilience.RetryConfig{
			Name:           "intent classifier",
			MaxAttempts:    3,
			BaseDelay:      time.Second,
			AttemptTimeout: 10 * time.Second,
		},
		snapshotLimit: defaultSnapshotLimit,
	}
	for _, o := range opts {
		o(c)
	}
	if c.metrics == nil {
		c.metrics = observe.DefaultMetrics()
	}
	return c
}

// Classify implements [Classifier].
func (c *RemoteLLMClassifier) Classify(ctx context.Context, req Request) (Result, error) {
	ctx, span := observe.StartSpan(ctx, "intent.llm_classify")
	defer span.End()
	start := time.Now()
	defer func() {
		c.metrics.ClassifierDuration.Record(ctx, time.Since(start).Seconds())
	}()

	creq := llm.CompletionRequest{
		SystemPrompt: systemPrompt,
		Messages:     []llm.Message{{Role: llm.RoleUser, Content: c.userPrompt(req)}},
		Temperature:  defaultTemperature,
		MaxTokens:    defaultMaxTokens,
		JSONMode:     true,
	}
	call := func() (Result, error) {
		return resilience.Retry(ctx, c.retry, func(actx context.Context) (Result, error) {
			resp, err := c.provider.Complete(actx, creq)
			if err != nil {
				observe.Logger(ctx).Debug("intent: llm attempt failed", "err", err)
				return Result{}, err
			}
			if resp == nil {
				return Result{}, fmt.Errorf("%w: empty completion", ErrMalformedResponse)
			}
			return parseResponse(resp.Content)
		})
	}

	if c.breaker == nil {
		res, err := call()
		if err != nil {
			return Result{}, fmt.Errorf("intent: classify: %w", err)
		}
		return res, nil
	}
	var res Result
	err := c.breaker.Execute(func() error {
		var err error
		res, err = call()
		return err
	})
	if err != nil {
		return Result{}, fmt.Errorf("intent: classify: %w", err)
	}
	return res, nil
}

// userPrompt renders state, the capped slot snapshot, the last two turns
// and the sanitized utterance.
func (c *RemoteLLMClassifier) userPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dialog state: %s\n", req.State)

	snap, _ := json.Marshal(req.Snapshot)
	if c.snapshotLimit > 0 && len(snap) > c.snapshotLimit {
		snap = append(snap[:c.snapshotLimit], "..."...)
	}
	fmt.Fprintf(&b, "Booking so far: %s\n", snap)

	if h := req.History; len(h) > 0 {
		b.WriteString("Recent turns:\n")
		for _, ex := range h[max(0, len(h)-2):] {
			fmt.Fprintf(&b, "User: %s\nAssistant: %s\n",
				truncate(contentfilter.SanitizeForAPI(ex.User), historyTurnRunes),
				truncate(contentfilter.SanitizeForAPI(ex.Assistant), historyTurnRunes))
		}
	}
	fmt.Fprintf(&b, "Latest message: %s", contentfilter.SanitizeForAPI(req.Utterance))
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

// llmResponse is the JSON object the model is asked to produce.
type llmResponse struct {
	Intent     string          `json:"intent"`
	Confidence *float64        `json:"confidence"`
	Entities   json.RawMessage `json:"entities"`
}

// llmEntities mirrors [Entities] with lenient number handling; models
// sometimes quote integers.
type llmEntities struct {
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	DepartureCity  string  `json:"departure_city"`
	ArrivalCity    string  `json:"arrival_city"`
	City           string  `json:"city"`
	DepartureDate  string  `json:"departure_date"`
	ReturnDate     string  `json:"return_date"`
	Date           string  `json:"date"`
	TripType       string  `json:"trip_type"`
	PassengerCount flexInt `json:"passenger_count"`
	CabinClass     string  `json:"cabin_class"`
	OptionNumber   flexInt `json:"option_number"`
	TimePreference string  `json:"time_preference"`
	Flexible       bool    `json:"flexible"`
	Email          string  `json:"email"`
	Phone          string  `json:"phone"`
	Topic          string  `json:"topic"`
}

type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	*f = flexInt(n)
	return nil
}

// parseResponse decodes the model reply. Code fences are stripped, unknown
// intents are rejected and the confidence is clamped to [0, 1].
func parseResponse(content string) (Result, error) {
	var r llmResponse
	if err := json.Unmarshal([]byte(stripMarkdown(content)), &r); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	in, err := Parse(strings.ToLower(strings.TrimSpace(r.Intent)))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}

	conf := missingConfidence
	if r.Confidence != nil && !math.IsNaN(*r.Confidence) {
		conf = min(max(*r.Confidence, 0), 1)
	}

	var le llmEntities
	if len(r.Entities) > 0 && string(r.Entities) != "null" {
		if err := json.Unmarshal(r.Entities, &le); err != nil {
			return Result{}, fmt.Errorf("%w: entities: %v", ErrMalformedResponse, err)
		}
	}
	return Result{Intent: in, Confidence: conf, Entities: le.entities(), Source: SourceLLM}, nil
}

func (le llmEntities) entities() Entities {
	e := Entities{
		FirstName:      strings.TrimSpace(le.FirstName),
		LastName:       strings.TrimSpace(le.LastName),
		DepartureCity:  strings.TrimSpace(le.DepartureCity),
		ArrivalCity:    strings.TrimSpace(le.ArrivalCity),
		City:           strings.TrimSpace(le.City),
		DepartureDate:  strings.TrimSpace(le.DepartureDate),
		ReturnDate:     strings.TrimSpace(le.ReturnDate),
		Date:           strings.TrimSpace(le.Date),
		TripType:       tripType(strings.ToLower(le.TripType)),
		PassengerCount: int(le.PassengerCount),
		CabinClass:     cabinClass(le.CabinClass),
		OptionNumber:   int(le.OptionNumber),
		TimePreference: timePreference(strings.ToLower(le.TimePreference)),
		Flexible:       le.Flexible,
		Email:          strings.TrimSpace(le.Email),
		Phone:          strings.TrimSpace(le.Phone),
		Topic:          strings.ToLower(strings.TrimSpace(le.Topic)),
	}
	if e.TripType == "" {
		switch strings.ToLower(strings.TrimSpace(le.TripType)) {
		case "oneway", "one_way":
			e.TripType = booking.OneWay
		case "roundtrip", "round_trip":
			e.TripType = booking.RoundTrip
		}
	}
	if e.PassengerCount < 0 {
		e.PassengerCount = 0
	}
	if e.OptionNumber < 0 {
		e.OptionNumber = 0
	}
	return e
}

func cabinClass(s string) booking.CabinClass {
	switch c := booking.CabinClass(strings.ToLower(strings.TrimSpace(s))); c {
	case booking.Economy, booking.PremiumEconomy, booking.Business, booking.First:
		return c
	}
	return cabin(strings.ToLower(s))
}

// stripMarkdown removes ```json fences some models wrap around JSON.
func stripMarkdown(s string) string {
	s = strings.TrimSpace(s)
	for _, prefix := range []string{"```json", "```JSON", "```"} {
		if after, ok := strings.CutPrefix(s, prefix); ok {
			s = after
			break
		}
	}
	if before, ok := strings.CutSuffix(s, "```"); ok {
		s = before
	}
	return strings.TrimSpace(s)
}

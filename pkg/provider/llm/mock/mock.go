// Package mock provides a test double for the llm.Provider interface.
//
// Use Provider in unit tests to verify the prompts the intent classifier sends
// and to feed controlled responses without a live LLM backend. Responses can
// be scripted per call through Responses/Errs; once the script is exhausted
// the fixed CompleteResponse/CompleteErr pair is returned.
//
// Example:
//
//	p := &mock.Provider{
//	    CompleteResponse: &llm.CompletionResponse{Content: `{"intent":"greeting"}`},
//	}
//	resp, err := p.Complete(ctx, req)
package mock

import (
	"context"
	"sync"

	"github.com/MrWong99/flightdesk/pkg/provider/llm"
)

// CompleteCall records a single invocation of Complete.
type CompleteCall struct {
	// Ctx is the context passed to Complete.
	Ctx context.Context
	// Req is the CompletionRequest passed to Complete.
	Req llm.CompletionRequest
}

// Provider is a mock implementation of llm.Provider.
type Provider struct {
	mu sync.Mutex

	// Responses and Errs script the first len(Responses) or len(Errs) calls,
	// whichever is longer. Missing entries count as nil.
	Responses []*llm.CompletionResponse
	Errs      []error

	// CompleteResponse is returned once the script is exhausted. May be nil.
	CompleteResponse *llm.CompletionResponse

	// CompleteErr, if non-nil, is returned once the script is exhausted.
	CompleteErr error

	// BlockUntilDone makes Complete wait for ctx cancellation and return
	// ctx.Err(). Used to exercise per-attempt timeouts.
	BlockUntilDone bool

	// CompleteCalls records every invocation of Complete in order.
	CompleteCalls []CompleteCall
}

// Complete records the call and returns the next scripted response.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	idx := len(p.CompleteCalls)
	p.CompleteCalls = append(p.CompleteCalls, CompleteCall{Ctx: ctx, Req: req})
	block := p.BlockUntilDone
	var (
		resp *llm.CompletionResponse
		err  error
	)
	if idx < len(p.Responses) || idx < len(p.Errs) {
		if idx < len(p.Responses) {
			resp = p.Responses[idx]
		}
		if idx < len(p.Errs) {
			err = p.Errs[idx]
		}
	} else {
		resp, err = p.CompleteResponse, p.CompleteErr
	}
	p.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return resp, err
}

// Calls returns a copy of the recorded calls. Thread-safe.
func (p *Provider) Calls() []CompleteCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]CompleteCall, len(p.CompleteCalls))
	copy(out, p.CompleteCalls)
	return out
}

// Reset clears all recorded calls. Thread-safe.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CompleteCalls = nil
}

// Ensure Provider implements llm.Provider at compile time.
var _ llm.Provider = (*Provider)(nil)

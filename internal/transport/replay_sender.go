package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/yourorg/connector-adapter/internal/adapter"
)

// ReplaySender answers each Send with the next recorded response, in order.
// It lets recorded provider traffic flow through the same build, send and
// classify path as live traffic.
type ReplaySender struct {
	mu        sync.Mutex
	responses []adapter.WireResponse
	sent      []*adapter.WireRequest
}

func NewReplaySender(responses ...adapter.WireResponse) *ReplaySender {
	return &ReplaySender{responses: responses}
}

// Enqueue appends recorded responses.
func (s *ReplaySender) Enqueue(responses ...adapter.WireResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses = append(s.responses, responses...)
}

func (s *ReplaySender) Send(ctx context.Context, wire *adapter.WireRequest) (adapter.WireResponse, error) {
	if err := ctx.Err(); err != nil {
		return adapter.WireResponse{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.responses) == 0 {
		return adapter.WireResponse{}, fmt.Errorf("no recorded response left for %s %s", wire.Method, wire.URL)
	}
	resp := s.responses[0]
	s.responses = s.responses[1:]
	s.sent = append(s.sent, wire)
	return resp, nil
}

// Sent returns the requests received so far.
func (s *ReplaySender) Sent() []*adapter.WireRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*adapter.WireRequest, len(s.sent))
	copy(out, s.sent)
	return out
}

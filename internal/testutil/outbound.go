package testutil

import (
	"context"
	"sync"

	"mia-admin/internal/models"
	"mia-admin/internal/services"
)

type SentMessage struct {
	Phone   string
	Message string
}

// Gateway records every send. Err makes every send fail.
type Gateway struct {
	mu   sync.Mutex
	sent []SentMessage
	Err  error
}

func (g *Gateway) SendText(ctx context.Context, phone string, message string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return g.Err
	}
	g.sent = append(g.sent, SentMessage{Phone: phone, Message: message})
	return nil
}

func (g *Gateway) Sent() []SentMessage {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]SentMessage(nil), g.sent...)
}

// Responder answers with Answer or fails with Err. During, when set, runs
// while the reply is being produced.
type Responder struct {
	mu     sync.Mutex
	Answer string
	Err    error
	Inputs []services.ResponderInput
	During func(ctx context.Context, input services.ResponderInput)
}

func (r *Responder) Reply(ctx context.Context, input services.ResponderInput) (string, error) {
	r.mu.Lock()
	r.Inputs = append(r.Inputs, input)
	during, answer, err := r.During, r.Answer, r.Err
	r.mu.Unlock()

	if during != nil {
		during(ctx, input)
	}
	if err != nil {
		return "", err
	}
	return answer, nil
}

// Notifier collects published turns.
type Notifier struct {
	mu    sync.Mutex
	Turns []*models.Turn
}

func (n *Notifier) NotifyTurn(turn *models.Turn) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Turns = append(n.Turns, turn)
}

// ObjectStore keeps uploads in memory.
type ObjectStore struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Err     error
}

func (s *ObjectStore) UploadBytes(ctx context.Context, data []byte, key string, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return "", s.Err
	}
	if s.Objects == nil {
		s.Objects = map[string][]byte{}
	}
	s.Objects[key] = data
	return "https://bucket.test/" + key, nil
}

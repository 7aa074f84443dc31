// Package testutil holds in-memory stand-ins for the Mongo repositories and
// the outbound HTTP collaborators.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"mia-admin/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type storedTurn struct {
	seq  int
	turn models.Turn
}

// ConversationStore orders turns by timestamp and then by insertion, like the
// (timestamp, _id) sort of the Mongo repository.
type ConversationStore struct {
	mu    sync.Mutex
	turns []storedTurn
	seq   int

	// Err, when set, is returned by every operation.
	Err error
}

func NewConversationStore() *ConversationStore {
	return &ConversationStore{}
}

func (s *ConversationStore) Append(ctx context.Context, turn *models.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if turn.ID.IsZero() {
		turn.ID = bson.NewObjectID()
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now()
	}
	s.seq++
	s.turns = append(s.turns, storedTurn{seq: s.seq, turn: *turn})
	return nil
}

// byPhone returns copies of the phone's turns, oldest first.
func (s *ConversationStore) byPhone(phone string) []storedTurn {
	var out []storedTurn
	for _, st := range s.turns {
		if st.turn.Phone == phone {
			out = append(out, st)
		}
	}
	sortAscending(out)
	return out
}

func sortAscending(turns []storedTurn) {
	sort.SliceStable(turns, func(i, j int) bool {
		if !turns[i].turn.Timestamp.Equal(turns[j].turn.Timestamp) {
			return turns[i].turn.Timestamp.Before(turns[j].turn.Timestamp)
		}
		return turns[i].seq < turns[j].seq
	})
}

func (s *ConversationStore) Latest(ctx context.Context, phone string) (*models.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	turns := s.byPhone(phone)
	if len(turns) == 0 {
		return nil, nil
	}
	latest := turns[len(turns)-1].turn
	return &latest, nil
}

func (s *ConversationStore) History(ctx context.Context, phone string, limit int) ([]*models.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	turns := s.byPhone(phone)
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	out := make([]*models.Turn, 0, len(turns))
	for _, st := range turns {
		turn := st.turn
		out = append(out, &turn)
	}
	return out, nil
}

func (s *ConversationStore) conversations() []*models.Conversation {
	phones := map[string]bool{}
	for _, st := range s.turns {
		phones[st.turn.Phone] = true
	}
	var out []*models.Conversation
	for phone := range phones {
		turns := s.byPhone(phone)
		latest := turns[len(turns)-1].turn
		conv := &models.Conversation{
			Phone:         phone,
			LastMessage:   latest.Message,
			LastTimestamp: latest.Timestamp,
			MessageCount:  len(turns),
			Mode:          latest.EffectiveMode(),
		}
		for _, st := range turns {
			if st.turn.TransferredAt == nil {
				continue
			}
			if conv.TransferredAt == nil || st.turn.TransferredAt.After(*conv.TransferredAt) {
				at := *st.turn.TransferredAt
				conv.TransferredAt = &at
				conv.TransferReason = st.turn.TransferReason
			}
		}
		out = append(out, conv)
	}
	return out
}

func (s *ConversationStore) AwaitingHuman(ctx context.Context, limit int) ([]*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []*models.Conversation
	for _, conv := range s.conversations() {
		if conv.Mode == models.ModeHuman || conv.TransferredAt != nil {
			out = append(out, conv)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].TransferredAt, out[j].TransferredAt
		switch {
		case a != nil && b != nil && !a.Equal(*b):
			return a.After(*b)
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return out[i].LastTimestamp.After(out[j].LastTimestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *ConversationStore) List(ctx context.Context, limit int) ([]*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	out := s.conversations()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastTimestamp.After(out[j].LastTimestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *ConversationStore) ReturnToIA(ctx context.Context, phone string, returnedBy string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	var matched int64
	for i := range s.turns {
		turn := &s.turns[i].turn
		if turn.Phone != phone {
			continue
		}
		returned := at
		turn.Mode = models.ModeIA
		turn.ReturnedAt = &returned
		turn.ReturnedBy = returnedBy
		turn.TransferredAt = nil
		turn.TransferReason = ""
		matched++
	}
	return matched, nil
}

func (s *ConversationStore) PhonesInHuman(ctx context.Context, since time.Time) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	seen := map[string]bool{}
	var phones []string
	for _, st := range s.turns {
		if st.turn.Mode == models.ModeHuman && !st.turn.Timestamp.Before(since) && !seen[st.turn.Phone] {
			seen[st.turn.Phone] = true
			phones = append(phones, st.turn.Phone)
		}
	}
	sort.Strings(phones)
	return phones, nil
}

func (s *ConversationStore) Stats(ctx context.Context, since time.Time) (*models.ConversationStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	stats := &models.ConversationStats{}
	phones := map[string]bool{}
	for _, st := range s.turns {
		if st.turn.Timestamp.Before(since) {
			continue
		}
		stats.TotalConversas++
		phones[st.turn.Phone] = true
		if st.turn.Role == models.RoleAssistant {
			stats.AtendimentosIA++
		}
		if st.turn.Mode == models.ModeHuman {
			stats.AtendimentosHumano++
		}
	}
	stats.ClientesUnicos = int64(len(phones))
	return stats, nil
}

// Turns returns every stored turn of the phone, oldest first.
func (s *ConversationStore) Turns(phone string) []models.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Turn
	for _, st := range s.byPhone(phone) {
		out = append(out, st.turn)
	}
	return out
}

// WebhookStore remembers message ids.
type WebhookStore struct {
	mu   sync.Mutex
	seen map[string]bool
	Err  error
}

func NewWebhookStore() *WebhookStore {
	return &WebhookStore{seen: map[string]bool{}}
}

func (s *WebhookStore) MarkProcessed(ctx context.Context, messageID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	if s.seen[messageID] {
		return false, nil
	}
	s.seen[messageID] = true
	return true, nil
}

func (s *WebhookStore) Forget(ctx context.Context, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	delete(s.seen, messageID)
	return nil
}

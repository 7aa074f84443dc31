package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"mia-admin/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type SuggestionStore struct {
	mu    sync.Mutex
	items map[bson.ObjectID]*models.Suggestion
	Err   error
}

func NewSuggestionStore() *SuggestionStore {
	return &SuggestionStore{items: map[bson.ObjectID]*models.Suggestion{}}
}

func (s *SuggestionStore) get(id string) (*models.Suggestion, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, models.ErrNotFound
	}
	item, ok := s.items[oid]
	if !ok {
		return nil, models.ErrNotFound
	}
	return item, nil
}

func (s *SuggestionStore) Create(ctx context.Context, suggestion *models.Suggestion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if suggestion.ID.IsZero() {
		suggestion.ID = bson.NewObjectID()
	}
	if suggestion.Status == "" {
		suggestion.Status = models.SuggestionPending
	}
	stored := *suggestion
	s.items[stored.ID] = &stored
	return nil
}

func (s *SuggestionStore) GetByID(ctx context.Context, id string) (*models.Suggestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	item, err := s.get(id)
	if err != nil {
		return nil, err
	}
	copied := *item
	return &copied, nil
}

func (s *SuggestionStore) ListByStatus(ctx context.Context, status string, limit int) ([]*models.Suggestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []*models.Suggestion
	for _, item := range s.items {
		if status == "" || item.Status == status {
			copied := *item
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *SuggestionStore) MarkApproved(ctx context.Context, id string, approvedBy string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	item, err := s.get(id)
	if err != nil {
		return false, err
	}
	if item.Status != models.SuggestionPending {
		return false, nil
	}
	approvedAt, by := at, approvedBy
	item.Status = models.SuggestionApproved
	item.ApprovedAt = &approvedAt
	item.ApprovedBy = &by
	return true, nil
}

func (s *SuggestionStore) MarkRejected(ctx context.Context, id string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	item, err := s.get(id)
	if err != nil {
		return false, err
	}
	if item.Status != models.SuggestionPending {
		return false, nil
	}
	rejectedAt := at
	item.Status = models.SuggestionRejected
	item.RejectedAt = &rejectedAt
	return true, nil
}

// ForceStatus changes the status behind the service's back, as a concurrent
// request would.
func (s *SuggestionStore) ForceStatus(id bson.ObjectID, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if item, ok := s.items[id]; ok {
		item.Status = status
	}
}

func (s *SuggestionStore) CountByStatus(ctx context.Context) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	counts := map[string]int64{
		models.SuggestionPending:  0,
		models.SuggestionApproved: 0,
		models.SuggestionRejected: 0,
	}
	for _, item := range s.items {
		counts[item.Status]++
	}
	return counts, nil
}

type BotStore struct {
	mu       sync.Mutex
	profiles map[string]*models.BotProfile
	Err      error
}

func NewBotStore() *BotStore {
	return &BotStore{profiles: map[string]*models.BotProfile{}}
}

// Put stores a profile as-is.
func (s *BotStore) Put(profile models.BotProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[profile.Name] = &profile
}

func (s *BotStore) GetProfile(ctx context.Context, name string) (*models.BotProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	profile, ok := s.profiles[name]
	if !ok {
		return nil, models.ErrNotFound
	}
	copied := *profile
	copied.KnowledgeBase = append([]models.KnowledgeEntry(nil), profile.KnowledgeBase...)
	return &copied, nil
}

func (s *BotStore) AppendKnowledge(ctx context.Context, botName string, entry models.KnowledgeEntry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	profile, ok := s.profiles[botName]
	if !ok {
		profile = &models.BotProfile{ID: bson.NewObjectID(), Name: botName}
		s.profiles[botName] = profile
	}
	if profile.HasKnowledge(entry.ID) {
		return false, nil
	}
	profile.KnowledgeBase = append(profile.KnowledgeBase, entry)
	return true, nil
}

func (s *BotStore) RemoveKnowledge(ctx context.Context, botName string, entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	profile, ok := s.profiles[botName]
	if !ok {
		return nil
	}
	kept := profile.KnowledgeBase[:0]
	for _, entry := range profile.KnowledgeBase {
		if entry.ID != entryID {
			kept = append(kept, entry)
		}
	}
	profile.KnowledgeBase = kept
	return nil
}

func (s *BotStore) SaveTraining(ctx context.Context, botName string, training models.BotTraining, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	profile, ok := s.profiles[botName]
	if !ok {
		return false, nil
	}
	active, updated := training.IsActive, at
	profile.SystemPrompt = strings.TrimSpace(training.SystemPrompt)
	profile.IsActive = &active
	profile.UpdatedAt = &updated
	return true, nil
}

func (s *BotStore) SetActive(ctx context.Context, botName string, active bool, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	profile, ok := s.profiles[botName]
	if !ok {
		profile = &models.BotProfile{ID: bson.NewObjectID(), Name: botName}
		s.profiles[botName] = profile
	}
	updated := at
	profile.IsActive = &active
	profile.UpdatedAt = &updated
	return nil
}

package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"mia-admin/internal/models"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type QuoteStore struct {
	mu     sync.Mutex
	quotes []*models.Quote
	Err    error
}

func NewQuoteStore(quotes ...*models.Quote) *QuoteStore {
	s := &QuoteStore{}
	for _, q := range quotes {
		if q.ID.IsZero() {
			q.ID = bson.NewObjectID()
		}
		s.quotes = append(s.quotes, q)
	}
	return s
}

func (s *QuoteStore) List(ctx context.Context, filter models.QuoteFilter) ([]*models.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []*models.Quote
	for _, q := range s.quotes {
		if q.CreatedAt.Before(filter.Since) {
			continue
		}
		if filter.Status != "" && filter.Status != models.QuoteStatusAll && q.Status != filter.Status {
			continue
		}
		copied := *q
		out = append(out, &copied)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *QuoteStore) UpdateStatus(ctx context.Context, id string, status string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return false, models.ErrNotFound
	}
	for _, q := range s.quotes {
		if q.ID == oid {
			updated := at
			q.Status = status
			q.UpdatedAt = &updated
			return true, nil
		}
	}
	return false, nil
}

func (s *QuoteStore) Stats(ctx context.Context, since time.Time) (*models.QuoteStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	stats := &models.QuoteStats{}
	for _, q := range s.quotes {
		stats.Total++
		stats.ValorTotal += q.Valor
		if !q.CreatedAt.Before(since) {
			stats.TotalWindow++
			stats.ValorWindow += q.Valor
		}
		switch q.Status {
		case models.QuotePendente:
			stats.Pendentes++
		case models.QuoteConfirmado:
			stats.Confirmados++
		case models.QuotePago:
			stats.Pagos++
		}
	}
	return stats, nil
}

// Get returns the stored quote.
func (s *QuoteStore) Get(id bson.ObjectID) *models.Quote {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.quotes {
		if q.ID == id {
			copied := *q
			return &copied
		}
	}
	return nil
}

package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"mia-admin/internal/models"
	"mia-admin/internal/utils"
)

const SuggestionListLimit = 100

// uncertaintyMarkers flag IA replies that deserve a knowledge suggestion.
var uncertaintyMarkers = []string{
	"não tenho certeza",
	"não sei",
	"vou verificar",
	"preciso confirmar",
	"não tenho essa informação",
	"i'm not sure",
	"i don't know",
}

// ShowsUncertainty reports whether the reply contains one of the markers.
func ShowsUncertainty(reply string) bool {
	lower := strings.ToLower(reply)
	for _, marker := range uncertaintyMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// SuggestionList is the queue page content.
type SuggestionList struct {
	Status      string               `json:"status"`
	Suggestions []*models.Suggestion `json:"suggestions"`
	Counts      map[string]int64     `json:"counts"`
}

type KnowledgeService struct {
	suggestions models.SuggestionRepository
	bots        models.BotRepository
	botName     string
	now         func() time.Time
}

func NewKnowledgeService(suggestions models.SuggestionRepository, bots models.BotRepository, botName string) *KnowledgeService {
	return &KnowledgeService{
		suggestions: suggestions,
		bots:        bots,
		botName:     botName,
		now:         time.Now,
	}
}

func (s *KnowledgeService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *KnowledgeService) List(ctx context.Context, status string) (*SuggestionList, error) {
	switch status {
	case models.SuggestionPending, models.SuggestionApproved, models.SuggestionRejected:
	default:
		status = models.SuggestionPending
	}

	suggestions, err := s.suggestions.ListByStatus(ctx, status, SuggestionListLimit)
	if err != nil {
		return nil, err
	}
	counts, err := s.suggestions.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	return &SuggestionList{Status: status, Suggestions: suggestions, Counts: counts}, nil
}

// Approve copies a pending suggestion into the bot knowledge base and marks it
// approved. Approving twice is a no-op; a rejected suggestion stays rejected.
func (s *KnowledgeService) Approve(ctx context.Context, id string, approvedBy string) error {
	logger := utils.RequestLogger(ctx)

	suggestion, err := s.suggestions.GetByID(ctx, id)
	if err != nil {
		return err
	}
	switch suggestion.Status {
	case models.SuggestionApproved:
		return nil
	case models.SuggestionRejected:
		return models.ErrSuggestionRejected
	}

	now := s.now()
	entry := models.KnowledgeEntry{
		ID:      suggestion.ID.Hex(),
		Title:   suggestion.Title,
		Content: suggestion.Content,
		AddedAt: &now,
		Source:  models.KnowledgeSourceHybridLearning,
	}
	added, err := s.bots.AppendKnowledge(ctx, s.botName, entry)
	if err != nil {
		return fmt.Errorf("erro ao adicionar conhecimento: %w", err)
	}

	marked, err := s.suggestions.MarkApproved(ctx, id, approvedBy, now)
	if err != nil {
		return fmt.Errorf("erro ao aprovar sugestão: %w", err)
	}
	if marked {
		logger.Infow("sugestão aprovada", "id", id, "by", approvedBy, "added", added)
		return nil
	}

	// Lost the pending guard: either another approve won or a reject did.
	current, err := s.suggestions.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current.Status == models.SuggestionRejected {
		if added {
			if err := s.bots.RemoveKnowledge(ctx, s.botName, entry.ID); err != nil {
				logger.Errorw("erro ao remover conhecimento de sugestão rejeitada", "id", id, "error", err)
				return err
			}
		}
		return models.ErrSuggestionRejected
	}
	return nil
}

// Reject moves a pending suggestion to rejected. Approved suggestions are
// kept. Any knowledge entry left behind by an interrupted approve is removed.
func (s *KnowledgeService) Reject(ctx context.Context, id string) error {
	suggestion, err := s.suggestions.GetByID(ctx, id)
	if err != nil {
		return err
	}
	switch suggestion.Status {
	case models.SuggestionApproved:
		return nil
	case models.SuggestionPending:
		rejected, err := s.suggestions.MarkRejected(ctx, id, s.now())
		if err != nil {
			return fmt.Errorf("erro ao rejeitar sugestão: %w", err)
		}
		if !rejected {
			// A concurrent approve won the pending guard.
			current, err := s.suggestions.GetByID(ctx, id)
			if err != nil {
				return err
			}
			if current.Status == models.SuggestionApproved {
				return nil
			}
		}
		utils.RequestLogger(ctx).Infow("sugestão rejeitada", "id", id, "changed", rejected)
	}

	if err := s.bots.RemoveKnowledge(ctx, s.botName, suggestion.ID.Hex()); err != nil {
		return fmt.Errorf("erro ao remover conhecimento: %w", err)
	}
	return nil
}

// Suggest records a pending suggestion built from a question the IA could not
// answer with confidence.
func (s *KnowledgeService) Suggest(ctx context.Context, phone, question, answer string) (*models.Suggestion, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, models.NewValidationError("question", "pergunta vazia")
	}
	suggestion := &models.Suggestion{
		Title:        "Dúvida sobre: " + truncate(question, 50),
		Content:      answer,
		UserQuestion: question,
		BotResponse:  answer,
		Phone:        phone,
		Status:       models.SuggestionPending,
		CreatedAt:    s.now(),
	}
	if err := s.suggestions.Create(ctx, suggestion); err != nil {
		return nil, err
	}
	return suggestion, nil
}

func truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}

package services

import (
	"context"
	"errors"
	"time"

	"mia-admin/internal/models"
	"mia-admin/internal/utils"
)

// BotStatus is the global IA switch together with the size of the human
// queue.
type BotStatus struct {
	Enabled        bool       `json:"enabled"`
	LastUpdate     *time.Time `json:"last_update,omitempty"`
	AwaitingHumans int        `json:"atendimento_humano"`
}

// TrainingService edits the bot profile used to build the IA prompt.
type TrainingService struct {
	bots       models.BotRepository
	attendance *AttendanceService
	botName    string
	now        func() time.Time
}

func NewTrainingService(bots models.BotRepository, attendance *AttendanceService, botName string) *TrainingService {
	return &TrainingService{bots: bots, attendance: attendance, botName: botName, now: time.Now}
}

// SetClock replaces the time source.
func (s *TrainingService) SetClock(now func() time.Time) {
	s.now = now
}

// Profile returns the bot profile, or an empty active profile when none was
// saved yet.
func (s *TrainingService) Profile(ctx context.Context) (*models.BotProfile, error) {
	profile, err := s.bots.GetProfile(ctx, s.botName)
	if errors.Is(err, models.ErrNotFound) {
		return &models.BotProfile{Name: s.botName}, nil
	}
	return profile, err
}

// Save stores the system prompt and active flag. ErrNotFound is returned
// when the bot profile does not exist.
func (s *TrainingService) Save(ctx context.Context, training models.BotTraining) error {
	if err := training.Validate(); err != nil {
		return err
	}
	found, err := s.bots.SaveTraining(ctx, s.botName, training, s.now())
	if err != nil {
		return err
	}
	if !found {
		return models.ErrNotFound
	}
	utils.RequestLogger(ctx).Infow("treinamento do bot salvo", "bot", s.botName,
		"prompt_chars", len([]rune(training.SystemPrompt)), "active", training.IsActive)
	return nil
}

func (s *TrainingService) Status(ctx context.Context) (*BotStatus, error) {
	profile, err := s.Profile(ctx)
	if err != nil {
		return nil, err
	}
	awaiting, err := s.attendance.AwaitingHuman(ctx)
	if err != nil {
		return nil, err
	}
	return &BotStatus{
		Enabled:        profile.Active(),
		LastUpdate:     profile.UpdatedAt,
		AwaitingHumans: len(awaiting),
	}, nil
}

// Toggle switches the IA on or off for every client. Conversations in human
// mode are not affected.
func (s *TrainingService) Toggle(ctx context.Context, enabled bool) error {
	if err := s.bots.SetActive(ctx, s.botName, enabled, s.now()); err != nil {
		return err
	}
	utils.RequestLogger(ctx).Infow("status global do bot alterado", "bot", s.botName, "enabled", enabled)
	return nil
}

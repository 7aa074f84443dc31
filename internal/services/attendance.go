package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"mia-admin/internal/models"
	"mia-admin/internal/utils"
)

const (
	HistoryLimit       = 1000
	AwaitingHumanLimit = 100
	ContextTurns       = 10
)

const (
	ReturnToIAGreeting = "✅ Você está de volta ao atendimento automático! Como posso ajudar?"
	TransferNotice     = "🔄 *Transferindo para atendimento humano...*\n\nUm de nossos atendentes já está ciente e responderá em instantes!"
)

// TurnNotifier is told about every turn persisted by the services.
type TurnNotifier interface {
	NotifyTurn(turn *models.Turn)
}

type nopNotifier struct{}

func (nopNotifier) NotifyTurn(*models.Turn) {}

// ReturnResult describes a HUMAN -> IA transition. The flip is committed even
// when the greeting could not be delivered.
type ReturnResult struct {
	Phone        string
	Updated      int64
	GreetingSent bool
	GreetingErr  error
}

// AttendanceService owns the per-phone IA/human state machine. The mode of a
// phone is the mode of its newest turn; unseen phones are in IA mode.
type AttendanceService struct {
	conversations  models.ConversationRepository
	gateway        Gateway
	notifier       TurnNotifier
	attendantPhone string
	now            func() time.Time
	locks          phoneLocks
}

// phoneLocks serializes mode-sensitive writes per phone inside the process.
type phoneLocks struct {
	mu    sync.Mutex
	byKey map[string]*phoneLock
}

type phoneLock struct {
	sync.Mutex
	refs int
}

func (p *phoneLocks) lock(phone string) func() {
	p.mu.Lock()
	if p.byKey == nil {
		p.byKey = map[string]*phoneLock{}
	}
	l, ok := p.byKey[phone]
	if !ok {
		l = &phoneLock{}
		p.byKey[phone] = l
	}
	l.refs++
	p.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		p.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(p.byKey, phone)
		}
		p.mu.Unlock()
	}
}

func NewAttendanceService(conversations models.ConversationRepository, gateway Gateway, notifier TurnNotifier, attendantPhone string) *AttendanceService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &AttendanceService{
		conversations:  conversations,
		gateway:        gateway,
		notifier:       notifier,
		attendantPhone: attendantPhone,
		now:            time.Now,
	}
}

// SetClock replaces the time source.
func (s *AttendanceService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *AttendanceService) Mode(ctx context.Context, phone string) (string, error) {
	latest, err := s.conversations.Latest(ctx, phone)
	if err != nil {
		return models.ModeIA, err
	}
	return latest.EffectiveMode(), nil
}

// Record appends a turn stamped with the server clock and publishes it.
func (s *AttendanceService) Record(ctx context.Context, turn *models.Turn) error {
	if turn.Timestamp.IsZero() {
		turn.Timestamp = s.now()
	}
	if err := s.conversations.Append(ctx, turn); err != nil {
		return err
	}
	s.notifier.NotifyTurn(turn)
	return nil
}

// RecordInbound stamps a client turn with the phone's current mode and
// appends it. A failed mode lookup counts as IA. The mode used is returned.
func (s *AttendanceService) RecordInbound(ctx context.Context, turn *models.Turn) (string, error) {
	unlock := s.locks.lock(turn.Phone)
	defer unlock()

	mode, err := s.Mode(ctx, turn.Phone)
	if err != nil {
		utils.RequestLogger(ctx).Warnw("erro ao consultar modo, assumindo IA", "phone", turn.Phone, "error", err)
		mode = models.ModeIA
	}
	turn.Mode = mode
	if err := s.Record(ctx, turn); err != nil {
		return "", err
	}
	return mode, nil
}

// RecordIfMode appends the turn only while the phone is still in mode, with
// the same IA fallback as RecordInbound. It reports whether the turn was
// written.
func (s *AttendanceService) RecordIfMode(ctx context.Context, turn *models.Turn, mode string) (bool, error) {
	unlock := s.locks.lock(turn.Phone)
	defer unlock()

	current, err := s.Mode(ctx, turn.Phone)
	if err != nil {
		utils.RequestLogger(ctx).Warnw("erro ao consultar modo, assumindo IA", "phone", turn.Phone, "error", err)
		current = models.ModeIA
	}
	if current != mode {
		return false, nil
	}
	if err := s.Record(ctx, turn); err != nil {
		return false, err
	}
	return true, nil
}

// Transfer moves an IA conversation to human attendance by appending the
// transfer notice as the newest turn. Already human conversations are left
// untouched and false is returned.
func (s *AttendanceService) Transfer(ctx context.Context, phone string, reason string, by string) (bool, error) {
	logger := utils.RequestLogger(ctx)

	changed, err := s.appendTransfer(ctx, phone, reason, by)
	if err != nil || !changed {
		return false, err
	}
	logger.Infow("conversa transferida para humano", "phone", phone, "reason", reason, "by", by)

	if err := s.gateway.SendText(ctx, phone, TransferNotice); err != nil {
		logger.Warnw("aviso de transferência não entregue", "phone", phone, "error", err)
	}
	s.notifyAttendant(ctx, phone, reason)
	return true, nil
}

func (s *AttendanceService) appendTransfer(ctx context.Context, phone, reason, by string) (bool, error) {
	unlock := s.locks.lock(phone)
	defer unlock()

	mode, err := s.Mode(ctx, phone)
	if err != nil {
		return false, err
	}
	if mode == models.ModeHuman {
		utils.RequestLogger(ctx).Infow("conversa já está em modo humano", "phone", phone)
		return false, nil
	}

	now := s.now()
	turn := &models.Turn{
		Phone:          phone,
		Role:           models.RoleAssistant,
		Message:        TransferNotice,
		Mode:           models.ModeHuman,
		Timestamp:      now,
		SentBy:         by,
		TransferredAt:  &now,
		TransferReason: reason,
	}
	if err := s.Record(ctx, turn); err != nil {
		return false, err
	}
	return true, nil
}

func (s *AttendanceService) notifyAttendant(ctx context.Context, phone string, reason string) {
	if s.attendantPhone == "" {
		return
	}
	message := fmt.Sprintf("*NOVO ATENDIMENTO HUMANO*\n\nCliente: %s\nMotivo: %s\nConversa: %s",
		phone, reason, utils.WhatsAppLink(phone))
	if err := s.gateway.SendText(ctx, s.attendantPhone, message); err != nil {
		utils.RequestLogger(ctx).Warnw("notificação do atendente falhou", "attendant", s.attendantPhone, "error", err)
	}
}

// ReturnToIA flips every turn of the phone back to IA and greets the client.
func (s *AttendanceService) ReturnToIA(ctx context.Context, phone string, by string, greet bool) (*ReturnResult, error) {
	unlock := s.locks.lock(phone)
	updated, err := s.conversations.ReturnToIA(ctx, phone, by, s.now())
	unlock()
	if err != nil {
		return nil, err
	}
	result := &ReturnResult{Phone: phone, Updated: updated}
	utils.RequestLogger(ctx).Infow("conversa devolvida para IA", "phone", phone, "updated", updated, "by", by)

	if !greet {
		return result, nil
	}
	if err := s.gateway.SendText(ctx, phone, ReturnToIAGreeting); err != nil {
		utils.RequestLogger(ctx).Warnw("saudação de retorno não entregue", "phone", phone, "error", err)
		result.GreetingErr = err
		return result, nil
	}
	result.GreetingSent = true
	return result, nil
}

// SendAdminReply delivers the message first and persists it only when the
// gateway accepted it.
func (s *AttendanceService) SendAdminReply(ctx context.Context, req models.AdminReplyRequest) (*models.Turn, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.gateway.SendText(ctx, req.Phone, req.Message); err != nil {
		return nil, err
	}

	turn := &models.Turn{
		Phone:   req.Phone,
		Role:    models.RoleAssistant,
		Message: req.Message,
		Mode:    models.ModeHuman,
		SentBy:  models.SentByAdminPanel,
	}
	if err := s.Record(ctx, turn); err != nil {
		return nil, err
	}
	return turn, nil
}

func (s *AttendanceService) History(ctx context.Context, phone string) ([]*models.Turn, error) {
	return s.conversations.History(ctx, phone, HistoryLimit)
}

func (s *AttendanceService) AwaitingHuman(ctx context.Context) ([]*models.Conversation, error) {
	conversations, err := s.conversations.AwaitingHuman(ctx, AwaitingHumanLimit)
	if err != nil {
		return nil, err
	}
	if len(conversations) > AwaitingHumanLimit {
		conversations = conversations[:AwaitingHumanLimit]
	}
	return conversations, nil
}

func (s *AttendanceService) Conversations(ctx context.Context, limit int) ([]*models.Conversation, error) {
	return s.conversations.List(ctx, limit)
}

func (s *AttendanceService) Stats(ctx context.Context, days int) (*models.ConversationStats, error) {
	if days <= 0 {
		days = 7
	}
	return s.conversations.Stats(ctx, s.now().AddDate(0, 0, -days))
}

// ResetHuman returns to IA every phone with human activity since the given
// time. Failures on one phone do not stop the others.
func (s *AttendanceService) ResetHuman(ctx context.Context, since time.Time, notify bool) ([]string, error) {
	phones, err := s.conversations.PhonesInHuman(ctx, since)
	if err != nil {
		return nil, err
	}
	var reset []string
	var errs []error
	for _, phone := range phones {
		if _, err := s.ReturnToIA(ctx, phone, models.SentBySystem, notify); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", phone, err))
			continue
		}
		reset = append(reset, phone)
	}
	return reset, errors.Join(errs...)
}

// ModeInfo is the JSON view of one phone's attendance state.
type ModeInfo struct {
	Phone          string     `json:"phone"`
	Mode           string     `json:"modo"`
	Known          bool       `json:"existe_estado"`
	LastTimestamp  *time.Time `json:"ultima_mensagem,omitempty"`
	TransferredAt  *time.Time `json:"transferred_at,omitempty"`
	TransferReason string     `json:"transfer_reason,omitempty"`
}

// ModeOf reports the current mode of the phone and, when it is in human
// mode because of a transfer, when and why it was moved.
func (s *AttendanceService) ModeOf(ctx context.Context, phone string) (*ModeInfo, error) {
	latest, err := s.conversations.Latest(ctx, phone)
	if err != nil {
		return nil, err
	}
	info := &ModeInfo{Phone: phone, Mode: latest.EffectiveMode()}
	if latest == nil {
		return info, nil
	}
	at := latest.Timestamp
	info.Known = true
	info.LastTimestamp = &at
	if info.Mode != models.ModeHuman {
		return info, nil
	}
	turns, err := s.conversations.History(ctx, phone, HistoryLimit)
	if err != nil {
		return nil, err
	}
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].TransferredAt != nil {
			info.TransferredAt = turns[i].TransferredAt
			info.TransferReason = turns[i].TransferReason
			break
		}
	}
	return info, nil
}

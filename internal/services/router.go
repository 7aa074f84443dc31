package services

import (
	"context"
	"errors"
	"strings"

	"mia-admin/internal/models"
	"mia-admin/internal/utils"
)

const (
	CommandTransfer = "*"
	CommandReturn   = "+"
)

const FallbackReply = "Desculpe, tive um problema. Pode repetir?"

// Outcomes reported by the router, also used as webhook response messages.
const (
	OutcomeIgnoredGroup     = "mensagem de grupo ignorada"
	OutcomeIgnoredEmpty     = "mensagem vazia ignorada"
	OutcomeIgnoredDuplicate = "mensagem duplicada ignorada"
	OutcomeIgnoredFromMe    = "mensagem própria ignorada"
	OutcomeTransferred      = "transferido para humano"
	OutcomeReturned         = "devolvido para IA"
	OutcomeHumanLogged      = "mensagem registrada para atendimento humano"
	OutcomeIAReplied        = "resposta da IA enviada"
	OutcomeIAFailed         = "falha da IA, desculpa enviada"
	OutcomeIADiscarded      = "resposta da IA descartada, conversa em atendimento humano"
	OutcomeBotDisabled      = "bot desativado, mensagem registrada"
)

// RouteResult says what the router did with one inbound message.
type RouteResult struct {
	Outcome string `json:"outcome"`
	Mode    string `json:"mode"`
	Ignored bool   `json:"ignored"`
}

// Router dispatches inbound WhatsApp messages to the IA or to the human queue
// according to the phone's attendance mode.
type Router struct {
	attendance *AttendanceService
	knowledge  *KnowledgeService
	bots       models.BotRepository
	webhooks   models.WebhookRepository
	responder  Responder
	gateway    Gateway
	botName    string
}

func NewRouter(attendance *AttendanceService, knowledge *KnowledgeService, bots models.BotRepository,
	webhooks models.WebhookRepository, responder Responder, gateway Gateway, botName string) *Router {
	return &Router{
		attendance: attendance,
		knowledge:  knowledge,
		bots:       bots,
		webhooks:   webhooks,
		responder:  responder,
		gateway:    gateway,
		botName:    botName,
	}
}

func ignored(outcome string) *RouteResult {
	return &RouteResult{Outcome: outcome, Ignored: true}
}

func (r *Router) Handle(ctx context.Context, msg models.InboundMessage) (*RouteResult, error) {
	logger := utils.RequestLogger(ctx).With("phone", msg.Phone)

	if msg.IsGroup {
		return ignored(OutcomeIgnoredGroup), nil
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" || msg.Phone == "" {
		return ignored(OutcomeIgnoredEmpty), nil
	}

	marked := false
	if msg.MessageID != "" && r.webhooks != nil {
		fresh, err := r.webhooks.MarkProcessed(ctx, msg.MessageID)
		if err != nil {
			logger.Warnw("erro ao registrar messageId, seguindo sem deduplicação", "message_id", msg.MessageID, "error", err)
		} else if !fresh {
			return ignored(OutcomeIgnoredDuplicate), nil
		}
		marked = err == nil
	}

	result, err := r.route(ctx, msg, text)
	if err != nil && marked {
		// Let the gateway redelivery go through.
		if ferr := r.webhooks.Forget(ctx, msg.MessageID); ferr != nil {
			logger.Warnw("erro ao liberar messageId", "message_id", msg.MessageID, "error", ferr)
		}
	}
	return result, err
}

func (r *Router) route(ctx context.Context, msg models.InboundMessage, text string) (*RouteResult, error) {
	if msg.FromMe {
		return r.handleOperator(ctx, msg.Phone, text)
	}

	switch text {
	case CommandTransfer:
		if _, err := r.attendance.Transfer(ctx, msg.Phone, "Solicitado pelo cliente", models.SentByClient); err != nil {
			return nil, err
		}
		return &RouteResult{Outcome: OutcomeTransferred, Mode: models.ModeHuman}, nil
	case CommandReturn:
		if _, err := r.attendance.ReturnToIA(ctx, msg.Phone, models.SentByClient, true); err != nil {
			return nil, err
		}
		return &RouteResult{Outcome: OutcomeReturned, Mode: models.ModeIA}, nil
	}

	userTurn := &models.Turn{
		Phone:   msg.Phone,
		Role:    models.RoleUser,
		Message: text,
		Canal:   "whatsapp",
	}
	mode, err := r.attendance.RecordInbound(ctx, userTurn)
	if err != nil {
		return nil, err
	}
	if mode == models.ModeHuman {
		return &RouteResult{Outcome: OutcomeHumanLogged, Mode: models.ModeHuman}, nil
	}
	return r.replyWithIA(ctx, userTurn)
}

// handleOperator treats messages sent from the bot's own number. Only the
// transfer and return commands have an effect.
func (r *Router) handleOperator(ctx context.Context, phone, text string) (*RouteResult, error) {
	switch text {
	case CommandTransfer:
		if _, err := r.attendance.Transfer(ctx, phone, "Assumido pelo operador", models.SentByOperator); err != nil {
			return nil, err
		}
		return &RouteResult{Outcome: OutcomeTransferred, Mode: models.ModeHuman}, nil
	case CommandReturn:
		if _, err := r.attendance.ReturnToIA(ctx, phone, models.SentByOperator, true); err != nil {
			return nil, err
		}
		return &RouteResult{Outcome: OutcomeReturned, Mode: models.ModeIA}, nil
	}
	return ignored(OutcomeIgnoredFromMe), nil
}

// replyWithIA answers a user turn already stored in IA mode. The reply is
// dropped when the phone left IA mode while the responder was running.
func (r *Router) replyWithIA(ctx context.Context, userTurn *models.Turn) (*RouteResult, error) {
	phone, text := userTurn.Phone, userTurn.Message
	logger := utils.RequestLogger(ctx).With("phone", phone)

	history, err := r.attendance.conversations.History(ctx, phone, ContextTurns+1)
	if err != nil {
		logger.Warnw("erro ao carregar histórico", "error", err)
		history = nil
	}
	history = withoutTurn(history, userTurn)
	profile, err := r.bots.GetProfile(ctx, r.botName)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			logger.Warnw("erro ao carregar perfil do bot", "bot", r.botName, "error", err)
		}
		profile = nil
	}
	if profile != nil && !profile.Active() {
		return &RouteResult{Outcome: OutcomeBotDisabled, Mode: models.ModeIA}, nil
	}

	reply, replyErr := r.responder.Reply(ctx, ResponderInput{
		Phone:   phone,
		Message: text,
		History: history,
		Profile: profile,
	})

	if replyErr != nil || strings.TrimSpace(reply) == "" {
		logger.Errorw("erro ao gerar resposta da IA", "error", replyErr)
		if mode, err := r.attendance.Mode(ctx, phone); err == nil && mode == models.ModeHuman {
			return &RouteResult{Outcome: OutcomeIADiscarded, Mode: models.ModeHuman}, nil
		}
		if err := r.gateway.SendText(ctx, phone, FallbackReply); err != nil {
			logger.Warnw("desculpa não entregue", "error", err)
		}
		return &RouteResult{Outcome: OutcomeIAFailed, Mode: models.ModeIA}, nil
	}

	assistantTurn := &models.Turn{
		Phone:   phone,
		Role:    models.RoleAssistant,
		Message: reply,
		Mode:    models.ModeIA,
		Canal:   "whatsapp",
	}
	written, err := r.attendance.RecordIfMode(ctx, assistantTurn, models.ModeIA)
	if err != nil {
		return nil, err
	}
	if !written {
		logger.Infow("conversa transferida durante a resposta da IA, resposta descartada")
		return &RouteResult{Outcome: OutcomeIADiscarded, Mode: models.ModeHuman}, nil
	}

	if err := r.gateway.SendText(ctx, phone, reply); err != nil {
		logger.Errorw("erro ao enviar resposta da IA", "error", err)
	}

	if r.knowledge != nil && ShowsUncertainty(reply) {
		if _, err := r.knowledge.Suggest(ctx, phone, text, reply); err != nil {
			logger.Warnw("erro ao registrar sugestão de conhecimento", "error", err)
		}
	}

	return &RouteResult{Outcome: OutcomeIAReplied, Mode: models.ModeIA}, nil
}

func withoutTurn(history []*models.Turn, turn *models.Turn) []*models.Turn {
	out := make([]*models.Turn, 0, len(history))
	for _, t := range history {
		if t.ID != turn.ID {
			out = append(out, t)
		}
	}
	if len(out) > ContextTurns {
		out = out[len(out)-ContextTurns:]
	}
	return out
}

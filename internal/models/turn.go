package models

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Modos de atendimento
const (
	ModeIA    = "ia"    // Respostas geradas pela IA
	ModeHuman = "human" // Atendente responde pelo painel
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Origem das mensagens enviadas fora do fluxo da IA
const (
	SentByAdminPanel = "admin_panel"
	SentByOperator   = "operador"
	SentByClient     = "cliente"
	SentBySystem     = "sistema"
)

// Turn is one message of a conversation. Turns are never rewritten except to
// record mode transitions.
type Turn struct {
	ID             bson.ObjectID `json:"_id" bson:"_id,omitempty"`
	Phone          string        `json:"phone" bson:"phone"`
	Role           string        `json:"role" bson:"role"`
	Message        string        `json:"message" bson:"message"`
	Mode           string        `json:"mode" bson:"mode"`
	Timestamp      time.Time     `json:"timestamp" bson:"timestamp"`
	Canal          string        `json:"canal,omitempty" bson:"canal,omitempty"`
	SentBy         string        `json:"sent_by,omitempty" bson:"sent_by,omitempty"`
	TransferredAt  *time.Time    `json:"transferred_at,omitempty" bson:"transferred_at,omitempty"`
	TransferReason string        `json:"transfer_reason,omitempty" bson:"transfer_reason,omitempty"`
	ReturnedAt     *time.Time    `json:"returned_at,omitempty" bson:"returned_at,omitempty"`
	ReturnedBy     string        `json:"returned_by,omitempty" bson:"returned_by,omitempty"`
}

// EffectiveMode treats turns written without a mode as IA turns.
func (t *Turn) EffectiveMode() string {
	if t == nil || t.Mode != ModeHuman {
		return ModeIA
	}
	return ModeHuman
}

// Conversation is the per-phone summary computed from the turns.
type Conversation struct {
	Phone          string     `json:"phone" bson:"_id"`
	LastMessage    string     `json:"last_message" bson:"last_message"`
	LastTimestamp  time.Time  `json:"last_timestamp" bson:"last_timestamp"`
	MessageCount   int        `json:"message_count" bson:"message_count"`
	Mode           string     `json:"mode" bson:"mode"`
	TransferredAt  *time.Time `json:"transferred_at,omitempty" bson:"transferred_at,omitempty"`
	TransferReason string     `json:"transfer_reason,omitempty" bson:"transfer_reason,omitempty"`
}

type ConversationStats struct {
	TotalConversas     int64 `json:"total_conversas"`
	ClientesUnicos     int64 `json:"clientes_unicos"`
	AtendimentosIA     int64 `json:"atendimentos_ia"`
	AtendimentosHumano int64 `json:"atendimentos_humano"`
}

type ConversationRepository interface {
	Append(ctx context.Context, turn *Turn) error
	Latest(ctx context.Context, phone string) (*Turn, error)
	History(ctx context.Context, phone string, limit int) ([]*Turn, error)
	AwaitingHuman(ctx context.Context, limit int) ([]*Conversation, error)
	List(ctx context.Context, limit int) ([]*Conversation, error)
	ReturnToIA(ctx context.Context, phone string, returnedBy string, at time.Time) (int64, error)
	PhonesInHuman(ctx context.Context, since time.Time) ([]string, error)
	Stats(ctx context.Context, since time.Time) (*ConversationStats, error)
}

// WebhookRepository remembers processed gateway message ids.
type WebhookRepository interface {
	MarkProcessed(ctx context.Context, messageID string) (bool, error)
	Forget(ctx context.Context, messageID string) error
}

package models

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	SuggestionPending  = "pending"
	SuggestionApproved = "approved"
	SuggestionRejected = "rejected"
)

const KnowledgeSourceHybridLearning = "hybrid_learning"

// Suggestion is a candidate knowledge base entry waiting for review.
type Suggestion struct {
	ID           bson.ObjectID `json:"id" bson:"_id,omitempty"`
	Title        string        `json:"title" bson:"title"`
	Content      string        `json:"content" bson:"content"`
	UserQuestion string        `json:"user_question,omitempty" bson:"user_question,omitempty"`
	BotResponse  string        `json:"bot_response,omitempty" bson:"bot_response,omitempty"`
	Phone        string        `json:"phone,omitempty" bson:"phone,omitempty"`
	Status       string        `json:"status" bson:"status"`
	CreatedAt    time.Time     `json:"created_at" bson:"created_at"`
	ApprovedAt   *time.Time    `json:"approved_at" bson:"approved_at"`
	ApprovedBy   *string       `json:"approved_by" bson:"approved_by"`
	RejectedAt   *time.Time    `json:"rejected_at,omitempty" bson:"rejected_at,omitempty"`
}

// KnowledgeEntry is one item of the bot knowledge base. Entries coming from
// approved suggestions use the suggestion id as their _id.
type KnowledgeEntry struct {
	ID      string     `json:"id,omitempty" bson:"_id,omitempty"`
	Title   string     `json:"title" bson:"title"`
	Content string     `json:"content" bson:"content"`
	AddedAt *time.Time `json:"added_at,omitempty" bson:"added_at,omitempty"`
	Source  string     `json:"source,omitempty" bson:"source,omitempty"`
}

type FAQ struct {
	Question string `json:"question" bson:"question"`
	Answer   string `json:"answer" bson:"answer"`
}

type Personality struct {
	Tone         string `json:"tone,omitempty" bson:"tone,omitempty"`
	Goals        string `json:"goals,omitempty" bson:"goals,omitempty"`
	Restrictions string `json:"restrictions,omitempty" bson:"restrictions,omitempty"`
}

type BotProfile struct {
	ID            bson.ObjectID    `json:"id" bson:"_id,omitempty"`
	Name          string           `json:"name" bson:"name"`
	Personality   Personality      `json:"personality" bson:"personality"`
	KnowledgeBase []KnowledgeEntry `json:"knowledge_base" bson:"knowledge_base"`
	FAQs          []FAQ            `json:"faqs" bson:"faqs"`
	SystemPrompt  string           `json:"system_prompt,omitempty" bson:"system_prompt,omitempty"`
	IsActive      *bool            `json:"is_active,omitempty" bson:"is_active,omitempty"`
	UpdatedAt     *time.Time       `json:"updated_at,omitempty" bson:"updated_at,omitempty"`
}

// Active reports whether the IA answers clients. Profiles saved before the
// flag existed are active.
func (b *BotProfile) Active() bool {
	return b == nil || b.IsActive == nil || *b.IsActive
}

// BotTraining is the editable part of the bot profile.
type BotTraining struct {
	SystemPrompt string `json:"system_prompt"`
	IsActive     bool   `json:"is_active"`
}

// MinSystemPromptLength is the shortest training text accepted.
const MinSystemPromptLength = 10

func (t BotTraining) Validate() error {
	if len([]rune(strings.TrimSpace(t.SystemPrompt))) < MinSystemPromptLength {
		return NewValidationError("system_prompt", "Treinamento muito curto (mínimo 10 caracteres)")
	}
	return nil
}

// HasKnowledge reports whether an entry with the given id is present.
func (b *BotProfile) HasKnowledge(id string) bool {
	for _, entry := range b.KnowledgeBase {
		if entry.ID == id {
			return true
		}
	}
	return false
}

type SuggestionRepository interface {
	Create(ctx context.Context, suggestion *Suggestion) error
	GetByID(ctx context.Context, id string) (*Suggestion, error)
	ListByStatus(ctx context.Context, status string, limit int) ([]*Suggestion, error)
	MarkApproved(ctx context.Context, id string, approvedBy string, at time.Time) (bool, error)
	MarkRejected(ctx context.Context, id string, at time.Time) (bool, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

type BotRepository interface {
	GetProfile(ctx context.Context, name string) (*BotProfile, error)
	AppendKnowledge(ctx context.Context, botName string, entry KnowledgeEntry) (bool, error)
	RemoveKnowledge(ctx context.Context, botName string, entryID string) error
	SaveTraining(ctx context.Context, botName string, training BotTraining, at time.Time) (bool, error)
	SetActive(ctx context.Context, botName string, active bool, at time.Time) error
}

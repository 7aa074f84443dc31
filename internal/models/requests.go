package models

import (
	"encoding/json"
	"strings"
)

// AdminReplyRequest is the form posted by the chat view.
type AdminReplyRequest struct {
	Phone   string `json:"phone" example:"+15551234" swagger:"required" description:"Telefone do cliente"`
	Message string `json:"message" example:"Olá, como posso ajudar?" swagger:"required" description:"Texto da mensagem"`
}

func (r *AdminReplyRequest) Validate() error {
	if r.Phone == "" {
		return NewValidationError("phone", "telefone é obrigatório")
	}
	if r.Message == "" {
		return NewValidationError("message", "mensagem é obrigatória")
	}
	return nil
}

type QuoteStatusRequest struct {
	ID     string `json:"id" example:"65f1c8e2a1b2c3d4e5f60718"`
	Status string `json:"status" example:"confirmado"`
}

func (r *QuoteStatusRequest) Validate() error {
	if r.ID == "" || r.Status == "" {
		return NewValidationError("id", "ID e status são obrigatórios")
	}
	if !IsValidQuoteStatus(r.Status) {
		return NewValidationError("status", "status inválido: "+r.Status)
	}
	return nil
}

// WebhookPayload is the subset of the Z-API "on message received" payload the
// router reads.
type WebhookPayload struct {
	Phone      string          `json:"phone"`
	FromMe     bool            `json:"fromMe"`
	MessageID  string          `json:"messageId"`
	IsGroup    bool            `json:"isGroup"`
	SenderName string          `json:"senderName"`
	Text       json.RawMessage `json:"text"`
	Body       string          `json:"body"`
	Message    string          `json:"message"`
}

// MessageText returns the text whether Z-API sent it as {"message": "..."},
// as a plain string or in one of the fallback fields.
func (p *WebhookPayload) MessageText() string {
	var text string
	if len(p.Text) > 0 {
		var nested struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(p.Text, &nested); err == nil {
			text = nested.Message
		} else {
			json.Unmarshal(p.Text, &text)
		}
	}
	if text == "" {
		text = p.Body
	}
	if text == "" {
		text = p.Message
	}
	return strings.TrimSpace(text)
}

// InboundMessage is a normalised client message handed to the router.
type InboundMessage struct {
	Phone     string
	Text      string
	MessageID string
	FromMe    bool
	IsGroup   bool
}

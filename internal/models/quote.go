package models

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Status de orçamento
const (
	QuotePendente   = "pendente"
	QuoteConfirmado = "confirmado"
	QuotePago       = "pago"
)

// QuoteStatusAll disables the status filter when listing.
const QuoteStatusAll = "todos"

func IsValidQuoteStatus(status string) bool {
	switch status {
	case QuotePendente, QuoteConfirmado, QuotePago:
		return true
	}
	return false
}

type Quote struct {
	ID               bson.ObjectID `json:"id" bson:"_id,omitempty"`
	Phone            string        `json:"phone" bson:"phone"`
	Nome             string        `json:"nome" bson:"nome"`
	DocumentoTipo    string        `json:"documento_tipo" bson:"documento_tipo"`
	DocumentoPaginas int           `json:"documento_paginas" bson:"documento_paginas"`
	IdiomaOrigem     string        `json:"idioma_origem" bson:"idioma_origem"`
	IdiomaDestino    string        `json:"idioma_destino" bson:"idioma_destino"`
	Valor            float64       `json:"valor" bson:"valor"`
	Status           string        `json:"status" bson:"status"`
	OrigemCliente    string        `json:"origem_cliente,omitempty" bson:"origem_cliente,omitempty"`
	OrcamentoTexto   string        `json:"orcamento_texto,omitempty" bson:"orcamento_texto,omitempty"`
	CreatedAt        time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt        *time.Time    `json:"updated_at,omitempty" bson:"updated_at,omitempty"`
}

type QuoteFilter struct {
	Since  time.Time
	Status string
	Limit  int
}

// QuoteStats aggregates quotes over the full history and a trailing window.
type QuoteStats struct {
	Total       int64
	TotalWindow int64
	Pendentes   int64
	Confirmados int64
	Pagos       int64
	ValorTotal  float64
	ValorWindow float64
}

type QuoteRepository interface {
	List(ctx context.Context, filter QuoteFilter) ([]*Quote, error)
	UpdateStatus(ctx context.Context, id string, status string, at time.Time) (bool, error)
	Stats(ctx context.Context, since time.Time) (*QuoteStats, error)
}

package services

import (
	"context"
	"fmt"
	"time"

	"mia-admin/internal/models"
	"mia-admin/internal/utils"
)

const (
	QuoteListLimit   = 500
	QuoteDefaultDays = 30
	QuoteStatsWindow = 30
	quoteTextPreview = 200
	quoteDefaultName = "Não informado"
)

// QuoteView is a quote formatted for the admin page and JSON list.
type QuoteView struct {
	ID               string  `json:"id"`
	Phone            string  `json:"phone"`
	Nome             string  `json:"nome"`
	DocumentoTipo    string  `json:"documento_tipo"`
	DocumentoPaginas int     `json:"documento_paginas"`
	IdiomaOrigem     string  `json:"idioma_origem"`
	IdiomaDestino    string  `json:"idioma_destino"`
	Valor            float64 `json:"valor"`
	ValorFormatado   string  `json:"valor_formatado"`
	Status           string  `json:"status"`
	OrigemCliente    string  `json:"origem_cliente"`
	CreatedAt        string  `json:"created_at"`
	OrcamentoTexto   string  `json:"orcamento_texto"`
}

type QuoteListStats struct {
	Total               int     `json:"total"`
	TotalValor          float64 `json:"total_valor"`
	TotalValorFormatado string  `json:"total_valor_formatado"`
	Pendentes           int     `json:"pendentes"`
	Confirmados         int     `json:"confirmados"`
	Pagos               int     `json:"pagos"`
}

type QuoteList struct {
	Orcamentos []QuoteView    `json:"orcamentos"`
	Stats      QuoteListStats `json:"stats"`
}

type QuoteSummary struct {
	Total               int64   `json:"total"`
	Total30d            int64   `json:"total_30d"`
	Pendentes           int64   `json:"pendentes"`
	Confirmados         int64   `json:"confirmados"`
	Pagos               int64   `json:"pagos"`
	ValorTotal          float64 `json:"valor_total"`
	ValorTotalFormatado string  `json:"valor_total_formatado"`
	Valor30d            float64 `json:"valor_30d"`
	Valor30dFormatado   string  `json:"valor_30d_formatado"`
	TaxaConversao       string  `json:"taxa_conversao"`
}

type QuoteService struct {
	quotes   models.QuoteRepository
	location *time.Location
	now      func() time.Time
}

func NewQuoteService(quotes models.QuoteRepository, location *time.Location) *QuoteService {
	if location == nil {
		location = time.UTC
	}
	return &QuoteService{quotes: quotes, location: location, now: time.Now}
}

func (s *QuoteService) SetClock(now func() time.Time) {
	s.now = now
}

func formatMoney(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

// List returns quotes created in the last days, optionally filtered by status.
// The stats cover the returned list only.
func (s *QuoteService) List(ctx context.Context, days int, status string) (*QuoteList, error) {
	if days <= 0 {
		days = QuoteDefaultDays
	}
	if status == "" {
		status = models.QuoteStatusAll
	}
	if status != models.QuoteStatusAll && !models.IsValidQuoteStatus(status) {
		return nil, models.NewValidationError("status", "status inválido: "+status)
	}

	quotes, err := s.quotes.List(ctx, models.QuoteFilter{
		Since:  s.now().AddDate(0, 0, -days),
		Status: status,
		Limit:  QuoteListLimit,
	})
	if err != nil {
		return nil, err
	}
	if len(quotes) > QuoteListLimit {
		quotes = quotes[:QuoteListLimit]
	}

	list := &QuoteList{Orcamentos: make([]QuoteView, 0, len(quotes))}
	for _, q := range quotes {
		view := s.view(q)
		list.Orcamentos = append(list.Orcamentos, view)

		list.Stats.Total++
		list.Stats.TotalValor += view.Valor
		switch view.Status {
		case models.QuotePendente:
			list.Stats.Pendentes++
		case models.QuoteConfirmado:
			list.Stats.Confirmados++
		case models.QuotePago:
			list.Stats.Pagos++
		}
	}
	list.Stats.TotalValorFormatado = formatMoney(list.Stats.TotalValor)
	return list, nil
}

func (s *QuoteService) view(q *models.Quote) QuoteView {
	nome := q.Nome
	if nome == "" {
		nome = quoteDefaultName
	}
	status := q.Status
	if status == "" {
		status = models.QuotePendente
	}
	paginas := q.DocumentoPaginas
	if paginas == 0 {
		paginas = 1
	}
	return QuoteView{
		ID:               q.ID.Hex(),
		Phone:            q.Phone,
		Nome:             nome,
		DocumentoTipo:    q.DocumentoTipo,
		DocumentoPaginas: paginas,
		IdiomaOrigem:     q.IdiomaOrigem,
		IdiomaDestino:    q.IdiomaDestino,
		Valor:            q.Valor,
		ValorFormatado:   formatMoney(q.Valor),
		Status:           status,
		OrigemCliente:    q.OrigemCliente,
		CreatedAt:        utils.FormatLocal(q.CreatedAt, s.location, utils.DisplayLayout),
		OrcamentoTexto:   truncate(q.OrcamentoTexto, quoteTextPreview),
	}
}

func (s *QuoteService) Stats(ctx context.Context) (*QuoteSummary, error) {
	stats, err := s.quotes.Stats(ctx, s.now().AddDate(0, 0, -QuoteStatsWindow))
	if err != nil {
		return nil, err
	}
	summary := &QuoteSummary{
		Total:               stats.Total,
		Total30d:            stats.TotalWindow,
		Pendentes:           stats.Pendentes,
		Confirmados:         stats.Confirmados,
		Pagos:               stats.Pagos,
		ValorTotal:          stats.ValorTotal,
		ValorTotalFormatado: formatMoney(stats.ValorTotal),
		Valor30d:            stats.ValorWindow,
		Valor30dFormatado:   formatMoney(stats.ValorWindow),
		TaxaConversao:       "0%",
	}
	if stats.Total > 0 {
		summary.TaxaConversao = fmt.Sprintf("%.1f%%", float64(stats.Pagos)/float64(stats.Total)*100)
	}
	return summary, nil
}

// UpdateStatus accepts any transition between the known statuses.
func (s *QuoteService) UpdateStatus(ctx context.Context, req models.QuoteStatusRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	found, err := s.quotes.UpdateStatus(ctx, req.ID, req.Status, s.now())
	if err != nil {
		return err
	}
	if !found {
		return models.ErrNotFound
	}
	utils.RequestLogger(ctx).Infow("status do orçamento atualizado", "id", req.ID, "status", req.Status)
	return nil
}

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"mia-admin/config"
	"mia-admin/internal/utils"
)

var (
	ErrGatewayUnavailable   = errors.New("gateway indisponível")
	ErrGatewayRejected      = errors.New("gateway rejeitou a mensagem")
	ErrGatewayNotConfigured = errors.New("gateway não configurado")
)

const GatewayTimeout = 30 * time.Second

// Gateway delivers text messages to WhatsApp clients.
type Gateway interface {
	SendText(ctx context.Context, phone string, message string) error
}

// ZAPIGateway is the Z-API send-text client. It never retries.
type ZAPIGateway struct {
	config     config.GatewayConfig
	httpClient *http.Client
}

func NewZAPIGateway(cfg config.GatewayConfig) *ZAPIGateway {
	return &ZAPIGateway{
		config:     cfg,
		httpClient: &http.Client{Timeout: GatewayTimeout},
	}
}

type sendTextPayload struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

func (g *ZAPIGateway) SendText(ctx context.Context, phone string, message string) error {
	if !g.config.Configured() {
		return ErrGatewayNotConfigured
	}

	body, err := json.Marshal(sendTextPayload{Phone: phone, Message: message})
	if err != nil {
		return fmt.Errorf("erro ao serializar mensagem: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, GatewayTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.config.SendTextURL(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("erro ao criar requisição: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.config.ClientToken != "" {
		req.Header.Set("Client-Token", g.config.ClientToken)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d: %s", ErrGatewayRejected, resp.StatusCode, string(respBody))
	}

	utils.RequestLogger(ctx).Infow("mensagem enviada via Z-API", "phone", phone, "chars", len(message))
	return nil
}

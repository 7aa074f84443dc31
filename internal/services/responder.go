package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"mia-admin/config"
	"mia-admin/internal/models"
)

// ResponderInput carries what the LLM needs to answer one client message.
type ResponderInput struct {
	Phone   string
	Message string
	History []*models.Turn
	Profile *models.BotProfile
}

// Responder produces the IA reply for an inbound message.
type Responder interface {
	Reply(ctx context.Context, input ResponderInput) (string, error)
}

const defaultSystemPrompt = "Você é a Mia, assistente da Legacy Translations.\n\nResponda de forma profissional e educada."

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// OpenAIResponder calls the chat completions endpoint of an OpenAI
// compatible API.
type OpenAIResponder struct {
	config     config.OpenAIConfig
	httpClient *http.Client
}

func NewOpenAIResponder(cfg config.OpenAIConfig) *OpenAIResponder {
	return &OpenAIResponder{
		config:     cfg,
		httpClient: &http.Client{Timeout: GatewayTimeout},
	}
}

func (o *OpenAIResponder) Reply(ctx context.Context, input ResponderInput) (string, error) {
	if o.config.APIKey == "" {
		return "", fmt.Errorf("OPENAI_API_KEY não configurado")
	}

	messages := []chatMessage{{Role: "system", Content: SystemPrompt(input.Profile)}}
	for _, turn := range input.History {
		messages = append(messages, chatMessage{Role: turn.Role, Content: turn.Message})
	}
	messages = append(messages, chatMessage{Role: models.RoleUser, Content: input.Message})

	body, err := json.Marshal(chatRequest{
		Model:       o.config.Model,
		Messages:    messages,
		MaxTokens:   500,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, GatewayTimeout)
	defer cancel()

	url := strings.TrimSuffix(o.config.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.config.APIKey)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("no choices in response")
	}
	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

// SystemPrompt renders the bot profile into the system message.
func SystemPrompt(profile *models.BotProfile) string {
	if profile == nil {
		return defaultSystemPrompt
	}

	var parts []string
	if prompt := strings.TrimSpace(profile.SystemPrompt); prompt != "" {
		parts = append(parts, prompt)
	}
	if goals := strings.TrimSpace(profile.Personality.Goals); goals != "" {
		parts = append(parts, "**OBJETIVOS:**\n"+goals)
	}
	if tone := strings.TrimSpace(profile.Personality.Tone); tone != "" {
		parts = append(parts, "**TOM DE VOZ:**\n"+tone)
	}
	if restrictions := strings.TrimSpace(profile.Personality.Restrictions); restrictions != "" {
		parts = append(parts, "**RESTRIÇÕES:**\n"+restrictions)
	}
	if len(profile.KnowledgeBase) > 0 {
		items := make([]string, 0, len(profile.KnowledgeBase))
		for _, entry := range profile.KnowledgeBase {
			items = append(items, fmt.Sprintf("**%s:**\n%s", entry.Title, strings.TrimSpace(entry.Content)))
		}
		parts = append(parts, "**BASE DE CONHECIMENTO:**\n"+strings.Join(items, "\n\n"))
	}
	if len(profile.FAQs) > 0 {
		items := make([]string, 0, len(profile.FAQs))
		for _, faq := range profile.FAQs {
			items = append(items, fmt.Sprintf("P: %s\nR: %s", faq.Question, faq.Answer))
		}
		parts = append(parts, "**PERGUNTAS FREQUENTES:**\n"+strings.Join(items, "\n\n"))
	}

	if len(parts) == 0 {
		return defaultSystemPrompt
	}
	return strings.Join(parts, "\n\n")
}


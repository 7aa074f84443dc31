package services_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"mia-admin/config"
	"mia-admin/internal/models"
	"mia-admin/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZAPIGatewaySendText(t *testing.T) {
	var gotPath, gotToken string
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotToken = r.Header.Get("Client-Token")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"messageId":"1"}`))
	}))
	defer server.Close()

	gateway := services.NewZAPIGateway(config.GatewayConfig{
		BaseURL: server.URL, InstanceID: "inst", Token: "tok", ClientToken: "secret",
	})
	require.NoError(t, gateway.SendText(context.Background(), "+15551234", "hello"))

	assert.Equal(t, "/instances/inst/token/tok/send-text", gotPath)
	assert.Equal(t, "secret", gotToken)
	assert.Equal(t, map[string]string{"phone": "+15551234", "message": "hello"}, gotBody)
}

func TestZAPIGatewayErrors(t *testing.T) {
	rejecting := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad instance", http.StatusBadRequest)
	}))
	defer rejecting.Close()

	gateway := services.NewZAPIGateway(config.GatewayConfig{BaseURL: rejecting.URL, InstanceID: "i", Token: "t"})
	assert.ErrorIs(t, gateway.SendText(context.Background(), "+1", "x"), services.ErrGatewayRejected)

	closed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	closed.Close()
	gateway = services.NewZAPIGateway(config.GatewayConfig{BaseURL: closed.URL, InstanceID: "i", Token: "t"})
	assert.ErrorIs(t, gateway.SendText(context.Background(), "+1", "x"), services.ErrGatewayUnavailable)

	gateway = services.NewZAPIGateway(config.GatewayConfig{BaseURL: closed.URL})
	assert.ErrorIs(t, gateway.SendText(context.Background(), "+1", "x"), services.ErrGatewayNotConfigured)
}

func TestOpenAIResponderReply(t *testing.T) {
	var got struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Olá!  "}}]}`))
	}))
	defer server.Close()

	responder := services.NewOpenAIResponder(config.OpenAIConfig{APIKey: "key", Model: "gpt-4o", BaseURL: server.URL})
	reply, err := responder.Reply(context.Background(), services.ResponderInput{
		Message: "oi",
		History: []*models.Turn{{Role: models.RoleUser, Message: "antes"}, {Role: models.RoleAssistant, Message: "resposta"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Olá!", reply)

	assert.Equal(t, "gpt-4o", got.Model)
	require.Len(t, got.Messages, 4)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "oi", got.Messages[3].Content)
}

func TestOpenAIResponderWithoutKey(t *testing.T) {
	responder := services.NewOpenAIResponder(config.OpenAIConfig{})
	_, err := responder.Reply(context.Background(), services.ResponderInput{Message: "oi"})
	assert.Error(t, err)
}

func TestSystemPrompt(t *testing.T) {
	assert.Contains(t, services.SystemPrompt(nil), "Mia")

	prompt := services.SystemPrompt(&models.BotProfile{
		Personality:   models.Personality{Tone: "Cordial"},
		KnowledgeBase: []models.KnowledgeEntry{{Title: "Prazos", Content: "3 dias úteis"}},
		FAQs:          []models.FAQ{{Question: "Aceitam PIX?", Answer: "Sim"}},
	})
	assert.Contains(t, prompt, "**TOM DE VOZ:**\nCordial")
	assert.Contains(t, prompt, "**Prazos:**\n3 dias úteis")
	assert.Contains(t, prompt, "P: Aceitam PIX?\nR: Sim")
}

func TestChatQRCode(t *testing.T) {
	png, err := services.ChatQRCode("+1 (555) 123-4567")
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])

	_, err = services.ChatQRCode("abc")
	assert.Error(t, err)
}

package utils

import (
	"fmt"
	"strings"

	"go.mau.fi/whatsmeow/types"
)

// NormalizePhone turns a WhatsApp JID ("5511999999999@s.whatsapp.net",
// "15551234@c.us") into the bare phone used as the conversation key.
// Plain numbers are returned trimmed.
func NormalizePhone(recipient string) (string, error) {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return "", fmt.Errorf("telefone vazio")
	}
	if !strings.Contains(recipient, "@") {
		return recipient, nil
	}
	jid, err := types.ParseJID(recipient)
	if err != nil {
		return "", fmt.Errorf("telefone inválido %q: %w", recipient, err)
	}
	if jid.User == "" {
		return "", fmt.Errorf("telefone inválido %q", recipient)
	}
	return jid.User, nil
}

// Digits keeps only the digits of a phone number.
func Digits(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// WhatsAppLink returns the wa.me deep link for a phone.
func WhatsAppLink(phone string) string {
	return "https://wa.me/" + Digits(phone)
}

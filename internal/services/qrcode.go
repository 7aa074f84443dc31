package services

import (
	"fmt"

	"mia-admin/internal/utils"

	"github.com/skip2/go-qrcode"
)

const ChatQRCodeSize = 256

// ChatQRCode renders a PNG QR code that opens the client's chat on a phone.
func ChatQRCode(phone string) ([]byte, error) {
	digits := utils.Digits(phone)
	if digits == "" {
		return nil, fmt.Errorf("telefone inválido: %q", phone)
	}
	png, err := qrcode.Encode(utils.WhatsAppLink(digits), qrcode.Medium, ChatQRCodeSize)
	if err != nil {
		return nil, fmt.Errorf("erro ao gerar QR code: %v", err)
	}
	return png, nil
}

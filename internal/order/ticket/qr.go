// Package ticket renders the QR code a buyer shows at the door. The code
// carries the order reference sealed with AES-GCM so it cannot be forged
// from an order id alone.
package ticket

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"ms-eventhub/internal/models"

	"github.com/skip2/go-qrcode"
)

var ErrInvalidPayload = errors.New("ticket: invalid payload")

type Payload struct {
	OrderID  string    `json:"orderId"`
	EventID  string    `json:"eventId"`
	StripeID string    `json:"stripeId"`
	IssuedAt time.Time `json:"issuedAt"`
}

type QRGenerator struct {
	aead cipher.AEAD
	size int
}

func NewQRGenerator(secret string) (*QRGenerator, error) {
	key := sha256.Sum256([]byte(secret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &QRGenerator{aead: aead, size: 256}, nil
}

// Generate returns a PNG encoding the sealed order reference.
func (q *QRGenerator) Generate(order *models.Order) ([]byte, error) {
	token, err := q.Seal(Payload{
		OrderID:  order.ID,
		EventID:  order.EventID,
		StripeID: order.StripeID,
		IssuedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(token, qrcode.Medium, q.size)
}

func (q *QRGenerator) Seal(p Payload) (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, q.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	sealed := q.aead.Seal(nonce, nonce, data, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open verifies a scanned token and returns its payload.
func (q *QRGenerator) Open(token string) (*Payload, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) < q.aead.NonceSize() {
		return nil, ErrInvalidPayload
	}
	nonce, sealed := raw[:q.aead.NonceSize()], raw[q.aead.NonceSize():]
	data, err := q.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrInvalidPayload
	}
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return &p, nil
}

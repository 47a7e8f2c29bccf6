package ticket

import (
	"bytes"
	"testing"

	"ms-eventhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestGenerate_ProducesPNG(t *testing.T) {
	q, err := NewQRGenerator("test-secret-key")
	require.NoError(t, err)

	png, err := q.Generate(&models.Order{ID: "o1", EventID: "e1", StripeID: "cs_1"})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic))
}

func TestSealOpen(t *testing.T) {
	q, err := NewQRGenerator("test-secret-key")
	require.NoError(t, err)

	token, err := q.Seal(Payload{OrderID: "o1", StripeID: "cs_1"})
	require.NoError(t, err)

	p, err := q.Open(token)
	require.NoError(t, err)
	assert.Equal(t, "o1", p.OrderID)

	other, err := NewQRGenerator("another-secret")
	require.NoError(t, err)
	_, err = other.Open(token)
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = q.Open("%%%")
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestSeal_NonceMakesTokensDistinct(t *testing.T) {
	q, err := NewQRGenerator("test-secret-key")
	require.NoError(t, err)

	a, err := q.Seal(Payload{OrderID: "o1"})
	require.NoError(t, err)
	b, err := q.Seal(Payload{OrderID: "o1"})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

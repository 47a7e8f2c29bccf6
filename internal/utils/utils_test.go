package utils

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ms-eventhub/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatMinorUnits(t *testing.T) {
	cases := map[int64]string{
		2500: "25",
		1999: "19.99",
		1990: "19.9",
		5:    "0.05",
		0:    "0",
		-150: "-1.5",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatMinorUnits(in), "amount %d", in)
	}
}

func TestParseMinorUnits(t *testing.T) {
	cases := map[string]int64{
		"25":    2500,
		"19.99": 1999,
		"19.9":  1990,
		".5":    50,
		" 10 ":  1000,
		// largest whole part that still fits in cents
		"92233720368547757.99": 9223372036854775799,
	}
	for in, want := range cases {
		got, err := ParseMinorUnits(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "abc", "-1", "1.999", "1.-5", "1.x",
		"+5", "+0.5", "922337203685477581", "92233720368547758", "99999999999999999999"} {
		_, err := ParseMinorUnits(bad)
		assert.Error(t, err, bad)
	}
}

func TestPage(t *testing.T) {
	page, size, skip := Page(0, 0, 6)
	assert.Equal(t, 1, page)
	assert.Equal(t, 6, size)
	assert.Equal(t, 0, skip)

	_, _, skip = Page(3, 6, 6)
	assert.Equal(t, 12, skip)

	assert.Equal(t, 3, TotalPages(13, 6))
	assert.Equal(t, 2, TotalPages(12, 6))
	assert.Equal(t, 0, TotalPages(0, 6))
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, apperr.ErrUnauthorized)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"unauthorized"`)

	rec = httptest.NewRecorder()
	WriteError(rec, errors.New("pq: connection reset"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, strings.Contains(rec.Body.String(), "pq:"), "internal detail must not leak")
}

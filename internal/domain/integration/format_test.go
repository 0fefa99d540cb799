package integration

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEquipmentID(t *testing.T) {
	assert.Equal(t, "000000000010000001", NormalizeEquipmentID("10000001"))
	assert.Equal(t, "000000000010000001", NormalizeEquipmentID(" 10000001 "))
	assert.Len(t, NormalizeEquipmentID("1"), EquipmentIDLength)
	assert.Equal(t, "1234567890123456789", NormalizeEquipmentID("1234567890123456789"))
}

func TestNormalizeCostCenter(t *testing.T) {
	assert.Equal(t, "0000004711", NormalizeCostCenter("4711"))
}

func TestFormatPartner(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"166", "0000000166"},
		{"M0001001E", "M0001001E"},
		{"", ""},
		{" 1 ", "0000000001"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatPartner(tt.in))
		})
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abcdef", 3))
	assert.Equal(t, "ab", Truncate("ab", 3))
	assert.Equal(t, "", Truncate("abc", 0))

	t.Run("multi-byte character at the boundary", func(t *testing.T) {
		name := strings.Repeat("B", 34) + "Ö"
		got := Truncate(name, PurchaseOrderRefLength)
		assert.True(t, utf8.ValidString(got))
		assert.Equal(t, strings.Repeat("B", 34), got)
	})

	t.Run("keeps whole characters that fit", func(t *testing.T) {
		assert.Equal(t, "ü€", Truncate("ü€x", 5))
		assert.Equal(t, "ü", Truncate("ü€x", 4))
	})
}

func TestIsTransport(t *testing.T) {
	assert.True(t, IsTransport(&TransportError{Op: "dial", Err: errors.New("refused")}))
	assert.True(t, IsTransport(ErrTimeout))
	assert.False(t, IsTransport(ErrNotFound))
	assert.False(t, IsTransport(&CallError{Function: "BAPI_X", Type: "E", Message: "boom"}))
}

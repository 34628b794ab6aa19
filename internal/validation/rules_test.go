package validation

import (
	"strings"
	"testing"

	"kolboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidPhone(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		phone string
		ok    bool
	}{
		{name: "empty clears", phone: "", ok: true},
		{name: "us number", phone: "+14155552671", ok: true},
		{name: "uk number", phone: "+442071838750", ok: true},
		{name: "shortest", phone: "+12", ok: true},
		{name: "longest", phone: "+123456789012345", ok: true},
		{name: "too long", phone: "+1234567890123456", ok: false},
		{name: "too short", phone: "+1", ok: false},
		{name: "missing plus", phone: "14155552671", ok: false},
		{name: "leading zero country", phone: "+04155552671", ok: false},
		{name: "spaces", phone: "+1 415 555 2671", ok: false},
		{name: "dashes", phone: "+1-415-555-2671", ok: false},
		{name: "letters", phone: "+1415CALLNOW", ok: false},
		{name: "trailing newline", phone: "+14155552671\n", ok: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.ok, IsValidPhone(tc.phone))
			if tc.ok {
				assert.NoError(t, ValidatePhone(tc.phone))
			} else {
				err := ValidatePhone(tc.phone)
				require.Error(t, err)
				assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
			}
		})
	}
}

func TestIsValidPhone_AcceptedAlwaysMatchesPattern(t *testing.T) {
	inputs := []string{"+1", "+19", "+999999999999999", "+9999999999999999", "++1", "+1a", " +12"}
	for _, in := range inputs {
		if IsValidPhone(in) && in != "" {
			assert.Regexp(t, `^\+[1-9]\d{1,14}$`, in)
		}
	}
}

func TestValidateAvatar(t *testing.T) {
	const max = 2 * 1024 * 1024

	tests := []struct {
		name        string
		size        int64
		contentType string
		ok          bool
	}{
		{name: "small png", size: 1024, contentType: "image/png", ok: true},
		{name: "just under limit", size: max - 1, contentType: "image/jpeg", ok: true},
		{name: "exactly limit", size: max, contentType: "image/jpeg", ok: false},
		{name: "over limit", size: max + 1, contentType: "image/jpeg", ok: false},
		{name: "empty", size: 0, contentType: "image/png", ok: false},
		{name: "pdf", size: 1024, contentType: "application/pdf", ok: false},
		{name: "missing type", size: 1024, contentType: "", ok: false},
		{name: "uppercase image", size: 1024, contentType: "IMAGE/WEBP", ok: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateAvatar(tc.size, tc.contentType, max)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidateSymbol(t *testing.T) {
	symbol, err := ValidateSymbol(" $aapl ")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", symbol)

	symbol, err = ValidateSymbol("brk.b")
	require.NoError(t, err)
	assert.Equal(t, "BRK.B", symbol)

	for _, bad := range []string{"", "1ABC", "TOOLONGSYMBOL", "AA PL"} {
		_, err := ValidateSymbol(bad)
		assert.Error(t, err, bad)
	}
}

func TestValidateKOLRef(t *testing.T) {
	platform, kolID, err := ValidateKOLRef(" Twitter ", "elonmusk")
	require.NoError(t, err)
	assert.Equal(t, "twitter", platform)
	assert.Equal(t, "elonmusk", kolID)

	_, _, err = ValidateKOLRef("", "x")
	assert.Error(t, err)
	_, _, err = ValidateKOLRef("twitter", strings.Repeat("a", 65))
	assert.Error(t, err)
}

func TestStruct_UsesJSONNames(t *testing.T) {
	type form struct {
		Phone string `json:"phone" validate:"e164phone"`
		Theme string `json:"theme" validate:"omitempty,oneof=light dark system"`
	}

	require.NoError(t, Struct(form{Phone: "+14155552671", Theme: "dark"}))
	require.NoError(t, Struct(form{}))

	err := Struct(form{Phone: "555-1234", Theme: "neon"})
	require.Error(t, err)
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
	assert.Contains(t, err.Error(), "phone:")
	assert.Contains(t, err.Error(), "theme: must be one of")
}

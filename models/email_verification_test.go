package models

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateVerificationCode(t *testing.T) {
	digits := regexp.MustCompile(`^\d{6}$`)
	for i := 0; i < 50; i++ {
		code, err := GenerateVerificationCode()
		require.NoError(t, err)
		assert.True(t, digits.MatchString(code), "code %q should be 6 digits", code)
		assert.True(t, code >= "100000" && code <= "999999")
	}
}

func TestGenerateVerificationCode_RandFailure(t *testing.T) {
	old := randRead
	defer func() { randRead = old }()
	randRead = func([]byte) (int, error) { return 0, errors.New("sin entropía") }

	_, err := GenerateVerificationCode()
	assert.Error(t, err)
}

func TestEmailVerification_Validity(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name    string
		v       EmailVerification
		expired bool
		valid   bool
	}{
		{"vigente", EmailVerification{ExpiresAt: now.Add(time.Hour)}, false, true},
		{"usado", EmailVerification{Used: true, ExpiresAt: now.Add(time.Hour)}, false, false},
		{"caducado", EmailVerification{ExpiresAt: now.Add(-time.Hour)}, true, false},
		{"usado y caducado", EmailVerification{Used: true, ExpiresAt: now.Add(-time.Hour)}, true, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expired, tc.v.IsExpired())
			assert.Equal(t, tc.valid, tc.v.IsValid())
		})
	}
}

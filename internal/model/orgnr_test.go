package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrgNumber_Valid(t *testing.T) {
	got, err := ParseOrgNumber(" 923609016 ")
	require.NoError(t, err)
	assert.Equal(t, OrgNumber("923609016"), got)
	assert.Equal(t, "https://virksomhet.brreg.no/nb/oppslag/enheter/923609016", got.RegistryURL())
}

func TestParseOrgNumber_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"too short", "12345678"},
		{"too long", "1234567890"},
		{"letters", "12345678a"},
		{"quote", "12345678'"},
		{"sql comment", "1234567--"},
		{"semicolon", "123456789;"},
		{"block comment", "/*1234567"},
		{"xp prefix", "xp_123456"},
		{"sp prefix", "SP_123456"},
		{"spaces inside", "123 456 789"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseOrgNumber(tt.input)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidOrgNumber))
		})
	}
}

package normalizers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "lowercases", input: "Jane.Doe@Example.COM", expected: "jane.doe@example.com"},
		{name: "trims whitespace", input: "  jane@example.com  ", expected: "jane@example.com"},
		{name: "empty passes through", input: "", expected: ""},
		{name: "malformed degrades best-effort", input: "not-an-email", expected: "not-an-email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeEmail(tt.input))
		})
	}
}

func TestNormalizePhone_Australian(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "local format with leading zero", input: "0412 345 678", expected: "+61412345678"},
		{name: "international with plus", input: "+61 412 345 678", expected: "+61412345678"},
		{name: "international without plus", input: "61412345678", expected: "+61412345678"},
		{name: "mobile missing leading zero", input: "412345678", expected: "+61412345678"},
		{name: "punctuation stripped", input: "(04) 1234-5678", expected: "+61412345678"},
		{name: "landline with area code", input: "02 9876 5432", expected: "+61298765432"},
		{name: "unrecognized shape keeps digits", input: "12345", expected: "+12345"},
		{name: "empty input", input: "", expected: ""},
		{name: "no digits at all", input: "ext.", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizePhone(tt.input))
		})
	}
}

func TestNormalizePhone_Idempotent(t *testing.T) {
	inputs := []string{"0412 345 678", "+61412345678", "412345678", "12345", ""}

	for _, input := range inputs {
		once := NormalizePhone(input)
		assert.Equal(t, once, NormalizePhone(once), "normalizing %q twice must not change it", input)
	}
}

func TestNormalizePhoneRegion_UnknownRegion(t *testing.T) {
	assert.Equal(t, "+4155551234", NormalizePhoneRegion("(415) 555-1234", "zz"))
}

func TestRegisterPhoneRegion(t *testing.T) {
	RegisterPhoneRegion("test", func(digits string) string {
		return "+999" + digits
	})

	assert.Equal(t, "+99912", NormalizePhoneRegion("1-2", "test"))
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "lowercases and trims", input: "  John Smith ", expected: "john smith"},
		{name: "collapses internal whitespace", input: "John\t\t Smith", expected: "john smith"},
		{name: "single token", input: "ACME", expected: "acme"},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeName(tt.input))
		})
	}
}

func TestDigitsOnly(t *testing.T) {
	assert.Equal(t, "0412345678", DigitsOnly("(04) 1234-5678"))
	assert.Equal(t, "", DigitsOnly("no digits"))
}

func TestEmailDomain(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "simple address", input: "jane@example.com", expected: "example.com"},
		{name: "at sign in local part", input: `"a@b"@example.com`, expected: "example.com"},
		{name: "no at sign", input: "not-an-email", expected: ""},
		{name: "trailing at sign", input: "jane@", expected: ""},
		{name: "empty", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, EmailDomain(tt.input))
		})
	}
}

func TestApplyChain(t *testing.T) {
	assert.Equal(t, "jane@example.com", ApplyChain("  Jane@Example.COM ", "trim", "lowercase"))
}

func TestApply_UnknownNormalizer(t *testing.T) {
	assert.Equal(t, "Value", Apply("Value", "does-not-exist"))
}

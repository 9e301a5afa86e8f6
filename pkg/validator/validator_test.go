package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(s string) *string { return &s }

func TestValidateCreateUser(t *testing.T) {
	tests := []struct {
		name       string
		username   string
		email      string
		password   string
		wantFields []string
	}{
		{"valid", "bob", "bob@x.com", "secret1", nil},
		{"boundary lengths", "abc", "a@b.co", "123456", nil},
		{"max username", strings.Repeat("u", 30), "u@x.io", "secret1", nil},
		{"username too short", "ab", "bob@x.com", "secret1", []string{"username"}},
		{"username too long", strings.Repeat("u", 31), "bob@x.com", "secret1", []string{"username"}},
		{"username only spaces", "   ", "bob@x.com", "secret1", []string{"username"}},
		{"username counted after trim", "  ab  ", "bob@x.com", "secret1", []string{"username"}},
		{"multibyte username", "ёжик", "bob@x.com", "secret1", nil},
		{"email missing tld", "bob", "bob@x", "secret1", []string{"email"}},
		{"email with space", "bob", "bo b@x.com", "secret1", []string{"email"}},
		{"email empty", "bob", "", "secret1", []string{"email"}},
		{"max email", "bob", strings.Repeat("a", 314) + "@x.com", "secret1", nil},
		{"email too long", "bob", strings.Repeat("a", 315) + "@x.com", "secret1", []string{"email"}},
		{"short password", "bob", "bob@x.com", "12345", []string{"password"}},
		{"everything wrong", "b", "nope", "", []string{"email", "password", "username"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateCreateUser(tt.username, tt.email, tt.password)

			got := make([]string, 0, len(errs))
			for f := range errs {
				got = append(got, f)
			}
			assert.ElementsMatch(t, tt.wantFields, got)
			assert.Equal(t, len(tt.wantFields) > 0, errs.HasErrors())
		})
	}
}

func TestValidateUpdateUser_OnlyPresentFields(t *testing.T) {
	assert.False(t, ValidateUpdateUser(nil, nil, nil).HasErrors())
	assert.False(t, ValidateUpdateUser(ptr("newname"), nil, nil).HasErrors())

	errs := ValidateUpdateUser(nil, ptr("broken"), ptr("123"))
	assert.Contains(t, errs, "email")
	assert.Contains(t, errs, "password")
	assert.NotContains(t, errs, "username")

	errs = ValidateUpdateUser(ptr(""), nil, nil)
	assert.Equal(t, "Username is required", errs["username"])
}

func TestValidationErrors_String(t *testing.T) {
	errs := make(ValidationErrors)
	errs.Add("username", "U")
	errs.Add("email", "E")
	errs.Add("password", "P")

	assert.Equal(t, "E; P; U", errs.String())
}

func TestValidateEmail_TooLong(t *testing.T) {
	long := strings.Repeat("a", 400) + "@x.com"

	errs := ValidateCreateUser("bob", long, "secret1")
	assert.Equal(t, "Email must be at most 320 characters", errs["email"])

	errs = ValidateUpdateUser(nil, &long, nil)
	assert.Equal(t, "Email must be at most 320 characters", errs["email"])
}

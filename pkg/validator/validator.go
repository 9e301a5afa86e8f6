package validator

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	UsernameMinLen = 3
	UsernameMaxLen = 30
	EmailMaxLen    = 320
	PasswordMinLen = 6
)

type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

// String joins the messages in field order.
func (v ValidationErrors) String() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, v[f])
	}
	return strings.Join(msgs, "; ")
}

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func ValidateCreateUser(username, email, password string) ValidationErrors {
	errs := make(ValidationErrors)

	validateUsername(username, errs)
	validateEmail(email, errs)
	validatePassword(password, errs)

	return errs
}

// ValidateUpdateUser checks only the fields that are present.
func ValidateUpdateUser(username, email, password *string) ValidationErrors {
	errs := make(ValidationErrors)

	if username != nil {
		validateUsername(*username, errs)
	}
	if email != nil {
		validateEmail(*email, errs)
	}
	if password != nil {
		validatePassword(*password, errs)
	}

	return errs
}

func validateUsername(username string, errs ValidationErrors) {
	username = strings.TrimSpace(username)
	n := utf8.RuneCountInString(username)

	switch {
	case n == 0:
		errs.Add("username", "Username is required")
	case n < UsernameMinLen:
		errs.Add("username", fmt.Sprintf("Username must be at least %d characters", UsernameMinLen))
	case n > UsernameMaxLen:
		errs.Add("username", fmt.Sprintf("Username must be at most %d characters", UsernameMaxLen))
	}
}

func validateEmail(email string, errs ValidationErrors) {
	email = strings.TrimSpace(email)

	switch {
	case email == "":
		errs.Add("email", "Email is required")
	case utf8.RuneCountInString(email) > EmailMaxLen:
		errs.Add("email", fmt.Sprintf("Email must be at most %d characters", EmailMaxLen))
	case !emailRegex.MatchString(email):
		errs.Add("email", "Please enter a valid email")
	}
}

func validatePassword(password string, errs ValidationErrors) {
	if password == "" {
		errs.Add("password", "Password is required")
	} else if utf8.RuneCountInString(password) < PasswordMinLen {
		errs.Add("password", fmt.Sprintf("Password must be at least %d characters", PasswordMinLen))
	}
}

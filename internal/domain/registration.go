package domain

import "strings"

const defaultEmailDomain = "@gmail.com"

// NormalizeIdentity validates a registration form and returns the stored identity.
// Non-digits are stripped from the phone number, which must then have 10 or 11 digits.
// An email without "@" is completed with the default mail domain.
func NormalizeIdentity(in UserIdentity) (UserIdentity, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return UserIdentity{}, &ValidationError{Field: "name", Message: "name is required"}
	}

	phone := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, in.Phone)
	if len(phone) < 10 || len(phone) > 11 {
		return UserIdentity{}, &ValidationError{Field: "phone", Message: "phone must have 10 to 11 digits"}
	}

	email := strings.TrimSpace(in.Email)
	if email == "" {
		return UserIdentity{}, &ValidationError{Field: "email", Message: "email is required"}
	}
	if !strings.Contains(email, "@") {
		email += defaultEmailDomain
	}

	return UserIdentity{Name: name, Phone: phone, Email: email}, nil
}

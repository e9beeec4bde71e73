package auth

import (
	"strings"

	"github.com/ttacon/libphonenumber"

	"github.com/minewatch/minewatch-api/internal/pkg/validator"
)

// IdentifierKind tells how a sign-in code is delivered
type IdentifierKind string

const (
	KindEmail IdentifierKind = "email"
	KindPhone IdentifierKind = "phone"
)

// Identifier is a normalized email address or E.164 phone number
type Identifier struct {
	Kind  IdentifierKind
	Value string
}

// ParseIdentifier normalizes raw input. Anything containing "@" is treated as an email,
// everything else as a phone number in defaultRegion unless it carries a country code.
func ParseIdentifier(raw, defaultRegion string) (Identifier, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Identifier{}, ErrInvalidIdentifier
	}

	if strings.Contains(raw, "@") {
		email := strings.ToLower(raw)
		if err := validator.ValidateVar(email, "email,max=255"); err != nil {
			return Identifier{}, ErrInvalidIdentifier
		}
		return Identifier{Kind: KindEmail, Value: email}, nil
	}

	num, err := libphonenumber.Parse(raw, defaultRegion)
	if err != nil || !libphonenumber.IsValidNumber(num) {
		return Identifier{}, ErrInvalidIdentifier
	}
	return Identifier{Kind: KindPhone, Value: libphonenumber.Format(num, libphonenumber.E164)}, nil
}

// Masked returns the identifier with most characters hidden, for logs and responses
func (i Identifier) Masked() string {
	if i.Kind == KindEmail {
		at := strings.IndexByte(i.Value, '@')
		if at <= 1 {
			return "*" + i.Value[at:]
		}
		return i.Value[:1] + strings.Repeat("*", at-1) + i.Value[at:]
	}
	if len(i.Value) <= 4 {
		return i.Value
	}
	return strings.Repeat("*", len(i.Value)-4) + i.Value[len(i.Value)-4:]
}

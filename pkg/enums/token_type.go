package enums

import "fmt"

// TokenType discriminates the two session token audiences.
type TokenType string

const (
	TokenTypeAdmin    TokenType = "admin"
	TokenTypeCustomer TokenType = "customer"
)

var validTokenTypes = []TokenType{
	TokenTypeAdmin,
	TokenTypeCustomer,
}

// String implements fmt.Stringer.
func (t TokenType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TokenType.
func (t TokenType) IsValid() bool {
	for _, candidate := range validTokenTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTokenType converts raw input into a TokenType.
func ParseTokenType(value string) (TokenType, error) {
	for _, candidate := range validTokenTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid token type %q", value)
}

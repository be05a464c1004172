package shortener

import "github.com/jaevor/go-nanoid"

const (
	// CodeLength is the maximum length of a derived short code.
	CodeLength = 12
	// SecretLength is the length of generated deletion secrets.
	SecretLength = 32

	secretAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
)

// SecretGenerator returns a fresh deletion secret on every call.
type SecretGenerator func() string

// NewSecretGenerator creates a generator of crypto-random alphanumeric secrets.
func NewSecretGenerator() (SecretGenerator, error) {
	gen, err := nanoid.CustomASCII(secretAlphabet, SecretLength)
	if err != nil {
		return nil, err
	}

	return SecretGenerator(gen), nil
}

// DeriveCode derives the public short code from a deletion secret.
// It keeps the characters at even positions, up to CodeLength of them, so the
// code can always be recomputed from the secret without a reverse index.
func DeriveCode(secret string) Code {
	code := make([]byte, 0, CodeLength)

	for i := 0; i < len(secret) && len(code) < CodeLength; i += 2 {
		code = append(code, secret[i])
	}

	return Code(code)
}

package identity

import "golang.org/x/crypto/bcrypt"

// CredentialVerifier checks a presented password against the stored
// credential and prepares credentials for storage. Pluggable so the login
// state machine stays untouched when the credential scheme is hardened.
type CredentialVerifier interface {
	Verify(stored, presented string) bool
	Hash(password string) (string, error)
}

// PlaintextVerifier compares passwords byte for byte. It is the default and
// matches how existing accounts are stored; it is not a security mechanism.
type PlaintextVerifier struct{}

func (PlaintextVerifier) Verify(stored, presented string) bool { return stored == presented }

func (PlaintextVerifier) Hash(password string) (string, error) { return password, nil }

// BcryptVerifier stores and checks bcrypt hashes.
type BcryptVerifier struct{}

func (BcryptVerifier) Verify(stored, presented string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(presented)) == nil
}

func (BcryptVerifier) Hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

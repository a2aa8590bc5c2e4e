package driven

import "errors"

var (
	// ErrEmptyPlaintext is returned when asked to encrypt blank input.
	ErrEmptyPlaintext = errors.New("plaintext must not be blank")

	// ErrEmptyCiphertext is returned when asked to decrypt empty ciphertext.
	ErrEmptyCiphertext = errors.New("ciphertext must not be empty")

	// ErrEmptyNonce is returned when asked to decrypt with an empty nonce.
	ErrEmptyNonce = errors.New("nonce must not be empty")

	// ErrIntegrity is returned when the authentication tag does not verify:
	// tampered data, a mismatched nonce, or the wrong key.
	ErrIntegrity = errors.New("ciphertext failed authentication")
)

// Cipher defines the driven port for authenticated encryption of small payloads.
type Cipher interface {
	// Encrypt seals plaintext under the device key and returns the ciphertext
	// (including tag) and the nonce generated for this call.
	Encrypt(plaintext []byte) (ciphertext, nonce []byte, err error)

	// Decrypt opens ciphertext produced by Encrypt with the matching nonce.
	Decrypt(ciphertext, nonce []byte) ([]byte, error)
}

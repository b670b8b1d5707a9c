package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

var ErrCiphertext = errors.New("malformed ciphertext")

// Cipher seals JSON documents with AES-GCM. The output is
// base64(nonce || ciphertext).
type Cipher struct {
	aead cipher.AEAD
}

func New(keyBase64 string) (*Cipher, error) {
	const op = "crypto.New"

	key, err := base64.StdEncoding.DecodeString(keyBase64)
	if err != nil {
		return nil, fmt.Errorf("%s: decode key: %w", op, err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Cipher{aead: aead}, nil
}

func (c *Cipher) EncryptJSON(v any) (string, error) {
	const op = "crypto.EncryptJSON"

	plaintext, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	sealed := c.aead.Seal(nonce, nonce, plaintext, nil)

	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *Cipher) DecryptJSON(encoded string, v any) error {
	const op = "crypto.DecryptJSON"

	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("%s: %w", op, ErrCiphertext)
	}

	ns := c.aead.NonceSize()
	if len(raw) < ns+c.aead.Overhead() {
		return fmt.Errorf("%s: %w", op, ErrCiphertext)
	}

	plaintext, err := c.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, ErrCiphertext)
	}

	if err := json.Unmarshal(plaintext, v); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

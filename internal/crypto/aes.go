// Package crypto holds the one-shot helper used to migrate password material
// encrypted by the previous system.  DecryptLegacy reads the old at-rest
// format; it exists only for the migration path and must not be used for new
// values.  New secret-at-rest encryption goes through Encrypt/Decrypt, which
// use AES-256-GCM with a fresh random nonce per value.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
)

var errCiphertext = errors.New("malformed ciphertext")

// DecryptLegacy decrypts a base64 value produced by the legacy system:
// AES-256-CBC with a fixed IV and PKCS#7 padding.  The fixed IV is the
// reason this format is migration-only; identical plaintexts produce
// identical ciphertexts under it.
func DecryptLegacy(key, iv []byte, encoded string) (string, error) {
	if len(iv) != aes.BlockSize {
		return "", fmt.Errorf("legacy iv must be %d bytes", aes.BlockSize)
	}
	ct, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	if len(ct) == 0 || len(ct)%aes.BlockSize != 0 {
		return "", errCiphertext
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	pt := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(pt, ct)
	unpadded, err := stripPKCS7(pt)
	if err != nil {
		return "", err
	}
	return string(unpadded), nil
}

// Encrypt seals a value with AES-256-GCM.  A random 12-byte nonce is drawn
// per call and prepended to the ciphertext, so equal plaintexts never yield
// equal outputs.  The result is base64 encoded.
func Encrypt(key []byte, plain string) (string, error) {
	aead, err := newGCM(key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	out := aead.Seal(nonce, nonce, []byte(plain), nil)
	return base64.StdEncoding.EncodeToString(out), nil
}

// Decrypt reverses Encrypt.
func Decrypt(key []byte, encoded string) (string, error) {
	aead, err := newGCM(key)
	if err != nil {
		return "", err
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	if len(raw) < aead.NonceSize() {
		return "", errCiphertext
	}
	nonce, ct := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	pt, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return "", errCiphertext
	}
	return string(pt), nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func stripPKCS7(pt []byte) ([]byte, error) {
	n := int(pt[len(pt)-1])
	if n == 0 || n > aes.BlockSize || n > len(pt) {
		return nil, errCiphertext
	}
	for _, b := range pt[len(pt)-n:] {
		if int(b) != n {
			return nil, errCiphertext
		}
	}
	return pt[:len(pt)-n], nil
}

package utils

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ---------------------------------------------
// Token cipher (AES-256-CBC + PKCS#7)
//
//   output: hex(iv) + ":" + hex(ciphertext)
//   key:    SHA-256(secret)
//
// Used for third-party OAuth tokens at rest. CBC carries no MAC, so a
// wrong key or flipped bytes are only caught when the padding check fails.
// ---------------------------------------------

const tokenIVSize = aes.BlockSize

var (
	ErrMalformedCiphertext = errors.New("malformed ciphertext")
	ErrInvalidPadding      = errors.New("invalid padding")
)

// deriveTokenKey hashes the configured secret into a 32-byte AES-256 key.
func deriveTokenKey(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	return sum[:]
}

// EncryptToken encrypts plaintext with a fresh random IV on every call.
func EncryptToken(plaintext, secret string) (string, error) {
	if secret == "" {
		return "", errors.New("encryption secret cannot be empty")
	}

	block, err := aes.NewCipher(deriveTokenKey(secret))
	if err != nil {
		return "", err
	}

	iv := make([]byte, tokenIVSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return "", err
	}

	padded := pkcs7Pad([]byte(plaintext), block.BlockSize())
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)

	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(out), nil
}

// DecryptToken reverses EncryptToken. It splits on the first ':' only.
func DecryptToken(ciphertext, secret string) (string, error) {
	if secret == "" {
		return "", errors.New("encryption secret cannot be empty")
	}

	ivHex, bodyHex, found := strings.Cut(ciphertext, ":")
	if !found {
		return "", fmt.Errorf("%w: missing iv separator", ErrMalformedCiphertext)
	}

	iv, err := hex.DecodeString(ivHex)
	if err != nil {
		return "", fmt.Errorf("%w: iv is not hex: %v", ErrMalformedCiphertext, err)
	}
	if len(iv) != tokenIVSize {
		return "", fmt.Errorf("%w: iv must be %d bytes, got %d", ErrMalformedCiphertext, tokenIVSize, len(iv))
	}

	body, err := hex.DecodeString(bodyHex)
	if err != nil {
		return "", fmt.Errorf("%w: body is not hex: %v", ErrMalformedCiphertext, err)
	}

	block, err := aes.NewCipher(deriveTokenKey(secret))
	if err != nil {
		return "", err
	}
	if len(body) == 0 || len(body)%block.BlockSize() != 0 {
		return "", fmt.Errorf("%w: body not a multiple of block size", ErrMalformedCiphertext)
	}

	plain := make([]byte, len(body))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, body)

	unpadded, err := pkcs7Unpad(plain, block.BlockSize())
	if err != nil {
		return "", err
	}
	return string(unpadded), nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	n := int(data[len(data)-1])
	if n < 1 || n > blockSize || n > len(data) {
		return nil, ErrInvalidPadding
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, ErrInvalidPadding
		}
	}
	return data[:len(data)-n], nil
}

// go-utils/random.go

package utils

import (
	"crypto/rand"
	"encoding/base64"
)

// RandomToken returns n random bytes as unpadded base64url, suitable for
// opaque refresh and reset tokens.
func RandomToken(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

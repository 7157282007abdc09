package utils

import (
	"crypto/rand"
	"encoding/base64"
	"log"
	"time"
)

// SessionCookieMaxAge bounds the client-held session token lifetime.
const SessionCookieMaxAge = int(10 * 24 * time.Hour / time.Second)

// NewSessionToken mints an opaque random session identifier. The token is
// a correlation key only, never an authentication credential. Unpadded
// encoding keeps the cookie wire value identical to the stored token;
// padded base64 would be URL-escaped by the cookie writer.
func NewSessionToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		log.Printf("ERROR: Failed to generate random bytes for session token: %v", err)
		return "fallback_session_" + time.Now().Format("20060102150405")
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

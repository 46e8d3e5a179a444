package idp

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// ComputeSecretHash returns the request signature the backend expects for
// confidential clients: an HMAC-SHA256 over the UTF-8 concatenation of
// username and client id, keyed by the client secret, base64 encoded.
//
// The signature binds a principal to a client and must be recomputed for
// every backend call that requires signing; reusing a hash computed for a
// different username is a correctness bug the backend will reject.
// Callers with no client secret configured (public clients) skip signing
// entirely instead of calling this with an empty key.
func ComputeSecretHash(username, clientID, clientSecret string) string {
	mac := hmac.New(sha256.New, []byte(clientSecret))
	mac.Write([]byte(username + clientID))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

package tokenstore

import "sync"

// in-memory revocation store for JWT jti values. Entries live until restart;
// tokens expire after 24h anyway so the set stays small.
var (
	mu            sync.RWMutex
	revokedTokens = map[string]struct{}{}
)

func RevokeToken(jti string) {
	if jti == "" {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	revokedTokens[jti] = struct{}{}
}

func IsRevoked(jti string) bool {
	if jti == "" {
		return false
	}
	mu.RLock()
	defer mu.RUnlock()
	_, ok := revokedTokens[jti]
	return ok
}

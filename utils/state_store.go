package utils

import (
	"context"
	"sync"
	"time"
)

// OAuth state tokens, single-use with TTL. Redis keeps them consistent
// across instances; the in-memory map is the single-instance fallback.

var (
	oauthStates   = map[string]time.Time{} // state -> expiry
	oauthStatesMu sync.Mutex
)

const oauthStateKeyPrefix = "oauth:state:"

// SaveState stores an OAuth state token to be consumed by the callback.
func SaveState(state string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = rc.Set(ctx, oauthStateKeyPrefix+state, "1", ttl).Err()
		return
	}
	oauthStatesMu.Lock()
	oauthStates[state] = time.Now().Add(ttl)
	oauthStatesMu.Unlock()
}

// ConsumeState validates a state token and removes it so it cannot be
// replayed.
func ConsumeState(state string) bool {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		key := oauthStateKeyPrefix + state
		if v, err := rc.GetDel(ctx, key).Result(); err == nil {
			return v != ""
		}
		// Older servers lack GETDEL; emulate the atomic get+del in Lua.
		script := `local v=redis.call('GET', KEYS[1]); if v then redis.call('DEL', KEYS[1]); end; return v`
		if res, err := rc.Eval(ctx, script, []string{key}).Result(); err == nil {
			return res != nil
		}
		return false
	}

	now := time.Now()
	oauthStatesMu.Lock()
	expiry, ok := oauthStates[state]
	if ok {
		delete(oauthStates, state)
	}
	// Lazy purge so abandoned logins don't accumulate.
	for s, exp := range oauthStates {
		if now.After(exp) {
			delete(oauthStates, s)
		}
	}
	oauthStatesMu.Unlock()
	return ok && now.Before(expiry)
}

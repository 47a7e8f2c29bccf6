// Package redis guards checkout sessions against concurrent webhook
// deliveries across replicas.
package redis

import (
	"context"
	"fmt"
	"time"

	"ms-eventhub/internal/logger"

	"github.com/go-redis/redis/v8"
)

const DefaultLockTTL = 2 * time.Minute

// releaseScript deletes the key only while it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

type SessionLock struct {
	Client *redis.Client
	TTL    time.Duration
	Logger *logger.Logger
}

func NewSessionLock(client *redis.Client, ttl time.Duration, log *logger.Logger) *SessionLock {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	if log == nil {
		log = logger.Discard()
	}
	return &SessionLock{Client: client, TTL: ttl, Logger: log}
}

func sessionKey(sessionID string) string {
	return "checkout_session_lock:" + sessionID
}

// Acquire claims sessionID for owner. It reports false when another delivery
// holds it.
func (l *SessionLock) Acquire(ctx context.Context, sessionID, owner string) (bool, error) {
	ok, err := l.Client.SetNX(ctx, sessionKey(sessionID), owner, l.TTL).Result()
	if err != nil {
		return false, err
	}
	if !ok {
		l.Logger.Debug("REDIS", fmt.Sprintf("Session %s is locked by another delivery", sessionID))
	}
	return ok, nil
}

// Release frees sessionID if owner still holds it. Releasing an expired or
// foreign lock is a no-op.
func (l *SessionLock) Release(ctx context.Context, sessionID, owner string) error {
	return releaseScript.Run(ctx, l.Client, []string{sessionKey(sessionID)}, owner).Err()
}

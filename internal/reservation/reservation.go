// Package reservation holds freshly drawn chat-code digits in Redis while a
// generator inserts them, so two instances drawing the same digits at the
// same moment do not both reach the database.
package reservation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// KeyPrefix namespaces reservation keys.
const KeyPrefix = "chatcode:reserve:"

// releaseScript deletes the key only while it still holds our token, so an
// expired reservation re-taken by another instance is left alone.
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`)

// Client is the subset of *redis.Client used here.
type Client interface {
	redis.Scripter
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
}

// Redis reserves digits with SET NX PX.
type Redis struct {
	client Client
	token  string
}

// New returns a reserver backed by client. Each instance signs its
// reservations with a random token.
func New(client Client) *Redis {
	return &Redis{client: client, token: uuid.NewString()}
}

// Key returns the Redis key guarding code.
func Key(code string) string { return KeyPrefix + code }

// Reserve claims code for ttl. It returns false if another holder has it.
func (r *Redis) Reserve(ctx context.Context, code string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, Key(code), r.token, ttl).Result()
}

// Release drops a claim made by this instance.
func (r *Redis) Release(ctx context.Context, code string) error {
	return releaseScript.Run(ctx, r.client, []string{Key(code)}, r.token).Err()
}

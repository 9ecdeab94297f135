// Package statementcache keeps derived statements in Redis.
package statementcache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-petr/pet-ledger/internal/domain"
	"github.com/go-petr/pet-ledger/pkg/configpkg"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
)

const keyPrefix = "ledger:statement:"

// Redis caches full statements keyed by account id.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// New returns statement cache backed by client. Entries expire after ttl,
// zero ttl keeps them until invalidated.
func New(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{
		client: client,
		ttl:    ttl,
	}
}

// Connect creates Redis client from the config and checks the connection.
// It returns nil client when no Redis address is configured.
func Connect(ctx context.Context, config configpkg.Config) (*redis.Client, error) {
	if config.RedisAddr == "" {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr,
		Password: config.RedisPassword,
		DB:       config.RedisDB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, err
	}

	zerolog.Ctx(ctx).Info().Str("addr", config.RedisAddr).Msg("redis connection established")

	return rdb, nil
}

func key(accountID string) string {
	return keyPrefix + accountID
}

func generationKey(accountID string) string {
	return keyPrefix + accountID + ":gen"
}

type entry struct {
	Generation int64                  `json:"generation"`
	Lines      []domain.StatementLine `json:"lines"`
}

// setIfCurrent writes KEYS[2] only while the generation in KEYS[1] still
// equals ARGV[1]. ARGV[2] is the payload, ARGV[3] the ttl in milliseconds.
var setIfCurrent = redis.NewScript(`
local current = redis.call('GET', KEYS[1]) or '0'
if current ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[2], ARGV[2], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[2], ARGV[2])
end
return 1
`)

// Get returns cached statement of the account along with the account's
// current generation. ok is false on a miss, including an entry written
// under an older generation; the generation is then the one to pass to Set.
func (r *Redis) Get(ctx context.Context, accountID string) ([]domain.StatementLine, int64, bool, error) {
	vals, err := r.client.MGet(ctx, generationKey(accountID), key(accountID)).Result()
	if err != nil {
		return nil, 0, false, err
	}

	var generation int64

	if s, ok := vals[0].(string); ok {
		generation, err = strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, 0, false, fmt.Errorf("invalid statement generation %q: %w", s, err)
		}
	}

	data, ok := vals[1].(string)
	if !ok {
		return nil, generation, false, nil
	}

	var e entry

	if err := json.Unmarshal([]byte(data), &e); err != nil {
		return nil, 0, false, err
	}

	if e.Generation != generation {
		return nil, generation, false, nil
	}

	if e.Lines == nil {
		e.Lines = []domain.StatementLine{}
	}

	return e.Lines, generation, true, nil
}

// Set stores statement of the account built under generation. The write is
// dropped when the account was invalidated since that generation was read.
func (r *Redis) Set(ctx context.Context, accountID string, generation int64, lines []domain.StatementLine) error {
	if lines == nil {
		lines = []domain.StatementLine{}
	}

	data, err := json.Marshal(entry{Generation: generation, Lines: lines})
	if err != nil {
		return err
	}

	stored, err := setIfCurrent.Run(ctx, r.client,
		[]string{generationKey(accountID), key(accountID)},
		strconv.FormatInt(generation, 10), string(data), r.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return err
	}

	if stored == 0 {
		zerolog.Ctx(ctx).Debug().Str("account", accountID).Int64("generation", generation).
			Msg("stale statement not cached")
	}

	return nil
}

// Invalidate moves the accounts to a new generation and drops their cached
// statements. Statements built before the call can no longer be stored.
func (r *Redis) Invalidate(ctx context.Context, accountIDs ...string) error {
	if len(accountIDs) == 0 {
		return nil
	}

	keys := make([]string, 0, len(accountIDs))

	for _, id := range accountIDs {
		if err := r.client.Incr(ctx, generationKey(id)).Err(); err != nil {
			return err
		}

		keys = append(keys, key(id))
	}

	return r.client.Del(ctx, keys...).Err()
}

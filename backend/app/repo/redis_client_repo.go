package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"pollhub/backend/app/models"
	"sort"

	"github.com/redis/go-redis/v9"
)

// RedisClientRepository stores each client as a JSON blob plus a per-domain set of client ids.
// Update uses WATCH/MULTI and retries on concurrent writes.
type RedisClientRepository struct {
	rdb        *redis.Client
	prefix     string
	maxRetries int
}

func NewRedisClientRepository(rdb *redis.Client, prefix string, maxRetries int) *RedisClientRepository {
	if prefix == "" {
		prefix = "pollhub"
	}
	if maxRetries <= 0 {
		maxRetries = 16
	}
	return &RedisClientRepository{rdb: rdb, prefix: prefix, maxRetries: maxRetries}
}

// Key parts are query-escaped so ':' inside a domain or client id can never
// shift the boundary between them.
func (r *RedisClientRepository) clientKey(domain, clientID string) string {
	return fmt.Sprintf("%s:client:%s:%s", r.prefix, url.QueryEscape(domain), url.QueryEscape(clientID))
}

func (r *RedisClientRepository) domainKey(domain string) string {
	return fmt.Sprintf("%s:domain:%s", r.prefix, url.QueryEscape(domain))
}

func (r *RedisClientRepository) Migrate(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

func (r *RedisClientRepository) Replace(ctx context.Context, c *models.Client) error {
	b, err := json.Marshal(c.Clone())
	if err != nil {
		return fmt.Errorf("encode client: %w", err)
	}
	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.clientKey(c.Domain, c.ClientID), b, 0)
		pipe.SAdd(ctx, r.domainKey(c.Domain), c.ClientID)
		return nil
	})
	return err
}

func (r *RedisClientRepository) Update(ctx context.Context, domain, clientID string, fn func(*models.Client) error) error {
	key := r.clientKey(domain, clientID)
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var c models.Client
		if err := json.Unmarshal(data, &c); err != nil {
			return fmt.Errorf("decode client: %w", err)
		}
		if err := fn(&c); err != nil {
			return err
		}
		b, err := json.Marshal(&c)
		if err != nil {
			return fmt.Errorf("encode client: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, b, 0)
			return nil
		})
		return err
	}

	for i := 0; i < r.maxRetries; i++ {
		err := r.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			// key changed between WATCH and EXEC, read again
			continue
		}
		return err
	}
	return ErrConflict
}

func (r *RedisClientRepository) Get(ctx context.Context, domain, clientID string) (*models.Client, error) {
	data, err := r.rdb.Get(ctx, r.clientKey(domain, clientID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var c models.Client
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode client: %w", err)
	}
	return &c, nil
}

func (r *RedisClientRepository) ListByDomain(ctx context.Context, domain string) ([]models.Client, error) {
	ids, err := r.rdb.SMembers(ctx, r.domainKey(domain)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]models.Client, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.clientKey(domain, id)
	}
	vals, err := r.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var c models.Client
		if err := json.Unmarshal([]byte(s), &c); err != nil {
			return nil, fmt.Errorf("decode client: %w", err)
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClientID < out[j].ClientID })
	return out, nil
}

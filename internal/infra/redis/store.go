package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"geoquiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

const maxTxRetries = 16

var errTooManyRetries = errors.New("redis: too many optimistic transaction retries")

// Store is a Redis persistence provider. Records are JSON strings:
//
//	SET trivia:user:{userID}        {UserRecord}
//	SET trivia:leaderboard:{userID} {LeaderboardRecord}
//	SADD trivia:leaderboard:index   {userID}
//
// Updates run inside WATCH/MULTI on the record key, so a concurrent writer to the same
// user forces a retry instead of a lost update.
type Store struct {
	client *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) GetUser(ctx context.Context, userID string) (domain.UserRecord, error) {
	var u domain.UserRecord
	if err := s.get(ctx, userKey(userID), &u); err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.UserRecord{}, domain.ErrUserNotFound
		}
		return domain.UserRecord{}, err
	}
	return u, nil
}

func (s *Store) PutUser(ctx context.Context, user domain.UserRecord) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}
	return s.client.Set(ctx, userKey(user.UserID), data, 0).Err()
}

func (s *Store) UpdateUser(ctx context.Context, userID string, fn func(*domain.UserRecord) error) (domain.UserRecord, error) {
	return update(ctx, s.client, userKey(userID), domain.UserRecord{UserID: userID}, func(u *domain.UserRecord) error {
		if err := fn(u); err != nil {
			return err
		}
		u.UserID = userID
		return nil
	}, nil)
}

func (s *Store) GetLeaderboardRecord(ctx context.Context, userID string) (domain.LeaderboardRecord, error) {
	var rec domain.LeaderboardRecord
	if err := s.get(ctx, leaderboardKey(userID), &rec); err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.LeaderboardRecord{}, domain.ErrRecordNotFound
		}
		return domain.LeaderboardRecord{}, err
	}
	return rec, nil
}

func (s *Store) PutLeaderboardRecord(ctx context.Context, rec domain.LeaderboardRecord) error {
	rec.Rank = 0
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode leaderboard record: %w", err)
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, leaderboardKey(rec.UserID), data, 0)
		pipe.SAdd(ctx, leaderboardIndexKey, rec.UserID)
		return nil
	})
	return err
}

func (s *Store) UpdateLeaderboardRecord(ctx context.Context, userID string, fn func(*domain.LeaderboardRecord) error) (domain.LeaderboardRecord, error) {
	return update(ctx, s.client, leaderboardKey(userID), domain.LeaderboardRecord{UserID: userID}, func(r *domain.LeaderboardRecord) error {
		if err := fn(r); err != nil {
			return err
		}
		r.UserID = userID
		r.Rank = 0
		return nil
	}, func(pipe redis.Pipeliner) {
		pipe.SAdd(ctx, leaderboardIndexKey, userID)
	})
}

func (s *Store) ListLeaderboardRecords(ctx context.Context) ([]domain.LeaderboardRecord, error) {
	ids, err := s.client.SMembers(ctx, leaderboardIndexKey).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []domain.LeaderboardRecord{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = leaderboardKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	out := make([]domain.LeaderboardRecord, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var rec domain.LeaderboardRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decode leaderboard record %s: %w", ids[i], err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *Store) get(ctx context.Context, key string, dst interface{}) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// update applies fn to the JSON record at key inside an optimistic transaction.
// extra, when set, queues additional commands into the same MULTI block.
func update[T any](ctx context.Context, client *redis.Client, key string, zero T, fn func(*T) error, extra func(redis.Pipeliner)) (T, error) {
	var result T
	txf := func(tx *redis.Tx) error {
		current := zero
		data, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			if err := json.Unmarshal(data, &current); err != nil {
				return fmt.Errorf("decode %s: %w", key, err)
			}
		}

		next := current
		if err := fn(&next); err != nil {
			if errors.Is(err, domain.ErrSkipWrite) {
				result = current
				return nil
			}
			return err
		}
		out, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			if extra != nil {
				extra(pipe)
			}
			return nil
		})
		if err != nil {
			return err
		}
		result = next
		return nil
	}

	for i := 0; i < maxTxRetries; i++ {
		err := client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			var empty T
			return empty, err
		}
		return result, nil
	}
	var empty T
	return empty, errTooManyRetries
}

const leaderboardIndexKey = "trivia:leaderboard:index"

func userKey(userID string) string {
	return "trivia:user:" + userID
}

func leaderboardKey(userID string) string {
	return "trivia:leaderboard:" + userID
}

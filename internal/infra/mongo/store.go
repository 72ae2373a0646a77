package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"geoquiz-service/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const maxCASRetries = 16

var errTooManyRetries = errors.New("mongo: too many concurrent update retries")

// Connect opens a client and verifies the deployment is reachable.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// versioned is the stored form of a record; version drives compare-and-swap updates.
type versioned[T any] struct {
	Record  T     `bson:",inline"`
	Version int64 `bson:"version"`
}

// Store is a MongoDB persistence provider with one document per user in the users and
// leaderboard collections, keyed by user id.
type Store struct {
	users       *mongo.Collection
	leaderboard *mongo.Collection
}

func NewStore(db *mongo.Database) *Store {
	return &Store{
		users:       db.Collection("users"),
		leaderboard: db.Collection("leaderboard"),
	}
}

func (s *Store) GetUser(ctx context.Context, userID string) (domain.UserRecord, error) {
	var doc versioned[domain.UserRecord]
	err := s.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.UserRecord{}, domain.ErrUserNotFound
	}
	if err != nil {
		return domain.UserRecord{}, fmt.Errorf("get user: %w", err)
	}
	return doc.Record, nil
}

func (s *Store) PutUser(ctx context.Context, user domain.UserRecord) error {
	_, err := s.users.ReplaceOne(ctx,
		bson.M{"_id": user.UserID},
		versioned[domain.UserRecord]{Record: user, Version: overwriteVersion()},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("put user: %w", err)
	}
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, userID string, fn func(*domain.UserRecord) error) (domain.UserRecord, error) {
	return update(ctx, s.users, userID, domain.UserRecord{UserID: userID}, domain.UserRecord.Clone, func(u *domain.UserRecord) error {
		if err := fn(u); err != nil {
			return err
		}
		u.UserID = userID
		return nil
	})
}

func (s *Store) GetLeaderboardRecord(ctx context.Context, userID string) (domain.LeaderboardRecord, error) {
	var doc versioned[domain.LeaderboardRecord]
	err := s.leaderboard.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.LeaderboardRecord{}, domain.ErrRecordNotFound
	}
	if err != nil {
		return domain.LeaderboardRecord{}, fmt.Errorf("get leaderboard record: %w", err)
	}
	return doc.Record, nil
}

func (s *Store) PutLeaderboardRecord(ctx context.Context, rec domain.LeaderboardRecord) error {
	_, err := s.leaderboard.ReplaceOne(ctx,
		bson.M{"_id": rec.UserID},
		versioned[domain.LeaderboardRecord]{Record: rec, Version: overwriteVersion()},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("put leaderboard record: %w", err)
	}
	return nil
}

func (s *Store) UpdateLeaderboardRecord(ctx context.Context, userID string, fn func(*domain.LeaderboardRecord) error) (domain.LeaderboardRecord, error) {
	same := func(r domain.LeaderboardRecord) domain.LeaderboardRecord { return r }
	return update(ctx, s.leaderboard, userID, domain.LeaderboardRecord{UserID: userID}, same, func(r *domain.LeaderboardRecord) error {
		if err := fn(r); err != nil {
			return err
		}
		r.UserID = userID
		r.Rank = 0
		return nil
	})
}

func (s *Store) ListLeaderboardRecords(ctx context.Context) ([]domain.LeaderboardRecord, error) {
	cur, err := s.leaderboard.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list leaderboard records: %w", err)
	}
	defer cur.Close(ctx)

	records := []domain.LeaderboardRecord{}
	for cur.Next(ctx) {
		var doc versioned[domain.LeaderboardRecord]
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode leaderboard record: %w", err)
		}
		records = append(records, doc.Record)
	}
	return records, cur.Err()
}

// overwriteVersion gives blind writes a fresh version so in-flight updates of the same
// document lose their compare-and-swap.
func overwriteVersion() int64 {
	return time.Now().UnixNano()
}

// update runs an optimistic read-modify-write on one document. A missing document is
// created with InsertOne; an existing one is replaced only if its version is unchanged.
// Lost races are retried with a fresh read.
func update[T any](ctx context.Context, col *mongo.Collection, id string, zero T, clone func(T) T, fn func(*T) error) (T, error) {
	var empty T
	for i := 0; i < maxCASRetries; i++ {
		var doc versioned[T]
		found := true
		err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			found = false
			doc = versioned[T]{Record: zero}
		case err != nil:
			return empty, err
		}

		next := clone(doc.Record)
		if err := fn(&next); err != nil {
			if errors.Is(err, domain.ErrSkipWrite) {
				return doc.Record, nil
			}
			return empty, err
		}
		stored := versioned[T]{Record: next, Version: doc.Version + 1}

		if !found {
			if _, err := col.InsertOne(ctx, stored); err != nil {
				if mongo.IsDuplicateKeyError(err) {
					continue
				}
				return empty, err
			}
			return next, nil
		}

		res, err := col.ReplaceOne(ctx, bson.M{"_id": id, "version": doc.Version}, stored)
		if err != nil {
			return empty, err
		}
		if res.MatchedCount == 1 {
			return next, nil
		}
	}
	return empty, errTooManyRetries
}

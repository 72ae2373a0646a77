package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"geoquiz-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Store is a Postgres persistence provider. Updates lock the row inside a transaction:
// a missing row is inserted first, an existing one is read with SELECT ... FOR UPDATE.
type Store struct {
	pool *pgxpool.Pool
	tx   *Transactor
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, tx: NewTransactor(pool)}
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

const userColumns = `user_id, username, total_points, quizzes_played, correct_answers,
	achievements, category_scores, created_at, last_active`

func scanUser(row pgx.Row) (domain.UserRecord, error) {
	var (
		u      domain.UserRecord
		scores []byte
	)
	err := row.Scan(
		&u.UserID,
		&u.Username,
		&u.TotalPoints,
		&u.QuizzesPlayed,
		&u.CorrectAnswers,
		&u.Achievements,
		&scores,
		&u.CreatedAt,
		&u.LastActive,
	)
	if err != nil {
		return domain.UserRecord{}, err
	}
	if len(scores) > 0 {
		if err := json.Unmarshal(scores, &u.CategoryScores); err != nil {
			return domain.UserRecord{}, fmt.Errorf("decode category scores: %w", err)
		}
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, userID string) (domain.UserRecord, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = $1`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.UserRecord{}, domain.ErrUserNotFound
		}
		return domain.UserRecord{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *Store) PutUser(ctx context.Context, user domain.UserRecord) error {
	return s.writeUser(ctx, s.pool, user)
}

func (s *Store) writeUser(ctx context.Context, db querier, u domain.UserRecord) error {
	scores, err := json.Marshal(nonNilScores(u.CategoryScores))
	if err != nil {
		return fmt.Errorf("encode category scores: %w", err)
	}
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			username = EXCLUDED.username,
			total_points = EXCLUDED.total_points,
			quizzes_played = EXCLUDED.quizzes_played,
			correct_answers = EXCLUDED.correct_answers,
			achievements = EXCLUDED.achievements,
			category_scores = EXCLUDED.category_scores,
			created_at = EXCLUDED.created_at,
			last_active = EXCLUDED.last_active
		RETURNING user_id
	`
	var id string
	err = db.QueryRow(ctx, query,
		u.UserID,
		u.Username,
		u.TotalPoints,
		u.QuizzesPlayed,
		u.CorrectAnswers,
		append([]string{}, u.Achievements...),
		scores,
		u.CreatedAt,
		u.LastActive,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, userID string, fn func(*domain.UserRecord) error) (domain.UserRecord, error) {
	var current, next domain.UserRecord
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `INSERT INTO users (user_id) VALUES ($1) ON CONFLICT DO NOTHING`, userID)
		if err != nil {
			return fmt.Errorf("ensure user: %w", err)
		}
		if tag.RowsAffected() == 1 {
			current = domain.UserRecord{UserID: userID}
		} else {
			current, err = scanUser(tx.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = $1 FOR UPDATE`, userID))
			if err != nil {
				return fmt.Errorf("lock user: %w", err)
			}
		}
		next = current.Clone()
		if err := fn(&next); err != nil {
			return err
		}
		next.UserID = userID
		return s.writeUser(ctx, tx, next)
	})
	if errors.Is(err, domain.ErrSkipWrite) {
		return current, nil
	}
	if err != nil {
		return domain.UserRecord{}, err
	}
	return next, nil
}

const leaderboardColumns = `user_id, username, total_points, quizzes_played, correct_answers,
	daily_points, daily_key, weekly_points, weekly_key, last_updated`

func scanLeaderboard(row pgx.Row) (domain.LeaderboardRecord, error) {
	var r domain.LeaderboardRecord
	err := row.Scan(
		&r.UserID,
		&r.Username,
		&r.TotalPoints,
		&r.QuizzesPlayed,
		&r.CorrectAnswers,
		&r.DailyPoints,
		&r.DailyKey,
		&r.WeeklyPoints,
		&r.WeeklyKey,
		&r.LastUpdated,
	)
	return r, err
}

func (s *Store) GetLeaderboardRecord(ctx context.Context, userID string) (domain.LeaderboardRecord, error) {
	r, err := scanLeaderboard(s.pool.QueryRow(ctx, `SELECT `+leaderboardColumns+` FROM leaderboard_records WHERE user_id = $1`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.LeaderboardRecord{}, domain.ErrRecordNotFound
		}
		return domain.LeaderboardRecord{}, fmt.Errorf("get leaderboard record: %w", err)
	}
	return r, nil
}

func (s *Store) PutLeaderboardRecord(ctx context.Context, rec domain.LeaderboardRecord) error {
	return s.writeLeaderboard(ctx, s.pool, rec)
}

func (s *Store) writeLeaderboard(ctx context.Context, db querier, r domain.LeaderboardRecord) error {
	query := `
		INSERT INTO leaderboard_records (` + leaderboardColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id) DO UPDATE SET
			username = EXCLUDED.username,
			total_points = EXCLUDED.total_points,
			quizzes_played = EXCLUDED.quizzes_played,
			correct_answers = EXCLUDED.correct_answers,
			daily_points = EXCLUDED.daily_points,
			daily_key = EXCLUDED.daily_key,
			weekly_points = EXCLUDED.weekly_points,
			weekly_key = EXCLUDED.weekly_key,
			last_updated = EXCLUDED.last_updated
		RETURNING user_id
	`
	var id string
	err := db.QueryRow(ctx, query,
		r.UserID,
		r.Username,
		r.TotalPoints,
		r.QuizzesPlayed,
		r.CorrectAnswers,
		r.DailyPoints,
		r.DailyKey,
		r.WeeklyPoints,
		r.WeeklyKey,
		r.LastUpdated,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("save leaderboard record: %w", err)
	}
	return nil
}

func (s *Store) UpdateLeaderboardRecord(ctx context.Context, userID string, fn func(*domain.LeaderboardRecord) error) (domain.LeaderboardRecord, error) {
	var current, next domain.LeaderboardRecord
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `INSERT INTO leaderboard_records (user_id) VALUES ($1) ON CONFLICT DO NOTHING`, userID)
		if err != nil {
			return fmt.Errorf("ensure leaderboard record: %w", err)
		}
		if tag.RowsAffected() == 1 {
			current = domain.LeaderboardRecord{UserID: userID}
		} else {
			current, err = scanLeaderboard(tx.QueryRow(ctx, `SELECT `+leaderboardColumns+` FROM leaderboard_records WHERE user_id = $1 FOR UPDATE`, userID))
			if err != nil {
				return fmt.Errorf("lock leaderboard record: %w", err)
			}
		}
		next = current
		if err := fn(&next); err != nil {
			return err
		}
		next.UserID = userID
		next.Rank = 0
		return s.writeLeaderboard(ctx, tx, next)
	})
	if errors.Is(err, domain.ErrSkipWrite) {
		return current, nil
	}
	if err != nil {
		return domain.LeaderboardRecord{}, err
	}
	return next, nil
}

func (s *Store) ListLeaderboardRecords(ctx context.Context) ([]domain.LeaderboardRecord, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+leaderboardColumns+` FROM leaderboard_records`)
	if err != nil {
		return nil, fmt.Errorf("list leaderboard records: %w", err)
	}
	defer rows.Close()

	out := []domain.LeaderboardRecord{}
	for rows.Next() {
		r, err := scanLeaderboard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan leaderboard record: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func nonNilScores(m map[string]int) map[string]int {
	if m == nil {
		return map[string]int{}
	}
	return m
}

package app

import (
	"context"
	"errors"
	"fmt"

	"geoquiz-service/internal/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	EventQuizCompleted       = "quiz.completed"
	EventAchievementUnlocked = "achievement.unlocked"
)

// QuizService contains the quiz use cases: starting sessions and running the
// finish pipeline (scoring, leaderboard, achievements).
type QuizService struct {
	sessions     SessionRepository
	pools        *PoolLoader
	leaderboard  *Leaderboard
	achievements *Achievements
	events       EventPublisher
	log          *zap.Logger
	opts         SessionOptions
}

// Option customizes a QuizService.
type Option func(*QuizService)

func WithEventPublisher(p EventPublisher) Option {
	return func(s *QuizService) {
		if p != nil {
			s.events = p
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *QuizService) {
		if l != nil {
			s.log = l
		}
	}
}

func WithSessionOptions(o SessionOptions) Option {
	return func(s *QuizService) { s.opts = o }
}

func NewQuizService(sessions SessionRepository, pools *PoolLoader, leaderboard *Leaderboard, achievements *Achievements, opts ...Option) *QuizService {
	s := &QuizService{
		sessions:     sessions,
		pools:        pools,
		leaderboard:  leaderboard,
		achievements: achievements,
		events:       nopPublisher{},
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartSession loads a category pool and starts a session on its first question. A user
// has at most one active session; a previous one is abandoned.
func (s *QuizService) StartSession(ctx context.Context, userID, categoryID string) (*Session, error) {
	pool, err := s.pools.Load(ctx, categoryID)
	if err != nil {
		s.log.Warn("question pool unavailable",
			zap.String("user_id", userID),
			zap.String("category_id", categoryID),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %w", domain.ErrNoQuestionsAvailable, err)
	}

	session := NewSession(uuid.NewString(), userID, pool.Category, pool.Questions, s.opts)
	if err := session.Start(); err != nil {
		return nil, err
	}
	if prev := s.sessions.Put(userID, session); prev != nil {
		s.retire(ctx, prev)
	}
	s.log.Info("session started",
		zap.String("session_id", session.ID()),
		zap.String("user_id", userID),
		zap.String("category_id", categoryID),
		zap.Int("questions", len(pool.Questions)))
	return session, nil
}

// retire closes a replaced session. One that already reached finished still runs the
// finish pipeline so its result is recorded.
func (s *QuizService) retire(ctx context.Context, prev *Session) {
	prev.Abandon()
	if prev.State() != StateFinished {
		return
	}
	if _, err := s.FinishSession(ctx, prev); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		s.log.Warn("finish replaced session failed",
			zap.String("session_id", prev.ID()),
			zap.String("user_id", prev.UserID()),
			zap.Error(err))
	}
}

// Session returns the user's active session.
func (s *QuizService) Session(userID string) (*Session, error) {
	session, ok := s.sessions.Get(userID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// Abandon drops the user's active session without recording anything.
func (s *QuizService) Abandon(userID string) {
	session, ok := s.sessions.Get(userID)
	if !ok {
		return
	}
	s.AbandonSession(session)
}

// AbandonSession drops one specific session. A newer session of the same user is left
// alone, and a finished session keeps its pending result.
func (s *QuizService) AbandonSession(session *Session) {
	session.Abandon()
	if session.State() != StateAbandoned {
		return
	}
	s.sessions.Delete(session.UserID(), session)
	s.log.Info("session abandoned",
		zap.String("session_id", session.ID()),
		zap.String("user_id", session.UserID()))
}

// ActiveSessionID reports the session the user is currently playing, if any.
func (s *QuizService) ActiveSessionID(ctx context.Context, userID string) (string, bool) {
	return s.sessions.ActiveSessionID(ctx, userID)
}

// RegisterUser records the display name a user plays under.
func (s *QuizService) RegisterUser(ctx context.Context, userID, username string) (domain.UserRecord, error) {
	return s.leaderboard.Register(ctx, userID, username)
}

// Finish runs the finish pipeline on the user's registered session.
func (s *QuizService) Finish(ctx context.Context, userID string) (domain.SessionResult, error) {
	session, ok := s.sessions.Get(userID)
	if !ok {
		return domain.SessionResult{}, domain.ErrSessionNotFound
	}
	return s.FinishSession(ctx, session)
}

// FinishSession scores a finished session, records it on the leaderboard and unlocks
// achievements. The result is produced once per session, whether or not the session is
// still the user's registered one; later calls get domain.ErrSessionNotFound. When
// aggregation fails the result is still returned together with an error wrapping
// domain.ErrPersistence.
func (s *QuizService) FinishSession(ctx context.Context, session *Session) (domain.SessionResult, error) {
	score, err := session.Score()
	if err != nil {
		return domain.SessionResult{}, err
	}
	if !session.claimResult() {
		return domain.SessionResult{}, domain.ErrSessionNotFound
	}
	userID := session.UserID()
	s.sessions.Delete(userID, session)

	category := session.Category()
	result := domain.SessionResult{
		SessionID:                     session.ID(),
		UserID:                        userID,
		CorrectCount:                  score.CorrectCount,
		TotalQuestions:                score.TotalQuestions,
		Percentage:                    score.Percentage,
		Score:                         score.Score,
		CategoryID:                    category.ID,
		CategoryName:                  category.Name,
		NewlyUnlockedAchievementNames: []string{},
	}
	logger := s.log.With(zap.String("session_id", session.ID()), zap.String("user_id", userID))

	var errs []error
	if _, err := s.leaderboard.RecordResult(ctx, userID, category.ID, score.CorrectCount); err != nil {
		logger.Warn("leaderboard update failed", zap.Error(err))
		errs = append(errs, err)
	}

	unlocked, err := s.achievements.Evaluate(ctx, userID)
	if err != nil {
		logger.Warn("achievement evaluation failed", zap.Error(err))
		errs = append(errs, err)
	}
	for _, m := range unlocked {
		result.NewlyUnlockedAchievementNames = append(result.NewlyUnlockedAchievementNames, m.DisplayName())
	}

	s.publish(logger, EventQuizCompleted, result)
	for _, m := range unlocked {
		s.publish(logger, EventAchievementUnlocked, map[string]interface{}{
			"userId":      userID,
			"milestoneId": m.ID,
			"name":        m.Name,
		})
	}

	logger.Info("session finished",
		zap.Int("correct", score.CorrectCount),
		zap.Int("total", score.TotalQuestions),
		zap.Int("unlocked", len(unlocked)))
	return result, errors.Join(errs...)
}

func (s *QuizService) publish(logger *zap.Logger, eventType string, payload interface{}) {
	if err := s.events.Publish(eventType, payload); err != nil {
		logger.Warn("publish event failed", zap.String("event", eventType), zap.Error(err))
	}
}

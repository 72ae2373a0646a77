package app

import (
	"sync"
	"time"

	"geoquiz-service/internal/domain"
)

const (
	// DefaultQuestionTime is the countdown length of each question.
	DefaultQuestionTime = 30 * time.Second
	// DefaultTickInterval is how often a live countdown is decremented.
	DefaultTickInterval = time.Second

	noSelection = -1
)

// State is the position of a session in its lifecycle.
type State int

const (
	StateLoading State = iota
	StateActive
	StateLocked
	StateFinished
	StateAbandoned
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateActive:
		return "active"
	case StateLocked:
		return "locked"
	case StateFinished:
		return "finished"
	case StateAbandoned:
		return "abandoned"
	}
	return "unknown"
}

// EventType names the notifications a session pushes to subscribers.
type EventType string

const (
	EventQuestion EventType = "question"
	EventTick     EventType = "tick"
	EventLocked   EventType = "locked"
	EventFinished EventType = "finished"
)

// Event is a state change pushed to subscribers.
type Event struct {
	Type            EventType
	QuestionIndex   int
	TotalQuestions  int
	RemainingMillis int64
	Question        *domain.Question
	Outcome         *Outcome
}

// Outcome is the result of locking one question, by submit or by timeout.
type Outcome struct {
	QuestionIndex int    `json:"questionIndex"`
	Selected      int    `json:"selected"`
	CorrectIndex  int    `json:"correctIndex"`
	Correct       bool   `json:"correct"`
	Awarded       int    `json:"awarded"`
	TimedOut      bool   `json:"timedOut"`
	Explanation   string `json:"explanation,omitempty"`
	TotalScore    int    `json:"totalScore"`
}

// Snapshot is a copy of the session state.
type Snapshot struct {
	ID                  string
	UserID              string
	Category            domain.Category
	State               State
	Questions           []domain.Question
	CurrentIndex        int
	SelectedOptionIndex int
	AnswerLocked        bool
	CorrectCount        int
	TotalScore          int
	RemainingMillis     int64
	Paused              bool
	Outcomes            []Outcome
}

// SessionOptions tunes the countdown. A negative TickInterval disables the internal
// ticker; the owner then drives time with Tick.
type SessionOptions struct {
	QuestionTime time.Duration
	TickInterval time.Duration
}

// Session is the state machine of one single-player quiz run. Transitions are
// serialized by a mutex so a timer tick and a user event never interleave.
type Session struct {
	id       string
	userID   string
	category domain.Category

	questions    []domain.Question
	questionTime time.Duration
	tick         time.Duration

	mu           sync.Mutex
	state        State
	current      int
	selected     int
	correctCount int
	totalScore   int
	remaining    time.Duration
	paused       bool
	outcomes     []Outcome
	handedOff    bool

	// countdown handle: generation guards against a stale ticker firing into a newer question
	generation uint64
	stop       chan struct{}

	subscribers map[chan Event]struct{}
}

// NewSession builds a session in the loading state. Call Start to show the first question.
func NewSession(id, userID string, category domain.Category, questions []domain.Question, opts SessionOptions) *Session {
	if opts.QuestionTime <= 0 {
		opts.QuestionTime = DefaultQuestionTime
	}
	if opts.TickInterval == 0 {
		opts.TickInterval = DefaultTickInterval
	}
	return &Session{
		id:           id,
		userID:       userID,
		category:     category,
		questions:    append([]domain.Question(nil), questions...),
		questionTime: opts.QuestionTime,
		tick:         opts.TickInterval,
		state:        StateLoading,
		selected:     noSelection,
		subscribers:  make(map[chan Event]struct{}),
	}
}

func (s *Session) ID() string                { return s.id }
func (s *Session) UserID() string            { return s.userID }
func (s *Session) Category() domain.Category { return s.category }

// Start moves the session from loading to the first question. An empty pool is terminal.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateLoading {
		return domain.ErrInvalidTransition
	}
	if len(s.questions) == 0 {
		return domain.ErrNoQuestionsAvailable
	}
	s.enterActiveLocked(0)
	return nil
}

// SelectOption records the highlighted option. It never touches the tallies.
func (s *Session) SelectOption(idx int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return domain.ErrInvalidTransition
	}
	if idx < 0 || idx >= domain.OptionsPerQuestion {
		return domain.ErrInvalidTransition
	}
	s.selected = idx
	return nil
}

// Submit locks the current question with the selected option. A second call while
// locked is rejected, so a question is never scored twice.
func (s *Session) Submit() (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return Outcome{}, domain.ErrInvalidTransition
	}
	if s.selected == noSelection {
		return Outcome{}, domain.ErrNoOptionSelected
	}

	q := s.questions[s.current]
	out := Outcome{
		QuestionIndex: s.current,
		Selected:      s.selected,
		CorrectIndex:  q.CorrectIndex,
		Explanation:   q.Explanation,
	}
	if s.selected == q.CorrectIndex {
		out.Correct = true
		out.Awarded = q.Points
		s.correctCount++
		s.totalScore += q.Points
	}
	out.TotalScore = s.totalScore
	s.lockLocked(out)
	return out, nil
}

// Timeout force-locks the current question without credit. A question already locked by
// a submit is left unchanged and ErrInvalidTransition is returned.
func (s *Session) Timeout() (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive {
		return Outcome{}, domain.ErrInvalidTransition
	}
	return s.timeoutLocked(), nil
}

// Advance moves from a locked question to the next one, or to finished after the last.
func (s *Session) Advance() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateLocked {
		return domain.ErrInvalidTransition
	}
	if s.current+1 < len(s.questions) {
		s.enterActiveLocked(s.current + 1)
		return nil
	}
	s.cancelCountdownLocked()
	s.state = StateFinished
	s.emitLocked(Event{
		Type:           EventFinished,
		QuestionIndex:  s.current,
		TotalQuestions: len(s.questions),
	})
	return nil
}

// Tick decrements the countdown by elapsed and fires the timeout when it reaches zero.
// It is ignored unless a question is active and the countdown is not paused.
func (s *Session) Tick(elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateActive || s.paused {
		return
	}
	s.tickLocked(elapsed)
}

// Pause suspends the countdown, e.g. while the quiz view is in the background.
func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.paused || s.terminalLocked() {
		return
	}
	s.paused = true
	s.cancelCountdownLocked()
}

// Resume restarts a paused countdown with the time that was left.
func (s *Session) Resume() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.paused || s.terminalLocked() {
		return
	}
	s.paused = false
	if s.state == StateActive {
		s.startCountdownLocked()
	}
}

// Abandon stops the session without producing a result.
func (s *Session) Abandon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.terminalLocked() {
		return
	}
	s.cancelCountdownLocked()
	s.state = StateAbandoned
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

// State reports the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns a copy of the full session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Score evaluates the finished session.
func (s *Session) Score() (domain.Score, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateFinished {
		return domain.Score{}, domain.ErrSessionNotFinished
	}
	return Finalize(s.snapshotLocked()), nil
}

// claimResult reports true exactly once for a finished session.
func (s *Session) claimResult() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateFinished || s.handedOff {
		return false
	}
	s.handedOff = true
	return true
}

// Subscribe returns a channel of session events, primed with the current question.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *Session) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)

	s.mu.Lock()
	if s.state == StateAbandoned {
		s.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	s.subscribers[ch] = struct{}{}
	if s.state == StateActive {
		ch <- s.questionEventLocked()
	}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) enterActiveLocked(idx int) {
	s.state = StateActive
	s.current = idx
	s.selected = noSelection
	s.remaining = s.questionTime
	s.startCountdownLocked()
	s.emitLocked(s.questionEventLocked())
}

func (s *Session) lockLocked(out Outcome) {
	s.cancelCountdownLocked()
	s.state = StateLocked
	s.outcomes = append(s.outcomes, out)
	s.emitLocked(Event{
		Type:            EventLocked,
		QuestionIndex:   s.current,
		TotalQuestions:  len(s.questions),
		RemainingMillis: s.remaining.Milliseconds(),
		Outcome:         &out,
	})
}

func (s *Session) timeoutLocked() Outcome {
	q := s.questions[s.current]
	s.remaining = 0
	out := Outcome{
		QuestionIndex: s.current,
		Selected:      s.selected,
		CorrectIndex:  q.CorrectIndex,
		TimedOut:      true,
		Explanation:   q.Explanation,
		TotalScore:    s.totalScore,
	}
	s.lockLocked(out)
	return out
}

// tickLocked reports whether the countdown is still running afterwards.
func (s *Session) tickLocked(elapsed time.Duration) bool {
	s.remaining -= elapsed
	if s.remaining <= 0 {
		s.timeoutLocked()
		return false
	}
	s.emitLocked(Event{
		Type:            EventTick,
		QuestionIndex:   s.current,
		TotalQuestions:  len(s.questions),
		RemainingMillis: s.remaining.Milliseconds(),
	})
	return true
}

func (s *Session) startCountdownLocked() {
	s.cancelCountdownLocked()
	if s.tick < 0 || s.paused {
		return
	}
	s.generation++
	stop := make(chan struct{})
	s.stop = stop
	go s.runCountdown(s.generation, stop)
}

func (s *Session) cancelCountdownLocked() {
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
	s.generation++
}

func (s *Session) runCountdown(gen uint64, stop <-chan struct{}) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			if gen != s.generation || s.state != StateActive {
				s.mu.Unlock()
				return
			}
			running := s.tickLocked(s.tick)
			s.mu.Unlock()
			if !running {
				return
			}
		}
	}
}

func (s *Session) terminalLocked() bool {
	return s.state == StateFinished || s.state == StateAbandoned
}

func (s *Session) questionEventLocked() Event {
	q := s.questions[s.current]
	return Event{
		Type:            EventQuestion,
		QuestionIndex:   s.current,
		TotalQuestions:  len(s.questions),
		RemainingMillis: s.remaining.Milliseconds(),
		Question:        &q,
	}
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		ID:                  s.id,
		UserID:              s.userID,
		Category:            s.category,
		State:               s.state,
		Questions:           append([]domain.Question(nil), s.questions...),
		CurrentIndex:        s.current,
		SelectedOptionIndex: s.selected,
		AnswerLocked:        s.state == StateLocked,
		CorrectCount:        s.correctCount,
		TotalScore:          s.totalScore,
		RemainingMillis:     s.remaining.Milliseconds(),
		Paused:              s.paused,
		Outcomes:            append([]Outcome(nil), s.outcomes...),
	}
}

func (s *Session) emitLocked(ev Event) {
	for ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
			// slow subscriber: drop the oldest pending event
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}

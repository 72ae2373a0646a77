package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"geoquiz-service/internal/app"
	"geoquiz-service/internal/domain"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func NewWSHandler(service *app.QuizService, log *zap.Logger) *WSHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &WSHandler{
		service: service,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	Option *int `json:"option"`
}

// questionPayload omits the correct index.
type questionPayload struct {
	Index           int      `json:"index"`
	Total           int      `json:"total"`
	Text            string   `json:"text"`
	Options         []string `json:"options"`
	Difficulty      string   `json:"difficulty"`
	Points          int      `json:"points"`
	RemainingMillis int64    `json:"remainingMillis"`
}

type tickPayload struct {
	Index           int   `json:"index"`
	RemainingMillis int64 `json:"remainingMillis"`
}

type lockedPayload struct {
	Index        int    `json:"index"`
	Selected     int    `json:"selected"`
	Correct      bool   `json:"correct"`
	CorrectIndex int    `json:"correctIndex"`
	Awarded      int    `json:"awarded"`
	TimedOut     bool   `json:"timedOut"`
	Explanation  string `json:"explanation,omitempty"`
	TotalScore   int    `json:"totalScore"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type messagePayload struct {
	Message string `json:"message"`
}

func errorMessage(err error) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: messagePayload{Message: err.Error()}}
}

func hintMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "hint", Payload: messagePayload{Message: msg}}
}

// ServeWS upgrades HTTP requests to websockets and runs one quiz session over the
// connection. Closing the connection before the last question abandons the session.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	displayName := r.URL.Query().Get("name")
	categoryID := r.URL.Query().Get("category")
	if userID == "" || categoryID == "" {
		http.Error(w, "missing userId or category", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// request context ends with the handler; the finish pipeline must outlive a disconnect
	ctx := context.WithoutCancel(r.Context())
	logger := h.log.With(zap.String("user_id", userID), zap.String("category_id", categoryID))

	if _, err := h.service.RegisterUser(ctx, userID, displayName); err != nil {
		logger.Warn("register user failed", zap.Error(err))
	}

	session, err := h.service.StartSession(ctx, userID, categoryID)
	if err != nil {
		_ = conn.WriteJSON(errorMessage(err))
		return
	}
	events, cancel := session.Subscribe()
	defer h.service.AbandonSession(session)
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		broken := false
		for msg := range send {
			if broken {
				continue
			}
			if err := conn.WriteJSON(msg); err != nil {
				logger.Debug("ws write error", zap.Error(err))
				// keep draining so producers never block on a dead connection
				broken = true
			}
		}
	}()

	push := func(msg outboundMessage[any]) bool {
		select {
		case send <- msg:
			return true
		case <-closeSignals:
			return false
		}
	}

	go func() {
		defer close(eventsDone)
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				for _, msg := range h.translate(ctx, logger, session, ev) {
					if !push(msg) {
						return
					}
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if msg, ok := h.dispatch(session, inbound); ok {
			if !push(msg) {
				break
			}
		}
	}

	close(closeSignals)
	<-eventsDone
	// a disconnect right after the last answer still hands the result off
	if session.State() == app.StateFinished {
		if _, err := h.service.FinishSession(ctx, session); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			logger.Warn("finish after disconnect failed", zap.Error(err))
		}
	}
	close(send)
	<-writerDone
}

// dispatch applies one client command and returns the reply, if any. Successful commands
// are answered through the session's event stream.
func (h *WSHandler) dispatch(session *app.Session, inbound inboundMessage) (outboundMessage[any], bool) {
	var err error
	switch inbound.Type {
	case "select":
		var payload selectPayload
		if jerr := json.Unmarshal(inbound.Payload, &payload); jerr != nil || payload.Option == nil {
			return errorMessage(errors.New("invalid select payload")), true
		}
		err = session.SelectOption(*payload.Option)
	case "submit":
		_, err = session.Submit()
	case "advance":
		err = session.Advance()
	case "pause":
		session.Pause()
	case "resume":
		session.Resume()
	default:
		return errorMessage(errors.New("unsupported message type")), true
	}

	switch {
	case err == nil:
		return outboundMessage[any]{}, false
	case errors.Is(err, domain.ErrNoOptionSelected):
		return hintMessage("select an option before submitting"), true
	case errors.Is(err, domain.ErrInvalidTransition):
		return hintMessage(inbound.Type + " is not allowed while the session is " + session.State().String()), true
	default:
		return errorMessage(err), true
	}
}

func (h *WSHandler) translate(ctx context.Context, logger *zap.Logger, session *app.Session, ev app.Event) []outboundMessage[any] {
	switch ev.Type {
	case app.EventQuestion:
		q := ev.Question
		return []outboundMessage[any]{{Type: string(ev.Type), Payload: questionPayload{
			Index:           ev.QuestionIndex,
			Total:           ev.TotalQuestions,
			Text:            q.Text,
			Options:         q.Options,
			Difficulty:      q.Difficulty,
			Points:          q.Points,
			RemainingMillis: ev.RemainingMillis,
		}}}
	case app.EventTick:
		return []outboundMessage[any]{{Type: string(ev.Type), Payload: tickPayload{
			Index:           ev.QuestionIndex,
			RemainingMillis: ev.RemainingMillis,
		}}}
	case app.EventLocked:
		out := ev.Outcome
		return []outboundMessage[any]{{Type: string(ev.Type), Payload: lockedPayload{
			Index:        out.QuestionIndex,
			Selected:     out.Selected,
			Correct:      out.Correct,
			CorrectIndex: out.CorrectIndex,
			Awarded:      out.Awarded,
			TimedOut:     out.TimedOut,
			Explanation:  out.Explanation,
			TotalScore:   out.TotalScore,
		}}}
	case app.EventFinished:
		result, err := h.service.FinishSession(ctx, session)
		if err != nil && result.SessionID == "" {
			logger.Warn("finish failed", zap.Error(err))
			return []outboundMessage[any]{errorMessage(err)}
		}
		msgs := []outboundMessage[any]{{Type: string(ev.Type), Payload: result}}
		if err != nil {
			msgs = append(msgs, errorMessage(err))
		}
		return msgs
	}
	return nil
}

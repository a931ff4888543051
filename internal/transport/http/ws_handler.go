package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
)

// WSHandler runs one server-timed quiz session per websocket connection.
type WSHandler struct {
	quiz         *app.QuizService
	identity     app.IdentityResolver
	submitter    *app.AttemptSubmitter
	tickInterval time.Duration
	upgrader     websocket.Upgrader
}

func NewWSHandler(quiz *app.QuizService, identity app.IdentityResolver, submitter *app.AttemptSubmitter, tickInterval time.Duration) *WSHandler {
	if tickInterval <= 0 {
		tickInterval = time.Second
	}
	return &WSHandler{
		quiz:         quiz,
		identity:     identity,
		submitter:    submitter,
		tickInterval: tickInterval,
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

type answerPayload struct {
	Answer string `json:"answer"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func newErrorPayload(err error) errorPayload {
	_, kind, message := classify(err)
	return errorPayload{Kind: kind, Message: message}
}

type tickPayload struct {
	Remaining int `json:"remaining"`
}

type timeoutPayload struct {
	Index         int    `json:"index"`
	CorrectAnswer string `json:"correctAnswer"`
}

type feedbackPayload struct {
	domain.Feedback
	Score int `json:"score"`
}

// ServeWS authenticates the token query parameter, upgrades the connection and
// starts a session for the requested category and difficulty. The session's
// timer and registry entry are released when the socket closes. A completed
// session stays registered until then so that submit and reset can still reach it.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	identity, err := h.identity.Resolve(r.Context(), token)
	if err != nil {
		writeError(w, err)
		return
	}
	if identity.Expired {
		writeError(w, domain.ErrSessionExpired)
		return
	}
	if !identity.Valid {
		writeError(w, domain.ErrUnauthenticated)
		return
	}
	difficulty, err := domain.ParseDifficulty(r.URL.Query().Get("difficulty"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "badrequest", err.Error())
		return
	}
	category := r.URL.Query().Get("category")

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	session, err := h.quiz.StartSession(ctx, identity.UserID, category, difficulty)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: newErrorPayload(err)})
		return
	}
	defer h.quiz.EndSession(session.ID())

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	emit := func(msgType string, payload any) {
		select {
		case send <- outboundMessage[any]{Type: msgType, Payload: payload}:
		case <-closeSignals:
		case <-writerDone:
		}
	}
	emitProgress := func(snap domain.SessionSnapshot) {
		if snap.Phase == domain.PhaseCompleted {
			emit("completed", snap)
			return
		}
		emit("question", snap)
	}
	onTick := func(res app.TickResult) {
		if !res.Advanced {
			emit("tick", tickPayload{Remaining: res.Remaining})
			return
		}
		snap := session.Snapshot()
		if res.TimedOut && len(snap.Answers) > 0 {
			last := snap.Answers[len(snap.Answers)-1]
			emit("timeout", timeoutPayload{Index: len(snap.Answers) - 1, CorrectAnswer: last.CorrectAnswer})
		}
		emitProgress(snap)
	}

	emitProgress(session.Snapshot())
	stopTimer := app.StartTimer(ctx, session, h.tickInterval, onTick)
	submitted := false

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				emit("error", errorPayload{Kind: "badrequest", Message: "invalid answer payload"})
				continue
			}
			fb, err := session.Answer(payload.Answer)
			if err != nil {
				emit("error", newErrorPayload(err))
				continue
			}
			emit("feedback", feedbackPayload{Feedback: fb, Score: session.Snapshot().Score})
		case "next":
			if !session.Advance() {
				emit("error", errorPayload{Kind: "notAnswered", Message: "answer the current question first"})
				continue
			}
			emitProgress(session.Snapshot())
		case "reset":
			stopTimer()
			session.Reset()
			submitted = false
			emitProgress(session.Snapshot())
			stopTimer = app.StartTimer(ctx, session, h.tickInterval, onTick)
		case "submit":
			if submitted {
				emit("error", errorPayload{Kind: "alreadySubmitted", Message: "this session was already submitted"})
				continue
			}
			if session.Phase() != domain.PhaseCompleted {
				emit("error", newErrorPayload(domain.ErrSessionInProgress))
				continue
			}
			result, err := h.submitter.Submit(ctx, session.Answers(), session.Category(), session.Difficulty(), token)
			if errors.Is(err, domain.ErrSessionExpired) {
				emit("sessionExpired", newErrorPayload(err))
				continue
			}
			if err != nil {
				emit("error", newErrorPayload(err))
				continue
			}
			submitted = true
			emit("submitted", result)
		default:
			emit("error", errorPayload{Kind: "badrequest", Message: "unsupported message type"})
		}
	}

	close(closeSignals)
	stopTimer()
	close(send)
	<-writerDone
}

package http

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"dyscalc-screening-service/internal/app"
	"dyscalc-screening-service/internal/auth"
	"dyscalc-screening-service/internal/domain"
	"dyscalc-screening-service/internal/generate"
	"github.com/gorilla/websocket"
)

// WSHandler runs live adaptive screenings over a websocket: one question at
// a time, difficulty adjusted after every answer.
type WSHandler struct {
	service  *app.AssessmentService
	tokens   *auth.TokenManager
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.AssessmentService, tokens *auth.TokenManager) *WSHandler {
	return &WSHandler{
		service: service,
		tokens:  tokens,
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
	SelectedAnswer *string `json:"selectedAnswer"`
	ResponseTimeMs int64   `json:"responseTimeMs"`
}

type questionPayload struct {
	SessionID  string          `json:"sessionId"`
	Question   domain.Question `json:"question"`
	Number     int             `json:"number"`
	Total      int             `json:"total"`
	TimeLimitS int             `json:"timeLimitSeconds"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and drives one screening run. The client
// authenticates via the token query param and either starts a fresh run
// (domain, optional subtype) or resumes one by sessionId.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	identity, err := h.tokens.Verify(r.URL.Query().Get("token"))
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	var session app.ScreeningSession
	if sessionID := r.URL.Query().Get("sessionId"); sessionID != "" {
		session, err = h.service.ResumeScreening(r.Context(), identity, sessionID)
	} else {
		session, err = h.service.BeginScreening(r.Context(), identity,
			r.URL.Query().Get("domain"), r.URL.Query().Get("subtype"))
	}
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	send := make(chan outboundMessage[any], 16)
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

	send <- questionMessage(session, session.CurrentQuestion())

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
				continue
			}
			step, err := h.service.AnswerScreening(r.Context(), identity, session.ID, payload.SelectedAnswer, payload.ResponseTimeMs)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			session = step.Session
			if step.Finished {
				send <- outboundMessage[any]{Type: "result", Payload: step.Result}
			} else {
				send <- questionMessage(session, *step.Next)
			}
		case "abandon":
			if err := h.service.AbandonScreening(r.Context(), identity, session.ID); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			send <- outboundMessage[any]{Type: "abandoned", Payload: struct{}{}}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(send)
	<-writerDone
}

func questionMessage(session app.ScreeningSession, question domain.Question) outboundMessage[any] {
	return outboundMessage[any]{Type: "question", Payload: questionPayload{
		SessionID:  session.ID,
		Question:   question,
		Number:     len(session.Questions),
		Total:      generate.QuestionsPerRun,
		TimeLimitS: int(generate.TimeLimit(question.Domain) / time.Second),
	}}
}

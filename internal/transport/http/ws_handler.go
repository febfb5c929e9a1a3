package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"procureiq-quiz-service/internal/app"
	"procureiq-quiz-service/internal/domain"
	"procureiq-quiz-service/internal/logger"
)

type WSHandler struct {
	service  *app.QuizService
	log      *logger.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, log *logger.Logger) *WSHandler {
	if log == nil {
		log = logger.NewNop()
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

type answerPayload struct {
	QuestionID string `json:"questionId"`
	Options    []int  `json:"options"`
}

type answerResult struct {
	QuestionID  string `json:"questionId"`
	Correct     bool   `json:"correct"`
	Explanation string `json:"explanation"`
	Expected    []int  `json:"expected"`
	Answered    int    `json:"answered"`
	Total       int    `json:"total"`
	Complete    bool   `json:"complete"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// ServeWS upgrades the request and runs one quiz attempt over the connection.
// The attempt is dropped when the connection closes.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	slug := r.URL.Query().Get("quiz")
	if slug == "" {
		http.Error(w, "missing quiz", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	started, err := h.service.Start(ctx, slug)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: toErrorPayload(err)})
		return
	}
	defer h.service.Abandon(context.Background(), started.AttemptID)

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		broken := false
		for msg := range send {
			if broken {
				continue // drain so the reader never blocks
			}
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Warn("ws write error", "attempt", started.AttemptID, "err", err)
				broken = true
			}
		}
	}()

	send <- outboundMessage[any]{Type: "started", Payload: started}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		for _, msg := range h.handle(ctx, started.AttemptID, inbound) {
			send <- msg
		}
	}

	close(send)
	<-writerDone
}

// handle turns one inbound message into the replies to send, in order.
func (h *WSHandler) handle(ctx context.Context, attemptID string, inbound inboundMessage) []outboundMessage[any] {
	switch inbound.Type {
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return []outboundMessage[any]{errorMessage("bad_request", "invalid answer payload")}
		}
		submitted, err := h.service.Submit(ctx, attemptID, payload.QuestionID, payload.Options)
		if err != nil {
			return []outboundMessage[any]{{Type: "error", Payload: toErrorPayload(err)}}
		}
		out := []outboundMessage[any]{{Type: "answerResult", Payload: answerResult{
			QuestionID:  submitted.Result.QuestionID,
			Correct:     submitted.Result.Correct,
			Explanation: submitted.Result.Explanation,
			Expected:    submitted.Result.Expected,
			Answered:    submitted.Answered,
			Total:       submitted.Total,
			Complete:    submitted.Complete,
		}}}
		if submitted.Next != nil {
			out = append(out, outboundMessage[any]{Type: "question", Payload: *submitted.Next})
		}
		return out
	case "finalize":
		outcome, err := h.service.Finalize(ctx, attemptID)
		if err != nil {
			return []outboundMessage[any]{{Type: "error", Payload: toErrorPayload(err)}}
		}
		return []outboundMessage[any]{{Type: "report", Payload: outcome}}
	case "restart":
		first, err := h.service.Restart(ctx, attemptID)
		if err != nil {
			return []outboundMessage[any]{{Type: "error", Payload: toErrorPayload(err)}}
		}
		return []outboundMessage[any]{{Type: "question", Payload: first}}
	default:
		return []outboundMessage[any]{errorMessage("bad_request", "unsupported message type")}
	}
}

func errorMessage(kind, message string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Kind: kind, Message: message}}
}

// toErrorPayload classifies err for the client. Submission errors carry
// their own kind so the UI can re-prompt precisely.
func toErrorPayload(err error) errorPayload {
	var subErr *domain.SubmissionError
	if errors.As(err, &subErr) {
		return errorPayload{Kind: string(subErr.Kind), Message: err.Error()}
	}
	kind := "internal"
	switch {
	case errors.Is(err, domain.ErrQuizNotFound):
		kind = "quiz_not_found"
	case errors.Is(err, domain.ErrInvalidDocument):
		kind = "invalid_document"
	case errors.Is(err, domain.ErrSelection):
		kind = "selection"
	case errors.Is(err, domain.ErrPrematureFinalize):
		kind = "premature_finalize"
	case errors.Is(err, domain.ErrAllAnswered):
		kind = "all_answered"
	case errors.Is(err, domain.ErrSessionCompleted):
		kind = "session_completed"
	case errors.Is(err, domain.ErrSessionNotStarted), errors.Is(err, domain.ErrSessionNotFound):
		kind = "session_unavailable"
	}
	return errorPayload{Kind: kind, Message: err.Error()}
}

package http

import (
	"encoding/json"
	"net/http"

	"procureiq-quiz-service/internal/app"
	"procureiq-quiz-service/internal/logger"
)

// NewMux wires the HTTP surface: health, quiz listing, and the attempt websocket.
func NewMux(service *app.QuizService, log *logger.Logger) *http.ServeMux {
	ws := NewWSHandler(service, log)
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/quizzes", listQuizzes(service, ws.log))
	mux.HandleFunc("/ws", ws.ServeWS)
	return mux
}

func listQuizzes(service *app.QuizService, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		quizzes, err := service.List(r.Context())
		if err != nil {
			log.Error("list quizzes failed", "err", err)
			http.Error(w, "content store unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(quizzes)
	}
}

package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"flashdeck-service/internal/app"
	"flashdeck-service/internal/domain"
	"flashdeck-service/internal/quiz"
)

// StudyHandler runs one quiz session per websocket connection. The
// session is owned by the connection and discarded when it closes;
// nothing is shared across clients.
type StudyHandler struct {
	study    *app.StudyService
	upgrader websocket.Upgrader
}

func NewStudyHandler(study *app.StudyService) *StudyHandler {
	return &StudyHandler{
		study: study,
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
	CardID string `json:"cardId"`
	Option string `json:"option"`
}

type questionView struct {
	CardID   string   `json:"cardId"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

type resultPayload struct {
	Score  int                  `json:"score"`
	Total  int                  `json:"total"`
	Review []domain.ReviewEntry `json:"review"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeStudy upgrades the request and drives the select/submit loop for
// one quiz session over the set named by ?setId.
func (h *StudyHandler) ServeStudy(w http.ResponseWriter, r *http.Request) {
	setID := r.URL.Query().Get("setId")
	if setID == "" {
		http.Error(w, "missing setId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("study upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session, err := h.study.Start(r.Context(), setID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	// Options go out without correctness flags; the client learns which
	// was right only from the post-submit review.
	_ = conn.WriteJSON(outboundMessage[[]questionView]{Type: "questions", Payload: questionViews(session)})

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		switch inbound.Type {
		case "select":
			var payload selectPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "invalid select payload"}})
				continue
			}
			if err := session.Select(payload.CardID, payload.Option); err != nil {
				_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
			}
		case "submit":
			score, err := session.Submit()
			if err != nil {
				_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
				continue
			}
			review, err := session.Review()
			if err != nil {
				_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
				continue
			}
			_ = conn.WriteJSON(outboundMessage[resultPayload]{Type: "result", Payload: resultPayload{
				Score:  score,
				Total:  len(session.Questions()),
				Review: review,
			}})
		default:
			_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}})
		}
	}
}

func questionViews(session *quiz.Session) []questionView {
	questions := session.Questions()
	views := make([]questionView, 0, len(questions))
	for _, card := range questions {
		opts := session.OptionsFor(card.ID)
		texts := make([]string, len(opts))
		for i, opt := range opts {
			texts[i] = opt.Text
		}
		views = append(views, questionView{CardID: card.ID, Question: card.Question, Options: texts})
	}
	return views
}

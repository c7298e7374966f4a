package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"fitcoach/fitcoach/config"
	"fitcoach/fitcoach/controllers"
	"fitcoach/fitcoach/middlewares"
	"fitcoach/fitcoach/services/llm"
	"fitcoach/fitcoach/types"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
)

func ChatRoutes(ctrl *controllers.ChatController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.AuthMiddleware(cfg))

		// POST /chat-stream : run one chat turn, streaming generation events
		gr.Post("/", func(w http.ResponseWriter, r *http.Request) {
			caller, ok := callerFromRequest(r)
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			body, err := io.ReadAll(r.Body)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			req, err := types.NormalizeChatStreamRequest(body)
			if err != nil {
				writeJSONError(w, http.StatusBadRequest, map[string]any{
					"error":   "Message or messages array is required",
					"details": err.Error(),
				})
				return
			}
			events, err := ctrl.StreamChat(r.Context(), caller, req)
			if err != nil {
				writeChatError(w, err)
				return
			}
			relaySSE(w, r, events)
		})

		// GET /chat-stream?chatId= : resume the most recent stream
		gr.Get("/", func(w http.ResponseWriter, r *http.Request) {
			caller, ok := callerFromRequest(r)
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			chatID := r.URL.Query().Get("chatId")
			if chatID == "" {
				http.Error(w, "id is required", http.StatusBadRequest)
				return
			}
			events, err := ctrl.ResumeChat(r.Context(), caller, chatID)
			if err != nil {
				writeChatError(w, err)
				return
			}
			relaySSE(w, r, events)
		})

		// DELETE /chat-stream?id=
		gr.Delete("/", func(w http.ResponseWriter, r *http.Request) {
			caller, ok := callerFromRequest(r)
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			id := r.URL.Query().Get("id")
			if id == "" {
				http.Error(w, "id is required", http.StatusBadRequest)
				return
			}
			if err := ctrl.DeleteChat(r.Context(), caller, id); err != nil {
				if errors.Is(err, controllers.ErrForbidden) {
					http.Error(w, "Forbidden", http.StatusForbidden)
					return
				}
				http.Error(w, "An error occurred while processing your request", http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("Chat deleted"))
		})

		// GET /chat-stream/sessions : the caller's chats
		gr.Get("/sessions", func(w http.ResponseWriter, r *http.Request) {
			caller, ok := callerFromRequest(r)
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			chats, err := ctrl.ListChats(r.Context(), caller)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(chats)
		})

		// GET /chat-stream/{chat_id}/messages : transcript (owner or public)
		gr.Get("/{chat_id}/messages", func(w http.ResponseWriter, r *http.Request) {
			caller, ok := callerFromRequest(r)
			if !ok {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			chatID := chi.URLParam(r, "chat_id")
			msgs, err := ctrl.GetChatMessages(r.Context(), caller, chatID)
			if err != nil {
				writeChatError(w, err)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(msgs)
		})
	})

	// Websocket relay carrying the same event stream. The first frame holds
	// the token and the chat turn payload.
	r.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusInternalError, "internal error")

		ctx := r.Context()
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		if typ != websocket.MessageText {
			conn.Close(websocket.StatusUnsupportedData, "unsupported data")
			return
		}
		var input struct {
			Token   string          `json:"token"`
			Payload json.RawMessage `json:"payload"`
		}
		if err := json.Unmarshal(data, &input); err != nil {
			conn.Write(ctx, websocket.MessageText, []byte(`{"error":"invalid json"}`))
			return
		}

		userID, userType, err := middlewares.ParseToken(cfg, input.Token)
		if err != nil {
			conn.Write(ctx, websocket.MessageText, []byte(`{"error":"invalid token"}`))
			conn.Close(websocket.StatusPolicyViolation, "invalid token")
			return
		}
		caller := controllers.Caller{UserID: userID, UserType: userType}

		req, err := types.NormalizeChatStreamRequest(input.Payload)
		if err != nil {
			conn.Write(ctx, websocket.MessageText, []byte(`{"error":"invalid payload"}`))
			return
		}

		events, err := ctrl.StreamChat(ctx, caller, req)
		if err != nil {
			msg, _ := json.Marshal(map[string]string{"error": err.Error()})
			conn.Write(ctx, websocket.MessageText, msg)
			conn.Close(websocket.StatusInternalError, "stream error")
			return
		}

		for ev := range events {
			frame, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if err := conn.Write(ctx, websocket.MessageText, frame); err != nil {
				return
			}
		}
		conn.Close(websocket.StatusNormalClosure, "")
	})
	return r
}

func callerFromRequest(r *http.Request) (controllers.Caller, bool) {
	userID, ok := r.Context().Value(middlewares.UserIDKey).(string)
	if !ok || userID == "" {
		return controllers.Caller{}, false
	}
	userType, _ := r.Context().Value(middlewares.UserTypeKey).(string)
	return controllers.Caller{UserID: userID, UserType: userType}, true
}

// relaySSE streams events as server-sent data lines, closed by a [DONE]
// sentinel. Once this starts the headers are committed; adapter failures
// arrive as error events inside the stream, not as HTTP statuses.
func relaySSE(w http.ResponseWriter, r *http.Request, events <-chan llm.Event) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	flusher, canFlush := w.(http.Flusher)
	if canFlush {
		flusher.Flush()
	}
	for ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return
		}
		if canFlush {
			flusher.Flush()
		}
	}
	fmt.Fprint(w, "data: [DONE]\n\n")
	if canFlush {
		flusher.Flush()
	}
}

func writeJSONError(w http.ResponseWriter, status int, body map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeChatError(w http.ResponseWriter, err error) {
	var vErr *controllers.ValidationError
	switch {
	case errors.As(err, &vErr):
		writeJSONError(w, http.StatusBadRequest, map[string]any{
			"error":   "Validation failed",
			"details": vErr.Issues,
		})
	case errors.Is(err, controllers.ErrQuotaExceeded):
		http.Error(w, "You have exceeded your maximum number of messages for the day", http.StatusTooManyRequests)
	case errors.Is(err, controllers.ErrModelNotAllowed):
		http.Error(w, "This model is not available for your account", http.StatusForbidden)
	case errors.Is(err, controllers.ErrForbidden):
		http.Error(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, controllers.ErrNoStreams):
		http.Error(w, "No streams found", http.StatusNotFound)
	case errors.Is(err, controllers.ErrNoRecentStream):
		http.Error(w, "No recent stream found", http.StatusNotFound)
	case errors.Is(err, controllers.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	default:
		writeJSONError(w, http.StatusInternalServerError, map[string]any{
			"error":   "Internal Server Error",
			"message": err.Error(),
		})
	}
}

/*
 * This file is part of the Medical Assistant (https://github.com/Siddharthakhandelwal/MedicalAssistant).
 * Copyright (C) 2025 Siddhartha Khandelwal
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Siddharthakhandelwal/MedicalAssistant/internal/chat"
	"github.com/Siddharthakhandelwal/MedicalAssistant/internal/events"
	"github.com/Siddharthakhandelwal/MedicalAssistant/internal/llm"
	"github.com/Siddharthakhandelwal/MedicalAssistant/internal/logging"
	"github.com/Siddharthakhandelwal/MedicalAssistant/internal/security"
	"github.com/Siddharthakhandelwal/MedicalAssistant/internal/services"
	"github.com/Siddharthakhandelwal/MedicalAssistant/internal/storage"
)

// EventPublisher fans completed chat events out to interested
// subscribers. It is optional; a nil publisher disables fan-out.
type EventPublisher interface {
	PublishChatEvent(event *events.ChatEvent) error
}

// ChatHandler handles HTTP requests for the chat endpoint
type ChatHandler struct {
	orchestrator *chat.Orchestrator
	store        *storage.ChatEventsStore
	publisher    EventPublisher
}

// NewChatHandler creates a new chat handler. Store and publisher may be
// nil, in which case persistence and fan-out are skipped.
func NewChatHandler(orchestrator *chat.Orchestrator, store *storage.ChatEventsStore, publisher EventPublisher) *ChatHandler {
	return &ChatHandler{
		orchestrator: orchestrator,
		store:        store,
		publisher:    publisher,
	}
}

// ChatMessage is one prior conversation turn supplied by the client
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents the request for POST /api/chat
type ChatRequest struct {
	Message   string        `json:"message"`
	History   []ChatMessage `json:"history,omitempty"`
	SessionID string        `json:"session_id,omitempty"`
	ViaSpeech bool          `json:"via_speech,omitempty"`
}

// ChatResponse represents the response for POST /api/chat
type ChatResponse struct {
	Message   string            `json:"message"`
	Service   *services.Payload `json:"service,omitempty"`
	Intent    string            `json:"intent"`
	Query     string            `json:"query,omitempty"`
	Model     string            `json:"model,omitempty"`
	RequestID string            `json:"request_id"`
	SessionID string            `json:"session_id"`
}

// HandleChat handles POST /api/chat
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	if req.Message == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	} else if err := security.ValidateSessionID(sessionID); err != nil {
		http.Error(w, "invalid session_id", http.StatusBadRequest)
		return
	}

	requestID := uuid.NewString()
	event := events.NewChatEvent(sessionID, requestID, req.Message)
	event.ViaSpeech = req.ViaSpeech

	history := make([]llm.Message, 0, len(req.History))
	for _, m := range req.History {
		role := m.Role
		if role != llm.RoleAssistant {
			role = llm.RoleUser
		}
		history = append(history, llm.Message{Role: role, Content: m.Content})
	}

	response := h.orchestrator.Respond(r.Context(), req.Message, history)

	event.SetClassification(string(response.Intent.Type), response.Intent.Query)
	event.SetResponse(response.Message, response.Model)
	if response.Err != nil {
		// Fallback reply was served; the record still carries the failure
		event.SetError(response.Err)
	}
	if response.Service != nil {
		if err := event.SetService(string(response.Service.Type), response.Service.Data); err != nil {
			logging.LogWarn("Failed to serialize service payload",
				zap.String("request_id", requestID), zap.Error(err))
		}
	}

	h.recordEvent(event)

	logging.LogChatEvent(event, "Chat request completed",
		zap.String("intent", event.Intent),
		zap.String("model", event.Model))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ChatResponse{
		Message:   response.Message,
		Service:   response.Service,
		Intent:    string(response.Intent.Type),
		Query:     response.Intent.Query,
		Model:     response.Model,
		RequestID: requestID,
		SessionID: sessionID,
	})
}

// recordEvent persists and publishes the event. Failures are logged and
// never surfaced to the client; the reply has already been produced.
func (h *ChatHandler) recordEvent(event *events.ChatEvent) {
	if h.store != nil {
		if err := h.store.Insert(event); err != nil {
			logging.LogError(err, "Failed to store chat event",
				zap.String("uuid", event.UUID))
		}
	}

	if h.publisher != nil {
		if err := h.publisher.PublishChatEvent(event); err != nil {
			logging.LogError(err, "Failed to publish chat event",
				zap.String("uuid", event.UUID))
		}
	}
}

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
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Siddharthakhandelwal/MedicalAssistant/internal/events"
	"github.com/Siddharthakhandelwal/MedicalAssistant/internal/logging"
	"github.com/Siddharthakhandelwal/MedicalAssistant/internal/storage"
)

// ChatEventsHandler handles HTTP requests for stored chat events
type ChatEventsHandler struct {
	store *storage.ChatEventsStore
}

// NewChatEventsHandler creates a new chat events handler
func NewChatEventsHandler(store *storage.ChatEventsStore) *ChatEventsHandler {
	return &ChatEventsHandler{store: store}
}

// ListChatEventsResponse represents the response for listing chat events
type ListChatEventsResponse struct {
	Events     []*events.ChatEvent `json:"events"`
	Total      int64               `json:"total"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"page_size"`
	TotalPages int                 `json:"total_pages"`
}

// HandleChatEvents handles GET /api/chat-events
func (h *ChatEventsHandler) HandleChatEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	h.listChatEvents(w, r)
}

// HandleChatEventByID handles GET /api/chat-events/{id}
func (h *ChatEventsHandler) HandleChatEventByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	pathParts := strings.Split(strings.TrimPrefix(r.URL.Path, "/api/chat-events/"), "/")
	if len(pathParts) == 0 || pathParts[0] == "" {
		http.Error(w, "Event ID is required", http.StatusBadRequest)
		return
	}

	h.getChatEventByID(w, pathParts[0])
}

func (h *ChatEventsHandler) listChatEvents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page := parseIntParam(query.Get("page"), 1)
	pageSize := parseIntParam(query.Get("page_size"), 20)
	if pageSize > 100 {
		pageSize = 100 // Limit maximum page size
	}
	if pageSize < 1 {
		pageSize = 1
	}
	if page < 1 {
		page = 1
	}

	options := storage.ListOptions{
		SessionID: query.Get("session_id"),
		Intent:    query.Get("intent"),
		Limit:     pageSize,
		Offset:    (page - 1) * pageSize,
		SortBy:    query.Get("sort_by"),
		SortOrder: strings.ToUpper(query.Get("sort_order")),
	}

	if successStr := query.Get("success"); successStr != "" {
		if success, err := strconv.ParseBool(successStr); err == nil {
			options.Success = &success
		}
	}

	if startTimeStr := query.Get("start_time"); startTimeStr != "" {
		if startTime, err := time.Parse(time.RFC3339, startTimeStr); err == nil {
			options.StartTime = &startTime
		}
	}
	if endTimeStr := query.Get("end_time"); endTimeStr != "" {
		if endTime, err := time.Parse(time.RFC3339, endTimeStr); err == nil {
			options.EndTime = &endTime
		}
	}

	total, err := h.store.Count(options)
	if err != nil {
		logging.LogError(err, "Failed to count chat events")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	eventsList, err := h.store.List(options)
	if err != nil {
		logging.LogError(err, "Failed to list chat events")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	response := ListChatEventsResponse{
		Events:     eventsList,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}

	logging.Sugar.Infow("Chat events API request",
		"endpoint", "list",
		"page", page,
		"page_size", pageSize,
		"total_results", total,
		"filters", map[string]interface{}{
			"session_id": options.SessionID,
			"intent":     options.Intent,
			"success":    options.Success,
		},
	)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (h *ChatEventsHandler) getChatEventByID(w http.ResponseWriter, uuid string) {
	event, err := h.store.GetByUUID(uuid)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			http.Error(w, "Chat event not found", http.StatusNotFound)
			return
		}
		logging.LogError(err, "Failed to get chat event",
			zap.String("uuid", uuid),
		)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	logging.Sugar.Infow("Chat event retrieved via API",
		"event_uuid", uuid,
		"session_id", event.SessionID,
		"intent", event.Intent,
	)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(event)
}

// parseIntParam parses integer parameter with default value
func parseIntParam(param string, defaultValue int) int {
	if param == "" {
		return defaultValue
	}

	if value, err := strconv.Atoi(param); err == nil {
		return value
	}

	return defaultValue
}

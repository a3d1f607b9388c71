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

package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ChatEvent records one complete chat interaction with full
// traceability: what the user said, how it was classified, which model
// produced the reply and what service data accompanied it.
type ChatEvent struct {
	// Core identification
	UUID      string    `json:"uuid" db:"uuid"`
	RequestID string    `json:"request_id" db:"request_id"`
	SessionID string    `json:"session_id" db:"session_id"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`

	// Input
	UserMessage string `json:"user_message" db:"user_message"`
	ViaSpeech   bool   `json:"via_speech" db:"via_speech"`

	// Classification results
	Intent string `json:"intent" db:"intent"`
	Query  string `json:"query,omitempty" db:"query"`

	// Response data
	ResponseText   string `json:"response_text" db:"response_text"`
	ServiceType    string `json:"service_type,omitempty" db:"service_type"`
	ServiceData    string `json:"service_data,omitempty" db:"service_data"`
	Model          string `json:"model,omitempty" db:"model"`
	ProcessingTime int64  `json:"processing_time_ms" db:"processing_time_ms"`
	Success        bool   `json:"success" db:"success"`
	ErrorMessage   string `json:"error_message,omitempty" db:"error_message"`
}

// NewChatEvent creates a new ChatEvent with a generated UUID and the
// current timestamp
func NewChatEvent(sessionID, requestID, userMessage string) *ChatEvent {
	return &ChatEvent{
		UUID:        uuid.NewString(),
		RequestID:   requestID,
		SessionID:   sessionID,
		Timestamp:   time.Now(),
		UserMessage: userMessage,
		Success:     true,
	}
}

// GetUUID implements the identifier accessor used by logging helpers
func (ce *ChatEvent) GetUUID() string {
	return ce.UUID
}

// SetClassification records the intent result
func (ce *ChatEvent) SetClassification(intent, query string) {
	ce.Intent = intent
	ce.Query = query
}

// SetResponse records the reply and marks processing complete
func (ce *ChatEvent) SetResponse(responseText, model string) {
	ce.ResponseText = responseText
	ce.Model = model
	ce.ProcessingTime = time.Since(ce.Timestamp).Milliseconds()
}

// SetService serializes the service payload for storage
func (ce *ChatEvent) SetService(serviceType string, data interface{}) error {
	ce.ServiceType = serviceType

	if data == nil {
		ce.ServiceData = ""
		return nil
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal service data: %w", err)
	}
	ce.ServiceData = string(raw)
	return nil
}

// SetError marks the event as failed with an error message
func (ce *ChatEvent) SetError(err error) {
	ce.Success = false
	ce.ErrorMessage = err.Error()
	ce.ProcessingTime = time.Since(ce.Timestamp).Milliseconds()
}

// IsValid performs basic validation on the chat event
func (ce *ChatEvent) IsValid() error {
	if ce.UUID == "" {
		return fmt.Errorf("UUID is required")
	}

	if ce.SessionID == "" {
		return fmt.Errorf("sessionID is required")
	}

	if ce.RequestID == "" {
		return fmt.Errorf("requestID is required")
	}

	if ce.Timestamp.IsZero() {
		return fmt.Errorf("timestamp is required")
	}

	return nil
}

// String returns a human-readable representation of the chat event
func (ce *ChatEvent) String() string {
	return fmt.Sprintf("ChatEvent{UUID: %s, SessionID: %s, Intent: %s, Message: %q, Success: %t}",
		ce.UUID, ce.SessionID, ce.Intent, ce.UserMessage, ce.Success)
}

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

package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Siddharthakhandelwal/MedicalAssistant/internal/events"
	"github.com/Siddharthakhandelwal/MedicalAssistant/internal/logging"
)

// ChatEventsStore handles database operations for chat events
type ChatEventsStore struct {
	db *Database
}

// NewChatEventsStore creates a new chat events store
func NewChatEventsStore(db *Database) *ChatEventsStore {
	return &ChatEventsStore{db: db}
}

// Insert stores a new chat event in the database
func (s *ChatEventsStore) Insert(event *events.ChatEvent) error {
	if err := event.IsValid(); err != nil {
		return fmt.Errorf("invalid chat event: %w", err)
	}

	query := `
		INSERT INTO chat_events (
			uuid, request_id, session_id, timestamp,
			user_message, via_speech,
			intent, query,
			response_text, service_type, service_data, model,
			processing_time_ms, success, error_message
		) VALUES (
			?, ?, ?, ?,
			?, ?,
			?, ?,
			?, ?, ?, ?,
			?, ?, ?
		)`

	_, err := s.db.DB().Exec(query,
		event.UUID, event.RequestID, event.SessionID, event.Timestamp,
		event.UserMessage, event.ViaSpeech,
		event.Intent, event.Query,
		event.ResponseText, event.ServiceType, event.ServiceData, event.Model,
		event.ProcessingTime, event.Success, event.ErrorMessage,
	)

	if err != nil {
		return fmt.Errorf("failed to insert chat event: %w", err)
	}

	logging.LogDatabaseOperation("insert", "chat_events")
	return nil
}

// GetByUUID retrieves a chat event by its UUID
func (s *ChatEventsStore) GetByUUID(uuid string) (*events.ChatEvent, error) {
	query := selectColumns + ` FROM chat_events WHERE uuid = ?`

	row := s.db.DB().QueryRow(query, uuid)
	return s.scanChatEvent(row)
}

// List retrieves chat events with pagination and filtering
func (s *ChatEventsStore) List(options ListOptions) ([]*events.ChatEvent, error) {
	query, args := s.buildListQuery(options)

	rows, err := s.db.DB().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat events: %w", err)
	}
	defer rows.Close()

	var eventsList []*events.ChatEvent
	for rows.Next() {
		event, err := s.scanChatEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chat event: %w", err)
		}
		eventsList = append(eventsList, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chat events: %w", err)
	}

	return eventsList, nil
}

// Count returns the total number of chat events matching the filter
func (s *ChatEventsStore) Count(options ListOptions) (int64, error) {
	options.Limit = 0
	options.Offset = 0
	query, args := s.buildListQuery(options)

	countQuery := "SELECT COUNT(*) FROM (" + query + ") as filtered"

	var count int64
	err := s.db.DB().QueryRow(countQuery, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count chat events: %w", err)
	}

	return count, nil
}

// GetRecentBySession retrieves recent events for a specific session
func (s *ChatEventsStore) GetRecentBySession(sessionID string, limit int) ([]*events.ChatEvent, error) {
	options := ListOptions{
		SessionID: sessionID,
		Limit:     limit,
	}
	return s.List(options)
}

// Delete removes a chat event by UUID
func (s *ChatEventsStore) Delete(uuid string) error {
	result, err := s.db.DB().Exec("DELETE FROM chat_events WHERE uuid = ?", uuid)
	if err != nil {
		return fmt.Errorf("failed to delete chat event: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("chat event not found: %s", uuid)
	}

	logging.LogDatabaseOperation("delete", "chat_events")
	return nil
}

// ListOptions defines filtering and pagination options
type ListOptions struct {
	// Filtering
	SessionID string
	Intent    string
	Success   *bool // nil = all, true = success only, false = errors only
	StartTime *time.Time
	EndTime   *time.Time

	// Pagination
	Limit  int
	Offset int

	// Sorting
	SortBy    string // "timestamp", "processing_time_ms"
	SortOrder string // "ASC", "DESC"
}

const selectColumns = `
	SELECT uuid, request_id, session_id, timestamp,
		   user_message, via_speech,
		   intent, query,
		   response_text, service_type, service_data, model,
		   processing_time_ms, success, error_message`

// allowed sort columns; anything else falls back to timestamp
var sortColumns = map[string]bool{
	"timestamp":          true,
	"processing_time_ms": true,
}

// buildListQuery constructs the SQL query based on ListOptions
func (s *ChatEventsStore) buildListQuery(options ListOptions) (string, []interface{}) {
	query := selectColumns + ` FROM chat_events WHERE 1=1`

	var args []interface{}

	if options.SessionID != "" {
		query += " AND session_id = ?"
		args = append(args, options.SessionID)
	}

	if options.Intent != "" {
		query += " AND intent = ?"
		args = append(args, options.Intent)
	}

	if options.Success != nil {
		query += " AND success = ?"
		args = append(args, *options.Success)
	}

	if options.StartTime != nil {
		query += " AND timestamp >= ?"
		args = append(args, options.StartTime)
	}

	if options.EndTime != nil {
		query += " AND timestamp <= ?"
		args = append(args, options.EndTime)
	}

	sortBy := options.SortBy
	if !sortColumns[sortBy] {
		sortBy = "timestamp"
	}

	sortOrder := options.SortOrder
	if sortOrder != "ASC" {
		sortOrder = "DESC"
	}

	query += fmt.Sprintf(" ORDER BY %s %s", sortBy, sortOrder)

	if options.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, options.Limit)

		if options.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, options.Offset)
		}
	}

	return query, args
}

// scanChatEvent scans a database row into a ChatEvent struct
func (s *ChatEventsStore) scanChatEvent(scanner interface{}) (*events.ChatEvent, error) {
	var event events.ChatEvent

	var row interface {
		Scan(dest ...interface{}) error
	}

	switch v := scanner.(type) {
	case *sql.Row:
		row = v
	case *sql.Rows:
		row = v
	default:
		return nil, fmt.Errorf("unsupported scanner type")
	}

	err := row.Scan(
		&event.UUID, &event.RequestID, &event.SessionID, &event.Timestamp,
		&event.UserMessage, &event.ViaSpeech,
		&event.Intent, &event.Query,
		&event.ResponseText, &event.ServiceType, &event.ServiceData, &event.Model,
		&event.ProcessingTime, &event.Success, &event.ErrorMessage,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("chat event not found")
		}
		return nil, err
	}

	return &event, nil
}

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
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Siddharthakhandelwal/MedicalAssistant/internal/events"
	"github.com/Siddharthakhandelwal/MedicalAssistant/internal/logging"
)

func newTestStore(t *testing.T) *ChatEventsStore {
	t.Helper()

	if err := logging.Initialize(); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}
	t.Cleanup(logging.Close)

	db, err := NewDatabase(DatabaseConfig{
		Path: filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return NewChatEventsStore(db)
}

func sampleEvent(sessionID, requestID string) *events.ChatEvent {
	event := events.NewChatEvent(sessionID, requestID, "tell me about diabetes")
	event.SetClassification("search", "diabetes")
	event.SetResponse("Diabetes is a chronic condition.", "model-a")
	return event
}

func TestChatEventsStore_InsertAndGet(t *testing.T) {
	store := newTestStore(t)

	event := sampleEvent("session-1", "req-1")
	if err := store.Insert(event); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := store.GetByUUID(event.UUID)
	if err != nil {
		t.Fatalf("GetByUUID failed: %v", err)
	}

	if got.UUID != event.UUID {
		t.Errorf("Expected UUID %s, got %s", event.UUID, got.UUID)
	}
	if got.SessionID != "session-1" || got.RequestID != "req-1" {
		t.Errorf("Identifiers mismatch: session=%q request=%q", got.SessionID, got.RequestID)
	}
	if got.Intent != "search" || got.Query != "diabetes" {
		t.Errorf("Classification mismatch: intent=%q query=%q", got.Intent, got.Query)
	}
	if got.ResponseText != "Diabetes is a chronic condition." || got.Model != "model-a" {
		t.Errorf("Response mismatch: text=%q model=%q", got.ResponseText, got.Model)
	}
	if !got.Success {
		t.Error("Expected stored event marked successful")
	}
}

func TestChatEventsStore_InsertRejectsInvalid(t *testing.T) {
	store := newTestStore(t)

	event := sampleEvent("session-1", "req-1")
	event.UUID = ""

	if err := store.Insert(event); err == nil {
		t.Error("Expected insert of invalid event to fail")
	}
}

func TestChatEventsStore_GetByUUID_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetByUUID("missing")
	if err == nil {
		t.Fatal("Expected error for missing event")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("Expected not-found error, got: %v", err)
	}
}

func TestChatEventsStore_ListFilters(t *testing.T) {
	store := newTestStore(t)

	for i := 0; i < 3; i++ {
		if err := store.Insert(sampleEvent("session-a", fmt.Sprintf("req-a-%d", i))); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	failed := events.NewChatEvent("session-b", "req-b-0", "hello")
	failed.SetClassification("none", "")
	failed.SetError(fmt.Errorf("provider unavailable"))
	if err := store.Insert(failed); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	bySession, err := store.List(ListOptions{SessionID: "session-a"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(bySession) != 3 {
		t.Errorf("Expected 3 events for session-a, got %d", len(bySession))
	}

	byIntent, err := store.List(ListOptions{Intent: "none"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(byIntent) != 1 {
		t.Errorf("Expected 1 event with intent none, got %d", len(byIntent))
	}

	success := false
	failures, err := store.List(ListOptions{Success: &success})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(failures) != 1 || failures[0].UUID != failed.UUID {
		t.Errorf("Success filter returned wrong events: %d", len(failures))
	}
}

func TestChatEventsStore_ListPagination(t *testing.T) {
	store := newTestStore(t)

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		event := sampleEvent("session-a", fmt.Sprintf("req-%d", i))
		if err := store.Insert(event); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
	}

	total, err := store.Count(ListOptions{SessionID: "session-a"})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if total != 5 {
		t.Errorf("Expected count 5, got %d", total)
	}

	for offset := 0; offset < 5; offset += 2 {
		page, err := store.List(ListOptions{SessionID: "session-a", Limit: 2, Offset: offset})
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		for _, event := range page {
			if seen[event.UUID] {
				t.Errorf("Event %s returned on multiple pages", event.UUID)
			}
			seen[event.UUID] = true
		}
	}

	if len(seen) != 5 {
		t.Errorf("Pagination did not cover all events: saw %d", len(seen))
	}
}

func TestChatEventsStore_Delete(t *testing.T) {
	store := newTestStore(t)

	event := sampleEvent("session-1", "req-1")
	if err := store.Insert(event); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if err := store.Delete(event.UUID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	if _, err := store.GetByUUID(event.UUID); err == nil {
		t.Error("Expected deleted event to be gone")
	}

	if err := store.Delete(event.UUID); err == nil {
		t.Error("Expected delete of missing event to fail")
	}
}

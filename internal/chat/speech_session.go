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

package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Siddharthakhandelwal/MedicalAssistant/internal/llm"
	"github.com/Siddharthakhandelwal/MedicalAssistant/internal/logging"
	"github.com/Siddharthakhandelwal/MedicalAssistant/internal/speech"
)

// ErrNoSpeech is returned when a capture round finished without any
// finalized transcript to respond to.
var ErrNoSpeech = errors.New("no speech captured")

// ErrNoSpeechSupport is returned when the host has no recognition
// capability, so voice turns cannot be taken at all.
var ErrNoSpeechSupport = errors.New("speech recognition not supported")

// Responder is the orchestrator contract consumed by the speech session
type Responder interface {
	Respond(ctx context.Context, message string, history []llm.Message) *Response
}

// SpeechSession composes the capture engine's output into the
// orchestrator's input: Listen starts a capture round, Submit ends it
// and feeds the finalized transcript to Respond. The session keeps the
// conversation history across voice turns so follow-up questions carry
// context.
type SpeechSession struct {
	mu        sync.Mutex
	engine    *speech.Engine
	responder Responder
	history   []llm.Message
}

// NewSpeechSession creates a session over an existing capture engine
func NewSpeechSession(engine *speech.Engine, responder Responder) *SpeechSession {
	return &SpeechSession{
		engine:    engine,
		responder: responder,
	}
}

// Listen begins a capture round: the previous round's transcript is
// discarded and the engine starts listening.
func (s *SpeechSession) Listen() error {
	if !s.engine.HasSupport() {
		return ErrNoSpeechSupport
	}

	s.engine.Reset()
	s.engine.Start()
	return nil
}

// Submit ends the capture round and responds to what was said: it stops
// the engine, takes the finalized transcript as the user message, and
// runs it through the orchestrator with the session's accumulated
// history. An empty transcript returns ErrNoSpeech without a completion
// call.
func (s *SpeechSession) Submit(ctx context.Context) (*Response, error) {
	if !s.engine.HasSupport() {
		return nil, ErrNoSpeechSupport
	}

	s.engine.Stop()

	message := strings.TrimSpace(s.engine.Transcript())
	s.engine.Reset()

	if message == "" {
		return nil, ErrNoSpeech
	}

	logging.LogSpeechCapture("submit", zap.Int("transcript_len", len(message)))

	s.mu.Lock()
	history := append([]llm.Message(nil), s.history...)
	s.mu.Unlock()

	response := s.responder.Respond(ctx, message, history)

	s.mu.Lock()
	s.history = append(s.history,
		llm.Message{Role: llm.RoleUser, Content: message},
		llm.Message{Role: llm.RoleAssistant, Content: response.Message},
	)
	s.mu.Unlock()

	return response, nil
}

// Transcript returns the transcript finalized so far in the current round
func (s *SpeechSession) Transcript() string {
	return s.engine.Transcript()
}

// History returns a copy of the conversation so far
func (s *SpeechSession) History() []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]llm.Message(nil), s.history...)
}

// Clear drops the conversation history; the next Submit starts fresh
func (s *SpeechSession) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
}

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

package speech

import (
	"fmt"
	"strings"
	"sync"

	evbus "github.com/asaskevich/EventBus"
	"go.uber.org/zap"

	"github.com/Siddharthakhandelwal/MedicalAssistant/internal/logging"
)

// CaptureState is the engine's logical listening state. The host
// recognizer starting or stopping on its own never changes it; only
// engine operations and terminal events do.
type CaptureState int

const (
	// StateIdle - not listening, no restart pending.
	StateIdle CaptureState = iota
	// StateListening - caller wants capture; host end events trigger keep-alive.
	StateListening
	// StateStopping - caller requested stop, waiting for the host end event.
	StateStopping
)

// String returns the string representation of the state.
func (s CaptureState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateListening:
		return "LISTENING"
	case StateStopping:
		return "STOPPING"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// ErrorCode classifies recognition failures
type ErrorCode string

const (
	ErrorNetwork           ErrorCode = "network"
	ErrorNotAllowed        ErrorCode = "not_allowed"
	ErrorServiceNotAllowed ErrorCode = "service_not_allowed"
	ErrorOther             ErrorCode = "other"
)

// CaptureError is a recognition failure surfaced as a value. It is
// published on the event bus, never thrown across the callback boundary.
type CaptureError struct {
	Code         ErrorCode
	PlatformCode string
}

func (e CaptureError) Error() string {
	if e.Code == ErrorOther && e.PlatformCode != "" {
		return fmt.Sprintf("speech capture error: %s (%s)", e.Code, e.PlatformCode)
	}
	return fmt.Sprintf("speech capture error: %s", e.Code)
}

// mapPlatformError maps host error codes to capture error variants
func mapPlatformError(code string) CaptureError {
	switch code {
	case "network":
		return CaptureError{Code: ErrorNetwork, PlatformCode: code}
	case "not-allowed":
		return CaptureError{Code: ErrorNotAllowed, PlatformCode: code}
	case "service-not-allowed":
		return CaptureError{Code: ErrorServiceNotAllowed, PlatformCode: code}
	default:
		return CaptureError{Code: ErrorOther, PlatformCode: code}
	}
}

// Event bus topics published by the capture engine
const (
	TopicTranscript = "speech.capture.transcript"
	TopicState      = "speech.capture.state"
	TopicError      = "speech.capture.error"
)

// TranscriptUpdate is published on TopicTranscript after each committed segment
type TranscriptUpdate struct {
	Segment string
	Text    string
}

// Engine owns the host recognizer handle and implements the
// continuous-listening state machine: it keeps capture alive across
// the host platform's tendency to end sessions on its own, commits
// finalized segments to the transcript, and classifies failures.
//
// State transitions:
//
//	IDLE ── Start() ──→ LISTENING ── Stop() ──→ STOPPING ── end ──→ IDLE
//	                        │                                        ▲
//	                        ├── end (keep-alive) ──→ LISTENING       │
//	                        └── error ───────────────────────────────┘
type Engine struct {
	mu         sync.Mutex
	recognizer Recognizer
	hasSupport bool
	cfg        RecognizerConfig
	state      CaptureState
	transcript *Transcript
	bus        evbus.Bus
}

// NewEngine creates a capture engine. The factory is invoked exactly once;
// a nil recognizer means the host has no speech capability and every
// Start becomes a silent no-op.
func NewEngine(factory Factory, cfg RecognizerConfig, bus evbus.Bus) *Engine {
	recognizer := factory()

	e := &Engine{
		recognizer: recognizer,
		hasSupport: recognizer != nil,
		cfg:        cfg,
		state:      StateIdle,
		transcript: NewTranscript(),
		bus:        bus,
	}

	if e.hasSupport {
		recognizer.Configure(cfg)
		recognizer.SetHandlers(Handlers{
			OnResult: e.handleResult,
			OnEnd:    e.handleEnd,
			OnError:  e.handleError,
		})
	} else {
		logging.LogSpeechCapture("init", zap.Bool("has_support", false))
	}

	return e
}

// HasSupport reports whether the host provides speech recognition
func (e *Engine) HasSupport() bool {
	return e.hasSupport
}

// State returns the current logical state
func (e *Engine) State() CaptureState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Transcript returns the accumulated finalized transcript
func (e *Engine) Transcript() string {
	return e.transcript.Text()
}

// Start begins continuous capture. No-op when the host has no speech
// capability or when already listening.
func (e *Engine) Start() {
	if !e.hasSupport {
		return
	}

	e.mu.Lock()
	if e.state == StateListening {
		e.mu.Unlock()
		return
	}
	e.state = StateListening
	e.mu.Unlock()

	e.publishState(StateListening)

	if err := e.recognizer.Start(); err != nil {
		// Start during a not-yet-confirmed stop races the host; the
		// pending end event re-enters via keep-alive
		if strings.Contains(strings.ToLower(err.Error()), "already started") {
			return
		}

		e.mu.Lock()
		e.state = StateIdle
		e.mu.Unlock()

		logging.LogError(err, "Failed to start recognizer")
		e.publishState(StateIdle)
		e.publishError(CaptureError{Code: ErrorOther, PlatformCode: err.Error()})
		return
	}

	logging.LogSpeechCapture("start",
		zap.String("language", e.cfg.Language),
		zap.Bool("continuous", e.cfg.Continuous))
}

// Stop requests capture to end and suppresses keep-alive. Idempotent:
// stopping an already-idle engine is a no-op.
func (e *Engine) Stop() {
	if !e.hasSupport {
		return
	}

	e.mu.Lock()
	if e.state != StateListening {
		e.mu.Unlock()
		return
	}
	e.state = StateStopping
	e.mu.Unlock()

	e.publishState(StateStopping)
	logging.LogSpeechCapture("stop")

	// The host confirms with an end event, which completes the
	// STOPPING → IDLE transition in handleEnd.
	e.recognizer.Stop()
}

// Reset clears the accumulated transcript without touching listening state
func (e *Engine) Reset() {
	e.transcript.Reset()
}

// handleResult commits finalized segments from the event's new index
// range. Interim results are transient and never stored. The whole
// event is applied before control yields.
func (e *Engine) handleResult(ev ResultEvent) {
	var committed []TranscriptUpdate

	start := ev.ResultIndex
	if start < 0 {
		start = 0
	}

	e.mu.Lock()
	for i := start; i < len(ev.Results); i++ {
		result := ev.Results[i]
		if !result.IsFinal || len(result.Alternatives) == 0 {
			continue
		}

		segment := strings.TrimSpace(result.Alternatives[0].Transcript)
		if segment == "" {
			continue
		}

		e.transcript.Append(segment)
		committed = append(committed, TranscriptUpdate{
			Segment: segment,
			Text:    e.transcript.Text(),
		})
	}
	e.mu.Unlock()

	for _, update := range committed {
		e.bus.Publish(TopicTranscript, update)
	}
}

// handleEnd reacts to the host ending a session. While logically
// listening this is the keep-alive path: restart exactly once. After
// an explicit Stop it is the terminal transition to IDLE.
func (e *Engine) handleEnd() {
	e.mu.Lock()
	state := e.state
	e.mu.Unlock()

	switch state {
	case StateListening:
		err := e.recognizer.Start()
		if err == nil {
			logging.LogSpeechCapture("keepalive_restart")
			return
		}

		// Races with the host restarting on its own are harmless
		if strings.Contains(strings.ToLower(err.Error()), "already started") {
			return
		}

		e.mu.Lock()
		e.state = StateIdle
		e.mu.Unlock()

		logging.LogError(err, "Keep-alive restart failed")
		e.publishState(StateIdle)
		e.publishError(CaptureError{Code: ErrorOther, PlatformCode: err.Error()})

	case StateStopping:
		e.mu.Lock()
		e.state = StateIdle
		e.mu.Unlock()

		e.publishState(StateIdle)
		logging.LogSpeechCapture("stopped")

	default:
		// Already idle: end event after an error exit, nothing to do
	}
}

// handleError classifies the host failure, forces IDLE (which stops
// keep-alive), and surfaces the error as data. The caller decides
// whether to Start again.
func (e *Engine) handleError(code string) {
	captureErr := mapPlatformError(code)

	e.mu.Lock()
	e.state = StateIdle
	e.mu.Unlock()

	logging.LogWarn("Speech recognition error",
		zap.String("platform_code", code),
		zap.String("mapped", string(captureErr.Code)))

	e.publishState(StateIdle)
	e.publishError(captureErr)
}

func (e *Engine) publishState(state CaptureState) {
	e.bus.Publish(TopicState, state)
}

func (e *Engine) publishError(err CaptureError) {
	e.bus.Publish(TopicError, err)
}

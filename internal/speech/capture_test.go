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
	"errors"
	"testing"

	evbus "github.com/asaskevich/EventBus"

	"github.com/Siddharthakhandelwal/MedicalAssistant/internal/logging"
)

// fakeRecognizer emits scripted events so the state machine can be
// exercised without a host speech platform.
type fakeRecognizer struct {
	handlers   Handlers
	cfg        RecognizerConfig
	startCalls int
	stopCalls  int
	abortCalls int
	startErrs  []error // consumed front-to-back; nil slice means success
}

func (f *fakeRecognizer) Configure(cfg RecognizerConfig) { f.cfg = cfg }
func (f *fakeRecognizer) SetHandlers(h Handlers)         { f.handlers = h }

func (f *fakeRecognizer) Start() error {
	f.startCalls++
	if len(f.startErrs) > 0 {
		err := f.startErrs[0]
		f.startErrs = f.startErrs[1:]
		return err
	}
	return nil
}

func (f *fakeRecognizer) Stop()  { f.stopCalls++ }
func (f *fakeRecognizer) Abort() { f.abortCalls++ }

// emitResults delivers a result event whose new range starts at index
func (f *fakeRecognizer) emitResults(index int, results ...RecognitionResult) {
	f.handlers.OnResult(ResultEvent{ResultIndex: index, Results: results})
}

func (f *fakeRecognizer) emitEnd()             { f.handlers.OnEnd() }
func (f *fakeRecognizer) emitError(code string) { f.handlers.OnError(code) }

func finalResult(text string) RecognitionResult {
	return RecognitionResult{
		Alternatives: []Alternative{{Transcript: text, Confidence: 0.9}},
		IsFinal:      true,
	}
}

func interimResult(text string) RecognitionResult {
	return RecognitionResult{
		Alternatives: []Alternative{{Transcript: text, Confidence: 0.4}},
		IsFinal:      false,
	}
}

func newTestEngine(t *testing.T) (*Engine, *fakeRecognizer, evbus.Bus) {
	t.Helper()

	if err := logging.Initialize(); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}
	t.Cleanup(logging.Close)

	fake := &fakeRecognizer{}
	bus := evbus.New()
	engine := NewEngine(func() Recognizer { return fake }, RecognizerConfig{
		Continuous:     true,
		InterimResults: true,
		Language:       "en-US",
	}, bus)

	return engine, fake, bus
}

func TestEngine_TranscriptAccumulation(t *testing.T) {
	engine, fake, _ := newTestEngine(t)
	engine.Start()

	fake.emitResults(0, interimResult("hello"), finalResult("hello there"))
	// Host resends the cumulative list; indexes 0-1 were already delivered
	fake.emitResults(2, interimResult("hello"), finalResult("hello there"), finalResult("how are you"))

	want := "hello there how are you"
	if got := engine.Transcript(); got != want {
		t.Errorf("Transcript() = %q, want %q", got, want)
	}
}

func TestEngine_InterimResultsNeverCommitted(t *testing.T) {
	engine, fake, _ := newTestEngine(t)
	engine.Start()

	fake.emitResults(0, interimResult("hel"), interimResult("hello"))

	if got := engine.Transcript(); got != "" {
		t.Errorf("Transcript() = %q, want empty after interim-only run", got)
	}
}

func TestEngine_ResultIndexSkipsDeliveredResults(t *testing.T) {
	engine, fake, _ := newTestEngine(t)
	engine.Start()

	fake.emitResults(0, finalResult("first"))
	// Host resends the full result list; only index 1 onward is new
	fake.emitResults(1, finalResult("first"), finalResult("second"))

	want := "first second"
	if got := engine.Transcript(); got != want {
		t.Errorf("Transcript() = %q, want %q", got, want)
	}
}

func TestEngine_NegativeResultIndexTolerated(t *testing.T) {
	engine, fake, _ := newTestEngine(t)
	engine.Start()

	// A misbehaving host must not crash the engine; treat as index 0
	fake.emitResults(-3, finalResult("hello"))

	if got := engine.Transcript(); got != "hello" {
		t.Errorf("Transcript() = %q, want %q", got, "hello")
	}
}

func TestEngine_KeepAliveRestartsOnUnexpectedEnd(t *testing.T) {
	engine, fake, _ := newTestEngine(t)
	engine.Start()

	if fake.startCalls != 1 {
		t.Fatalf("startCalls = %d, want 1 after Start()", fake.startCalls)
	}

	// Host auto-terminates while we still want to listen
	fake.emitEnd()

	if fake.startCalls != 2 {
		t.Errorf("startCalls = %d, want 2 (exactly one keep-alive restart)", fake.startCalls)
	}
	if got := engine.State(); got != StateListening {
		t.Errorf("State() = %v, want %v", got, StateListening)
	}
}

func TestEngine_StopSuppressesKeepAlive(t *testing.T) {
	engine, fake, _ := newTestEngine(t)
	engine.Start()
	engine.Stop()

	if fake.stopCalls != 1 {
		t.Fatalf("stopCalls = %d, want 1", fake.stopCalls)
	}
	if got := engine.State(); got != StateStopping {
		t.Fatalf("State() = %v, want %v before host confirms", got, StateStopping)
	}

	fake.emitEnd()

	if fake.startCalls != 1 {
		t.Errorf("startCalls = %d, want 1 (no restart after explicit stop)", fake.startCalls)
	}
	if got := engine.State(); got != StateIdle {
		t.Errorf("State() = %v, want %v", got, StateIdle)
	}
}

func TestEngine_StopIsIdempotent(t *testing.T) {
	engine, fake, _ := newTestEngine(t)

	// Stopping an idle engine twice is a no-op
	engine.Stop()
	engine.Stop()

	if fake.stopCalls != 0 {
		t.Errorf("stopCalls = %d, want 0 on idle engine", fake.stopCalls)
	}
	if got := engine.State(); got != StateIdle {
		t.Errorf("State() = %v, want %v", got, StateIdle)
	}
}

func TestEngine_KeepAliveSwallowsAlreadyStarted(t *testing.T) {
	engine, fake, bus := newTestEngine(t)

	var captured []CaptureError
	if err := bus.Subscribe(TopicError, func(e CaptureError) {
		captured = append(captured, e)
	}); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	engine.Start()
	fake.startErrs = []error{errors.New("recognition has already started")}
	fake.emitEnd()

	if len(captured) != 0 {
		t.Errorf("captured %d errors, want 0 for already-started race", len(captured))
	}
	if got := engine.State(); got != StateListening {
		t.Errorf("State() = %v, want %v", got, StateListening)
	}
}

func TestEngine_KeepAliveRestartFailureSurfaced(t *testing.T) {
	engine, fake, bus := newTestEngine(t)

	var captured []CaptureError
	if err := bus.Subscribe(TopicError, func(e CaptureError) {
		captured = append(captured, e)
	}); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	engine.Start()
	fake.startErrs = []error{errors.New("audio device busy")}
	fake.emitEnd()

	if len(captured) != 1 {
		t.Fatalf("captured %d errors, want 1", len(captured))
	}
	if captured[0].Code != ErrorOther {
		t.Errorf("error code = %v, want %v", captured[0].Code, ErrorOther)
	}
	if got := engine.State(); got != StateIdle {
		t.Errorf("State() = %v, want %v", got, StateIdle)
	}
}

func TestEngine_ErrorMapping(t *testing.T) {
	tests := []struct {
		name         string
		platformCode string
		wantCode     ErrorCode
	}{
		{name: "network failure", platformCode: "network", wantCode: ErrorNetwork},
		{name: "microphone permission denied", platformCode: "not-allowed", wantCode: ErrorNotAllowed},
		{name: "service blocked", platformCode: "service-not-allowed", wantCode: ErrorServiceNotAllowed},
		{name: "unknown code", platformCode: "audio-capture", wantCode: ErrorOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, fake, bus := newTestEngine(t)

			var captured []CaptureError
			if err := bus.Subscribe(TopicError, func(e CaptureError) {
				captured = append(captured, e)
			}); err != nil {
				t.Fatalf("Subscribe() error = %v", err)
			}

			engine.Start()
			fake.emitError(tt.platformCode)

			if len(captured) != 1 {
				t.Fatalf("captured %d errors, want 1", len(captured))
			}
			if captured[0].Code != tt.wantCode {
				t.Errorf("error code = %v, want %v", captured[0].Code, tt.wantCode)
			}
			if captured[0].PlatformCode != tt.platformCode {
				t.Errorf("platform code = %q, want %q", captured[0].PlatformCode, tt.platformCode)
			}

			// Errors force IDLE, which also disables keep-alive
			if got := engine.State(); got != StateIdle {
				t.Fatalf("State() = %v, want %v", got, StateIdle)
			}
			fake.emitEnd()
			if fake.startCalls != 1 {
				t.Errorf("startCalls = %d, want 1 (no restart after error)", fake.startCalls)
			}
		})
	}
}

func TestEngine_TranscriptUpdatesPublished(t *testing.T) {
	engine, fake, bus := newTestEngine(t)

	var updates []TranscriptUpdate
	if err := bus.Subscribe(TopicTranscript, func(u TranscriptUpdate) {
		updates = append(updates, u)
	}); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	engine.Start()
	fake.emitResults(0, finalResult("take two"), finalResult("daily"))

	if len(updates) != 2 {
		t.Fatalf("received %d updates, want 2", len(updates))
	}
	if updates[0].Segment != "take two" || updates[0].Text != "take two" {
		t.Errorf("first update = %+v", updates[0])
	}
	if updates[1].Segment != "daily" || updates[1].Text != "take two daily" {
		t.Errorf("second update = %+v", updates[1])
	}
}

func TestEngine_ResetClearsTranscriptOnly(t *testing.T) {
	engine, fake, _ := newTestEngine(t)
	engine.Start()

	fake.emitResults(0, finalResult("hello"))
	engine.Reset()

	if got := engine.Transcript(); got != "" {
		t.Errorf("Transcript() = %q, want empty after Reset", got)
	}
	if got := engine.State(); got != StateListening {
		t.Errorf("State() = %v, want %v (Reset must not stop capture)", got, StateListening)
	}
}

func TestEngine_NoHostSupport(t *testing.T) {
	if err := logging.Initialize(); err != nil {
		t.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.Close()

	engine := NewEngine(func() Recognizer { return nil }, RecognizerConfig{
		Continuous: true,
		Language:   "en-US",
	}, evbus.New())

	if engine.HasSupport() {
		t.Error("HasSupport() = true, want false")
	}

	// Start and Stop are silent no-ops without a recognizer
	engine.Start()
	engine.Stop()

	if got := engine.State(); got != StateIdle {
		t.Errorf("State() = %v, want %v", got, StateIdle)
	}
}

func TestEngine_ConfiguresRecognizerOnce(t *testing.T) {
	engine, fake, _ := newTestEngine(t)
	engine.Start()

	if !fake.cfg.Continuous || !fake.cfg.InterimResults {
		t.Errorf("recognizer config = %+v, want continuous interim capture", fake.cfg)
	}
	if fake.cfg.Language != "en-US" {
		t.Errorf("language = %q, want %q", fake.cfg.Language, "en-US")
	}
}

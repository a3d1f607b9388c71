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

// RecognizerConfig mirrors the host speech platform's recognition options
type RecognizerConfig struct {
	Continuous     bool   `json:"continuous"`
	InterimResults bool   `json:"interim_results"`
	Language       string `json:"language"`
}

// Alternative is a single hypothesis for a recognized segment
type Alternative struct {
	Transcript string
	Confidence float64
}

// RecognitionResult is one recognized segment within a result event.
// Alternatives are ordered best-first.
type RecognitionResult struct {
	Alternatives []Alternative
	IsFinal      bool
}

// ResultEvent carries the recognizer's result list. ResultIndex marks
// the first result that is new in this event; earlier entries were
// already delivered.
type ResultEvent struct {
	ResultIndex int
	Results     []RecognitionResult
}

// Handlers are the callback slots a recognizer exposes
type Handlers struct {
	OnResult func(ResultEvent)
	OnEnd    func()
	OnError  func(code string)
}

// Recognizer abstracts the host-provided speech-recognition capability.
// The capture engine is its exclusive owner; no other component may
// drive it directly.
type Recognizer interface {
	Configure(cfg RecognizerConfig)
	SetHandlers(h Handlers)
	Start() error
	Stop()
	Abort()
}

// Factory produces the host recognizer, or nil when the host has no
// speech-recognition capability.
type Factory func() Recognizer

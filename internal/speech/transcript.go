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

import "sync"

// Transcript accumulates finalized speech-to-text output across one
// listening session. Only finalized segments are ever committed;
// interim segments never reach it. Append-only: earlier committed
// text is never corrected in place.
type Transcript struct {
	mu   sync.RWMutex
	text string
}

// NewTranscript creates an empty transcript accumulator
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Append commits a finalized segment, joined with a separating space
func (t *Transcript) Append(segment string) {
	if segment == "" {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.text == "" {
		t.text = segment
		return
	}
	t.text += " " + segment
}

// Text returns the accumulated transcript
func (t *Transcript) Text() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.text
}

// Reset clears the accumulated transcript
func (t *Transcript) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.text = ""
}

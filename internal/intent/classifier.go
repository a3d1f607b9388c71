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

package intent

import "strings"

// Type categorizes a user message into a service intent
type Type string

const (
	IntentNone        Type = "none"
	IntentAppointment Type = "appointment"
	IntentSearch      Type = "search"
	IntentVideo       Type = "video"
)

// Result is a per-message classification. It is derived fresh for every
// message and never persisted.
type Result struct {
	Type    Type
	Query   string
	RawText string
}

// NeedsQuery reports whether an intent type carries an extracted query
func (t Type) NeedsQuery() bool {
	return t == IntentSearch || t == IntentVideo
}

// rule is one keyword set tested by containment. Rules are evaluated in
// declaration order; the first match wins, so a message containing both
// appointment and search keywords resolves to appointment.
type rule struct {
	intentType Type
	keywords   []string
}

// Classifier maps raw message text to an intent and an extracted query.
// Classification is pure keyword containment; no state is kept between
// messages.
type Classifier struct {
	rules          []rule
	triggerPhrases []string
	stopWords      map[string]struct{}
}

// NewClassifier creates a classifier with the fixed keyword tables
func NewClassifier() *Classifier {
	c := &Classifier{
		// Priority order: appointment before search before video
		rules: []rule{
			{
				intentType: IntentAppointment,
				keywords: []string{
					"appointment", "schedule", "book a", "booking",
					"consultation", "see a doctor", "meet a doctor",
				},
			},
			{
				intentType: IntentSearch,
				keywords: []string{
					"search", "find", "look up", "tell me about",
					"what is", "what are", "information", "show me",
					"symptoms of", "treatment for",
				},
			},
			{
				intentType: IntentVideo,
				keywords: []string{
					"video", "watch", "youtube",
				},
			},
		},
		// Scanned in order; the query is the text after the first
		// phrase found
		triggerPhrases: []string{
			"search for",
			"find information about",
			"find information on",
			"tell me about",
			"look up",
			"what is",
			"what are",
			"video about",
			"video on",
			"watch a video about",
			"symptoms of",
			"treatment for",
		},
		stopWords: newStopWordSet(
			"i", "me", "my", "a", "an", "the", "please", "can", "you",
			"could", "would", "show", "find", "search", "tell", "give",
			"want", "need", "to", "for", "of", "on", "about", "some",
			"information", "info", "is", "are", "what", "video", "watch",
		),
	}

	return c
}

// Classify maps a message to an intent and, for query-bearing intents,
// the extracted query string
func (c *Classifier) Classify(message string) Result {
	result := Result{Type: IntentNone, RawText: message}

	lower := strings.ToLower(message)
	for _, r := range c.rules {
		if containsAny(lower, r.keywords) {
			result.Type = r.intentType
			break
		}
	}

	if result.Type.NeedsQuery() {
		result.Query = c.extractQuery(lower)
	}

	return result
}

// extractQuery pulls the subject out of a message. Trigger phrases are
// preferred; when none is present, stop-word removal keeps the remaining
// tokens in their original order.
func (c *Classifier) extractQuery(lower string) string {
	for _, phrase := range c.triggerPhrases {
		if idx := strings.Index(lower, phrase); idx >= 0 {
			return strings.TrimSpace(lower[idx+len(phrase):])
		}
	}

	var kept []string
	for _, token := range strings.Fields(lower) {
		token = strings.Trim(token, ".,!?;:")
		if token == "" {
			continue
		}
		if _, isStop := c.stopWords[token]; isStop {
			continue
		}
		kept = append(kept, token)
	}

	return strings.Join(kept, " ")
}

func containsAny(text string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			return true
		}
	}
	return false
}

func newStopWordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

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

	"go.uber.org/zap"

	"github.com/Siddharthakhandelwal/MedicalAssistant/internal/intent"
	"github.com/Siddharthakhandelwal/MedicalAssistant/internal/llm"
	"github.com/Siddharthakhandelwal/MedicalAssistant/internal/logging"
	"github.com/Siddharthakhandelwal/MedicalAssistant/internal/services"
)

// Default reply when every completion provider failed. The caller
// always receives a displayable response.
const fallbackReply = "I'm sorry, I'm having trouble responding right now. Please try again in a moment."

// Completer is the completion dispatcher contract consumed by the
// orchestrator.
type Completer interface {
	Complete(ctx context.Context, messages []llm.Message) (*llm.Completion, error)
}

// Response is the orchestrator's answer. Message is always non-empty;
// Service is nil when no intent matched or the dispatcher failed. Err
// carries the dispatcher failure behind a fallback reply so callers can
// record it; it never makes the response undisplayable.
type Response struct {
	Message string
	Service *services.Payload
	Intent  intent.Result
	Model   string
	Err     error
}

// Orchestrator composes the classifier, the completion dispatcher and
// the service synthesizer into a single respond call.
type Orchestrator struct {
	completer    Completer
	classifier   *intent.Classifier
	synthesizer  *services.Synthesizer
	systemPrompt string
}

// NewOrchestrator creates an orchestrator
func NewOrchestrator(completer Completer, systemPrompt string) *Orchestrator {
	return &Orchestrator{
		completer:    completer,
		classifier:   intent.NewClassifier(),
		synthesizer:  services.NewSynthesizer(),
		systemPrompt: systemPrompt,
	}
}

// Respond turns a user message plus caller-supplied history into a
// reply and optional service payload. It never propagates a dispatcher
// failure: exhaustion is replaced by a fixed apologetic reply with a
// nil service, so the caller always gets a well-formed response.
func (o *Orchestrator) Respond(ctx context.Context, message string, history []llm.Message) *Response {
	// Classification is local and has no data dependency on the
	// completion call
	classification := o.classifier.Classify(message)

	requestMessages := make([]llm.Message, 0, len(history)+2)
	requestMessages = append(requestMessages, llm.Message{Role: llm.RoleSystem, Content: o.systemPrompt})
	requestMessages = append(requestMessages, history...)
	requestMessages = append(requestMessages, llm.Message{Role: llm.RoleUser, Content: message})

	response := &Response{Intent: classification}

	completion, err := o.completer.Complete(ctx, requestMessages)
	if err != nil {
		logging.LogError(err, "Completion failed, serving fallback reply",
			zap.String("intent", string(classification.Type)))
		response.Message = fallbackReply
		response.Err = err
		return response
	}

	response.Message = completion.Text
	response.Model = completion.Model

	if o.shouldSynthesize(classification) {
		response.Service = o.synthesizer.Synthesize(classification.Type, classification.Query)
	}

	return response
}

// shouldSynthesize gates service synthesis: the intent must have
// matched, and query-bearing intents need a non-empty query
func (o *Orchestrator) shouldSynthesize(classification intent.Result) bool {
	if classification.Type == intent.IntentNone {
		return false
	}
	if classification.Type.NeedsQuery() && classification.Query == "" {
		return false
	}
	return true
}

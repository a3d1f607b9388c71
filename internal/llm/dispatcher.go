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

package llm

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/Siddharthakhandelwal/MedicalAssistant/internal/logging"
)

// ErrAllProvidersExhausted is returned when every candidate in the
// fallback chain failed for one completion call.
var ErrAllProvidersExhausted = errors.New("all completion providers exhausted")

// Message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat message. Immutable once created; a sequence of
// these forms the conversation history supplied by the caller.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ModelCandidate is one configured backend model, tried in priority
// order (lower priority value first). The list is static per deployment.
type ModelCandidate struct {
	ID       string
	Priority int
}

// Completion is a successful dispatcher result
type Completion struct {
	Text  string
	Model string
}

// Config holds dispatcher tuning
type Config struct {
	APIKey      string
	BaseURL     string
	Models      []string
	MaxTokens   int
	Temperature float32
	CallTimeout time.Duration
}

// Dispatcher tries an ordered list of model candidates against a single
// chat-completion request until one succeeds. This is a straight-line
// fallback chain: at most one attempt per candidate per call, strictly
// sequential, no backoff.
type Dispatcher struct {
	client      *openai.Client
	candidates  []ModelCandidate
	maxTokens   int
	temperature float32
	callTimeout time.Duration
}

// NewDispatcher creates a dispatcher from an ordered model list
func NewDispatcher(cfg Config) *Dispatcher {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	candidates := make([]ModelCandidate, len(cfg.Models))
	for i, model := range cfg.Models {
		candidates[i] = ModelCandidate{ID: model, Priority: i + 1}
	}

	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 500
	}
	callTimeout := cfg.CallTimeout
	if callTimeout <= 0 {
		callTimeout = 15 * time.Second
	}

	return &Dispatcher{
		client:      openai.NewClientWithConfig(clientConfig),
		candidates:  candidates,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
		callTimeout: callTimeout,
	}
}

// Candidates returns the fallback chain in the order it is tried
func (d *Dispatcher) Candidates() []ModelCandidate {
	ordered := make([]ModelCandidate, len(d.candidates))
	copy(ordered, d.candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})
	return ordered
}

// Complete issues the chat-completion request against each candidate in
// priority order. Per-candidate failures are logged and the chain
// advances; the first success wins. Candidate N+1 is never attempted
// before candidate N has resolved.
func (d *Dispatcher) Complete(ctx context.Context, messages []Message) (*Completion, error) {
	chatMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		chatMessages[i] = openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}

	for i, candidate := range d.Candidates() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		logging.LogProviderAttempt(candidate.ID, i+1)

		// Per-candidate deadline bounds worst-case latency of the chain
		attemptCtx, cancel := context.WithTimeout(ctx, d.callTimeout)
		resp, err := d.client.CreateChatCompletion(attemptCtx, openai.ChatCompletionRequest{
			Model:       candidate.ID,
			Messages:    chatMessages,
			MaxTokens:   d.maxTokens,
			Temperature: d.temperature,
		})
		cancel()

		if err != nil {
			logging.LogWarn("Completion provider failed, advancing fallback chain",
				zap.String("model", candidate.ID),
				zap.Int("position", i+1),
				zap.Error(err))
			continue
		}

		if len(resp.Choices) == 0 {
			logging.LogWarn("Completion provider returned no choices",
				zap.String("model", candidate.ID),
				zap.Int("position", i+1))
			continue
		}

		return &Completion{
			Text:  resp.Choices[0].Message.Content,
			Model: candidate.ID,
		}, nil
	}

	return nil, ErrAllProvidersExhausted
}

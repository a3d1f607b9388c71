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

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Siddharthakhandelwal/MedicalAssistant/internal/api"
	"github.com/Siddharthakhandelwal/MedicalAssistant/internal/chat"
	"github.com/Siddharthakhandelwal/MedicalAssistant/internal/config"
	"github.com/Siddharthakhandelwal/MedicalAssistant/internal/llm"
	"github.com/Siddharthakhandelwal/MedicalAssistant/internal/logging"
	"github.com/Siddharthakhandelwal/MedicalAssistant/internal/messaging"
	"github.com/Siddharthakhandelwal/MedicalAssistant/internal/speech"
	"github.com/Siddharthakhandelwal/MedicalAssistant/internal/storage"
)

// Server wires the chat pipeline behind an HTTP API: completion
// dispatcher, orchestrator, event store and NATS fan-out.
type Server struct {
	cfg    *config.Config
	mux    *http.ServeMux
	server *http.Server

	db           *storage.Database
	store        *storage.ChatEventsStore
	nats         *messaging.NATSService
	dispatcher   *llm.Dispatcher
	orchestrator *chat.Orchestrator

	chatHandler   *api.ChatHandler
	eventsHandler *api.ChatEventsHandler

	// Server context for graceful shutdown
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new server with persistence and NATS enabled
func New(cfg *config.Config) (*Server, error) {
	return NewWithOptions(cfg, true)
}

// NewWithOptions creates a new server. With enableMessaging false the
// NATS connection is skipped; events are still stored locally.
func NewWithOptions(cfg *config.Config, enableMessaging bool) (*Server, error) {
	mux := http.NewServeMux()

	ctx, cancel := context.WithCancel(context.Background())

	db, err := storage.NewDatabase(storage.DatabaseConfig{Path: cfg.Database.Path})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open chat event store: %w", err)
	}

	store := storage.NewChatEventsStore(db)

	dispatcher := llm.NewDispatcher(llm.Config{
		APIKey:      cfg.Providers.APIKey,
		BaseURL:     cfg.Providers.BaseURL,
		Models:      cfg.Providers.Models,
		MaxTokens:   cfg.Providers.MaxTokens,
		Temperature: cfg.Providers.Temperature,
		CallTimeout: cfg.Providers.CallTimeout,
	})

	orchestrator := chat.NewOrchestrator(dispatcher, cfg.Providers.SystemPrompt)

	s := &Server{
		cfg:          cfg,
		mux:          mux,
		db:           db,
		store:        store,
		dispatcher:   dispatcher,
		orchestrator: orchestrator,
		ctx:          ctx,
		cancel:       cancel,
	}

	var publisher api.EventPublisher
	if enableMessaging {
		s.nats = messaging.NewNATSService(cfg.NATS)
		if err := s.nats.Connect(); err != nil {
			// The assistant works without fan-out; keep serving locally
			logging.LogWarn("NATS unavailable, continuing without event fan-out")
			s.nats = nil
		} else {
			publisher = s.nats
		}
	}

	s.chatHandler = api.NewChatHandler(orchestrator, store, publisher)
	s.eventsHandler = api.NewChatEventsHandler(store)

	s.server = &http.Server{
		Addr:         cfg.Server.Host + ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      s.mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	s.routes()

	return s, nil
}

// Start starts the HTTP server
func (s *Server) Start() error {
	logging.Sugar.Infow("🚀 Medical Assistant starting",
		"http_addr", s.server.Addr,
		"models", s.cfg.Providers.Models,
		"db_path", s.db.GetPath())

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// Stop gracefully shuts down the server and its connections
func (s *Server) Stop() error {
	logging.Sugar.Infow("🛑 Shutting down Medical Assistant")

	s.cancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if s.nats != nil {
		s.nats.Close()
	}

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("database close failed: %w", err)
	}

	logging.Sugar.Infow("✅ Medical Assistant shut down successfully")
	return nil
}

// Handler exposes the route mux, used by tests
func (s *Server) Handler() http.Handler {
	return s.mux
}

// routes sets up HTTP routing
func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)

	s.mux.HandleFunc("/api/chat", s.chatHandler.HandleChat)
	s.mux.HandleFunc("/api/chat-events", s.eventsHandler.HandleChatEvents)
	s.mux.HandleFunc("/api/chat-events/", s.eventsHandler.HandleChatEventByID)
	s.mux.HandleFunc("/api/speech/config", s.handleSpeechConfig)

	logging.Sugar.Infow("🌐 HTTP routes configured",
		"chat_endpoint", "/api/chat",
		"events_endpoint", "/api/chat-events",
		"speech_config_endpoint", "/api/speech/config")
}

// handleSpeechConfig returns the capture settings clients should apply
// to their host recognizer, so every widget listens the same way.
func (s *Server) handleSpeechConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	speechCfg := speech.RecognizerConfig{
		Continuous:     s.cfg.Speech.Continuous,
		InterimResults: s.cfg.Speech.InterimResults,
		Language:       s.cfg.Speech.Language,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(speechCfg); err != nil {
		logging.Sugar.Errorw("Failed to write speech config response", "error", err)
	}
}

// handleHealth provides system health information
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbHealthy := s.db.Ping() == nil

	health := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now(),
		"database":  dbHealthy,
		"messaging": s.nats != nil && s.nats.IsConnected(),
		"models":    len(s.dispatcher.Candidates()),
	}

	if !dbHealthy {
		health["status"] = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(health); err != nil {
		logging.Sugar.Errorw("Failed to write health response", "error", err)
	}
}

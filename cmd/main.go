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

package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Siddharthakhandelwal/MedicalAssistant/internal/config"
	"github.com/Siddharthakhandelwal/MedicalAssistant/internal/logging"
	"github.com/Siddharthakhandelwal/MedicalAssistant/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logging
	if err := logging.InitializeWithConfig(logging.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.Close()

	srv, err := server.New(cfg)
	if err != nil {
		logging.LogError(err, "Failed to create server")
		log.Fatalf("Failed to create server: %v", err)
	}

	// Shut down cleanly on SIGINT/SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		if err := srv.Stop(); err != nil {
			logging.LogError(err, "Shutdown failed")
		}
	}()

	if err := srv.Start(); err != nil {
		logging.LogError(err, "Failed to start server")
		log.Fatalf("Failed to start server: %v", err)
	}
}

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

package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Providers.BaseURL != "https://api.groq.com/openai/v1" {
		t.Errorf("Unexpected default base URL: %s", cfg.Providers.BaseURL)
	}
	if len(cfg.Providers.Models) != 3 {
		t.Errorf("Expected 3 default models, got %d", len(cfg.Providers.Models))
	}
	if cfg.Providers.Models[0] != "llama-3.1-8b-instant" {
		t.Errorf("Unexpected first candidate: %s", cfg.Providers.Models[0])
	}
	if cfg.Providers.MaxTokens != 500 {
		t.Errorf("Expected default max tokens 500, got %d", cfg.Providers.MaxTokens)
	}
	if cfg.Providers.CallTimeout != 15*time.Second {
		t.Errorf("Expected default call timeout 15s, got %v", cfg.Providers.CallTimeout)
	}
	if !cfg.Speech.Continuous || !cfg.Speech.InterimResults {
		t.Error("Expected continuous capture with interim results by default")
	}
	if cfg.Speech.Language != "en-US" {
		t.Errorf("Expected default speech language en-US, got %s", cfg.Speech.Language)
	}
	if cfg.NATS.Subject != "assistant.chat.responses" {
		t.Errorf("Unexpected default NATS subject: %s", cfg.NATS.Subject)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ASSISTANT_PORT", "9090")
	t.Setenv("PROVIDER_MODELS", "model-a, model-b")
	t.Setenv("PROVIDER_MAX_TOKENS", "256")
	t.Setenv("PROVIDER_CALL_TIMEOUT", "5s")
	t.Setenv("SPEECH_CONTINUOUS", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if len(cfg.Providers.Models) != 2 || cfg.Providers.Models[0] != "model-a" || cfg.Providers.Models[1] != "model-b" {
		t.Errorf("Model list not parsed from env: %v", cfg.Providers.Models)
	}
	if cfg.Providers.MaxTokens != 256 {
		t.Errorf("Expected max tokens 256, got %d", cfg.Providers.MaxTokens)
	}
	if cfg.Providers.CallTimeout != 5*time.Second {
		t.Errorf("Expected call timeout 5s, got %v", cfg.Providers.CallTimeout)
	}
	if cfg.Speech.Continuous {
		t.Error("Expected continuous capture disabled")
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("ASSISTANT_PORT", "70000")

	if _, err := Load(); err == nil {
		t.Error("Expected error for out-of-range port")
	}
}

func TestLoad_EmptyModelListFallsBack(t *testing.T) {
	t.Setenv("PROVIDER_MODELS", " , ,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(cfg.Providers.Models) != 3 {
		t.Errorf("Expected fallback to default models, got %v", cfg.Providers.Models)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no models", func(c *Config) { c.Providers.Models = nil }},
		{"blank model", func(c *Config) { c.Providers.Models = []string{"model-a", " "} }},
		{"zero max tokens", func(c *Config) { c.Providers.MaxTokens = 0 }},
		{"zero call timeout", func(c *Config) { c.Providers.CallTimeout = 0 }},
		{"empty language", func(c *Config) { c.Speech.Language = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}

			tt.mutate(cfg)
			if err := cfg.validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

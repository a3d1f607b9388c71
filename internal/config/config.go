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
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the assistant hub
type Config struct {
	Server    ServerConfig
	Providers ProvidersConfig
	Speech    SpeechConfig
	Logging   LoggingConfig
	NATS      NATSConfig
	Database  DatabaseConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// ProvidersConfig holds completion provider configuration.
// Models are an ordered priority list: the dispatcher tries them
// front to back and the first success wins.
type ProvidersConfig struct {
	APIKey       string
	BaseURL      string
	Models       []string
	MaxTokens    int
	Temperature  float32
	CallTimeout  time.Duration
	SystemPrompt string
}

// SpeechConfig holds speech recognition configuration
type SpeechConfig struct {
	Language       string
	Continuous     bool
	InterimResults bool
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// NATSConfig holds NATS messaging configuration
type NATSConfig struct {
	URL           string
	Subject       string
	MaxReconnect  int
	ReconnectWait time.Duration
}

// DatabaseConfig holds chat event store configuration
type DatabaseConfig struct {
	Path string
}

const defaultSystemPrompt = "You are a helpful medical assistant. Answer briefly and suggest " +
	"consulting a healthcare professional for anything requiring diagnosis."

// Load loads configuration from environment variables with defaults.
// A .env file in the working directory is honored when present.
func Load() (*Config, error) {
	// Missing .env is the normal case in containers; env vars win either way
	_ = godotenv.Load()

	config := &Config{
		Server: ServerConfig{
			Host:         getEnvString("ASSISTANT_HOST", "0.0.0.0"),
			Port:         getEnvInt("ASSISTANT_PORT", 8080),
			ReadTimeout:  getEnvDuration("ASSISTANT_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvDuration("ASSISTANT_WRITE_TIMEOUT", 30*time.Second),
		},
		Providers: ProvidersConfig{
			APIKey:       getEnvString("PROVIDER_API_KEY", ""),
			BaseURL:      getEnvString("PROVIDER_BASE_URL", "https://api.groq.com/openai/v1"),
			Models:       getEnvStringSlice("PROVIDER_MODELS", defaultModels()),
			MaxTokens:    getEnvInt("PROVIDER_MAX_TOKENS", 500),
			Temperature:  getEnvFloat32("PROVIDER_TEMPERATURE", 0.7),
			CallTimeout:  getEnvDuration("PROVIDER_CALL_TIMEOUT", 15*time.Second),
			SystemPrompt: getEnvString("PROVIDER_SYSTEM_PROMPT", defaultSystemPrompt),
		},
		Speech: SpeechConfig{
			Language:       getEnvString("SPEECH_LANGUAGE", "en-US"),
			Continuous:     getEnvBool("SPEECH_CONTINUOUS", true),
			InterimResults: getEnvBool("SPEECH_INTERIM_RESULTS", true),
		},
		Logging: LoggingConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
		},
		NATS: NATSConfig{
			URL:           getEnvString("NATS_URL", "nats://localhost:4222"),
			Subject:       getEnvString("NATS_SUBJECT", "assistant.chat.responses"),
			MaxReconnect:  getEnvInt("NATS_MAX_RECONNECT", 10),
			ReconnectWait: getEnvDuration("NATS_RECONNECT_WAIT", 2*time.Second),
		},
		Database: DatabaseConfig{
			Path: getEnvString("DB_PATH", "./data/assistant.db"),
		},
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// defaultModels returns the default candidate order: a small fast model
// first, then two larger alternatives.
func defaultModels() []string {
	return []string{
		"llama-3.1-8b-instant",
		"llama-3.3-70b-versatile",
		"mixtral-8x7b-32768",
	}
}

// validate checks if the configuration is valid
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if len(c.Providers.Models) == 0 {
		return fmt.Errorf("at least one provider model must be configured")
	}

	for _, model := range c.Providers.Models {
		if strings.TrimSpace(model) == "" {
			return fmt.Errorf("provider model names must be non-empty")
		}
	}

	if c.Providers.MaxTokens <= 0 {
		return fmt.Errorf("provider max tokens must be positive: %d", c.Providers.MaxTokens)
	}

	if c.Providers.CallTimeout <= 0 {
		return fmt.Errorf("provider call timeout must be positive: %v", c.Providers.CallTimeout)
	}

	if c.Speech.Language == "" {
		return fmt.Errorf("speech language must be provided")
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatValue)
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}

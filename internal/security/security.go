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

// Package security provides input sanitization helpers for
// user-controlled data.
package security

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrInvalidSessionID is returned when a session ID format is invalid
	ErrInvalidSessionID = errors.New("invalid session ID")

	// sessionIDPattern validates session IDs to only allow safe characters
	sessionIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// SanitizeLogInput removes newline characters to prevent log injection attacks.
// This function should be used for all user-controlled data before logging.
func SanitizeLogInput(input string) string {
	sanitized := strings.ReplaceAll(input, "\n", "")
	sanitized = strings.ReplaceAll(sanitized, "\r", "")
	return sanitized
}

// ValidateSessionID ensures a caller-supplied session ID contains only
// alphanumeric ASCII characters, dashes, and underscores.
func ValidateSessionID(sessionID string) error {
	if sessionID == "" {
		return ErrInvalidSessionID
	}

	if !sessionIDPattern.MatchString(sessionID) {
		return ErrInvalidSessionID
	}

	return nil
}

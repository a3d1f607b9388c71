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

package messaging

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/Siddharthakhandelwal/MedicalAssistant/internal/config"
	"github.com/Siddharthakhandelwal/MedicalAssistant/internal/events"
	"github.com/Siddharthakhandelwal/MedicalAssistant/internal/logging"
)

// NATSService publishes chat events so other services (dashboards,
// notification relays) can react to assistant activity.
type NATSService struct {
	conn    *nats.Conn
	url     string
	subject string
	cfg     config.NATSConfig
}

// NewNATSService creates a new NATS service instance
func NewNATSService(cfg config.NATSConfig) *NATSService {
	subject := cfg.Subject
	if subject == "" {
		subject = "assistant.chat.responses"
	}

	return &NATSService{
		url:     cfg.URL,
		subject: subject,
		cfg:     cfg,
	}
}

// Connect establishes connection to NATS server
func (ns *NATSService) Connect() error {
	logging.LogNATSEvent(ns.subject, "connecting", zap.String("url", ns.url))

	// Connection options with retry logic
	opts := []nats.Option{
		nats.Name("medical-assistant"),
		nats.ReconnectWait(ns.cfg.ReconnectWait),
		nats.MaxReconnects(ns.cfg.MaxReconnect),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logging.LogWarn("⚠️  NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logging.LogNATSEvent(ns.subject, "reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logging.LogNATSEvent(ns.subject, "closed")
		}),
	}

	conn, err := nats.Connect(ns.url, opts...)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	ns.conn = conn
	logging.LogNATSEvent(ns.subject, "connected", zap.String("url", conn.ConnectedUrl()))
	return nil
}

// PublishChatEvent publishes a completed chat event
func (ns *NATSService) PublishChatEvent(event *events.ChatEvent) error {
	if ns.conn == nil {
		return fmt.Errorf("NATS connection not established")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal chat event: %w", err)
	}

	if err := ns.conn.Publish(ns.subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", ns.subject, err)
	}

	logging.LogNATSEvent(ns.subject, "published",
		zap.String("uuid", event.UUID),
		zap.String("intent", event.Intent))
	return nil
}

// SubscribeToChatEvents subscribes to published chat events
func (ns *NATSService) SubscribeToChatEvents(handler func(*events.ChatEvent)) (*nats.Subscription, error) {
	if ns.conn == nil {
		return nil, fmt.Errorf("NATS connection not established")
	}

	return ns.conn.Subscribe(ns.subject, func(msg *nats.Msg) {
		var event events.ChatEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			logging.LogError(err, "❌ Error unmarshaling chat event")
			return
		}

		logging.LogNATSEvent(ns.subject, "received", zap.String("uuid", event.UUID))
		handler(&event)
	})
}

// Close closes the NATS connection
func (ns *NATSService) Close() {
	if ns.conn != nil {
		ns.conn.Close()
		logging.LogNATSEvent(ns.subject, "closed")
	}
}

// IsConnected returns true if connected to NATS
func (ns *NATSService) IsConnected() bool {
	return ns.conn != nil && ns.conn.IsConnected()
}

// GetStats returns connection statistics
func (ns *NATSService) GetStats() nats.Statistics {
	if ns.conn != nil {
		return ns.conn.Stats()
	}
	return nats.Statistics{}
}

package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/courier/go/internal/delivery"
	"github.com/mcdev12/courier/go/internal/delivery/dashboard"
)

// Client command types.
const (
	CommandAccept    = "accept"
	CommandReject    = "reject"
	CommandSwitchTab = "switch_tab"
	CommandRefresh   = "refresh"
)

// ClientCommand is a message sent by a dashboard.
type ClientCommand struct {
	Type    string `json:"type"`
	OrderID string `json:"order_id,omitempty"`
	Tab     string `json:"tab,omitempty"`
}

// Commander executes driver commands and renders the dashboard.
type Commander interface {
	Accept(ctx context.Context, orderID string) error
	Reject(ctx context.Context, orderID string) error
	SwitchTab(ctx context.Context, tab delivery.Tab) error
	Refresh(ctx context.Context) error
	State() dashboard.State
}

func (s *Service) handleCommand(c *Connection, message []byte) {
	var cmd ClientCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.reply(c, CommandResult{Command: "invalid", Error: "malformed command"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.config.CommandTimeout)
	defer cancel()

	err := s.execute(ctx, cmd)
	result := CommandResult{Command: cmd.Type, OrderID: cmd.OrderID, OK: err == nil}
	if err != nil {
		result.Error = err.Error()
		log.Warn().
			Err(err).
			Str("connection_id", c.ID).
			Str("command", cmd.Type).
			Str("order_id", cmd.OrderID).
			Msg("dashboard command failed")
	}
	s.reply(c, result)

	// Every connection of this driver gets the new picture.
	if err == nil {
		s.broadcastState()
	}
}

func (s *Service) execute(ctx context.Context, cmd ClientCommand) error {
	switch cmd.Type {
	case CommandAccept, CommandReject:
		if cmd.OrderID == "" {
			return fmt.Errorf("%s: order_id is required", cmd.Type)
		}
		if cmd.Type == CommandAccept {
			return s.commander.Accept(ctx, cmd.OrderID)
		}
		return s.commander.Reject(ctx, cmd.OrderID)
	case CommandSwitchTab:
		return s.commander.SwitchTab(ctx, delivery.Tab(cmd.Tab))
	case CommandRefresh:
		return s.commander.Refresh(ctx)
	default:
		return fmt.Errorf("unknown command %q", cmd.Type)
	}
}

func (s *Service) reply(c *Connection, result CommandResult) {
	event, err := NewEvent(EventTypeCommandResult, result, time.Now())
	if err != nil {
		log.Error().Err(err).Msg("failed to build command result")
		return
	}
	s.connectionManager.SendTo(c, event)
}

// Package handlers connects Telnet sessions to the dice bot.
package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dicebot/internal/bot"
	"github.com/cory-johannsen/dicebot/internal/frontend/telnet"
)

const welcomeBanner = telnet.Bold + telnet.BrightCyan + `
  ___  _         ___      _
 |   \(_)__ ___ | _ ) ___| |_
 | |) | / _/ -_)| _ \/ _ \  _|
 |___/|_\__\___||___/\___/\__|` + telnet.Reset + `

` + telnet.BrightYellow + `  Roll with .r <expr>, e.g. .r 3d6+2 or .r b2 Spot Hidden` + telnet.Reset

// ChatHandler implements telnet.SessionHandler by registering each
// connection with the bot and feeding it input lines.
type ChatHandler struct {
	bot         *bot.Bot
	defaultChat string
	logger      *zap.Logger
}

// NewChatHandler creates a ChatHandler that places new sessions in defaultChat.
//
// Precondition: b and logger must be non-nil; defaultChat must be non-empty.
func NewChatHandler(b *bot.Bot, defaultChat string, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{bot: b, defaultChat: defaultChat, logger: logger}
}

// HandleSession shows the banner, registers the session and processes lines
// until the client quits, disconnects or ctx is cancelled.
//
// Postcondition: The session is removed from the bot's hub on return.
// Returns nil on a clean quit.
func (h *ChatHandler) HandleSession(ctx context.Context, conn *telnet.Conn) error {
	start := time.Now()
	addr := conn.RemoteAddr().String()

	if err := conn.WriteLine(welcomeBanner); err != nil {
		return fmt.Errorf("sending welcome: %w", err)
	}

	s := h.bot.Connect("", h.defaultChat, conn)
	defer h.bot.Disconnect(s.ID)

	for {
		if err := ctx.Err(); err != nil {
			_ = conn.WriteLine(telnet.Colorize(telnet.Yellow, "Server shutting down. Goodbye!"))
			return err
		}

		line, err := conn.ReadLine()
		if errors.Is(err, telnet.ErrLineTooLong) {
			_ = conn.WriteLine("Line too long, ignored.")
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("reading input: %w", err)
		}

		quit, err := h.bot.Handle(ctx, s.ID, line)
		if err != nil {
			return fmt.Errorf("handling input: %w", err)
		}
		if quit {
			h.logger.Info("client quit",
				zap.String("remote_addr", addr),
				zap.String("session", s.ID),
				zap.Duration("session_duration", time.Since(start)),
			)
			return nil
		}
	}
}

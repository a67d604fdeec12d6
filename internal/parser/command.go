package parser

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	commandDedupWindow  = 5 * time.Second
	commandDedupCleanup = 10 * time.Second
)

func isCommand(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), "/")
}

// handleCommand answers the small fixed command set with canned replies.
// Duplicate (sender, command) pairs inside the dedup window are swallowed
// as handled so redelivered updates don't double-reply.
func (in *Interpreter) handleCommand(ctx context.Context, text, senderID string) bool {
	cmd := strings.ToLower(strings.TrimSpace(text))

	key := senderID + "|" + cmd
	if _, dup := in.seenCommands.Get(key); dup {
		in.log.Info("ignoring duplicate command", "command", cmd, "sender", senderID)
		return true
	}
	in.seenCommands.SetDefault(key, time.Now())

	var reply string
	switch cmd {
	case "/start", "/help":
		reply = helpText
	case "/format":
		reply = formatText
	case "/status":
		reply = in.statusText()
	default:
		return false
	}

	if err := in.replier.Reply(ctx, senderID, reply); err != nil {
		in.log.Error(err, "command reply failed", "command", cmd, "sender", senderID)
		return true
	}
	if in.metrics != nil {
		in.metrics.RepliesSent.Inc()
	}
	in.log.Info("command reply sent", "command", cmd, "sender", senderID)
	return true
}

func (in *Interpreter) statusText() string {
	today := in.clock.TodayISO()
	line := today
	if d, err := time.Parse("2006-01-02", today); err == nil {
		line = fmt.Sprintf("%s (%s)", d.Format("02/01/2006"), d.Format("Monday"))
	}
	return fmt.Sprintf(`BOT STATUS

Status: ACTIVE
Today: %s
ISO date: %s
Time zone: UTC+5

Type /format for message templates or /help for commands.`, line, today)
}

const helpText = `HOSPITAL SCHEDULE BOT

I turn your schedule messages into the duty board.

Commands:
/format - message templates with examples
/status - current date and bot state
/help   - this menu

Send a duty or leave update any time. Always include the date.`

const formatText = `MESSAGE FORMAT GUIDE

Doctor duty schedule:

Date:
Name:
Starting time:
Room:
Total no of patients:
Before break OPD:
Before break patients:
Break:
After break OPD:
After break patients:

Example:
Date: 31/10/2025
Name: Dr. Moosa Manik
Starting time: 8:00
Room: 4
Total no of patients: 20
Before break OPD: 8:00 TO 11:00
Before break patients: 10
Break: 11:00-12:00
After break OPD: 12:00 TO 14:00
After break patients: 10

Leave / sick status:

Start date:
End date:
Name:
Leave type:
Reason:

Starting time accepts 15:00, 1500 or 15. Dates are mandatory.`

// Package command provides the text command interface shared by the
// dashboard and the HTTP API
package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/thereceipt/kantin-receipt/internal/printer"
	"github.com/thereceipt/kantin-receipt/internal/service"
)

// Executor executes commands
type Executor struct {
	manager *printer.Manager
	queue   *printer.PrintQueue
	service *service.Service
}

// NewExecutor creates a new command executor
func NewExecutor(manager *printer.Manager, queue *printer.PrintQueue, svc *service.Service) *Executor {
	return &Executor{
		manager: manager,
		queue:   queue,
		service: svc,
	}
}

// Result represents the result of executing a command
type Result struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   string                 `json:"error,omitempty"`
}

func failure(format string, args ...interface{}) *Result {
	return &Result{
		Success: false,
		Error:   fmt.Sprintf(format, args...),
	}
}

// Execute executes a command string and returns a result
func (e *Executor) Execute(ctx context.Context, cmdStr string) *Result {
	parts := parseCommand(cmdStr)
	if len(parts) == 0 {
		return failure("empty command")
	}

	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case "print":
		return e.handlePrint(ctx, args)
	case "render":
		return e.handleRender(ctx, args)
	case "report":
		return e.handleReport(ctx, args)
	case "printer":
		return e.handlePrinter(args)
	case "job":
		return e.handleJob(args)
	case "detect":
		return e.handleDetect(args)
	case "help":
		return e.handleHelp(args)
	default:
		return failure("unknown command: %s. Type 'help' for available commands", command)
	}
}

// parseCommand parses a command string into parts, handling quoted strings
func parseCommand(cmdStr string) []string {
	cmdStr = strings.TrimSpace(cmdStr)
	if cmdStr == "" {
		return []string{}
	}

	var parts []string
	var current strings.Builder
	inQuotes := false
	quoted := false
	quoteChar := byte(0)

	for i := 0; i < len(cmdStr); i++ {
		char := cmdStr[i]

		if char == '"' || char == '\'' {
			if !inQuotes {
				inQuotes = true
				quoted = true
				quoteChar = char
			} else if char == quoteChar {
				inQuotes = false
				quoteChar = 0
			} else {
				current.WriteByte(char)
			}
		} else if (char == ' ' || char == '\t') && !inQuotes {
			if current.Len() > 0 || quoted {
				parts = append(parts, current.String())
				current.Reset()
				quoted = false
			}
		} else {
			current.WriteByte(char)
		}
	}

	if current.Len() > 0 || quoted {
		parts = append(parts, current.String())
	}

	return parts
}

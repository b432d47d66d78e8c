package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// client talks to a running receipt server
type client struct {
	baseURL string
	token   string
	http    *http.Client
}

func newClient(baseURL, token string) *client {
	return &client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// do sends body as JSON and decodes a JSON response into out. Non-2xx
// responses are turned into errors using the server's "error" field.
func (c *client) do(method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s (HTTP %d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("server returned HTTP %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// CommandResult is a /command response. The server flattens result data
// into the top-level object, so everything else lands in Data.
type CommandResult struct {
	Success bool
	Message string
	Data    map[string]interface{}
	Error   string
}

func (c *client) command(command string) *CommandResult {
	var body map[string]interface{}
	if err := c.do(http.MethodPost, "/command", map[string]string{"command": command}, &body); err != nil {
		return &CommandResult{Success: false, Error: err.Error()}
	}

	result := &CommandResult{Success: true, Data: body}
	if msg, ok := body["message"].(string); ok {
		result.Message = msg
	}
	delete(body, "success")
	delete(body, "message")
	return result
}

// printResponse is returned by /print and /report/print
type printResponse struct {
	JobID string `json:"job_id"`
	Job   struct {
		PrinterID string `json:"printer_id"`
		Kind      string `json:"kind"`
		Columns   int    `json:"columns"`
		Recorded  bool   `json:"recorded"`
	} `json:"job"`
}

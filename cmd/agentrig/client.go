// Copyright 2026 The AgentRig Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ValyrianTech/AgentRig/cmd/agentrig/cli"
)

// client issues JSON requests against the avatar server and decodes
// the response body. Non-2xx responses become ExitError values so the
// server's validation message reaches the user verbatim.
type client struct {
	baseURL    string
	httpClient *http.Client
}

func newClient(baseURL string) *client {
	return &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *client) get(path string) (map[string]any, error) {
	return c.do(http.MethodGet, path, nil)
}

func (c *client) post(path string, payload any) (map[string]any, error) {
	return c.do(http.MethodPost, path, payload)
}

func (c *client) delete(path string) (map[string]any, error) {
	return c.do(http.MethodDelete, path, nil)
}

func (c *client) do(method, path string, payload any) (map[string]any, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("contacting avatar server: %w", err)
	}
	defer response.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(response.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("server returned %s with non-JSON body", response.Status)
	}

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		message, _ := decoded["message"].(string)
		if message == "" {
			message = response.Status
		}
		return nil, cli.Validation("%s", message)
	}
	return decoded, nil
}

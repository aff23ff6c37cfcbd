// Package client calls the pollhub registry HTTP API: the agent side (register, poll,
// send result) and the admin side (list clients, send command, read results).
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"pollhub/backend/app/dto"
	"pollhub/backend/app/models"
	"strings"
	"time"
)

// ErrRejected: the server answered with status "error".
var ErrRejected = errors.New("request rejected")

type Client struct {
	baseURL string
	client  *http.Client
}

func New(baseURL string) *Client {
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: 30 * time.Second})
}

func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), client: hc}
}

// Health returns the GET / banner.
func (c *Client) Health(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return "", err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API returned status %d", resp.StatusCode)
	}
	return string(body), nil
}

func (c *Client) Register(ctx context.Context, domain, clientID string, info map[string]any) error {
	var out dto.StatusResponse
	if err := c.post(ctx, "/api/register", dto.RegisterRequest{Domain: domain, ClientID: clientID, Info: info}, &out); err != nil {
		return err
	}
	return checkStatus(out)
}

// CheckCommands returns the command log; found is false when the server says "not_found".
func (c *Client) CheckCommands(ctx context.Context, domain, clientID string) ([]models.CommandEntry, bool, error) {
	var out dto.CheckCommandsResponse
	if err := c.get(ctx, "/api/check_commands/"+url.PathEscape(domain)+"/"+url.PathEscape(clientID), &out); err != nil {
		return nil, false, err
	}
	return out.Commands, out.Status == dto.StatusOnline, nil
}

func (c *Client) SendResult(ctx context.Context, domain, clientID, command, result string) error {
	var out dto.StatusResponse
	req := dto.SendResultRequest{Domain: domain, ClientID: clientID, Command: command, Result: result}
	if err := c.post(ctx, "/api/send_result", req, &out); err != nil {
		return err
	}
	return checkStatus(out)
}

func (c *Client) Clients(ctx context.Context, domain string) ([]models.ClientSummary, error) {
	var out dto.ClientsResponse
	if err := c.get(ctx, "/api/admin/clients/"+url.PathEscape(domain), &out); err != nil {
		return nil, err
	}
	return out.Clients, nil
}

func (c *Client) SendCommand(ctx context.Context, domain, clientID, command string) error {
	var out dto.StatusResponse
	req := dto.SendCommandRequest{Domain: domain, ClientID: clientID, Command: command}
	if err := c.post(ctx, "/api/admin/send_command", req, &out); err != nil {
		return err
	}
	return checkStatus(out)
}

func (c *Client) Results(ctx context.Context, domain, clientID string) ([]models.ResultEntry, error) {
	var out dto.ResultsResponse
	if err := c.get(ctx, "/api/admin/get_results/"+url.PathEscape(domain)+"/"+url.PathEscape(clientID), &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

func checkStatus(out dto.StatusResponse) error {
	if out.Status == dto.StatusSuccess {
		return nil
	}
	if out.Message != "" {
		return fmt.Errorf("%w: %s", ErrRejected, out.Message)
	}
	return ErrRejected
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var st dto.StatusResponse
		if json.NewDecoder(resp.Body).Decode(&st) == nil && st.Message != "" {
			return fmt.Errorf("API returned status %d: %s", resp.StatusCode, st.Message)
		}
		return fmt.Errorf("API returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

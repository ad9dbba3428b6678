// Package client is a typed HTTP client for the advisor API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/a-h/jsonapi"

	"agri-advisor-backend/internal/models"
	"agri-advisor-backend/internal/simulation"
)

func New(baseURL, token string) Client {
	return Client{
		baseURL: baseURL,
		token:   token,
	}
}

type Client struct {
	baseURL string
	token   string
}

func (c Client) authorization() string {
	if c.token == "" {
		return ""
	}
	return "Bearer " + c.token
}

// Chat sends one question with the caller-held history.
func (c Client) Chat(ctx context.Context, req models.ChatRequest) (resp models.ChatResponse, err error) {
	url, err := jsonapi.URL(c.baseURL).Path("api", "chat").String()
	if err != nil {
		return resp, err
	}
	err = c.do(ctx, http.MethodPost, url, req, &resp)
	return resp, err
}

func (c Client) QuickReplies(ctx context.Context) ([]simulation.QuickReply, error) {
	url, err := jsonapi.URL(c.baseURL).Path("api", "chat", "quick-replies").String()
	if err != nil {
		return nil, err
	}
	var body struct {
		QuickReplies []simulation.QuickReply `json:"quickReplies"`
	}
	if err := c.do(ctx, http.MethodGet, url, nil, &body); err != nil {
		return nil, err
	}
	return body.QuickReplies, nil
}

func (c Client) Health(ctx context.Context) error {
	url, err := jsonapi.URL(c.baseURL).Path("health").String()
	if err != nil {
		return err
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, url, nil, &body); err != nil {
		return err
	}
	if body.Status != "ok" {
		return fmt.Errorf("server reported status %q", body.Status)
	}
	return nil
}

// do sends req as JSON when non-nil and decodes a 2xx answer into dst.
func (c Client) do(ctx context.Context, method, url string, req, dst any) error {
	var body io.Reader
	if req != nil {
		buf, err := json.Marshal(req)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(buf)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if req != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	res, err := jsonapi.Raw(httpReq, jsonapi.WithRequestHeader("Authorization", c.authorization()))
	if err != nil {
		return fmt.Errorf("failed to perform HTTP request: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		body, _ := io.ReadAll(res.Body)
		return apiError(jsonapi.InvalidStatusError{
			Status: res.StatusCode,
			Body:   string(body),
		})
	}
	if err := json.NewDecoder(res.Body).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Error is a non-2xx answer from the server.
type Error struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// apiError unpacks the server's {"error": ...} body when there is one.
func apiError(err error) error {
	var ise jsonapi.InvalidStatusError
	if !errors.As(err, &ise) {
		var pise *jsonapi.InvalidStatusError
		if !errors.As(err, &pise) || pise == nil {
			return err
		}
		ise = *pise
	}
	var body models.ErrorResponse
	if jsonErr := json.Unmarshal([]byte(ise.Body), &body); jsonErr != nil || body.Error == "" {
		return &Error{Status: ise.Status, Message: http.StatusText(ise.Status)}
	}
	return &Error{Status: ise.Status, Message: body.Error, Fields: body.Fields}
}

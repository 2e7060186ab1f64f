// Package client is a Go client for the interaction log HTTP API.
package client

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"hcplog/models"
)

// ErrNotFound is returned when the server answers 404.
var ErrNotFound = errors.New("interaction not found")

type apiError struct {
	Error string `json:"error"`
}

type Client struct {
	http *resty.Client
}

// New returns a client for the server at baseURL, e.g. http://localhost:8080.
func New(baseURL string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(30 * time.Second).
			SetHeader("Content-Type", "application/json"),
	}
}

func (c *Client) LogInteraction(ctx context.Context, in models.InteractionInput) (*models.Interaction, error) {
	var out models.Interaction
	if err := c.do(ctx, http.MethodPost, "/log_interaction", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ChatLog(ctx context.Context, text string) (*models.Interaction, error) {
	var out models.Interaction
	if err := c.do(ctx, http.MethodPost, "/chat_log", models.ChatInput{Text: text}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) List(ctx context.Context) ([]models.Interaction, error) {
	var out []models.Interaction
	if err := c.do(ctx, http.MethodGet, "/interactions", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Get(ctx context.Context, id int64) (*models.Interaction, error) {
	var out models.Interaction
	if err := c.do(ctx, http.MethodGet, interactionPath(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Update(ctx context.Context, id int64, in models.InteractionInput) (*models.Interaction, error) {
	var out models.Interaction
	if err := c.do(ctx, http.MethodPut, interactionPath(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, interactionPath(id), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var apiErr apiError
	req := c.http.R().SetContext(ctx).SetError(&apiErr)
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.IsError() {
		msg := apiErr.Error
		if msg == "" {
			msg = resp.Status()
		}
		return errors.Errorf("%s %s: %d: %s", method, path, resp.StatusCode(), msg)
	}
	return nil
}

func interactionPath(id int64) string {
	return "/interactions/" + strconv.FormatInt(id, 10)
}

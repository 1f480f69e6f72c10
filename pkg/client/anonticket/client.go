package anonticket

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/anonticket/anonticket/api"
)

// Client talks to the moderation API. Used by the cli tool.
type Client struct {
	client *resty.Client
	token  string
}

func NewClient(endpoint, token string) (*Client, error) {
	client := resty.New().
		SetBaseURL(endpoint).
		SetTimeout(time.Second * 10).
		SetRetryCount(3)

	client.Header.Add("Token", token)

	return &Client{client, token}, nil
}

func (c *Client) LoadPending() (*api.PendingResponse, error) {
	res := &api.PendingResponse{}
	_, err := c.client.R().
		SetResult(res).
		Get("/api/pending")
	if err != nil {
		return nil, err
	}

	if !res.Ok {
		return nil, fmt.Errorf("failed to fetch pending records: %s", res.Error)
	}

	return res, nil
}

func (c *Client) Review(kind string, id uint, verdict, note string) error {
	res := &api.ReviewResponse{}
	_, err := c.client.R().
		SetResult(res).
		SetBody(api.ReviewRequest{
			Kind:    kind,
			ID:      id,
			Verdict: verdict,
			Note:    note,
		}).
		Post("/api/review")
	if err != nil {
		return err
	}

	if !res.Ok {
		return fmt.Errorf("failed to review %s %d: %s", kind, id, res.Error)
	}

	return nil
}

func (c *Client) Health() (*api.HealthResponse, error) {
	res := &api.HealthResponse{}
	_, err := c.client.R().
		SetResult(res).
		Get("/api/health")
	if err != nil {
		return nil, err
	}

	if !res.Ok {
		return nil, fmt.Errorf("failed to fetch health: %s", res.Error)
	}

	return res, nil
}

package data

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"biolinkbot/internal/conf"
	"biolinkbot/internal/pkg/sched"

	"github.com/go-kratos/kratos/v2/log"
)

const defaultPlatformTimeout = 10 * time.Second

// PlatformClient calls the chat platform's message-deletion API.
type PlatformClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        *log.Helper
}

// NewPlatformClient creates a new platform deletion client.
func NewPlatformClient(c *conf.Moderation, logger log.Logger) *PlatformClient {
	timeout := defaultPlatformTimeout
	if c.Platform.TimeoutSeconds > 0 {
		timeout = time.Duration(c.Platform.TimeoutSeconds) * time.Second
	}
	return &PlatformClient{
		baseURL: c.Platform.BaseURL,
		token:   c.Platform.Token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log.NewHelper(logger),
	}
}

type deleteMessageRequest struct {
	ChatID    int64 `json:"chat_id"`
	MessageID int   `json:"message_id"`
}

type deleteMessageResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// Delete removes one message. It implements sched.Deleter and is also
// called directly for immediate deletions.
func (c *PlatformClient) Delete(ctx context.Context, chatID int64, messageID int) error {
	payload, err := json.Marshal(deleteMessageRequest{ChatID: chatID, MessageID: messageID})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/deleteMessage", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("delete returned status %d", resp.StatusCode)
	}

	var result deleteMessageResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if !result.OK {
		return fmt.Errorf("platform refused deletion: %s", result.Description)
	}
	return nil
}

// NewDeletionScheduler creates the shared deletion scheduler backed by
// the platform client.
func NewDeletionScheduler(client *PlatformClient, c *conf.Moderation, logger log.Logger) (*sched.Scheduler, func()) {
	timeout := defaultPlatformTimeout
	if c.Platform.TimeoutSeconds > 0 {
		timeout = time.Duration(c.Platform.TimeoutSeconds) * time.Second
	}
	s := sched.New(client, timeout, logger)
	cleanup := func() {
		s.Stop()
	}
	return s, cleanup
}

package api

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/questloop/livesync/internal/model"
)

// notificationsResponse wraps the notification list endpoint payload.
type notificationsResponse struct {
	Notifications []model.Notification `json:"notifications"`
}

// FetchNotifications returns the full notification list for the
// authenticated identity, newest first. Used for the initial store load.
func (c *Client) FetchNotifications(ctx context.Context) ([]model.Notification, error) {
	var resp notificationsResponse
	if err := c.get(ctx, "/api/notifications", nil, &resp); err != nil {
		return nil, fmt.Errorf("fetch notifications: %w", err)
	}
	return resp.Notifications, nil
}

// AcknowledgeRead tells the server a notification was read. Best effort:
// no retries, the caller decides what a failure means.
func (c *Client) AcknowledgeRead(ctx context.Context, id uuid.UUID) error {
	if err := c.post(ctx, "/api/notifications/"+id.String()+"/read"); err != nil {
		return fmt.Errorf("acknowledge read: %w", err)
	}
	return nil
}

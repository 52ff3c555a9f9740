package api

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/questloop/livesync/internal/model"
)

// FetchSocialSnapshot returns the aggregate social counts for one goal.
// The polling reconciler calls this on every tick, so there are no HTTP
// retries here: a failed fetch surfaces immediately and the next tick is
// the retry.
func (c *Client) FetchSocialSnapshot(ctx context.Context, goalID uuid.UUID) (model.SocialSnapshot, error) {
	var snap model.SocialSnapshot
	if err := c.getOnce(ctx, "/api/goals/"+goalID.String()+"/social", nil, &snap); err != nil {
		return model.SocialSnapshot{}, fmt.Errorf("fetch social snapshot: %w", err)
	}
	return snap, nil
}

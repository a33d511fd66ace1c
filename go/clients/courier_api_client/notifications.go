package courier_api_client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/mcdev12/courier/go/internal/models"
)

func (c *CourierApiClient) PostNotification(ctx context.Context, n models.DriverNotification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	if _, err := c.Post(ctx, DriverNotificationsEndpoint, bytes.NewReader(payload)); err != nil {
		return fmt.Errorf("failed to create driver notification: %w", err)
	}
	return nil
}

package courier_api_client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mcdev12/courier/go/clients"
	"github.com/mcdev12/courier/go/internal/delivery"
	"github.com/mcdev12/courier/go/internal/models"
)

type OrdersResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Orders  []models.Order `json:"orders"`
}

type StatusUpdateRequest struct {
	Status models.OrderStatus `json:"status"`
}

type StatusUpdateResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// FetchOrders lists the driver's orders filtered by a coarse type hint.
// A 404 is reported as delivery.ErrNotFound.
func (c *CourierApiClient) FetchOrders(ctx context.Context, hint models.Bucket) ([]models.Order, error) {
	endpoint := fmt.Sprintf("%s?type=%s", DriverOrdersEndpoint, url.QueryEscape(string(hint)))
	body, err := c.Get(ctx, endpoint)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("fetch %s orders: %w", hint, delivery.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get %s orders: %w", hint, err)
	}

	var response OrdersResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w, raw response: %s", err, string(body))
	}
	if !response.Success {
		return nil, fmt.Errorf("API rejected %s orders request: %s", hint, response.Message)
	}

	return response.Orders, nil
}

// SetOrderStatus moves an order to status on the server.
func (c *CourierApiClient) SetOrderStatus(ctx context.Context, orderID string, status models.OrderStatus) error {
	payload, err := json.Marshal(StatusUpdateRequest{Status: status})
	if err != nil {
		return fmt.Errorf("failed to marshal status update: %w", err)
	}

	endpoint := fmt.Sprintf(OrderStatusEndpoint, url.PathEscape(orderID))
	body, err := c.Put(ctx, endpoint, bytes.NewReader(payload))
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("update order %s: %w", orderID, delivery.ErrNotFound)
		}
		return fmt.Errorf("failed to update order %s to %s: %w", orderID, status, err)
	}

	var response StatusUpdateResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w, raw response: %s", err, string(body))
	}
	if !response.Success {
		return fmt.Errorf("API rejected status %s for order %s: %s", status, orderID, response.Message)
	}
	return nil
}

func isNotFound(err error) bool {
	var statusErr *clients.StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound
}

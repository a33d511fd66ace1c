package courier_api_client

import (
	"strings"

	"github.com/mcdev12/courier/go/clients"
)

// CourierApiClient talks to the dispatch REST API on behalf of one driver.
type CourierApiClient struct {
	*clients.BaseClient
}

func NewCourierApiClient(baseURL, token string) *CourierApiClient {
	client := &CourierApiClient{
		BaseClient: clients.NewBaseClient(strings.TrimRight(baseURL, "/")),
	}

	client.SetHeader("Accept", "application/json")
	if token != "" {
		client.SetHeader(AuthorizationHeader, BearerPrefix+token)
	}

	return client
}

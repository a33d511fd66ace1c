package courier_api_client

const (
	// API Endpoints
	DriverOrdersEndpoint        = "/driver/orders"
	OrderStatusEndpoint         = "/orders/%s/status"
	DriverNotificationsEndpoint = "/driver/notifications"

	// Headers
	AuthorizationHeader = "Authorization"
	BearerPrefix        = "Bearer "
)

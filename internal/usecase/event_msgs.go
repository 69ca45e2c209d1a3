package usecase

// Published on storefront.events for downstream fulfillment/notification.
type OrderCreatedMsg struct {
	OrderID    string `json:"orderId"`
	UserID     string `json:"userId"`
	TotalCents int64  `json:"totalCents"`
	Currency   string `json:"currency"`
}

type OrderSettledMsg struct {
	OrderID        string `json:"orderId"`
	UserID         string `json:"userId"`
	State          string `json:"state"` // PAID | PAYMENT_FAILED
	TransactionRef string `json:"transactionRef,omitempty"`
}

// Delivered by the gateway over Kafka as an alternative to the HTTP webhook.
// Payload/Tag mirror the webhook contract: the tag is computed over the raw
// payload bytes, carried here base64-encoded.
type GatewayCallbackMsg struct {
	OrderID    string `json:"orderId"`
	PayloadB64 string `json:"payload"`
	TagB64     string `json:"tag"`
}

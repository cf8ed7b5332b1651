package usecase

// Published to RabbitMQ when an order is created; the notification dispatcher
// consumes it and triggers email/chat delivery.
type CreatedMsg struct {
	OrderID       string `json:"orderId"`
	CustomerEmail string `json:"customerEmail"`
	ServiceType   string `json:"serviceType"`
	TotalCents    int64  `json:"totalCents"`
	Currency      string `json:"currency"`
}

// Published to RabbitMQ on every status transition.
type StatusChangedMsg struct {
	OrderID       string `json:"orderId"`
	CustomerEmail string `json:"customerEmail"`
	OldStatus     string `json:"oldStatus"`
	NewStatus     string `json:"newStatus"`
}

// Sent by the fulfillment pipeline on Kafka; the authoritative source for
// order progress.
type StageChangedMsg struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"` // e.g. "DRAFTING", "COMPLETED"
	Note    string `json:"note,omitempty"`
}

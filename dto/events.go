package dto

type ReportDelivered struct {
	RecipientID string `json:"recipientId"`
	ReportDate  string `json:"reportDate"`
	Channel     string `json:"channel"`
	DeliveredAt string `json:"deliveredAt"`
}

type ReportFailed struct {
	RecipientID string `json:"recipientId"`
	ReportDate  string `json:"reportDate"`
	Stage       string `json:"stage"`
	Error       string `json:"error"`
	FailedAt    string `json:"failedAt"`
}

// Event is the envelope published to RabbitMQ.
type Event struct {
	ID        string      `json:"id"`
	EventType string      `json:"eventType"`
	Timestamp string      `json:"timestamp"`
	Data      interface{} `json:"data"`
}

package dto

// DeliveryContext carries everything a delivery strategy needs to send one
// finished report. It is built per job and discarded after delivery.
type DeliveryContext struct {
	Recipient         Recipient
	ReportArtifact    []byte
	ReportDownloadURL string
	ReportDate        string
}

// WebhookPayload is the body POSTed to a recipient's callback URL. The
// artifact bytes never travel in the payload, only the download reference.
type WebhookPayload struct {
	RecipientID string `json:"recipientId"`
	DownloadURL string `json:"downloadUrl"`
	ReportDate  string `json:"reportDate"`
	GeneratedAt string `json:"generatedAt"`
}

type EmailMessage struct {
	To             string
	Subject        string
	BodyText       string
	BodyHTML       string
	AttachmentName string
	Attachment     []byte
}

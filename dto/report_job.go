package dto

// ReportJobPayload is the queue payload for one report generation job.
// ReportDate uses the YYYY-MM-DD layout.
type ReportJobPayload struct {
	RecipientID string `json:"recipientId"`
	ReportDate  string `json:"reportDate"`
}

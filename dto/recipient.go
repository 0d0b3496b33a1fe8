package dto

import "github.com/anidavtyan/email-reporting-system/internal/enum"

// Recipient is the registry's representation of a report recipient.
// The registry owns the data; the core only reads it.
type Recipient struct {
	ID                string               `json:"id"`
	Email             string               `json:"email"`
	Timezone          string               `json:"timezone"`
	PreferredChannel  enum.DeliveryChannel `json:"preferredChannel"`
	CallbackURL       string               `json:"callbackUrl,omitempty"`
	AssociatedDomains []string             `json:"associatedDomains"`
}

type Domain struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

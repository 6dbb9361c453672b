package types

// LeadNotification is the message sent to the sales inbox when a visitor
// starts a call with the receptionist.
type LeadNotification struct {
	DestinationAddress string             `json:"dstAddress"`
	SourceAddress      string             `json:"srcAddress"`
	CustomerName       string             `json:"customerName"`
	CustomerEmail      string             `json:"customerEmail"`
	CallID             string             `json:"callId,omitempty"`
	Providers          *NotifyProviderMap `json:"providers,omitempty"`
}

type NotifyProviderMap struct {
	SES      *NotifyProviderData `json:"ses,omitempty"`
	SendGrid *NotifyProviderData `json:"sendgrid,omitempty"`
}

type NotifyProviderData struct {
	TemplateID   string         `json:"templateId"`
	TemplateData map[string]any `json:"templateData,omitempty"`
}

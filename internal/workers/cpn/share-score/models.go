package sharescore

type Input struct {
	UserID         string `json:"userId"`
	RecipientEmail string `json:"recipientEmail"`
	SenderName     string `json:"senderName,omitempty"`
	Message        string `json:"message,omitempty"`
}

type Output struct {
	UserID    string  `json:"userId"`
	MessageID string  `json:"messageId"`
	Status    string  `json:"shareStatus"`
	Score     float64 `json:"sharedScore"`
	SharedAt  string  `json:"sharedAt"`
}

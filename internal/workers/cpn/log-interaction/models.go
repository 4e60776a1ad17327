package loginteraction

type Input struct {
	UserID      string  `json:"userId"`
	Date        string  `json:"date"`
	Cost        float64 `json:"cost"`
	TimeMinutes int     `json:"timeMinutes"`
	Nuts        int     `json:"nuts"`
	Notes       string  `json:"notes,omitempty"`
}

type Output struct {
	InteractionID string `json:"interactionId"`
	UserID        string `json:"userId"`
	LoggedAt      string `json:"loggedAt"`
}

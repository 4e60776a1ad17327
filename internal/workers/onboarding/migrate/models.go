package migrate

type Input struct {
	SessionID string `json:"sessionId"`
	UserID    string `json:"userId"`
}

type Output struct {
	UserID          string `json:"userId"`
	InteractionID   string `json:"interactionId"`
	AlreadyMigrated bool   `json:"alreadyMigrated"`
	SessionCleared  bool   `json:"sessionCleared"`
}

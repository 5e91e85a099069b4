package stub

// Request payloads

type ReportBehaviorRequest struct {
	UserID     int            `json:"user_id"`
	DeviceID   string         `json:"device_id"`
	ActionType string         `json:"action_type"`
	Details    map[string]any `json:"details,omitempty"`
	RawContent string         `json:"raw_content,omitempty"`
}

// Response payloads

type ReportBehaviorResponse struct {
	ID     int64  `json:"id"`
	Status string `json:"status" example:"recorded"`
}

type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

type MarkAllResponse struct {
	Status  string `json:"status" example:"ok"`
	Updated int    `json:"updated"`
}

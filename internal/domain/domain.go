package domain

// ActionType labels the behavior semantics of a dashboard control.
type ActionType string

const (
	ActionDrinkWater    ActionType = "drink_water"
	ActionWaterPurifier ActionType = "water_purifier"
	ActionToggleLight   ActionType = "toggle_light"
	ActionUnlockDoor    ActionType = "unlock_door"
	ActionToggleAC      ActionType = "toggle_ac"
	ActionToggleHeater  ActionType = "toggle_heater"
)

// Momentary reports whether the action self-reverts after a fixed window
// instead of staying toggled until the next press.
func (t ActionType) Momentary() bool {
	return t == ActionDrinkWater || t == ActionWaterPurifier
}

// Action is one controllable device slot on the dashboard.
type Action struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Type     ActionType `json:"type"`
	Active   bool       `json:"active"`
	Subtitle string     `json:"subtitle,omitempty"`
}

// BehaviorRecord is the outbound report of a single action event. It is
// immutable once sent and never retried.
type BehaviorRecord struct {
	UserID     int            `json:"user_id"`
	DeviceID   string         `json:"device_id"`
	ActionType string         `json:"action_type"`
	Details    map[string]any `json:"details,omitempty"`
	RawContent string         `json:"raw_content,omitempty"`
}

// ActivityLogEntry is a server-confirmed behavior record, read-only to the
// client and replaced wholesale on each poll.
type ActivityLogEntry struct {
	ID              int64          `json:"id"`
	UserID          int            `json:"user_id"`
	DeviceID        string         `json:"device_id"`
	ActionType      string         `json:"action_type"`
	Details         map[string]any `json:"details,omitempty"`
	RawContent      string         `json:"raw_content,omitempty"`
	SemanticContent string         `json:"semantic_content,omitempty"`
	Timestamp       string         `json:"timestamp" format:"date-time"`
	CreatedAt       string         `json:"created_at" format:"date-time"`
}

// DisplayText picks the human line for an activity entry, preferring the
// server-derived semantic content over the raw report.
func (e ActivityLogEntry) DisplayText() string {
	if e.SemanticContent != "" {
		return e.SemanticContent
	}
	if e.RawContent != "" {
		return e.RawContent
	}
	return e.ActionType
}

// Notification categories as persisted by the service.
const (
	CategorySystem   = "system"
	CategoryReminder = "reminder"
	CategoryAlert    = "alert"
)

// Notification is the wire form of a message-center item.
type Notification struct {
	ID        int    `json:"id"`
	UserID    int    `json:"user_id"`
	Category  string `json:"category" enum:"system,reminder,alert"`
	Title     string `json:"title"`
	Content   string `json:"content,omitempty"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

// User is the profile shown on the dashboard header.
type User struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FullName  string `json:"full_name,omitempty"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at" format:"date-time"`
}

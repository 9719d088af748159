package dto

// ReminderRequest is the payload for creating or replacing a reminder.
// Updates are full replacements: an omitted description clears it.
type ReminderRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	DueDate     string  `json:"due_date"` // YYYY-MM-DD or RFC3339
}

// ReminderResponse represents a reminder in responses
type ReminderResponse struct {
	ID          int64   `json:"id"`
	UserID      int64   `json:"user_id"`
	Title       string  `json:"title"`
	Description *string `json:"description"`
	DueDate     string  `json:"due_date"`
	NotifiedAt  *string `json:"notified_at,omitempty"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// ReminderEnvelope wraps a single reminder with a status message
type ReminderEnvelope struct {
	Message  string           `json:"message"`
	Reminder ReminderResponse `json:"reminder"`
}

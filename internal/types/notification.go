package types

import "time"

const TaskKindNotification = "notification"

// NotificationPayload is the body delivered to the scheduled notification endpoint.
type NotificationPayload struct {
	UserID   string `json:"userId"`
	Language string `json:"language"`
	Type     string `json:"type"`
	// Day is the field name older schedulers used for Type.
	Day string `json:"day,omitempty"`
}

// Kind returns the notification kind, preferring Type.
func (p NotificationPayload) Kind() string {
	if p.Type != "" {
		return p.Type
	}
	return p.Day
}

type NotificationMessage struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// ScheduledTask is a row of the task queue.
type ScheduledTask struct {
	ID        string
	Kind      string
	TargetURL string
	Payload   []byte
	RunAt     time.Time
	Attempts  int
	// DedupeKey makes a second enqueue of the same logical task a no-op.
	DedupeKey string
}

type NotificationLog struct {
	UserID         string
	Type           string
	Title          string
	Body           string
	Language       string
	Success        bool
	MessageID      string
	Error          string
	ProcessingTime int64
	SentAt         time.Time
}

type ScheduleOnboardingResponse struct {
	Scheduled bool       `json:"scheduled"`
	TaskID    string     `json:"taskId,omitempty"`
	RunAt     *time.Time `json:"runAt,omitempty"`
	Reason    string     `json:"reason,omitempty"`
}

// PushMessage is what the pusher publishes to a device topic.
type PushMessage struct {
	MessageID    string              `json:"messageId"`
	Token        string              `json:"token"`
	Notification NotificationMessage `json:"notification"`
	Data         map[string]string   `json:"data"`
	Android      AndroidOptions      `json:"android"`
	APNS         APNSOptions         `json:"apns"`
}

type AndroidOptions struct {
	Priority string `json:"priority"`
	Icon     string `json:"icon"`
	Color    string `json:"color"`
	Sound    string `json:"sound"`
}

type APNSOptions struct {
	Sound string `json:"sound"`
	Badge int    `json:"badge"`
}

type SendNotificationResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

package types

import "time"

// User is the subset of the profile the backend reads for notifications.
type User struct {
	ID                   string    `json:"id"`
	Email                *string   `json:"email,omitempty"`
	DisplayName          *string   `json:"display_name,omitempty"`
	LanguageSelected     *string   `json:"language_selected,omitempty"`
	NotificationsEnabled bool      `json:"notifications_enabled"`
	PushToken            *string   `json:"-"`
	CreatedAt            time.Time `json:"created_at"`
}

// UpdateDeviceRequest carries the device settings the app registers after sign-in.
// A nil field is left unchanged; an empty push token clears it.
type UpdateDeviceRequest struct {
	Language             *string `json:"language,omitempty" validate:"omitempty,oneof=ar en ja ko"`
	NotificationsEnabled *bool   `json:"notificationsEnabled,omitempty"`
	PushToken            *string `json:"pushToken,omitempty" validate:"omitempty,max=4096"`
	DisplayName          *string `json:"displayName,omitempty" validate:"omitempty,max=120"`
}

type UserProfileResponse struct {
	User
	HasPushToken bool `json:"has_push_token"`
}

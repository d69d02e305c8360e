package models

import "time"

// Theme values
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Profile holds user-editable account settings.
type Profile struct {
	ID            string    `json:"id"`
	DisplayName   *string   `json:"displayName"`
	AvatarURL     *string   `json:"avatarUrl"`
	Timezone      *string   `json:"timezone"`
	Locale        *string   `json:"locale"`
	Bio           *string   `json:"bio"`
	Website       *string   `json:"website"`
	Username      *string   `json:"username"`
	PublicProfile bool      `json:"publicProfile"`
	Theme         string    `json:"theme"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ProfileUpdate is a partial update. Nil fields are left unchanged; an empty
// string clears a nullable column.
type ProfileUpdate struct {
	DisplayName   *string
	AvatarURL     *string
	Timezone      *string
	Locale        *string
	Bio           *string
	Website       *string
	Username      *string
	PublicProfile *bool
	Theme         *string
	UpdatedAt     time.Time
}

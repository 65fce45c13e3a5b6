package models

import (
	"strings"
	"time"
	"unicode"
)

// DefaultDisplayName is shown for identities that never set a name.
const DefaultDisplayName = "Unnamed teacher"

// Profile is a registered teacher. ID is the identity provider's uid.
// FollowerIDs and FollowingIDs are hydrated from the follows table and are never persisted on the row.
type Profile struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(128)"`
	DisplayName  string    `json:"display_name" gorm:"size:100;index"`
	Email        string    `json:"email" gorm:"size:255;index"`
	Handle       string    `json:"handle" gorm:"size:100;index"`
	Bio          string    `json:"bio,omitempty" gorm:"type:text"`
	Location     string    `json:"location,omitempty" gorm:"size:255"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	FollowerIDs  []string  `json:"follower_ids" gorm:"-"`
	FollowingIDs []string  `json:"following_ids" gorm:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Profile) TableName() string { return "users" }

// Completed reports whether the one-time completion step has been done.
func (p *Profile) Completed() bool {
	return p.Bio != "" && p.Location != "" && p.AvatarURL != ""
}

// Normalize fills the display name and handle fallbacks.
func (p *Profile) Normalize() {
	p.DisplayName = strings.TrimSpace(p.DisplayName)
	if p.DisplayName == "" {
		p.DisplayName = DefaultDisplayName
	}
	if p.Handle == "" {
		p.Handle = DeriveHandle(p.DisplayName, p.ID)
	}
}

// IsFollowing reports whether p follows id.
func (p *Profile) IsFollowing(id string) bool {
	for _, f := range p.FollowingIDs {
		if f == id {
			return true
		}
	}
	return false
}

// ToCompact returns the subset of fields shown next to content and comments.
func (p *Profile) ToCompact() ProfileCompact {
	return ProfileCompact{
		ID:          p.ID,
		DisplayName: p.DisplayName,
		Handle:      p.Handle,
		AvatarURL:   p.AvatarURL,
	}
}

// ProfileCompact is the minimal public view of a profile
type ProfileCompact struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Handle      string `json:"handle"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// DeriveHandle lowercases the display name and strips whitespace, falling back to id.
func DeriveHandle(displayName, id string) string {
	if displayName == "" || displayName == DefaultDisplayName {
		return id
	}
	var b strings.Builder
	for _, r := range strings.ToLower(displayName) {
		if !unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return id
	}
	return b.String()
}

// RegisterRequest defines the request body for creating the profile of a freshly signed-up identity
type RegisterRequest struct {
	IDToken     string `json:"id_token" validate:"required"`
	DisplayName string `json:"display_name" validate:"required,min=2,max=100"`
}

// LoginRequest exchanges an identity provider token for a session token
type LoginRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

// UpdateProfileRequest is merged into the stored profile; empty fields are left untouched
type UpdateProfileRequest struct {
	DisplayName string `json:"display_name,omitempty" validate:"omitempty,min=2,max=100"`
	Handle      string `json:"handle,omitempty" validate:"omitempty,min=2,max=100"`
	Bio         string `json:"bio,omitempty" validate:"omitempty,max=1000"`
	Location    string `json:"location,omitempty" validate:"omitempty,max=255"`
	AvatarURL   string `json:"avatar_url,omitempty" validate:"omitempty,url"`
}

// CompleteProfileRequest is the mandatory one-time completion step
type CompleteProfileRequest struct {
	Bio       string `json:"bio" validate:"required,max=1000"`
	Location  string `json:"location" validate:"required,max=255"`
	AvatarURL string `json:"avatar_url" validate:"required,url"`
}

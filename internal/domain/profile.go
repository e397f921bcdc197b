package domain

import "time"

// Profile is the account record every financial entry is owned by.
// Email is the natural key and the subject of issued tokens.
type Profile struct {
	ID              int64
	FullName        string
	Email           string
	PasswordHash    string
	ProfileImageURL string
	IsActive        bool
	ActivationToken string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PublicProfile is the read-only projection of a Profile returned to clients.
type PublicProfile struct {
	ID              int64     `json:"id"`
	FullName        string    `json:"fullName"`
	Email           string    `json:"email"`
	ProfileImageURL string    `json:"profileImageUrl,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Public strips credentials and activation state from the profile.
func (p *Profile) Public() PublicProfile {
	return PublicProfile{
		ID:              p.ID,
		FullName:        p.FullName,
		Email:           p.Email,
		ProfileImageURL: p.ProfileImageURL,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

package social

import "time"

// Profile is a community member as seen by matching and ranking.
type Profile struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
	Bio         string `json:"bio,omitempty"`

	// Interests is a set of free-form topics. Compared case-insensitively.
	Interests []string `json:"interests,omitempty"`

	// Location is free text such as "Leeds, UK". Empty means unknown.
	Location string `json:"location,omitempty"`

	// LastActiveAt is nil when the member has never been seen active.
	LastActiveAt *time.Time `json:"last_active_at,omitempty"`

	// BeneficialCount is how many beneficial marks the member has given.
	BeneficialCount int `json:"beneficial_count"`

	Traits []string `json:"traits,omitempty"`

	// MentorEligible flags members who may be suggested as mentors.
	MentorEligible bool `json:"mentor_eligible"`

	CreatedAt time.Time `json:"created_at"`
}

// Name returns the display name, falling back to the username.
func (p *Profile) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Username
}

// Companion is the other party of an accepted connection.
type Companion struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	DisplayName  string `json:"display_name"`
	ConnectionID string `json:"connection_id"`
	Strength     int    `json:"strength"`
}

// Name returns the display name, falling back to the username.
func (c Companion) Name() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return c.Username
}

// CandidateQuery selects profiles that may be suggested to a requester.
type CandidateQuery struct {
	// ExcludeIDs always contains the requester.
	ExcludeIDs []string

	// ActiveSince drops profiles last active before this instant, or never.
	ActiveSince time.Time

	MentorOnly bool

	Limit int
}

// CircleMembership records that a user joined a circle.
type CircleMembership struct {
	UserID   string    `json:"user_id"`
	CircleID string    `json:"circle_id"`
	JoinedAt time.Time `json:"joined_at"`
}

// Circle is a topical study group.
type Circle struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

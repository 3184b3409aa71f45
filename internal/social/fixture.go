package social

// Fixture is the on-disk import format. JSON files parse as YAML.
// Timestamps are RFC 3339 strings; empty ids are generated on import.
type Fixture struct {
	Profiles        []FixtureProfile    `yaml:"profiles" json:"profiles"`
	Circles         []FixtureCircle     `yaml:"circles" json:"circles"`
	Memberships     []FixtureMembership `yaml:"memberships" json:"memberships"`
	Connections     []FixtureConnection `yaml:"connections" json:"connections"`
	Posts           []FixturePost       `yaml:"posts" json:"posts"`
	BeneficialMarks []FixtureMark       `yaml:"beneficial_marks" json:"beneficial_marks"`
	Comments        []FixtureComment    `yaml:"comments" json:"comments"`
}

type FixtureProfile struct {
	ID              string   `yaml:"id" json:"id"`
	Username        string   `yaml:"username" json:"username"`
	DisplayName     string   `yaml:"display_name" json:"display_name"`
	AvatarURL       string   `yaml:"avatar_url" json:"avatar_url"`
	Bio             string   `yaml:"bio" json:"bio"`
	Interests       []string `yaml:"interests" json:"interests"`
	Location        string   `yaml:"location" json:"location"`
	LastActiveAt    string   `yaml:"last_active_at" json:"last_active_at"`
	BeneficialCount int      `yaml:"beneficial_count" json:"beneficial_count"`
	Traits          []string `yaml:"traits" json:"traits"`
	MentorEligible  bool     `yaml:"mentor_eligible" json:"mentor_eligible"`
	CreatedAt       string   `yaml:"created_at" json:"created_at"`
}

type FixtureCircle struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

type FixtureMembership struct {
	UserID   string `yaml:"user_id" json:"user_id"`
	CircleID string `yaml:"circle_id" json:"circle_id"`
	JoinedAt string `yaml:"joined_at" json:"joined_at"`
}

type FixtureConnection struct {
	ID                string `yaml:"id" json:"id"`
	RequesterID       string `yaml:"requester_id" json:"requester_id"`
	RecipientID       string `yaml:"recipient_id" json:"recipient_id"`
	Status            string `yaml:"status" json:"status"`
	Strength          int    `yaml:"strength" json:"strength"`
	Message           string `yaml:"message" json:"message"`
	CreatedAt         string `yaml:"created_at" json:"created_at"`
	LastInteractionAt string `yaml:"last_interaction_at" json:"last_interaction_at"`
}

type FixturePost struct {
	ID              string `yaml:"id" json:"id"`
	AuthorID        string `yaml:"author_id" json:"author_id"`
	Content         string `yaml:"content" json:"content"`
	CreatedAt       string `yaml:"created_at" json:"created_at"`
	BeneficialCount int    `yaml:"beneficial_count" json:"beneficial_count"`
	CommentCount    int    `yaml:"comment_count" json:"comment_count"`
	Pinned          bool   `yaml:"pinned" json:"pinned"`
	CircleID        string `yaml:"circle_id" json:"circle_id"`
}

type FixtureMark struct {
	PostID    string `yaml:"post_id" json:"post_id"`
	UserID    string `yaml:"user_id" json:"user_id"`
	CreatedAt string `yaml:"created_at" json:"created_at"`
}

type FixtureComment struct {
	ID        string `yaml:"id" json:"id"`
	PostID    string `yaml:"post_id" json:"post_id"`
	UserID    string `yaml:"user_id" json:"user_id"`
	Content   string `yaml:"content" json:"content"`
	CreatedAt string `yaml:"created_at" json:"created_at"`
}

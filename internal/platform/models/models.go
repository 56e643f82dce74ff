package models

type User struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	PasswordHash  string `json:"-"`
	FullName      string `json:"full_name"`
	Role          string `json:"role"`
	AvatarURL     string `json:"avatar_url,omitempty"`

	// Linked GitHub identity. GithubLogin, when set, is unique across users.
	GithubID     *int64  `json:"github_id,omitempty"`
	GithubLogin  string  `json:"github_login,omitempty"`
	GithubToken  string  `json:"-"`
	Company      string  `json:"company,omitempty"`
	Location     string  `json:"location,omitempty"`
	Blog         string  `json:"blog,omitempty"`
	Bio          string  `json:"bio,omitempty"`
	PublicRepos  int     `json:"public_repos"`
	Followers    int     `json:"followers"`
	Following    int     `json:"following"`
	GithubSyncedAt *int64 `json:"github_synced_at,omitempty"`

	LastLoginAt *int64 `json:"last_login_at,omitempty"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
	DeletedAt   *int64 `json:"deleted_at,omitempty"`
}

type Team struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatedBy   string `json:"created_by"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
	DeletedAt   *int64 `json:"deleted_at,omitempty"`
}

type TeamMember struct {
	TeamID   string `json:"team_id"`
	UserID   string `json:"user_id"`
	Role     string `json:"role"` // member, maintainer
	JoinedAt int64  `json:"joined_at"`

	User *User `json:"user,omitempty"`
}

type TeamInvite struct {
	ID          string `json:"id"`
	TeamID      string `json:"team_id"`
	Code        string `json:"code"`
	Email       string `json:"email,omitempty"`
	Role        string `json:"role"`
	InvitedBy   string `json:"invited_by"`
	Status      string `json:"status"` // pending, accepted, revoked
	MaxUses     int    `json:"max_uses"`
	CurrentUses int    `json:"current_uses"`
	ExpiresAt   int64  `json:"expires_at"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

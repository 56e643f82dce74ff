package repositories

import (
	"database/sql"
	"time"

	"opssight/internal/platform/models"
)

const userColumns = `id, email, email_verified, password_hash, full_name, role, avatar_url,
	github_id, github_login, github_token, company, location, blog, bio,
	public_repos, followers, following, github_synced_at,
	last_login_at, created_at, updated_at, deleted_at`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(user *models.User) error {
	// github_login carries a UNIQUE index; unlinked users must store NULL,
	// not '', so that more than one of them can exist.
	var githubLogin interface{}
	if user.GithubLogin != "" {
		githubLogin = user.GithubLogin
	}
	_, err := r.db.Exec(`
		INSERT INTO users (id, email, email_verified, password_hash, full_name, role, avatar_url,
			github_id, github_login, github_token, company, location, blog, bio,
			public_repos, followers, following, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, user.ID, user.Email, user.EmailVerified, user.PasswordHash, user.FullName, user.Role, user.AvatarURL,
		user.GithubID, githubLogin, user.GithubToken, user.Company, user.Location, user.Blog, user.Bio,
		user.PublicRepos, user.Followers, user.Following, user.CreatedAt, user.UpdatedAt)
	return err
}

func (r *UserRepository) scanRow(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var githubLogin, githubToken, avatarURL, company, location, blog, bio sql.NullString
	err := row.Scan(&user.ID, &user.Email, &user.EmailVerified, &user.PasswordHash, &user.FullName, &user.Role, &avatarURL,
		&user.GithubID, &githubLogin, &githubToken, &company, &location, &blog, &bio,
		&user.PublicRepos, &user.Followers, &user.Following, &user.GithubSyncedAt,
		&user.LastLoginAt, &user.CreatedAt, &user.UpdatedAt, &user.DeletedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	user.AvatarURL = avatarURL.String
	user.GithubLogin = githubLogin.String
	user.GithubToken = githubToken.String
	user.Company = company.String
	user.Location = location.String
	user.Blog = blog.String
	user.Bio = bio.String
	return user, nil
}

func (r *UserRepository) GetByID(id string) (*models.User, error) {
	row := r.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ? AND deleted_at IS NULL`, id)
	return r.scanRow(row)
}

func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	row := r.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = ? AND deleted_at IS NULL`, email)
	return r.scanRow(row)
}

func (r *UserRepository) GetByGithubLogin(login string) (*models.User, error) {
	row := r.db.QueryRow(`SELECT `+userColumns+` FROM users WHERE github_login = ? AND deleted_at IS NULL`, login)
	return r.scanRow(row)
}

func (r *UserRepository) List(limit, offset int) ([]*models.User, error) {
	rows, err := r.db.Query(`SELECT `+userColumns+` FROM users WHERE deleted_at IS NULL ORDER BY created_at DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user := &models.User{}
		var githubLogin, githubToken, avatarURL, company, location, blog, bio sql.NullString
		if err := rows.Scan(&user.ID, &user.Email, &user.EmailVerified, &user.PasswordHash, &user.FullName, &user.Role, &avatarURL,
			&user.GithubID, &githubLogin, &githubToken, &company, &location, &blog, &bio,
			&user.PublicRepos, &user.Followers, &user.Following, &user.GithubSyncedAt,
			&user.LastLoginAt, &user.CreatedAt, &user.UpdatedAt, &user.DeletedAt); err != nil {
			return nil, err
		}
		user.AvatarURL = avatarURL.String
		user.GithubLogin = githubLogin.String
		user.GithubToken = githubToken.String
		user.Company = company.String
		user.Location = location.String
		user.Blog = blog.String
		user.Bio = bio.String
		users = append(users, user)
	}
	return users, rows.Err()
}

// ListStale returns users whose GitHub profile has not been synced since the cutoff.
func (r *UserRepository) ListStale(cutoff int64, limit int) ([]*models.User, error) {
	rows, err := r.db.Query(`SELECT `+userColumns+` FROM users
		WHERE deleted_at IS NULL AND github_login != ''
		AND (github_synced_at IS NULL OR github_synced_at < ?)
		ORDER BY github_synced_at ASC LIMIT ?`, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user := &models.User{}
		var githubLogin, githubToken, avatarURL, company, location, blog, bio sql.NullString
		if err := rows.Scan(&user.ID, &user.Email, &user.EmailVerified, &user.PasswordHash, &user.FullName, &user.Role, &avatarURL,
			&user.GithubID, &githubLogin, &githubToken, &company, &location, &blog, &bio,
			&user.PublicRepos, &user.Followers, &user.Following, &user.GithubSyncedAt,
			&user.LastLoginAt, &user.CreatedAt, &user.UpdatedAt, &user.DeletedAt); err != nil {
			return nil, err
		}
		user.GithubLogin = githubLogin.String
		user.GithubToken = githubToken.String
		user.AvatarURL = avatarURL.String
		users = append(users, user)
	}
	return users, rows.Err()
}

// UpdateGithubProfile writes the synced profile fields back to the user row.
func (r *UserRepository) UpdateGithubProfile(user *models.User) error {
	now := time.Now().Unix()
	_, err := r.db.Exec(`UPDATE users SET
		full_name = ?, avatar_url = ?, company = ?, location = ?, blog = ?, bio = ?,
		public_repos = ?, followers = ?, following = ?, github_synced_at = ?, updated_at = ?
		WHERE id = ?`,
		user.FullName, user.AvatarURL, user.Company, user.Location, user.Blog, user.Bio,
		user.PublicRepos, user.Followers, user.Following, now, now, user.ID)
	return err
}

// LinkGithub attaches an external identity to an existing user.
func (r *UserRepository) LinkGithub(userID string, githubID int64, login, token string) error {
	_, err := r.db.Exec(`UPDATE users SET github_id = ?, github_login = ?, github_token = ?, updated_at = ? WHERE id = ?`,
		githubID, login, token, time.Now().Unix(), userID)
	return err
}

func (r *UserRepository) UpdateRole(userID, role string) error {
	_, err := r.db.Exec(`UPDATE users SET role = ?, updated_at = ? WHERE id = ?`, role, time.Now().Unix(), userID)
	return err
}

func (r *UserRepository) UpdateLastLogin(userID string, timestamp int64) error {
	_, err := r.db.Exec(`UPDATE users SET last_login_at = ? WHERE id = ?`, timestamp, userID)
	return err
}

// Delete soft-deletes the user and frees the unique github_login slot.
func (r *UserRepository) Delete(userID string) error {
	_, err := r.db.Exec(`UPDATE users SET deleted_at = ?, github_login = NULL WHERE id = ?`, time.Now().Unix(), userID)
	return err
}

package repositories

import (
	"database/sql"
	"time"

	"opssight/internal/platform/models"
)

type TeamRepository struct {
	db *sql.DB
}

func NewTeamRepository(db *sql.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) Create(team *models.Team) error {
	_, err := r.db.Exec(`
		INSERT INTO teams (id, slug, name, description, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, team.ID, team.Slug, team.Name, team.Description, team.CreatedBy, team.CreatedAt, team.UpdatedAt)
	return err
}

func (r *TeamRepository) GetByID(id string) (*models.Team, error) {
	team := &models.Team{}
	err := r.db.QueryRow(`
		SELECT id, slug, name, description, created_by, created_at, updated_at, deleted_at
		FROM teams WHERE id = ? AND deleted_at IS NULL
	`, id).Scan(&team.ID, &team.Slug, &team.Name, &team.Description, &team.CreatedBy, &team.CreatedAt, &team.UpdatedAt, &team.DeletedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return team, nil
}

func (r *TeamRepository) GetBySlug(slug string) (*models.Team, error) {
	team := &models.Team{}
	err := r.db.QueryRow(`
		SELECT id, slug, name, description, created_by, created_at, updated_at, deleted_at
		FROM teams WHERE slug = ? AND deleted_at IS NULL
	`, slug).Scan(&team.ID, &team.Slug, &team.Name, &team.Description, &team.CreatedBy, &team.CreatedAt, &team.UpdatedAt, &team.DeletedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return team, nil
}

func (r *TeamRepository) List() ([]*models.Team, error) {
	rows, err := r.db.Query(`
		SELECT id, slug, name, description, created_by, created_at, updated_at, deleted_at
		FROM teams WHERE deleted_at IS NULL ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []*models.Team
	for rows.Next() {
		team := &models.Team{}
		if err := rows.Scan(&team.ID, &team.Slug, &team.Name, &team.Description, &team.CreatedBy, &team.CreatedAt, &team.UpdatedAt, &team.DeletedAt); err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}
	return teams, rows.Err()
}

func (r *TeamRepository) Update(team *models.Team) error {
	team.UpdatedAt = time.Now().Unix()
	_, err := r.db.Exec(`UPDATE teams SET name = ?, description = ?, updated_at = ? WHERE id = ?`,
		team.Name, team.Description, team.UpdatedAt, team.ID)
	return err
}

func (r *TeamRepository) Delete(id string) error {
	_, err := r.db.Exec(`UPDATE teams SET deleted_at = ? WHERE id = ?`, time.Now().Unix(), id)
	return err
}

func (r *TeamRepository) AddMember(teamID, userID, role string) error {
	_, err := r.db.Exec(`
		INSERT INTO team_members (team_id, user_id, role, joined_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(team_id, user_id) DO UPDATE SET role = excluded.role
	`, teamID, userID, role, time.Now().Unix())
	return err
}

func (r *TeamRepository) RemoveMember(teamID, userID string) error {
	_, err := r.db.Exec(`DELETE FROM team_members WHERE team_id = ? AND user_id = ?`, teamID, userID)
	return err
}

func (r *TeamRepository) ListMembers(teamID string) ([]*models.TeamMember, error) {
	rows, err := r.db.Query(`
		SELECT m.team_id, m.user_id, m.role, m.joined_at, u.email, u.full_name, u.avatar_url, u.github_login
		FROM team_members m JOIN users u ON u.id = m.user_id
		WHERE m.team_id = ? AND u.deleted_at IS NULL
		ORDER BY m.joined_at ASC
	`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []*models.TeamMember
	for rows.Next() {
		m := &models.TeamMember{User: &models.User{}}
		var avatarURL, githubLogin sql.NullString
		if err := rows.Scan(&m.TeamID, &m.UserID, &m.Role, &m.JoinedAt,
			&m.User.Email, &m.User.FullName, &avatarURL, &githubLogin); err != nil {
			return nil, err
		}
		m.User.ID = m.UserID
		m.User.AvatarURL = avatarURL.String
		m.User.GithubLogin = githubLogin.String
		members = append(members, m)
	}
	return members, rows.Err()
}

type TeamInviteRepository struct {
	db *sql.DB
}

func NewTeamInviteRepository(db *sql.DB) *TeamInviteRepository {
	return &TeamInviteRepository{db: db}
}

func (r *TeamInviteRepository) Create(invite *models.TeamInvite) error {
	_, err := r.db.Exec(`
		INSERT INTO team_invites (id, team_id, code, email, role, invited_by, status, max_uses, current_uses, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, invite.ID, invite.TeamID, invite.Code, invite.Email, invite.Role, invite.InvitedBy, invite.Status,
		invite.MaxUses, invite.CurrentUses, invite.ExpiresAt, invite.CreatedAt, invite.UpdatedAt)
	return err
}

func (r *TeamInviteRepository) GetByCode(code string) (*models.TeamInvite, error) {
	invite := &models.TeamInvite{}
	err := r.db.QueryRow(`
		SELECT id, team_id, code, email, role, invited_by, status, max_uses, current_uses, expires_at, created_at, updated_at
		FROM team_invites WHERE code = ?
	`, code).Scan(&invite.ID, &invite.TeamID, &invite.Code, &invite.Email, &invite.Role, &invite.InvitedBy,
		&invite.Status, &invite.MaxUses, &invite.CurrentUses, &invite.ExpiresAt, &invite.CreatedAt, &invite.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return invite, nil
}

func (r *TeamInviteRepository) IncrementUses(id string) error {
	_, err := r.db.Exec(`UPDATE team_invites SET current_uses = current_uses + 1, updated_at = ? WHERE id = ?`,
		time.Now().Unix(), id)
	return err
}

func (r *TeamInviteRepository) Revoke(id string) error {
	_, err := r.db.Exec(`UPDATE team_invites SET status = 'revoked', updated_at = ? WHERE id = ?`,
		time.Now().Unix(), id)
	return err
}

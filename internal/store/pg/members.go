package pg

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"myace.ai/internal/auth"
)

func scanMember(row interface{ Scan(...any) error }) (auth.Member, error) {
	var (
		m        auth.Member
		roleText string
	)
	err := row.Scan(
		&m.User.ID, &m.User.Username, &m.User.DisplayName, &m.User.Biography,
		&m.User.Email, &m.User.PasswordHash, &m.User.CreatedAt, &m.User.UpdatedAt,
		&roleText, &m.MemberSince,
	)
	if err != nil {
		return auth.Member{}, err
	}
	role, err := auth.ParseEnterpriseRole(roleText)
	if err != nil {
		return auth.Member{}, err
	}
	m.Role = role
	return m, nil
}

const memberQuery = `
	select u.user_id, u.username, u.display_name, u.biography,
	       u.email, u.password_hash, u.created_at, u.updated_at,
	       m.role, m.created_at
	from enterprise_membership m
	join "user" u on u.user_id = m.user_id`

func (s *Store) ListMembers(ctx context.Context, enterpriseID uuid.UUID) ([]auth.Member, error) {
	rows, err := s.db.QueryContext(ctx, memberQuery+`
		where m.enterprise_id = $1
		order by m.created_at`,
		enterpriseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []auth.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) UpdateMemberRole(ctx context.Context, enterpriseID, userID uuid.UUID, role auth.EnterpriseRole) (auth.Member, error) {
	res, err := s.db.ExecContext(ctx, `
		update enterprise_membership
		set role = $1
		where enterprise_id = $2 and user_id = $3`,
		role.String(), enterpriseID, userID,
	)
	if err != nil {
		return auth.Member{}, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return auth.Member{}, err
	}
	if affected == 0 {
		return auth.Member{}, &auth.NotFoundError{Resource: "membership"}
	}

	m, err := scanMember(s.db.QueryRowContext(ctx, memberQuery+`
		where m.enterprise_id = $1 and m.user_id = $2`,
		enterpriseID, userID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Member{}, &auth.NotFoundError{Resource: "membership"}
	}
	if err != nil {
		return auth.Member{}, err
	}
	return m, nil
}

func (s *Store) RemoveMember(ctx context.Context, enterpriseID, userID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `
		delete from enterprise_membership
		where enterprise_id = $1 and user_id = $2`,
		enterpriseID, userID,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &auth.NotFoundError{Resource: "membership"}
	}
	return nil
}

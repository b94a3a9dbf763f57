package pg

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"myace.ai/internal/auth"
)

// TeamRole looks up the caller's staff role at the moment of the call. Roles
// are never cached here; every permission check sees current state.
func (s *Store) TeamRole(ctx context.Context, userID uuid.UUID) (auth.TeamRole, bool, error) {
	var roleText string
	err := s.db.QueryRowContext(ctx, `
		select role from myace_team where user_id = $1`, userID).Scan(&roleText)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	role, err := auth.ParseTeamRole(roleText)
	if err != nil {
		return 0, false, err
	}
	return role, true, nil
}

func (s *Store) EnterpriseRole(ctx context.Context, userID, enterpriseID uuid.UUID) (auth.EnterpriseRole, bool, error) {
	var roleText string
	err := s.db.QueryRowContext(ctx, `
		select role from enterprise_membership
		where user_id = $1 and enterprise_id = $2`,
		userID, enterpriseID,
	).Scan(&roleText)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	role, err := auth.ParseEnterpriseRole(roleText)
	if err != nil {
		return 0, false, err
	}
	return role, true, nil
}

package pg

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"myace.ai/internal/auth"
	"myace.ai/internal/ids"
)

const inviteColumns = `invite_id, enterprise_id, user_email, role, invite_code, created_at`

func scanInvitation(row interface{ Scan(...any) error }) (auth.Invitation, error) {
	var (
		inv      auth.Invitation
		roleText string
	)
	if err := row.Scan(&inv.ID, &inv.EnterpriseID, &inv.Email, &roleText, &inv.InviteCode, &inv.CreatedAt); err != nil {
		return auth.Invitation{}, err
	}
	role, err := auth.ParseEnterpriseRole(roleText)
	if err != nil {
		return auth.Invitation{}, err
	}
	inv.Role = role
	return inv, nil
}

// CreateInvitation records a pending invitation with a fresh invite code. A
// second pending invitation for the same (enterprise, email) pair is rejected
// by the unique constraint.
func (s *Store) CreateInvitation(ctx context.Context, enterpriseID uuid.UUID, email string, role auth.EnterpriseRole) (auth.Invitation, error) {
	inv, err := scanInvitation(s.db.QueryRowContext(ctx, `
		insert into enterprise_invite (enterprise_id, user_email, role, invite_code)
		values ($1, $2, $3, $4)
		returning `+inviteColumns,
		enterpriseID, email, role.String(), ids.New(),
	))
	if err != nil {
		return auth.Invitation{}, onConstraint(err, map[string]error{
			"enterprise_invite_enterprise_id_user_email_key": auth.ErrInvitationAlreadySent,
			"email_address_check":                            &auth.InvalidEmailError{Email: email},
		})
	}
	return inv, nil
}

func (s *Store) ListEnterpriseInvitations(ctx context.Context, enterpriseID uuid.UUID) ([]auth.Invitation, error) {
	rows, err := s.db.QueryContext(ctx, `
		select `+inviteColumns+`
		from enterprise_invite
		where enterprise_id = $1
		order by created_at`,
		enterpriseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []auth.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// ListUserInvitations returns the pending invitations addressed to the account's
// email, each with the inviting enterprise.
func (s *Store) ListUserInvitations(ctx context.Context, userID uuid.UUID) ([]auth.RecipientInvitation, error) {
	rows, err := s.db.QueryContext(ctx, `
		select i.invite_id, i.enterprise_id, i.user_email, i.role, i.invite_code, i.created_at,
		       e.enterprise_id, e.name, e.website_url, e.support_email, e.support_phone, e.logo_url, e.created_at, e.updated_at
		from enterprise_invite i
		join enterprise e on e.enterprise_id = i.enterprise_id
		join "user" u on u.email = i.user_email
		where u.user_id = $1
		order by i.created_at`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []auth.RecipientInvitation
	for rows.Next() {
		var (
			ri       auth.RecipientInvitation
			roleText string
		)
		if err := rows.Scan(
			&ri.ID, &ri.EnterpriseID, &ri.Email, &roleText, &ri.InviteCode, &ri.CreatedAt,
			&ri.Enterprise.ID, &ri.Enterprise.Name, &ri.Enterprise.Website, &ri.Enterprise.SupportEmail,
			&ri.Enterprise.SupportPhone, &ri.Enterprise.Logo, &ri.Enterprise.CreatedAt, &ri.Enterprise.UpdatedAt,
		); err != nil {
			return nil, err
		}
		role, err := auth.ParseEnterpriseRole(roleText)
		if err != nil {
			return nil, err
		}
		ri.Role = role
		out = append(out, ri)
	}
	return out, rows.Err()
}

// AcceptInvitation converts the invitation into a membership for the account
// registered under the invited email, then consumes the invitation. Both steps
// happen in one transaction.
func (s *Store) AcceptInvitation(ctx context.Context, invitationID uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		insert into enterprise_membership (enterprise_id, user_id, role)
		select i.enterprise_id, u.user_id, i.role
		from enterprise_invite i
		join "user" u on u.email = i.user_email
		where i.invite_id = $1`,
		invitationID,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &auth.NotFoundError{Resource: "invitation"}
	}
	if _, err := tx.ExecContext(ctx, `
		delete from enterprise_invite where invite_id = $1`, invitationID,
	); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) DeleteInvitation(ctx context.Context, invitationID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `
		delete from enterprise_invite where invite_id = $1`, invitationID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &auth.NotFoundError{Resource: "invitation"}
	}
	return nil
}

// InvitationRecipient resolves the account currently registered under the
// invitation's email. A missing invitation yields NotFound; an invitation
// whose email matches no account yields the zero id.
func (s *Store) InvitationRecipient(ctx context.Context, invitationID uuid.UUID) (uuid.UUID, error) {
	var recipient uuid.NullUUID
	err := s.db.QueryRowContext(ctx, `
		select u.user_id
		from enterprise_invite i
		left join "user" u on u.email = i.user_email
		where i.invite_id = $1`,
		invitationID,
	).Scan(&recipient)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, &auth.NotFoundError{Resource: "invitation"}
	}
	if err != nil {
		return uuid.Nil, err
	}
	return recipient.UUID, nil
}

func (s *Store) InvitationRecipientAndEnterprise(ctx context.Context, invitationID uuid.UUID) (uuid.UUID, uuid.UUID, error) {
	var (
		recipient    uuid.NullUUID
		enterpriseID uuid.UUID
	)
	err := s.db.QueryRowContext(ctx, `
		select u.user_id, i.enterprise_id
		from enterprise_invite i
		left join "user" u on u.email = i.user_email
		where i.invite_id = $1`,
		invitationID,
	).Scan(&recipient, &enterpriseID)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, uuid.Nil, &auth.NotFoundError{Resource: "invitation"}
	}
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return recipient.UUID, enterpriseID, nil
}

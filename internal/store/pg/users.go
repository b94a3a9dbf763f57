package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"myace.ai/internal/auth"
)

const userColumns = `user_id, username, display_name, biography, email, password_hash, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (auth.User, error) {
	var u auth.User
	err := row.Scan(&u.ID, &u.Username, &u.DisplayName, &u.Biography, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

func usernameConstraints(username string) map[string]error {
	return map[string]error{
		"uname_check":       &auth.InvalidUsernameError{Username: username},
		"user_username_key": &auth.UsernameTakenError{Username: username},
	}
}

// CreateTeamMember inserts a staff account together with its team role.
func (s *Store) CreateTeamMember(ctx context.Context, in auth.NewTeamMember) (auth.User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return auth.User{}, err
	}
	defer func() { _ = tx.Rollback() }()

	user, err := scanUser(tx.QueryRowContext(ctx, `
		insert into "user" (username, email, password_hash)
		values ($1, $2, $3)
		returning `+userColumns,
		in.Username, in.Email, in.PasswordHash,
	))
	if err != nil {
		return auth.User{}, onConstraint(err, usernameConstraints(in.Username))
	}
	if _, err := tx.ExecContext(ctx, `
		insert into myace_team (user_id, role) values ($1, $2)`,
		user.ID, in.Role.String(),
	); err != nil {
		return auth.User{}, err
	}
	if err := tx.Commit(); err != nil {
		return auth.User{}, err
	}
	return user, nil
}

// CreateFromInvite registers an account using an enterprise invite code. The
// account takes the invitation's email; the invitation is converted into a
// membership and consumed in the same transaction.
func (s *Store) CreateFromInvite(ctx context.Context, in auth.NewInvitedUser) (auth.User, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return auth.User{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var (
		inviteID     uuid.UUID
		enterpriseID uuid.UUID
		email        string
		roleText     string
	)
	err = tx.QueryRowContext(ctx, `
		select invite_id, enterprise_id, user_email, role
		from enterprise_invite
		where invite_code = $1`,
		in.InviteCode,
	).Scan(&inviteID, &enterpriseID, &email, &roleText)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.User{}, &auth.NotFoundError{Resource: "invite code"}
	}
	if err != nil {
		return auth.User{}, err
	}

	user, err := scanUser(tx.QueryRowContext(ctx, `
		insert into "user" (username, display_name, biography, email, password_hash)
		values ($1, $2, $3, $4, $5)
		returning `+userColumns,
		in.Username, in.DisplayName, in.Biography, email, in.PasswordHash,
	))
	if err != nil {
		return auth.User{}, onConstraint(err, usernameConstraints(in.Username))
	}
	if _, err := tx.ExecContext(ctx, `
		insert into enterprise_membership (enterprise_id, user_id, role)
		values ($1, $2, $3)`,
		enterpriseID, user.ID, roleText,
	); err != nil {
		return auth.User{}, err
	}
	if _, err := tx.ExecContext(ctx, `
		delete from enterprise_invite where invite_id = $1`, inviteID,
	); err != nil {
		return auth.User{}, err
	}
	if err := tx.Commit(); err != nil {
		return auth.User{}, err
	}
	return user, nil
}

func (s *Store) Find(ctx context.Context, id uuid.UUID) (auth.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, `
		select `+userColumns+` from "user" where user_id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return auth.User{}, &auth.NotFoundError{Resource: "user"}
	}
	if err != nil {
		return auth.User{}, err
	}
	return user, nil
}

func (s *Store) FindByEmail(ctx context.Context, email string) (auth.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, `
		select `+userColumns+` from "user" where email = $1`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return auth.User{}, &auth.NotFoundError{Resource: "account with email"}
	}
	if err != nil {
		return auth.User{}, err
	}
	return user, nil
}

func (s *Store) Update(ctx context.Context, id uuid.UUID, upd auth.UserUpdate) (auth.User, error) {
	user, err := scanUser(s.db.QueryRowContext(ctx, `
		update "user"
		set username      = coalesce($1, username),
		    display_name  = coalesce($2, display_name),
		    biography     = coalesce($3, biography),
		    password_hash = coalesce($4, password_hash),
		    updated_at    = now()
		where user_id = $5
		returning `+userColumns,
		upd.Username, upd.DisplayName, upd.Biography, upd.PasswordHash, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return auth.User{}, &auth.NotFoundError{Resource: "user"}
	}
	if err != nil {
		username := ""
		if upd.Username != nil {
			username = *upd.Username
		}
		return auth.User{}, onConstraint(err, usernameConstraints(username))
	}
	return user, nil
}

func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `delete from "user" where user_id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &auth.NotFoundError{Resource: "user"}
	}
	return nil
}

// UsernameAvailable reports whether no account currently holds the username.
func (s *Store) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
		select 1 from "user" where username = $1`, username).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return false, nil
}

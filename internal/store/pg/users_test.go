package pg

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"myace.ai/internal/auth"
)

var userCols = []string{"user_id", "username", "display_name", "biography", "email", "password_hash", "created_at", "updated_at"}

func userRow(id uuid.UUID, username, email string) *sqlmock.Rows {
	return sqlmock.NewRows(userCols).
		AddRow(id, username, "", "", email, "$argon2id$...", time.Now(), nil)
}

func TestCreateTeamMember(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	store := NewStore(db)

	id := uuid.New()
	mock.ExpectBegin()
	mock.ExpectQuery(`insert into "user"`).
		WithArgs("grace", "grace@myace.ai", sqlmock.AnyArg()).
		WillReturnRows(userRow(id, "grace", "grace@myace.ai"))
	mock.ExpectExec("insert into myace_team").
		WithArgs(id, "backend").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	user, err := store.CreateTeamMember(context.Background(), auth.NewTeamMember{
		Email:        "grace@myace.ai",
		Username:     "grace",
		PasswordHash: "$argon2id$...",
		Role:         auth.TeamRoleBackend,
	})
	if err != nil {
		t.Fatalf("CreateTeamMember: %v", err)
	}
	if user.ID != id || user.Username != "grace" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateTeamMemberDuplicateUsername(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	store := NewStore(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`insert into "user"`).
		WithArgs("grace", "grace@myace.ai", sqlmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "user_username_key"})
	mock.ExpectRollback()

	_, err = store.CreateTeamMember(context.Background(), auth.NewTeamMember{
		Email:        "grace@myace.ai",
		Username:     "grace",
		PasswordHash: "$argon2id$...",
		Role:         auth.TeamRoleBusiness,
	})
	var taken *auth.UsernameTakenError
	if !errors.As(err, &taken) {
		t.Fatalf("expected UsernameTakenError, got %v", err)
	}
	if taken.Username != "grace" {
		t.Fatalf("unexpected username in error: %q", taken.Username)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateTeamMemberInvalidUsername(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	store := NewStore(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`insert into "user"`).
		WithArgs("AB", "ab@myace.ai", sqlmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23514", ConstraintName: "uname_check"})
	mock.ExpectRollback()

	_, err = store.CreateTeamMember(context.Background(), auth.NewTeamMember{
		Email:        "ab@myace.ai",
		Username:     "AB",
		PasswordHash: "$argon2id$...",
		Role:         auth.TeamRoleFrontend,
	})
	var invalid *auth.InvalidUsernameError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidUsernameError, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateFromInviteConsumesInvitation(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	store := NewStore(db)

	inviteID := uuid.New()
	enterpriseID := uuid.New()
	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("select invite_id, enterprise_id, user_email, role").
		WithArgs("01J0FAKECODE").
		WillReturnRows(sqlmock.NewRows([]string{"invite_id", "enterprise_id", "user_email", "role"}).
			AddRow(inviteID, enterpriseID, "player@club.example", "player"))
	mock.ExpectQuery(`insert into "user"`).
		WithArgs("serena", "Serena", "", "player@club.example", sqlmock.AnyArg()).
		WillReturnRows(userRow(userID, "serena", "player@club.example"))
	mock.ExpectExec("insert into enterprise_membership").
		WithArgs(enterpriseID, userID, "player").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("delete from enterprise_invite").
		WithArgs(inviteID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	user, err := store.CreateFromInvite(context.Background(), auth.NewInvitedUser{
		InviteCode:   "01J0FAKECODE",
		Username:     "serena",
		DisplayName:  "Serena",
		PasswordHash: "$argon2id$...",
	})
	if err != nil {
		t.Fatalf("CreateFromInvite: %v", err)
	}
	if user.Email != "player@club.example" {
		t.Fatalf("account email should come from the invitation, got %q", user.Email)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateFromInviteUnknownCode(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	store := NewStore(db)

	mock.ExpectBegin()
	mock.ExpectQuery("select invite_id, enterprise_id, user_email, role").
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"invite_id", "enterprise_id", "user_email", "role"}))
	mock.ExpectRollback()

	_, err = store.CreateFromInvite(context.Background(), auth.NewInvitedUser{
		InviteCode:   "nope",
		Username:     "serena",
		PasswordHash: "$argon2id$...",
	})
	var nf *auth.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUsernameAvailable(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()
	store := NewStore(db)

	mock.ExpectQuery(`select 1 from "user"`).
		WithArgs("taken").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectQuery(`select 1 from "user"`).
		WithArgs("free").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	ok, err := store.UsernameAvailable(context.Background(), "taken")
	if err != nil || ok {
		t.Fatalf("taken username reported available (ok=%v err=%v)", ok, err)
	}
	ok, err = store.UsernameAvailable(context.Background(), "free")
	if err != nil || !ok {
		t.Fatalf("free username reported unavailable (ok=%v err=%v)", ok, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

package pg

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"myace.ai/internal/auth"
)

const enterpriseColumns = `enterprise_id, name, website_url, support_email, support_phone, logo_url, created_at, updated_at`

func scanEnterprise(row interface{ Scan(...any) error }) (auth.Enterprise, error) {
	var e auth.Enterprise
	err := row.Scan(&e.ID, &e.Name, &e.Website, &e.SupportEmail, &e.SupportPhone, &e.Logo, &e.CreatedAt, &e.UpdatedAt)
	return e, err
}

func enterpriseConstraints(email, phone *string) map[string]error {
	deref := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}
	return map[string]error{
		"email_address_check": &auth.InvalidEmailError{Email: deref(email)},
		"phone_number_check":  &auth.InvalidPhoneError{Phone: deref(phone)},
	}
}

func (s *Store) CreateEnterprise(ctx context.Context, in auth.NewEnterprise) (auth.Enterprise, error) {
	ent, err := scanEnterprise(s.db.QueryRowContext(ctx, `
		insert into enterprise (name, website_url, support_email, support_phone)
		values ($1, $2, $3, $4)
		returning `+enterpriseColumns,
		in.Name, in.Website, in.SupportEmail, in.SupportPhone,
	))
	if err != nil {
		return auth.Enterprise{}, onConstraint(err, enterpriseConstraints(in.SupportEmail, in.SupportPhone))
	}
	return ent, nil
}

func (s *Store) FindEnterprise(ctx context.Context, id uuid.UUID) (auth.Enterprise, error) {
	ent, err := scanEnterprise(s.db.QueryRowContext(ctx, `
		select `+enterpriseColumns+` from enterprise where enterprise_id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Enterprise{}, &auth.NotFoundError{Resource: "enterprise"}
	}
	if err != nil {
		return auth.Enterprise{}, err
	}
	return ent, nil
}

func (s *Store) ListEnterprises(ctx context.Context) ([]auth.Enterprise, error) {
	rows, err := s.db.QueryContext(ctx, `
		select `+enterpriseColumns+` from enterprise order by name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []auth.Enterprise
	for rows.Next() {
		ent, err := scanEnterprise(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ent)
	}
	return out, rows.Err()
}

func (s *Store) UpdateEnterprise(ctx context.Context, id uuid.UUID, upd auth.EnterpriseUpdate) (auth.Enterprise, error) {
	ent, err := scanEnterprise(s.db.QueryRowContext(ctx, `
		update enterprise
		set name          = coalesce($1, name),
		    website_url   = coalesce($2, website_url),
		    support_email = coalesce($3, support_email),
		    support_phone = coalesce($4, support_phone),
		    updated_at    = now()
		where enterprise_id = $5
		returning `+enterpriseColumns,
		upd.Name, upd.Website, upd.SupportEmail, upd.SupportPhone, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Enterprise{}, &auth.NotFoundError{Resource: "enterprise"}
	}
	if err != nil {
		return auth.Enterprise{}, onConstraint(err, enterpriseConstraints(upd.SupportEmail, upd.SupportPhone))
	}
	return ent, nil
}

func (s *Store) DeleteEnterprise(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `delete from enterprise where enterprise_id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &auth.NotFoundError{Resource: "enterprise"}
	}
	return nil
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// credentialRepo implements CredentialRepo.
type credentialRepo struct {
	db *sql.DB
}

func (r *credentialRepo) Save(ctx context.Context, c Credential) error {
	if c.SavedAt.IsZero() {
		c.SavedAt = time.Now()
	}
	query, args := builder().Insert(tableCredentials).
		Columns("portal_url", "token", "username", "learner_id", "role", "saved_at").
		Values(c.PortalURL, c.Token, c.Username, c.LearnerID, c.Role, c.SavedAt.UTC()).
		OnConflict(
			entsql.ConflictColumns("portal_url"),
			entsql.ResolveWithNewValues(),
		).
		Query()

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	return nil
}

func (r *credentialRepo) Load(ctx context.Context, portalURL string) (*Credential, error) {
	query, args := builder().Select("portal_url", "token", "username", "learner_id", "role", "saved_at").
		From(entsql.Table(tableCredentials)).
		Where(entsql.EQ("portal_url", portalURL)).
		Query()

	var c Credential
	err := r.db.QueryRowContext(ctx, query, args...).
		Scan(&c.PortalURL, &c.Token, &c.Username, &c.LearnerID, &c.Role, &c.SavedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load credential: %w", err)
	}
	return &c, nil
}

func (r *credentialRepo) Clear(ctx context.Context, portalURL string) error {
	query, args := builder().Delete(tableCredentials).
		Where(entsql.EQ("portal_url", portalURL)).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	return nil
}

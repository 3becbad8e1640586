package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	pkgerrors "github.com/FursAndrey/staffsync/pkg/errors"
	"github.com/FursAndrey/staffsync/pkg/store"
)

// LoadProfile returns the owner's profile of bundle with all its values.
func (s *Store) LoadProfile(ctx context.Context, owner store.Owner, bundle string) (*store.Profile, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, bundle, created_at, updated_at
		FROM profiles
		WHERE owner_id = ? AND bundle = ?
	`, owner.ID, bundle)

	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read profile: %w", err)
	}

	if err := s.loadValues(ctx, p); err != nil {
		return nil, false, err
	}
	return p, true, nil
}

// CreateProfile returns a new unsaved profile.
func (s *Store) CreateProfile(owner store.Owner, bundle string) *store.Profile {
	return store.NewProfile(owner.ID, bundle)
}

// SaveProfile inserts or updates the profile row and rewrites all of its
// values in one transaction.
func (s *Store) SaveProfile(ctx context.Context, p *store.Profile) (err error) {
	if p == nil {
		return pkgerrors.NewValidationError("profile", nil, "cannot be nil")
	}

	now := s.now()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write profile: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	id := p.ID
	createdAt := p.CreatedAt
	if p.IsNew() {
		createdAt = now
		res, execErr := tx.ExecContext(ctx, `
			INSERT INTO profiles (owner_id, bundle, created_at, updated_at)
			VALUES (?, ?, ?, ?)
		`, p.OwnerID, p.Bundle, formatTime(now), formatTime(now))
		switch {
		case isUniqueViolation(execErr):
			return pkgerrors.NewAlreadyExistsError("profile", p.Bundle+" for owner "+strconv.FormatInt(p.OwnerID, 10))
		case isForeignKeyViolation(execErr):
			return pkgerrors.NewNotFoundError("owner", strconv.FormatInt(p.OwnerID, 10))
		case execErr != nil:
			return fmt.Errorf("write profile: %w", execErr)
		}
		if id, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("write profile: %w", err)
		}
	} else {
		res, execErr := tx.ExecContext(ctx, `
			UPDATE profiles SET updated_at = ?
			WHERE id = ? AND owner_id = ? AND bundle = ?
		`, formatTime(now), p.ID, p.OwnerID, p.Bundle)
		if execErr != nil {
			return fmt.Errorf("write profile: %w", execErr)
		}
		n, execErr := res.RowsAffected()
		if execErr != nil {
			return fmt.Errorf("write profile: %w", execErr)
		}
		if n == 0 {
			return pkgerrors.NewNotFoundError("profile", strconv.FormatInt(p.ID, 10))
		}
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM profile_values WHERE profile_id = ?`, id); err != nil {
		return fmt.Errorf("write profile values: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO profile_values (profile_id, field, delta, kind, value)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write profile values: %w", err)
	}
	defer stmt.Close()

	for _, field := range p.FieldNames() {
		for delta, v := range p.List(field) {
			kind, text, encErr := encodeValue(v)
			if encErr != nil {
				return pkgerrors.WrapValidation(field, encErr)
			}
			if _, err = stmt.ExecContext(ctx, id, field, delta, kind, text); err != nil {
				return fmt.Errorf("write profile value %s[%d]: %w", field, delta, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("write profile: commit: %w", err)
	}

	p.ID = id
	p.CreatedAt = createdAt
	p.UpdatedAt = now
	return nil
}

// ListProfiles returns the owner's profiles ordered by bundle.
func (s *Store) ListProfiles(ctx context.Context, owner store.Owner) ([]*store.Profile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, bundle, created_at, updated_at
		FROM profiles
		WHERE owner_id = ?
		ORDER BY bundle ASC
	`, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("query profiles: %w", err)
	}

	profiles := []*store.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	rows.Close()

	// Values are loaded after the cursor is closed; the pool has one connection.
	for _, p := range profiles {
		if err := s.loadValues(ctx, p); err != nil {
			return nil, err
		}
	}
	return profiles, nil
}

// DeleteProfiles removes every profile of bundle and its values.
func (s *Store) DeleteProfiles(ctx context.Context, bundle string) (deleted int, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("delete profiles: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `
		DELETE FROM profile_values
		WHERE profile_id IN (SELECT id FROM profiles WHERE bundle = ?)
	`, bundle); err != nil {
		return 0, fmt.Errorf("delete profile values: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM profiles WHERE bundle = ?`, bundle)
	if err != nil {
		return 0, fmt.Errorf("delete profiles: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete profiles: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("delete profiles: commit: %w", err)
	}
	return int(n), nil
}

func (s *Store) loadValues(ctx context.Context, p *store.Profile) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT field, kind, value
		FROM profile_values
		WHERE profile_id = ?
		ORDER BY field ASC, delta ASC
	`, p.ID)
	if err != nil {
		return fmt.Errorf("query profile values: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			field, kind string
			text        sql.NullString
		)
		if err := rows.Scan(&field, &kind, &text); err != nil {
			return fmt.Errorf("scan profile value: %w", err)
		}
		v, err := decodeValue(kind, text)
		if err != nil {
			return fmt.Errorf("profile %d field %s: %w", p.ID, field, err)
		}
		p.Fields[field] = append(p.Fields[field], v)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate profile values: %w", err)
	}
	return nil
}

func scanProfile(row scanner) (*store.Profile, error) {
	var (
		p                    = store.NewProfile(0, "")
		createdAt, updatedAt string
	)
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Bundle, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return p, nil
}

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

// CreateOwner inserts an owner. A duplicate name is an already-exists error.
func (s *Store) CreateOwner(ctx context.Context, attrs store.OwnerAttrs) (store.Owner, error) {
	if attrs.Name == "" {
		return store.Owner{}, pkgerrors.NewValidationError("name", attrs.Name, "owner name cannot be empty")
	}

	createdAt := s.now()
	var mail sql.NullString
	if attrs.Mail != nil {
		mail = sql.NullString{String: *attrs.Mail, Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO owners (name, mail, active, created_at)
		VALUES (?, ?, ?, ?)
	`, attrs.Name, mail, attrs.Active, formatTime(createdAt))
	if err != nil {
		if isUniqueViolation(err) {
			return store.Owner{}, pkgerrors.NewAlreadyExistsError("owner", attrs.Name)
		}
		return store.Owner{}, fmt.Errorf("write owner: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return store.Owner{}, fmt.Errorf("write owner: %w", err)
	}

	owner := store.Owner{
		ID:        id,
		Name:      attrs.Name,
		Active:    attrs.Active,
		CreatedAt: createdAt,
	}
	if attrs.Mail != nil {
		m := *attrs.Mail
		owner.Mail = &m
	}
	return owner, nil
}

// LoadOwner returns the owner with id.
func (s *Store) LoadOwner(ctx context.Context, id int64) (store.Owner, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, mail, active, created_at
		FROM owners
		WHERE id = ?
	`, id)

	owner, err := scanOwner(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Owner{}, pkgerrors.NewNotFoundError("owner", strconv.FormatInt(id, 10))
	}
	if err != nil {
		return store.Owner{}, fmt.Errorf("read owner: %w", err)
	}
	return owner, nil
}

// FindOwnerByName returns the owner with the unique name.
func (s *Store) FindOwnerByName(ctx context.Context, name string) (store.Owner, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, mail, active, created_at
		FROM owners
		WHERE name = ?
	`, name)

	owner, err := scanOwner(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Owner{}, false, nil
	}
	if err != nil {
		return store.Owner{}, false, fmt.Errorf("find owner %s: %w", name, err)
	}
	return owner, true, nil
}

// FindOwnerByProfileKey resolves the owner of the lowest-ID profile of
// bundle whose first keyField value equals keyValue.
func (s *Store) FindOwnerByProfileKey(ctx context.Context, bundle, keyField, keyValue string) (store.Owner, bool, error) {
	var ownerID int64
	err := s.db.QueryRowContext(ctx, `
		SELECT p.owner_id
		FROM profiles p
		JOIN profile_values v ON v.profile_id = p.id
		WHERE p.bundle = ? AND v.field = ? AND v.delta = 0 AND v.value = ?
		ORDER BY p.id ASC
		LIMIT 1
	`, bundle, keyField, keyValue).Scan(&ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Owner{}, false, nil
	}
	if err != nil {
		return store.Owner{}, false, fmt.Errorf("find owner by %s: %w", keyField, err)
	}

	owner, err := s.LoadOwner(ctx, ownerID)
	if err != nil {
		return store.Owner{}, false, err
	}
	return owner, true, nil
}

// ListOwners returns all owners ordered by id.
func (s *Store) ListOwners(ctx context.Context) ([]store.Owner, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, mail, active, created_at
		FROM owners
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query owners: %w", err)
	}
	defer rows.Close()

	owners := []store.Owner{}
	for rows.Next() {
		owner, err := scanOwner(rows)
		if err != nil {
			return nil, fmt.Errorf("scan owner: %w", err)
		}
		owners = append(owners, owner)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate owners: %w", err)
	}
	return owners, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOwner(row scanner) (store.Owner, error) {
	var (
		owner     store.Owner
		mail      sql.NullString
		createdAt string
	)
	if err := row.Scan(&owner.ID, &owner.Name, &mail, &owner.Active, &createdAt); err != nil {
		return store.Owner{}, err
	}
	if mail.Valid {
		m := mail.String
		owner.Mail = &m
	}
	t, err := parseTime(createdAt)
	if err != nil {
		return store.Owner{}, err
	}
	owner.CreatedAt = t
	return owner, nil
}

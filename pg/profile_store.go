package pg

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/bob-jr-kab/eventcal"
	"github.com/bob-jr-kab/eventcal/errors"
)

// ProfileStore stores user profile records in a PostgreSQL database.
type ProfileStore struct {
	DB *sql.DB
}

// Init sets up the database schema and creates indices.
func (u *ProfileStore) Init(ctx context.Context) error {
	const op errors.Op = "ProfileStore.Init"

	_, err := u.DB.ExecContext(ctx, `
    CREATE TABLE IF NOT EXISTS users (
	   sequence          SERIAL        NOT NULL,
	   user_id           TEXT          NOT NULL,

	   username          TEXT          NOT NULL DEFAULT '',
	   email             TEXT          NOT NULL DEFAULT ''
	);
	CREATE UNIQUE INDEX IF NOT EXISTS user_id_idx ON users (user_id);`)
	if err != nil {
		return errors.E(op, pgErr(err))
	}

	return nil
}

// Create saves a profile, replacing the one with the same user id.
func (u *ProfileStore) Create(ctx context.Context, p eventcal.Profile) error {
	const op errors.Op = "ProfileStore.Create"

	if p.UserID == "" {
		return errors.E(op, errors.Invalid, errors.StoreError, "profile has no user id")
	}

	_, err := u.DB.ExecContext(ctx, `
	INSERT INTO users (user_id, username, email)
	VALUES ($1, $2, $3)
	ON CONFLICT (user_id) DO UPDATE SET username = $2, email = $3`,
		p.UserID, p.Username, p.Email)
	if err != nil {
		return errors.E(op, p.UserID, pgErr(err))
	}
	return nil
}

// Update applies the username and email of a ProfileUpdate to the given
// profile, then returns the result.
func (u *ProfileStore) Update(ctx context.Context, userID eventcal.UserID, update eventcal.ProfileUpdate) (eventcal.Profile, error) {
	const op errors.Op = "ProfileStore.Update"

	fields := []string{"user_id"}
	args := []interface{}{userID}

	for _, field := range strings.Split(update.Mask, ",") {
		switch strings.TrimSpace(field) {
		case "username":
			fields = append(fields, "username")
			args = append(args, update.Username)

		case "email":
			fields = append(fields, "email")
			args = append(args, update.Email)
		}
	}

	if len(fields) > 1 {
		var updates []string
		for i, field := range fields {
			if i == 0 { // skip id
				continue
			}
			updates = append(updates, fmt.Sprintf("%s = $%d", field, i+1))
		}

		query := fmt.Sprintf(`
			UPDATE users SET %s WHERE user_id = $1`,
			strings.Join(updates, ", "))
		res, err := u.DB.ExecContext(ctx, query, args...)
		if err != nil {
			return eventcal.Profile{}, errors.E(op, userID, pgErr(err))
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return eventcal.Profile{}, errors.E(op, userID, errors.NotExist, errors.StoreError)
		}
	}

	profile, err := u.GetByID(ctx, userID)
	if err != nil {
		return eventcal.Profile{}, errors.E(op, err)
	}

	return profile, nil
}

// GetByID retrieves a Profile by user ID.
func (u *ProfileStore) GetByID(ctx context.Context, userID eventcal.UserID) (eventcal.Profile, error) {
	const op errors.Op = "ProfileStore.GetByID"

	var p eventcal.Profile

	err := u.DB.QueryRowContext(ctx, `
		SELECT
			user_id,
			username,
			email
		FROM users
		WHERE user_id = $1
	`, userID).Scan(
		&p.UserID,
		&p.Username,
		&p.Email,
	)
	if err != nil {
		return p, errors.E(op, userID, pgErr(err))
	}

	return p, nil
}

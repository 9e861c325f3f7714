// Package pg stores events and profiles in PostgreSQL.
package pg

import (
	"context"
	"database/sql"
	"net"

	"github.com/lib/pq"

	"github.com/bob-jr-kab/eventcal/errors"
)

// pgErr converts an error produced by lib/pq into an eventcal domain error.
// All sql statements in package pg should return errors wrapped by pgErr.
func pgErr(err error) error {
	if err == sql.ErrNoRows {
		return errors.E(errors.NotExist, errors.StoreError)
	}
	if _, ok := err.(net.Error); ok {
		return errors.E(errors.Unavailable, errors.StoreError, err)
	}

	e, ok := err.(*pq.Error)
	if !ok {
		return errors.E(errors.StoreError, err)
	}

	switch e.Code.Name() {
	case "unique_violation":
		return errors.E(errors.Exist, errors.StoreError, e.Message)
	case "query_canceled":
		return errors.E(errors.StoreError, context.Canceled)
	case "admin_shutdown", "cannot_connect_now", "too_many_connections":
		return errors.E(errors.Unavailable, errors.StoreError, e)
	default:
		return errors.E(errors.StoreError, e)
	}
}

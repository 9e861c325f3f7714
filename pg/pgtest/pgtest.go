// Package pgtest gives each PostgreSQL store test a database of its own on
// the server named by EVENTCAL_TEST_DB, and drops it when the test ends.
package pgtest

import (
	"context"
	"database/sql"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/bob-jr-kab/eventcal/errors"
)

// URLEnv names the environment variable holding the URL of the server test
// databases are created on. Tests are skipped when it's unset.
const URLEnv = "EVENTCAL_TEST_DB"

const setupTimeout = 30 * time.Second

// NewDB returns a connection to an empty database that only t uses. The
// connection is closed and the database dropped in t's cleanup.
func NewDB(t testing.TB) *sql.DB {
	t.Helper()

	serverURL := os.Getenv(URLEnv)
	if serverURL == "" {
		t.Skipf("%s not set, skipping PostgreSQL test", URLEnv)
	}

	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()

	admin, err := sql.Open("postgres", serverURL)
	if err != nil {
		t.Fatal(errors.E(errors.Op("pgtest.NewDB"), err))
	}

	name := DatabaseName()
	db, err := create(ctx, admin, serverURL, name)
	if err != nil {
		admin.Close()
		t.Fatal(err)
	}

	t.Cleanup(func() {
		db.Close()
		defer admin.Close()

		ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
		defer cancel()
		if _, err := admin.ExecContext(ctx, "DROP DATABASE IF EXISTS "+pq.QuoteIdentifier(name)); err != nil {
			t.Logf("pgtest: dropping %s: %v", name, err)
		}
	})
	return db
}

// DatabaseName picks a fresh database name.
func DatabaseName() string {
	return "eventcal_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func create(ctx context.Context, admin *sql.DB, serverURL, name string) (*sql.DB, error) {
	const op errors.Op = "pgtest.create"

	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, errors.E(op, errors.Invalid, err)
	}
	if _, err := admin.ExecContext(ctx, "CREATE DATABASE "+pq.QuoteIdentifier(name)); err != nil {
		return nil, errors.E(op, errors.Errorf("creating %s: %v", name, err))
	}

	u.Path = "/" + name
	db, err := sql.Open("postgres", u.String())
	if err != nil {
		return nil, errors.E(op, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.E(op, errors.Unavailable, err)
	}
	return db, nil
}

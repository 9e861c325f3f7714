package pg

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/bob-jr-kab/eventcal"
	"github.com/bob-jr-kab/eventcal/errors"
)

// EventStore stores and retrieves Events from a PostgreSQL database. Every
// query is scoped to the owning user.
type EventStore struct {
	DB *sql.DB
}

// Init sets up the database schema and creates indices.
func (s *EventStore) Init(ctx context.Context) error {
	const op errors.Op = "EventStore.Init"

	_, err := s.DB.ExecContext(ctx, `
	CREATE TABLE IF NOT EXISTS events (
	   sequence       SERIAL        NOT NULL,
	   id             VARCHAR(40),

	   user_id        TEXT          NOT NULL,

	   title          TEXT          NOT NULL DEFAULT '',
	   date           TIMESTAMPTZ   NOT NULL,
	   start_time     TEXT          NOT NULL DEFAULT '',
	   end_time       TEXT          NOT NULL DEFAULT '',
	   location       TEXT          NOT NULL DEFAULT '',
	   email          TEXT          NOT NULL DEFAULT '',
	   reminder       TEXT          NOT NULL DEFAULT '',

	   created_at     TIMESTAMPTZ   NOT NULL DEFAULT NOW()
	);
	CREATE UNIQUE INDEX IF NOT EXISTS event_id_idx ON events (id);
	CREATE INDEX IF NOT EXISTS event_user_date_idx ON events (user_id, date);`)
	if err != nil {
		return errors.E(op, pgErr(err))
	}

	return nil
}

// Create saves a new Event owned by owner and returns it with its id.
func (s *EventStore) Create(ctx context.Context, owner eventcal.UserID, draft eventcal.EventDraft) (eventcal.Event, error) {
	const op errors.Op = "EventStore.Create"

	if owner == "" {
		return eventcal.Event{}, errors.E(op, errors.NotLoggedIn, errors.StoreError)
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return eventcal.Event{}, errors.E(op, pgErr(err))
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `
	INSERT INTO events
		(user_id, title, date, start_time, end_time, location, email, reminder)
	VALUES
		($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING sequence`,
		owner, draft.Title, draft.Date, draft.StartTime, draft.EndTime,
		draft.Location, draft.Email, string(draft.Reminder))

	var sequence int64
	if err = row.Scan(&sequence); err != nil {
		return eventcal.Event{}, errors.E(op, pgErr(err), "get event id")
	}

	eventID := eventcal.EventID(fmt.Sprint(sequence))
	_, err = tx.ExecContext(ctx, `
	UPDATE events
	SET id = $1
	WHERE sequence = $2`, eventID, sequence)
	if err != nil {
		return eventcal.Event{}, errors.E(op, pgErr(err), "set event id")
	}

	if err := tx.Commit(); err != nil {
		return eventcal.Event{}, errors.E(op, pgErr(err))
	}

	return s.Get(ctx, owner, eventID)
}

// Get retrieves one of owner's Events by ID.
func (s *EventStore) Get(ctx context.Context, owner eventcal.UserID, id eventcal.EventID) (eventcal.Event, error) {
	const op errors.Op = "EventStore.Get"

	events, err := s.list(ctx, "WHERE id = $1 AND user_id = $2", id, owner)
	if err != nil {
		return eventcal.Event{}, errors.E(op, err)
	}
	if len(events) == 0 {
		return eventcal.Event{}, errors.E(op, owner, errors.NotExist, errors.StoreError, "event not found")
	}

	return events[0], nil
}

// ListForUser returns all of owner's events, ordered by date.
func (s *EventStore) ListForUser(ctx context.Context, owner eventcal.UserID) ([]eventcal.Event, error) {
	const op errors.Op = "EventStore.ListForUser"

	events, err := s.list(ctx, "WHERE user_id = $1", owner)
	if err != nil {
		return nil, errors.E(op, err)
	}
	if events == nil {
		events = []eventcal.Event{}
	}
	return events, nil
}

// eventColumns maps EventUpdate mask names to columns.
var eventColumns = map[string]string{
	"title":     "title",
	"date":      "date",
	"startTime": "start_time",
	"endTime":   "end_time",
	"location":  "location",
	"email":     "email",
	"reminder":  "reminder",
}

// Update applies an EventUpdate to one of owner's Events, then returns the
// result. Events of other users look the same as missing ones.
func (s *EventStore) Update(ctx context.Context, owner eventcal.UserID, id eventcal.EventID, update eventcal.EventUpdate) (eventcal.Event, error) {
	const op errors.Op = "EventStore.Update"

	fields := []string{"id", "user_id"}
	args := []interface{}{id, owner}

	for _, field := range update.Fields() {
		fields = append(fields, eventColumns[field])
		switch field {
		case "title":
			args = append(args, update.Title)
		case "date":
			args = append(args, update.Date)
		case "startTime":
			args = append(args, update.StartTime)
		case "endTime":
			args = append(args, update.EndTime)
		case "location":
			args = append(args, update.Location)
		case "email":
			args = append(args, update.Email)
		case "reminder":
			args = append(args, string(update.Reminder))
		}
	}

	if len(fields) == 2 {
		return s.Get(ctx, owner, id)
	}

	var updates []string
	for i, field := range fields {
		if i < 2 { // skip id and user_id
			continue
		}
		updates = append(updates, fmt.Sprintf("%s = $%d", field, i+1))
	}

	query := fmt.Sprintf(`
		UPDATE events SET %s WHERE id = $1 AND user_id = $2`,
		strings.Join(updates, ", "))
	res, err := s.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return eventcal.Event{}, errors.E(op, pgErr(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eventcal.Event{}, errors.E(op, pgErr(err))
	}
	if n == 0 {
		return eventcal.Event{}, errors.E(op, owner, errors.NotExist, errors.StoreError, "event not found")
	}

	return s.Get(ctx, owner, id)
}

// Delete removes one of owner's Events. Deleting a missing event is not an
// error.
func (s *EventStore) Delete(ctx context.Context, owner eventcal.UserID, id eventcal.EventID) error {
	const op errors.Op = "EventStore.Delete"

	_, err := s.DB.ExecContext(ctx, `
	DELETE FROM events
	WHERE id = $1 AND user_id = $2`, id, owner)
	if err != nil {
		return errors.E(op, pgErr(err))
	}
	return nil
}

func (s *EventStore) list(ctx context.Context, where string, args ...interface{}) ([]eventcal.Event, error) {
	rows, err := s.DB.QueryContext(ctx, `
	SELECT
		id,
		user_id,
		title,
		date,
		start_time,
		end_time,
		location,
		email,
		reminder
	FROM events
	`+where+`
	ORDER BY date, sequence`, args...)
	if err != nil {
		return nil, pgErr(err)
	}
	defer rows.Close()

	var events []eventcal.Event
	for rows.Next() {
		var e eventcal.Event
		var reminder string
		err := rows.Scan(
			&e.ID,
			&e.OwnerID,
			&e.Title,
			&e.Date,
			&e.StartTime,
			&e.EndTime,
			&e.Location,
			&e.Email,
			&reminder,
		)
		if err != nil {
			return nil, pgErr(err)
		}
		e.Reminder = eventcal.Reminder(reminder)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, pgErr(err)
	}

	return events, nil
}

// Package fstore stores events and profiles in Cloud Firestore, in the
// collections the web client has always used: "events" holds one document
// per event with the owner's id in "uid", and "users/{uid}" holds profiles.
package fstore

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bob-jr-kab/eventcal"
	"github.com/bob-jr-kab/eventcal/errors"
)

const (
	eventsCollection = "events"
	usersCollection  = "users"
)

// fsErr converts a Firestore error into an eventcal domain error.
func fsErr(err error) error {
	switch status.Code(err) {
	case codes.NotFound:
		return errors.E(errors.NotExist, errors.StoreError, err)
	case codes.AlreadyExists:
		return errors.E(errors.Exist, errors.StoreError, err)
	case codes.PermissionDenied:
		return errors.E(errors.Permission, errors.StoreError, err)
	case codes.Unauthenticated:
		return errors.E(errors.NotLoggedIn, errors.StoreError, err)
	case codes.Unavailable, codes.DeadlineExceeded:
		return errors.E(errors.Unavailable, errors.StoreError, err)
	case codes.InvalidArgument:
		return errors.E(errors.Invalid, errors.StoreError, err)
	}
	return errors.E(errors.StoreError, err)
}

type eventDoc struct {
	UID       string    `firestore:"uid"`
	Title     string    `firestore:"title"`
	Date      time.Time `firestore:"date"`
	StartTime string    `firestore:"startTime"`
	EndTime   string    `firestore:"endTime"`
	Location  string    `firestore:"location"`
	Email     string    `firestore:"email"`
	Reminder  string    `firestore:"reminder"`
}

func (d eventDoc) event(id string) eventcal.Event {
	return eventcal.Event{
		ID:        eventcal.EventID(id),
		OwnerID:   eventcal.UserID(d.UID),
		Title:     d.Title,
		Date:      d.Date,
		StartTime: d.StartTime,
		EndTime:   d.EndTime,
		Location:  d.Location,
		Email:     d.Email,
		Reminder:  eventcal.Reminder(d.Reminder),
	}
}

// EventStore keeps events in Firestore.
type EventStore struct {
	Client *firestore.Client
}

// Create saves a new event owned by owner under a generated document id.
func (s *EventStore) Create(ctx context.Context, owner eventcal.UserID, draft eventcal.EventDraft) (eventcal.Event, error) {
	const op errors.Op = "fstore.EventStore.Create"

	if owner == "" {
		return eventcal.Event{}, errors.E(op, errors.NotLoggedIn, errors.StoreError)
	}

	doc := eventDoc{
		UID:       string(owner),
		Title:     draft.Title,
		Date:      draft.Date,
		StartTime: draft.StartTime,
		EndTime:   draft.EndTime,
		Location:  draft.Location,
		Email:     draft.Email,
		Reminder:  string(draft.Reminder),
	}

	ref := s.Client.Collection(eventsCollection).NewDoc()
	if _, err := ref.Create(ctx, doc); err != nil {
		return eventcal.Event{}, errors.E(op, owner, fsErr(err))
	}
	return doc.event(ref.ID), nil
}

// ListForUser returns owner's events, ordered by date.
func (s *EventStore) ListForUser(ctx context.Context, owner eventcal.UserID) ([]eventcal.Event, error) {
	const op errors.Op = "fstore.EventStore.ListForUser"

	snaps, err := s.Client.Collection(eventsCollection).
		Where("uid", "==", string(owner)).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, errors.E(op, owner, fsErr(err))
	}

	events := make([]eventcal.Event, 0, len(snaps))
	for _, snap := range snaps {
		var doc eventDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, errors.E(op, owner, errors.Internal, errors.StoreError, err)
		}
		events = append(events, doc.event(snap.Ref.ID))
	}
	// Sorting here keeps the query on the single-field uid index.
	sort.SliceStable(events, func(i, j int) bool { return events[i].Date.Before(events[j].Date) })
	return events, nil
}

// eventPaths maps EventUpdate mask names to document fields.
var eventPaths = map[string]string{
	"title":     "title",
	"date":      "date",
	"startTime": "startTime",
	"endTime":   "endTime",
	"location":  "location",
	"email":     "email",
	"reminder":  "reminder",
}

// Update applies update to owner's event id inside a transaction and returns
// the result. Another user's event looks the same as a missing one.
func (s *EventStore) Update(ctx context.Context, owner eventcal.UserID, id eventcal.EventID, update eventcal.EventUpdate) (eventcal.Event, error) {
	const op errors.Op = "fstore.EventStore.Update"

	if id == "" {
		return eventcal.Event{}, errors.E(op, owner, errors.NotExist, errors.StoreError, "event not found")
	}
	ref := s.Client.Collection(eventsCollection).Doc(string(id))

	var result eventcal.Event
	err := s.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return fsErr(err)
		}
		var doc eventDoc
		if err := snap.DataTo(&doc); err != nil {
			return errors.E(errors.Internal, errors.StoreError, err)
		}
		if doc.UID != string(owner) {
			return errors.E(errors.NotExist, errors.StoreError, "event not found")
		}

		result = update.Apply(doc.event(ref.ID))

		var updates []firestore.Update
		for _, field := range update.Fields() {
			var v interface{}
			switch field {
			case "title":
				v = result.Title
			case "date":
				v = result.Date
			case "startTime":
				v = result.StartTime
			case "endTime":
				v = result.EndTime
			case "location":
				v = result.Location
			case "email":
				v = result.Email
			case "reminder":
				v = string(result.Reminder)
			}
			updates = append(updates, firestore.Update{Path: eventPaths[field], Value: v})
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Update(ref, updates)
	})
	if err != nil {
		return eventcal.Event{}, errors.E(op, owner, err)
	}
	return result, nil
}

// Delete removes owner's event id. Missing and foreign events are left
// alone without an error.
func (s *EventStore) Delete(ctx context.Context, owner eventcal.UserID, id eventcal.EventID) error {
	const op errors.Op = "fstore.EventStore.Delete"

	if id == "" {
		return nil
	}
	ref := s.Client.Collection(eventsCollection).Doc(string(id))

	err := s.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return nil
		} else if err != nil {
			return fsErr(err)
		}
		if uid, _ := snap.Data()["uid"].(string); uid != string(owner) {
			return nil
		}
		return tx.Delete(ref)
	})
	if err != nil {
		return errors.E(op, owner, err)
	}
	return nil
}

type profileDoc struct {
	Username string `firestore:"username"`
	Email    string `firestore:"email"`
}

// ProfileStore keeps profiles in the users collection.
type ProfileStore struct {
	Client *firestore.Client
}

// Create writes the profile document, replacing any existing one.
func (s *ProfileStore) Create(ctx context.Context, p eventcal.Profile) error {
	const op errors.Op = "fstore.ProfileStore.Create"

	if p.UserID == "" {
		return errors.E(op, errors.Invalid, errors.StoreError, "profile has no user id")
	}
	_, err := s.Client.Collection(usersCollection).Doc(string(p.UserID)).Set(ctx, profileDoc{
		Username: p.Username,
		Email:    p.Email,
	})
	if err != nil {
		return errors.E(op, p.UserID, fsErr(err))
	}
	return nil
}

// GetByID reads the profile of user id.
func (s *ProfileStore) GetByID(ctx context.Context, id eventcal.UserID) (eventcal.Profile, error) {
	const op errors.Op = "fstore.ProfileStore.GetByID"

	if id == "" {
		return eventcal.Profile{}, errors.E(op, errors.NotExist, errors.StoreError)
	}
	snap, err := s.Client.Collection(usersCollection).Doc(string(id)).Get(ctx)
	if err != nil {
		return eventcal.Profile{}, errors.E(op, id, fsErr(err))
	}
	var doc profileDoc
	if err := snap.DataTo(&doc); err != nil {
		return eventcal.Profile{}, errors.E(op, id, errors.Internal, errors.StoreError, err)
	}
	return eventcal.Profile{UserID: id, Username: doc.Username, Email: doc.Email}, nil
}

// Update applies the username and email of update and returns the result.
func (s *ProfileStore) Update(ctx context.Context, id eventcal.UserID, update eventcal.ProfileUpdate) (eventcal.Profile, error) {
	const op errors.Op = "fstore.ProfileStore.Update"

	if id == "" {
		return eventcal.Profile{}, errors.E(op, errors.NotExist, errors.StoreError)
	}
	ref := s.Client.Collection(usersCollection).Doc(string(id))

	var result eventcal.Profile
	err := s.Client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return fsErr(err)
		}
		var doc profileDoc
		if err := snap.DataTo(&doc); err != nil {
			return errors.E(errors.Internal, errors.StoreError, err)
		}

		var updates []firestore.Update
		if update.Has("username") {
			doc.Username = update.Username
			updates = append(updates, firestore.Update{Path: "username", Value: doc.Username})
		}
		if update.Has("email") {
			doc.Email = update.Email
			updates = append(updates, firestore.Update{Path: "email", Value: doc.Email})
		}
		result = eventcal.Profile{UserID: id, Username: doc.Username, Email: doc.Email}
		if len(updates) == 0 {
			return nil
		}
		return tx.Update(ref, updates)
	})
	if err != nil {
		return eventcal.Profile{}, errors.E(op, id, err)
	}
	return result, nil
}

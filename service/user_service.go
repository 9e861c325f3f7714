package service

import (
	"context"

	"github.com/bob-jr-kab/eventcal"
	"github.com/bob-jr-kab/eventcal/errors"
)

// ProfileGet retrieves a user's profile. Only "me" is allowed.
func (s *Service) ProfileGet(ctx context.Context, id eventcal.UserID) (eventcal.Profile, error) {
	const op errors.Op = "Service.ProfileGet"

	_, uid, err := s.signedIn(ctx, op)
	if err != nil {
		return eventcal.Profile{}, err
	}
	if id != "me" && id != uid {
		return eventcal.Profile{}, errors.E(op, errors.Permission, uid)
	}

	profile, err := s.ProfileStore.GetByID(ctx, uid)
	if err != nil {
		return eventcal.Profile{}, errors.E(op, uid, err)
	}
	return profile, nil
}

// ProfileUpdate lets users change their username, email and password.
func (s *Service) ProfileUpdate(ctx context.Context, id eventcal.UserID, update eventcal.ProfileUpdate) (eventcal.Profile, error) {
	const op errors.Op = "Service.ProfileUpdate"

	c, uid, err := s.signedIn(ctx, op)
	if err != nil {
		return eventcal.Profile{}, err
	}
	if id != "me" && id != uid {
		return eventcal.Profile{}, errors.E(op, errors.Permission, uid)
	}

	profile, err := s.Gateway.UpdateAccount(ctx, c.Session, update)
	if err != nil {
		return eventcal.Profile{}, errors.E(op, uid, err)
	}
	return profile, nil
}

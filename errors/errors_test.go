package errors

import (
	"net/http"
	"testing"

	"github.com/bob-jr-kab/eventcal"
)

func TestEPullsUpKindAndClass(t *testing.T) {
	t.Parallel()

	inner := E(Op("EventStore.Update"), NotExist, StoreError)
	outer := E(Op("Service.EventUpdate"), eventcal.UserID("alice"), inner)

	if !Is(NotExist, outer) {
		t.Fatalf("Is(NotExist, %v) = false", outer)
	}
	if got, want := ClassOf(outer), StoreError; got != want {
		t.Fatalf("ClassOf() = %q, want %q", got, want)
	}
	want := E(Op("Service.EventUpdate"), NotExist, StoreError)
	if !Match(want, outer) {
		t.Fatalf("Match(%v, %v) = false", want, outer)
	}
}

func TestResponseRoundTrip(t *testing.T) {
	t.Parallel()

	for _, test := range []struct {
		Err    error
		Status int
		Kind   Kind
	}{
		{E(Invalid, ValidationError, Field("title"), "title is required"), http.StatusBadRequest, Invalid},
		{E(Credentials, AuthError), http.StatusUnauthorized, Credentials},
		{E(NotLoggedIn, StoreError), http.StatusUnauthorized, NotLoggedIn},
		{E(NotLoggedIn, AuthError), http.StatusUnauthorized, NotLoggedIn},
		{E(Exist, AuthError), http.StatusConflict, Exist},
		{E(WeakPassword, AuthError), http.StatusUnprocessableEntity, WeakPassword},
		{E(Unavailable, AuthError, "dial tcp: timeout"), http.StatusServiceUnavailable, Unavailable},
		{E(NotExist, StoreError), http.StatusNotFound, NotExist},
	} {
		resp := ResponseForError(test.Err)
		if resp.Status != test.Status {
			t.Errorf("ResponseForError(%v).Status = %d, want %d", test.Err, resp.Status, test.Status)
		}
		if got := resp.ToError(); !Is(test.Kind, got) {
			t.Errorf("ToError() = %v, want kind %v", got, test.Kind)
		}
		if got, want := ClassOf(resp.ToError()), ClassOf(test.Err); got != want {
			t.Errorf("ToError() class = %q, want %q", got, want)
		}
	}
}

func TestResponseKeepsField(t *testing.T) {
	t.Parallel()

	resp := ResponseForError(E(Invalid, ValidationError, Field("reminder"), "unknown reminder"))
	if resp.Field != "reminder" {
		t.Fatalf("Field = %q, want reminder", resp.Field)
	}
}

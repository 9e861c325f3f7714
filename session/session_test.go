package session_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/bob-jr-kab/eventcal"
	"github.com/bob-jr-kab/eventcal/session"
)

func TestObserveCalledImmediately(t *testing.T) {
	t.Parallel()

	sess := session.New("s1")
	sess.Set(&eventcal.Identity{ID: "alice"})

	var seen []eventcal.UserID
	unsubscribe := sess.Observe(func(id *eventcal.Identity) {
		if id == nil {
			seen = append(seen, "")
			return
		}
		seen = append(seen, id.ID)
	})

	sess.Set(nil)
	sess.Set(&eventcal.Identity{ID: "bob"})
	unsubscribe()
	unsubscribe() // twice is fine
	sess.Set(nil)

	want := []eventcal.UserID{"alice", "", "bob"}
	if len(seen) != len(want) {
		t.Fatalf("observer saw %q, want %q", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("observer saw %q, want %q", seen, want)
		}
	}
	if got := sess.Observers(); got != 0 {
		t.Fatalf("Observers() = %d after unsubscribe, want 0", got)
	}
}

func TestSetNilOnEmptySessionIsQuiet(t *testing.T) {
	t.Parallel()

	sess := session.New("s1")
	calls := 0
	sess.Observe(func(*eventcal.Identity) { calls++ })
	sess.Set(nil)
	if calls != 1 {
		t.Fatalf("observer called %d times, want 1 (the initial call)", calls)
	}
}

func TestIdentityIsACopy(t *testing.T) {
	t.Parallel()

	sess := session.New("s1")
	id := &eventcal.Identity{ID: "alice", DisplayName: "Alice"}
	sess.Set(id)
	id.DisplayName = "Mallory"

	got := sess.Identity()
	if got.DisplayName != "Alice" {
		t.Fatalf("session identity changed through caller's pointer: %+v", got)
	}
	got.DisplayName = "Eve"
	if sess.Identity().DisplayName != "Alice" {
		t.Fatal("session identity changed through returned pointer")
	}
}

func TestConcurrentSetsDeliverInOrder(t *testing.T) {
	t.Parallel()

	sess := session.New("s1")

	// Each observer must end on the identity the session ended on, and no
	// two deliveries may overlap.
	var (
		mu       sync.Mutex
		inFlight int
		last     [2]eventcal.UserID
	)
	for i := range last {
		i := i
		sess.Observe(func(id *eventcal.Identity) {
			mu.Lock()
			inFlight++
			if inFlight > 1 {
				mu.Unlock()
				t.Error("observer called while another delivery was running")
				return
			}
			mu.Unlock()

			var uid eventcal.UserID
			if id != nil {
				uid = id.ID
			}

			mu.Lock()
			last[i] = uid
			inFlight--
			mu.Unlock()
		})
	}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for n := 0; n < 200; n++ {
				if n%3 == 0 {
					sess.Set(nil)
					continue
				}
				sess.Set(&eventcal.Identity{ID: eventcal.UserID(fmt.Sprintf("u%d-%d", g, n))})
			}
		}(g)
	}
	wg.Wait()

	want := sess.UserID()
	for i, got := range last {
		if got != want {
			t.Fatalf("observer %d last saw %q, session is %q", i, got, want)
		}
	}
}

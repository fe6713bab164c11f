package timectrl

import (
	"testing"
	"time"
)

func TestTimeControllerSetTime(t *testing.T) {
	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	tc := NewTimeController(start, time.Second, RealTime)

	newNow := start.Add(42 * time.Second)
	tc.SetTime(newNow)

	if got := tc.Now(); !got.Equal(newNow) {
		t.Fatalf("Now() = %v, want %v", got, newNow)
	}
}

func TestTimeControllerStartUpdatesNow(t *testing.T) {
	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	tc := NewTimeController(start, 5*time.Millisecond, Accelerated)

	done := tc.Start(15 * time.Millisecond)
	<-done

	expected := start.Add(15 * time.Millisecond)
	if got := tc.Now(); !got.Equal(expected) {
		t.Fatalf("Now() = %v, want %v", got, expected)
	}
}

func TestTimeControllerAdvanceFiresListeners(t *testing.T) {
	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	tc := NewTimeController(start, time.Second, RealTime)

	var fired []time.Time
	tc.AddListener(func(now time.Time) { fired = append(fired, now) })

	tc.Advance(30 * time.Second)
	tc.Advance(30 * time.Second)

	if len(fired) != 2 {
		t.Fatalf("listener fired %d times, want 2", len(fired))
	}
	if want := start.Add(time.Minute); !fired[1].Equal(want) {
		t.Fatalf("second tick at %v, want %v", fired[1], want)
	}
}

func TestTimeControllerStopEndsRun(t *testing.T) {
	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	tc := NewTimeController(start, time.Millisecond, Accelerated)

	done := tc.Start(0) // run until stopped
	tc.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("controller did not stop within 1s")
	}

	// A second Stop must not panic.
	tc.Stop()
}

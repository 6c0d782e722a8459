package observe

import (
	"testing"
	"time"
)

func TestValue_GetReturnsInitial(t *testing.T) {
	v := NewValue(42)
	if got := v.Get(); got != 42 {
		t.Errorf("Get() = %d, want 42", got)
	}
}

func TestValue_SetUpdatesGet(t *testing.T) {
	v := NewValue("a")
	v.Set("b")
	if got := v.Get(); got != "b" {
		t.Errorf("Get() = %q, want %q", got, "b")
	}
}

func TestValue_SubscribeReceivesUpdates(t *testing.T) {
	v := NewValue(0)
	sub := v.Subscribe()
	defer sub.Cancel()

	v.Set(1)

	select {
	case got := <-sub.C:
		if got != 1 {
			t.Errorf("received %d, want 1", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for update")
	}
}

func TestValue_SlowSubscriberGetsLatest(t *testing.T) {
	v := NewValue(0)
	sub := v.Subscribe()
	defer sub.Cancel()

	// Subscriber never drains between sets; intermediate values conflate.
	v.Set(1)
	v.Set(2)
	v.Set(3)

	select {
	case got := <-sub.C:
		if got != 3 {
			t.Errorf("received %d, want latest value 3", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for update")
	}
}

func TestValue_CancelStopsDelivery(t *testing.T) {
	v := NewValue(0)
	sub := v.Subscribe()
	sub.Cancel()
	sub.Cancel() // idempotent

	v.Set(1)

	select {
	case got := <-sub.C:
		t.Errorf("received %d after cancel", got)
	default:
	}
}

func TestValue_MultipleSubscribers(t *testing.T) {
	v := NewValue(0)
	a := v.Subscribe()
	defer a.Cancel()
	b := v.Subscribe()
	defer b.Cancel()

	v.Set(7)

	for _, sub := range []*Subscription[int]{a, b} {
		select {
		case got := <-sub.C:
			if got != 7 {
				t.Errorf("received %d, want 7", got)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for update")
		}
	}
}

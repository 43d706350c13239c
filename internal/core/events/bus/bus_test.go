package bus

import (
	"errors"
	"testing"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	var got Event
	b.Subscribe(TypeFrame, func(e Event) error {
		got = e
		return nil
	})
	if err := b.Publish(NewEvent(TypeFrame, "sim", 7)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if got.Type != TypeFrame || got.Data != 7 {
		t.Fatalf("handler saw wrong event: %+v", got)
	}
}

func TestTypeIsolation(t *testing.T) {
	b := New()
	frames := 0
	finishes := 0
	b.Subscribe(TypeFrame, func(Event) error { frames++; return nil })
	b.Subscribe(TypeFinish, func(Event) error { finishes++; return nil })
	_ = b.Publish(NewEvent(TypeFrame, "sim", nil))
	_ = b.Publish(NewEvent(TypeFrame, "sim", nil))
	_ = b.Publish(NewEvent(TypeFinish, "sim", nil))
	if frames != 2 || finishes != 1 {
		t.Fatalf("type isolation failed: frames=%d finishes=%d", frames, finishes)
	}
}

func TestCancelStopsDelivery(t *testing.T) {
	b := New()
	count := 0
	sub := b.Subscribe(TypeFrame, func(Event) error { count++; return nil })
	_ = b.Publish(NewEvent(TypeFrame, "sim", nil))
	sub.Cancel()
	_ = b.Publish(NewEvent(TypeFrame, "sim", nil))
	if count != 1 {
		t.Fatalf("handler called after cancel: count=%d", count)
	}
}

func TestHandlerErrorsJoined(t *testing.T) {
	b := New()
	errA := errors.New("a")
	errB := errors.New("b")
	reached := false
	b.Subscribe(TypeFrame, func(Event) error { return errA })
	b.Subscribe(TypeFrame, func(Event) error { return errB })
	b.Subscribe(TypeFrame, func(Event) error { reached = true; return nil })
	err := b.Publish(NewEvent(TypeFrame, "sim", nil))
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Fatalf("expected joined errors, got %v", err)
	}
	if !reached {
		t.Fatal("error in one handler must not stop the others")
	}
}

func TestMetrics(t *testing.T) {
	b := New()
	b.Subscribe(TypeFrame, func(Event) error { return nil })
	b.Subscribe(TypeFrame, func(Event) error { return errors.New("boom") })
	_ = b.Publish(NewEvent(TypeFrame, "sim", nil))
	m := b.GetMetrics()
	if m.Published != 1 || m.Delivered != 2 || m.Errors != 1 {
		t.Fatalf("unexpected metrics: %+v", m)
	}
}

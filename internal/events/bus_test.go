package events

import "testing"

func TestBusDeliversToSubscribers(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(EventObjectsChanged)

	bus.Publish(EventObjectsChanged, ObjectsChanged(ObjectBin, "bin-1"))

	select {
	case payload := <-sub:
		if payload["object_type"] != ObjectBin {
			t.Fatalf("unexpected object type: %v", payload["object_type"])
		}
		ids, ok := payload["objects"].([]string)
		if !ok || len(ids) != 1 || ids[0] != "bin-1" {
			t.Fatalf("unexpected objects: %v", payload["objects"])
		}
	default:
		t.Fatal("expected payload to be delivered")
	}
}

func TestBusIgnoresOtherEventTypes(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(EventPlayoutCommand)

	bus.Publish(EventObjectsChanged, ObjectsChanged(ObjectBin, "bin-1"))

	select {
	case payload := <-sub:
		t.Fatalf("unexpected payload: %v", payload)
	default:
	}
}

func TestBusUnsubscribeClosesChannel(t *testing.T) {
	bus := NewBus()
	sub := bus.Subscribe(EventObjectsChanged)
	bus.Unsubscribe(EventObjectsChanged, sub)

	if _, ok := <-sub; ok {
		t.Fatal("expected closed subscriber channel")
	}

	// Publishing after unsubscribe must not panic on the closed channel.
	bus.Publish(EventObjectsChanged, ObjectsChanged(ObjectBin, "bin-1"))
}

func TestObjectsChangedCopiesIDs(t *testing.T) {
	ids := []string{"a", "b"}
	payload := ObjectsChanged(ObjectItem, ids...)
	ids[0] = "mutated"

	got := payload["objects"].([]string)
	if got[0] != "a" {
		t.Fatalf("payload shares caller slice: %v", got)
	}
}

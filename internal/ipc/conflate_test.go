package ipc

import "testing"

func TestConflatedTopicKeepsLatest(t *testing.T) {
	topic := NewConflatedTopic[int]()
	topic.Publish(1)
	topic.Publish(2)
	topic.Publish(3)

	v, ok := topic.TryRead()
	if !ok || v != 3 {
		t.Fatalf("TryRead() = %v, %v; want 3, true", v, ok)
	}
	if _, ok := topic.TryRead(); ok {
		t.Fatalf("expected empty mailbox after read")
	}
}

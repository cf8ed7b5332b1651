package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Alex1986-rgb/craftwrite-cloud-hub-sub003/internal/usecase"
)

type fakeOutbox struct {
	entries     []*usecase.OutboxEntry
	nextID      int64
	sent        []int64
	rescheduled []int64
}

func (f *fakeOutbox) Enqueue(ctx context.Context, channel string, payload []byte) error {
	f.nextID++
	f.entries = append(f.entries, &usecase.OutboxEntry{ID: f.nextID, Channel: channel, Payload: payload})
	return nil
}

func (f *fakeOutbox) FetchPending(ctx context.Context, limit int) ([]*usecase.OutboxEntry, error) {
	if len(f.entries) > limit {
		return f.entries[:limit], nil
	}
	return f.entries, nil
}

func (f *fakeOutbox) MarkSent(ctx context.Context, id int64) error {
	f.sent = append(f.sent, id)
	for i, e := range f.entries {
		if e.ID == id {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeOutbox) Reschedule(ctx context.Context, id int64, delay time.Duration) error {
	f.rescheduled = append(f.rescheduled, id)
	return nil
}

type fakeBroker struct {
	published map[string][][]byte
	err       error
}

func (f *fakeBroker) Publish(ctx context.Context, key string, body []byte) error {
	if f.err != nil {
		return f.err
	}
	if f.published == nil {
		f.published = map[string][][]byte{}
	}
	f.published[key] = append(f.published[key], body)
	return nil
}

func TestOutboxQueueStagesEventsPerChannel(t *testing.T) {
	out := &fakeOutbox{}
	q := NewOutboxQueue(out)

	if err := q.PublishCreated(context.Background(), usecase.CreatedMsg{OrderID: "o1"}); err != nil {
		t.Fatalf("PublishCreated: %v", err)
	}
	if err := q.PublishStatusChanged(context.Background(), usecase.StatusChangedMsg{OrderID: "o1", NewStatus: "DRAFTING"}); err != nil {
		t.Fatalf("PublishStatusChanged: %v", err)
	}

	if len(out.entries) != 2 {
		t.Fatalf("outbox entries = %d, want 2", len(out.entries))
	}
	if out.entries[0].Channel != "order.created" || out.entries[1].Channel != "order.status_changed" {
		t.Fatalf("channels = %s, %s", out.entries[0].Channel, out.entries[1].Channel)
	}
	var msg usecase.CreatedMsg
	if err := json.Unmarshal(out.entries[0].Payload, &msg); err != nil || msg.OrderID != "o1" {
		t.Fatalf("payload round-trip: %v, %+v", err, msg)
	}
}

func TestRelayDrainMarksDeliveredEntries(t *testing.T) {
	out := &fakeOutbox{}
	q := NewOutboxQueue(out)
	_ = q.PublishCreated(context.Background(), usecase.CreatedMsg{OrderID: "o1"})
	_ = q.PublishStatusChanged(context.Background(), usecase.StatusChangedMsg{OrderID: "o1"})

	broker := &fakeBroker{}
	relay := NewOutboxRelay(out, broker, nil)
	relay.drain(context.Background())

	if len(broker.published["order.created"]) != 1 || len(broker.published["order.status_changed"]) != 1 {
		t.Fatalf("published = %+v", broker.published)
	}
	if len(out.sent) != 2 {
		t.Fatalf("marked sent = %v, want both", out.sent)
	}
	if len(out.entries) != 0 {
		t.Fatalf("entries left pending: %d", len(out.entries))
	}
}

func TestRelayBrokerOutageReschedulesInsteadOfDropping(t *testing.T) {
	out := &fakeOutbox{}
	q := NewOutboxQueue(out)
	_ = q.PublishCreated(context.Background(), usecase.CreatedMsg{OrderID: "o1"})

	broker := &fakeBroker{err: errors.New("broker down")}
	relay := NewOutboxRelay(out, broker, nil)
	relay.drain(context.Background())

	if len(out.sent) != 0 {
		t.Fatalf("failed publish marked sent: %v", out.sent)
	}
	if len(out.rescheduled) != 1 {
		t.Fatalf("rescheduled = %v, want the one entry", out.rescheduled)
	}
	if len(out.entries) != 1 {
		t.Fatal("entry lost on broker failure")
	}

	// broker recovers; the retained entry goes out on the next drain
	broker.err = nil
	relay.drain(context.Background())
	if len(out.sent) != 1 {
		t.Fatalf("entry not delivered after recovery: sent=%v", out.sent)
	}
}

package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/Alex1986-rgb/craftwrite-cloud-hub-sub003/internal/adapter/repo"
	domain "github.com/Alex1986-rgb/craftwrite-cloud-hub-sub003/internal/entity"
	"github.com/Alex1986-rgb/craftwrite-cloud-hub-sub003/internal/usecase"
)

type fakeRepo struct {
	records   map[string]*usecase.OrderRecord
	getErr    error
	updatedTo string
}

func (f *fakeRepo) Create(ctx context.Context, o *usecase.OrderRecord) error { return nil }

func (f *fakeRepo) GetByID(ctx context.Context, id string) (*usecase.OrderRecord, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	rec, ok := f.records[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return rec, nil
}

func (f *fakeRepo) FindByEmail(ctx context.Context, email string) ([]*usecase.OrderRecord, error) {
	return nil, nil
}

func (f *fakeRepo) FindByPhone(ctx context.Context, phone string) ([]*usecase.OrderRecord, error) {
	return nil, nil
}

func (f *fakeRepo) FindByIDLike(ctx context.Context, fragment string) ([]*usecase.OrderRecord, error) {
	return nil, nil
}

func (f *fakeRepo) UpdateStatusIf(ctx context.Context, id, from, to string) (bool, error) {
	rec, ok := f.records[id]
	if !ok || rec.Status != from {
		return false, nil
	}
	rec.Status = to
	f.updatedTo = to
	return true, nil
}

func (f *fakeRepo) UpdateStatus(ctx context.Context, id, to string) error { return nil }

func (f *fakeRepo) AppendNote(ctx context.Context, id, note string) error { return nil }

type fakeCache struct{ statuses map[string]string }

func (f *fakeCache) SetStatus(ctx context.Context, orderID, status string) error {
	f.statuses[orderID] = status
	return nil
}

func (f *fakeCache) GetStatus(ctx context.Context, orderID string) (string, bool, error) {
	v, ok := f.statuses[orderID]
	return v, ok, nil
}

func TestStageChangedAppliesTransition(t *testing.T) {
	r := &fakeRepo{records: map[string]*usecase.OrderRecord{
		"o1": {ID: "o1", Status: string(domain.StatusAnalysis)},
	}}
	c := &fakeCache{statuses: map[string]string{}}
	h := NewStageChangedHandler(r, c, nil)

	err := h.Handle(context.Background(), usecase.StageChangedMsg{OrderID: "o1", Status: string(domain.StatusResearch)})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if r.updatedTo != string(domain.StatusResearch) {
		t.Fatalf("repo status = %q", r.updatedTo)
	}
	if c.statuses["o1"] != string(domain.StatusResearch) {
		t.Fatal("cache not refreshed")
	}
}

func TestStageChangedTerminalIsImmutable(t *testing.T) {
	r := &fakeRepo{records: map[string]*usecase.OrderRecord{
		"o1": {ID: "o1", Status: string(domain.StatusCompleted)},
	}}
	h := NewStageChangedHandler(r, nil, nil)

	err := h.Handle(context.Background(), usecase.StageChangedMsg{OrderID: "o1", Status: string(domain.StatusFailed)})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if r.updatedTo != "" {
		t.Fatalf("terminal record mutated to %q", r.updatedTo)
	}
}

func TestStageChangedUnknownOrderDropped(t *testing.T) {
	r := &fakeRepo{records: map[string]*usecase.OrderRecord{}}
	h := NewStageChangedHandler(r, nil, nil)

	// unknown order: drop, do not error (the message must not poison the topic)
	if err := h.Handle(context.Background(), usecase.StageChangedMsg{OrderID: "ghost", Status: string(domain.StatusResearch)}); err != nil {
		t.Fatalf("Handle: %v", err)
	}
}

func TestStageChangedTransportErrorRetries(t *testing.T) {
	r := &fakeRepo{getErr: errors.New("store down")}
	h := NewStageChangedHandler(r, nil, nil)

	// transport failure must surface so the consumer does not mark the offset
	if err := h.Handle(context.Background(), usecase.StageChangedMsg{OrderID: "o1", Status: string(domain.StatusResearch)}); err == nil {
		t.Fatal("expected error")
	}
}

func TestStageChangedIllegalTransitionIgnored(t *testing.T) {
	r := &fakeRepo{records: map[string]*usecase.OrderRecord{
		"o1": {ID: "o1", Status: string(domain.StatusReview)},
	}}
	h := NewStageChangedHandler(r, nil, nil)

	err := h.Handle(context.Background(), usecase.StageChangedMsg{OrderID: "o1", Status: string(domain.StatusAnalysis)})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if r.updatedTo != "" {
		t.Fatalf("backward transition applied: %q", r.updatedTo)
	}
}

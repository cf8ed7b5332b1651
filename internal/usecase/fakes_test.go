package usecase

import (
	"context"
	"errors"
	"strings"
)

type fakeRepo struct {
	created   []*OrderRecord
	records   map[string]*OrderRecord
	stale     *OrderRecord // when set, GetByID serves this instead of the stored row
	err       error
	calls     []string
	updatedTo string
	notes     []string
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{records: map[string]*OrderRecord{}}
}

func (f *fakeRepo) Create(ctx context.Context, o *OrderRecord) error {
	f.calls = append(f.calls, "create")
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, o)
	f.records[o.ID] = o
	return nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id string) (*OrderRecord, error) {
	f.calls = append(f.calls, "getByID")
	if f.err != nil {
		return nil, f.err
	}
	if f.stale != nil {
		return f.stale, nil
	}
	rec, ok := f.records[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return rec, nil
}

func (f *fakeRepo) FindByEmail(ctx context.Context, email string) ([]*OrderRecord, error) {
	f.calls = append(f.calls, "findByEmail")
	return f.matching(func(r *OrderRecord) bool { return r.CustomerEmail == email })
}

func (f *fakeRepo) FindByPhone(ctx context.Context, phone string) ([]*OrderRecord, error) {
	f.calls = append(f.calls, "findByPhone")
	return f.matching(func(r *OrderRecord) bool { return r.CustomerPhone == phone })
}

func (f *fakeRepo) FindByIDLike(ctx context.Context, fragment string) ([]*OrderRecord, error) {
	f.calls = append(f.calls, "findByIDLike")
	return f.matching(func(r *OrderRecord) bool { return strings.Contains(r.ID, fragment) })
}

func (f *fakeRepo) matching(keep func(*OrderRecord) bool) ([]*OrderRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*OrderRecord
	for _, r := range f.records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRepo) UpdateStatusIf(ctx context.Context, id, from, to string) (bool, error) {
	f.calls = append(f.calls, "updateStatusIf")
	if f.err != nil {
		return false, f.err
	}
	rec, ok := f.records[id]
	if !ok || rec.Status != from {
		return false, nil
	}
	rec.Status = to
	f.updatedTo = to
	return true, nil
}

func (f *fakeRepo) UpdateStatus(ctx context.Context, id, to string) error {
	f.calls = append(f.calls, "updateStatus")
	if f.err != nil {
		return f.err
	}
	rec, ok := f.records[id]
	if !ok {
		return errors.New("not found")
	}
	rec.Status = to
	f.updatedTo = to
	return nil
}

func (f *fakeRepo) AppendNote(ctx context.Context, id, note string) error {
	f.calls = append(f.calls, "appendNote")
	f.notes = append(f.notes, note)
	return f.err
}

type fakeIdem struct {
	known    map[string]string
	lockBusy bool
	lockErr  error
	remember []string
}

func newFakeIdem() *fakeIdem { return &fakeIdem{known: map[string]string{}} }

func (f *fakeIdem) TryLock(ctx context.Context, scope, key string) (bool, error) {
	if f.lockErr != nil {
		return false, f.lockErr
	}
	return !f.lockBusy, nil
}

func (f *fakeIdem) Remember(ctx context.Context, scope, key, value string) error {
	f.remember = append(f.remember, scope+"/"+key+"="+value)
	f.known[scope+"/"+key] = value
	return nil
}

func (f *fakeIdem) Recall(ctx context.Context, scope, key string) (string, bool, error) {
	v, ok := f.known[scope+"/"+key]
	return v, ok, nil
}

type fakeQueue struct {
	created []CreatedMsg
	status  []StatusChangedMsg
	err     error
}

func (f *fakeQueue) PublishCreated(ctx context.Context, msg CreatedMsg) error {
	f.created = append(f.created, msg)
	return f.err
}

func (f *fakeQueue) PublishStatusChanged(ctx context.Context, msg StatusChangedMsg) error {
	f.status = append(f.status, msg)
	return f.err
}

type fakeAnalytics struct {
	events []string
}

func (f *fakeAnalytics) Record(ctx context.Context, event string, fields map[string]any) {
	f.events = append(f.events, event)
}

type fakeCache struct {
	statuses map[string]string
}

func newFakeCache() *fakeCache { return &fakeCache{statuses: map[string]string{}} }

func (f *fakeCache) SetStatus(ctx context.Context, orderID, status string) error {
	f.statuses[orderID] = status
	return nil
}

func (f *fakeCache) GetStatus(ctx context.Context, orderID string) (string, bool, error) {
	v, ok := f.statuses[orderID]
	return v, ok, nil
}

package usecase

import (
	"context"
	"errors"
	"testing"

	domain "github.com/Alex1986-rgb/craftwrite-cloud-hub-sub003/internal/entity"
)

func TestUpdateStatusForwardTransition(t *testing.T) {
	repo := newFakeRepo()
	repo.records["o1"] = &OrderRecord{ID: "o1", CustomerEmail: "jo@example.com", Status: string(domain.StatusPending)}
	cache := newFakeCache()
	q := &fakeQueue{}
	uc := NewUpdateStatus(repo, cache, q, &fakeAnalytics{})

	err := uc.Execute(context.Background(), UpdateStatusInput{OrderID: "o1", Status: domain.StatusAnalysis})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if repo.updatedTo != string(domain.StatusAnalysis) {
		t.Fatalf("repo status = %s", repo.updatedTo)
	}
	if cache.statuses["o1"] != string(domain.StatusAnalysis) {
		t.Fatal("cache not refreshed")
	}
	if len(q.status) != 1 || q.status[0].NewStatus != string(domain.StatusAnalysis) {
		t.Fatalf("status notification = %+v", q.status)
	}
}

func TestUpdateStatusRejectsBackward(t *testing.T) {
	repo := newFakeRepo()
	repo.records["o1"] = &OrderRecord{ID: "o1", Status: string(domain.StatusDrafting)}
	uc := NewUpdateStatus(repo, newFakeCache(), &fakeQueue{}, &fakeAnalytics{})

	err := uc.Execute(context.Background(), UpdateStatusInput{OrderID: "o1", Status: domain.StatusAnalysis})
	if !errors.Is(err, ErrBadTransition) {
		t.Fatalf("got %v, want ErrBadTransition", err)
	}
}

func TestUpdateStatusTerminalIsImmutable(t *testing.T) {
	repo := newFakeRepo()
	repo.records["o1"] = &OrderRecord{ID: "o1", Status: string(domain.StatusCompleted)}
	uc := NewUpdateStatus(repo, newFakeCache(), &fakeQueue{}, &fakeAnalytics{})

	err := uc.Execute(context.Background(), UpdateStatusInput{OrderID: "o1", Status: domain.StatusCancelled})
	if !errors.Is(err, ErrTerminalOrder) {
		t.Fatalf("got %v, want ErrTerminalOrder", err)
	}

	// administrative notes are the one allowed mutation
	err = uc.Execute(context.Background(), UpdateStatusInput{OrderID: "o1", Status: domain.StatusCompleted, Note: "refund issued"})
	if err != nil {
		t.Fatalf("note on terminal order: %v", err)
	}
	if len(repo.notes) != 1 || repo.notes[0] != "refund issued" {
		t.Fatalf("notes = %v", repo.notes)
	}
}

func TestUpdateStatusConcurrentWriterLoses(t *testing.T) {
	repo := newFakeRepo()
	// another writer moved the order between our read and the guarded
	// update: the read serves PENDING, the row already says ANALYSIS
	repo.records["o1"] = &OrderRecord{ID: "o1", Status: string(domain.StatusAnalysis)}
	repo.stale = &OrderRecord{ID: "o1", Status: string(domain.StatusPending)}
	uc := NewUpdateStatus(repo, newFakeCache(), &fakeQueue{}, &fakeAnalytics{})

	err := uc.Execute(context.Background(), UpdateStatusInput{OrderID: "o1", Status: domain.StatusResearch})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("got %v, want ErrConflict", err)
	}
}

func TestUpdateStatusCancelFromAnyNonTerminal(t *testing.T) {
	for _, from := range []domain.Status{domain.StatusPending, domain.StatusDrafting, domain.StatusReview} {
		repo := newFakeRepo()
		repo.records["o1"] = &OrderRecord{ID: "o1", Status: string(from)}
		uc := NewUpdateStatus(repo, newFakeCache(), &fakeQueue{}, &fakeAnalytics{})

		if err := uc.Execute(context.Background(), UpdateStatusInput{OrderID: "o1", Status: domain.StatusCancelled}); err != nil {
			t.Fatalf("cancel from %s: %v", from, err)
		}
	}
}

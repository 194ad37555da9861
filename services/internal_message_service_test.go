package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cppla/msgboard/models"
)

func seedInbox(t *testing.T, svc *InboxService, n int) []*models.InternalMessage {
	t.Helper()
	out := make([]*models.InternalMessage, 0, n)
	for i := 0; i < n; i++ {
		m := &models.InternalMessage{Title: "t", Content: "c", Time: baseTime.Add(time.Duration(i) * time.Hour)}
		if err := svc.Create(context.Background(), m); err != nil {
			t.Fatal(err)
		}
		out = append(out, m)
	}
	return out
}

func TestMarkReadUpTo(t *testing.T) {
	svc := NewInboxService(newTestDB(t))
	ctx := context.Background()
	msgs := seedInbox(t, svc, 5)
	pivot := msgs[2].ID

	n, err := svc.MarkReadUpTo(ctx, pivot)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("marked %d, want 3", n)
	}
	for _, m := range msgs {
		got, _ := svc.Get(ctx, m.ID)
		if want := m.ID <= pivot; got.Read != want {
			t.Fatalf("message %d read=%v, want %v", m.ID, got.Read, want)
		}
	}

	again, err := svc.MarkReadUpTo(ctx, pivot)
	if err != nil || again != 0 {
		t.Fatalf("second call should change nothing, got %d %v", again, err)
	}
	unread, _ := svc.CountUnread(ctx)
	if unread != 2 {
		t.Fatalf("unread = %d, want 2", unread)
	}
}

func TestInboxReadUnreadDeleteAndClear(t *testing.T) {
	svc := NewInboxService(newTestDB(t))
	ctx := context.Background()
	msgs := seedInbox(t, svc, 3)

	if _, err := svc.SetRead(ctx, msgs[0].ID, true); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SetRead(ctx, msgs[1].ID, true); err != nil {
		t.Fatal(err)
	}
	m, err := svc.SetRead(ctx, msgs[1].ID, false)
	if err != nil || m.Read {
		t.Fatalf("unread failed: %+v %v", m, err)
	}

	unread, _ := svc.ListUnread(ctx)
	if len(unread) != 2 || unread[0].ID != msgs[2].ID {
		t.Fatalf("unread list = %+v", unread)
	}

	cleared, err := svc.DeleteRead(ctx)
	if err != nil || cleared != 1 {
		t.Fatalf("DeleteRead = %d %v", cleared, err)
	}
	if err := svc.Delete(ctx, msgs[1].ID); err != nil {
		t.Fatal(err)
	}
	if err := svc.Delete(ctx, msgs[1].ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete = %v", err)
	}
	if _, err := svc.SetRead(ctx, 999, true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("SetRead on missing = %v", err)
	}

	page, _ := svc.List(ctx, 1, 15)
	if page.TotalCount != 1 || page.Data[0].ID != msgs[2].ID {
		t.Fatalf("remaining page = %+v", page)
	}
}

func TestInboxListNewestFirstAndRetention(t *testing.T) {
	svc := NewInboxService(newTestDB(t))
	ctx := context.Background()
	msgs := seedInbox(t, svc, 4)

	page, err := svc.List(ctx, 1, 3)
	if err != nil {
		t.Fatal(err)
	}
	if page.TotalCount != 4 || page.TotalPages != 2 || page.Data[0].ID != msgs[3].ID {
		t.Fatalf("page = %+v", page)
	}

	_, _ = svc.MarkReadUpTo(ctx, msgs[3].ID)
	n, err := svc.DeleteReadBefore(ctx, baseTime.Add(90*time.Minute))
	if err != nil || n != 2 {
		t.Fatalf("DeleteReadBefore = %d %v", n, err)
	}
}

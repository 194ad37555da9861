package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/cppla/msgboard/models"
	"github.com/cppla/msgboard/utils"
)

const ownerEmail = "owner@blog.io"

type boardFixture struct {
	board   *MsgBoard
	queue   *fakeQueue
	inbox   *InboxService
	msgs    *LeaveMessageService
	changes int
}

func newBoard(t *testing.T, ban, mod string) *boardFixture {
	t.Helper()
	db := newTestDB(t)
	banF, err := utils.NewRegexFilter(ban)
	if err != nil {
		t.Fatal(err)
	}
	modF, err := utils.NewRegexFilter(mod)
	if err != nil {
		t.Fatal(err)
	}
	f := &boardFixture{queue: &fakeQueue{}, inbox: NewInboxService(db), msgs: NewLeaveMessageService(db)}
	f.board = NewMsgBoard(MsgBoardDeps{
		Messages:   f.msgs,
		Inbox:      f.inbox,
		Notifier:   NewNotifier(f.queue, utils.NewNotifyTemplateFromString("{{title}}|{{nickname}}|{{content}}|{{link}}"), "Blog", "https://blog.io/"),
		Ban:        banF,
		Moderation: modF,
		OwnerEmail: ownerEmail,
		Locate:     func(context.Context, string) string { return "Earth" },
		OnChange:   func() { f.changes++ },
	})
	return f
}

func (f *boardFixture) inboxCount(t *testing.T) int64 {
	page, err := f.inbox.List(context.Background(), 1, 50)
	if err != nil {
		t.Fatal(err)
	}
	return page.TotalCount
}

func TestSubmitRootAsVisitor(t *testing.T) {
	f := newBoard(t, "", "")
	sess := mapSession{}
	m, err := f.board.Submit(context.Background(), SubmitRequest{
		NickName: "alice",
		Content:  `<p>hello <img src="a.png" width="10" onerror="x()"></p><p><br></p>`,
		Email:    "alice@x.io",
	}, Visitor{IP: "1.2.3.4", UserAgent: "UA"}, sess)
	if err != nil {
		t.Fatal(err)
	}
	if m.Status != models.StatusPublished || m.IsMaster {
		t.Fatalf("unexpected status %+v", m)
	}
	if strings.Contains(m.Content, "width") || strings.Contains(m.Content, "onerror") || strings.Contains(m.Content, "<p><br></p>") {
		t.Fatalf("content not cleaned: %q", m.Content)
	}
	if m.Browser != "UA" || m.Location != "Earth" || m.IP != "1.2.3.4" {
		t.Fatalf("audit fields = %+v", m)
	}
	if sess["msg"] != "hello" {
		t.Fatalf("session msg = %q", sess["msg"])
	}
	if got := f.inboxCount(t); got != 1 {
		t.Fatalf("inbox messages = %d, want 1", got)
	}
	if got := f.queue.recipients(); len(got) != 1 || got[0] != ownerEmail {
		t.Fatalf("recipients = %v, want owner only", got)
	}
	if !strings.Contains(f.queue.sent[0].Body, "https://blog.io/msg?cid=") {
		t.Fatalf("link missing from body: %q", f.queue.sent[0].Body)
	}
	if f.changes != 1 {
		t.Fatalf("OnChange called %d times", f.changes)
	}
}

func TestSubmitBlockedContent(t *testing.T) {
	f := newBoard(t, "spam-token", "")
	_, err := f.board.Submit(context.Background(), SubmitRequest{NickName: "bob", Content: "buy spam-token now"}, Visitor{}, mapSession{})
	if !errors.Is(err, ErrBlockedContent) {
		t.Fatalf("err = %v, want ErrBlockedContent", err)
	}
	n, _ := f.msgs.Count(context.Background(), MessageFilter{})
	if n != 0 {
		t.Fatalf("blocked submission persisted %d rows", n)
	}
	if len(f.queue.recipients()) != 0 {
		t.Fatal("blocked submission sent mail")
	}
}

func TestSubmitDuplicateInSession(t *testing.T) {
	f := newBoard(t, "", "")
	sess := mapSession{}
	req := SubmitRequest{NickName: "bob", Content: "<p>same text</p>"}
	if _, err := f.board.Submit(context.Background(), req, Visitor{}, sess); err != nil {
		t.Fatal(err)
	}
	if _, err := f.board.Submit(context.Background(), req, Visitor{}, sess); !errors.Is(err, ErrDuplicateSubmission) {
		t.Fatalf("err = %v, want ErrDuplicateSubmission", err)
	}
	// a fresh session accepts the same content again
	if _, err := f.board.Submit(context.Background(), req, Visitor{}, mapSession{}); err != nil {
		t.Fatalf("after session clear: %v", err)
	}
}

func TestSubmitReplyNotifiesThread(t *testing.T) {
	f := newBoard(t, "", "")
	ctx := context.Background()
	root, _ := f.board.Submit(ctx, SubmitRequest{NickName: "a", Content: "root", Email: "a@x.io"}, Visitor{}, mapSession{})
	c1, _ := f.board.Submit(ctx, SubmitRequest{NickName: "b", Content: "one", Email: "b@x.io", ParentID: root.ID}, Visitor{}, mapSession{})
	_, _ = f.board.Submit(ctx, SubmitRequest{NickName: "c", Content: "two", Email: "C@x.io", ParentID: c1.ID}, Visitor{}, mapSession{})
	f.queue.sent = nil

	_, err := f.board.Submit(ctx, SubmitRequest{NickName: "b", Content: "three", Email: "b@x.io", ParentID: root.ID}, Visitor{}, mapSession{})
	if err != nil {
		t.Fatal(err)
	}
	got := f.queue.recipients()
	sort.Strings(got)
	want := []string{"C@x.io", "a@x.io", ownerEmail}
	sort.Strings(want)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("recipients = %v, want %v", got, want)
	}
}

func TestSubmitReplyToMissingParent(t *testing.T) {
	f := newBoard(t, "", "")
	_, err := f.board.Submit(context.Background(), SubmitRequest{NickName: "a", Content: "x", ParentID: 77}, Visitor{}, mapSession{})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSubmitModeratedGoesPending(t *testing.T) {
	f := newBoard(t, "", "(?i)casino")
	m, err := f.board.Submit(context.Background(), SubmitRequest{NickName: "z", Content: "best Casino", Email: "z@x.io"}, Visitor{}, mapSession{})
	if err != nil {
		t.Fatal(err)
	}
	if m.Status != models.StatusPending {
		t.Fatalf("status = %d, want pending", m.Status)
	}
	if f.inboxCount(t) != 0 {
		t.Fatal("pending comment must not create an inbox message")
	}
	sent := f.queue.sent
	if len(sent) != 1 || sent[0].To != ownerEmail || !strings.Contains(sent[0].Body, "pending review") {
		t.Fatalf("pending mail = %+v", sent)
	}
}

func TestSubmitAsOwner(t *testing.T) {
	f := newBoard(t, "", "(?i)casino")
	owner := &Owner{NickName: "Boss", Email: ownerEmail, QQorWechat: "wx"}
	m, err := f.board.Submit(context.Background(), SubmitRequest{NickName: "fake", Content: "casino talk", Email: "fake@x.io"}, Visitor{Owner: owner}, mapSession{})
	if err != nil {
		t.Fatal(err)
	}
	if !m.IsMaster || m.Status != models.StatusPublished || m.NickName != "Boss" || m.Email != ownerEmail {
		t.Fatalf("owner override failed: %+v", m)
	}
	if f.inboxCount(t) != 0 {
		t.Fatal("owner comment must not create an inbox message")
	}
	if len(f.queue.sent) != 0 {
		t.Fatalf("owner root comment mailed %v", f.queue.recipients())
	}
}

func TestSubmitStripsMarkupFromNickName(t *testing.T) {
	f := newBoard(t, "", "")
	m, err := f.board.Submit(context.Background(), SubmitRequest{
		NickName: `<img src=x onerror="alert(1)"><a href="https://evil.io">bob</a>`,
		Content:  "hi",
		Email:    "bob@x.io",
	}, Visitor{}, mapSession{})
	if err != nil {
		t.Fatal(err)
	}
	if m.NickName != "bob" {
		t.Fatalf("nickname = %q, want bob", m.NickName)
	}
	if len(f.queue.sent) != 1 {
		t.Fatalf("mails = %d, want 1", len(f.queue.sent))
	}
	body := f.queue.sent[0].Body
	for _, bad := range []string{"<img", "<a ", "onerror", "evil.io"} {
		if strings.Contains(body, bad) {
			t.Fatalf("%q reached the mail body: %q", bad, body)
		}
	}
	page, err := f.inbox.List(context.Background(), 1, 10)
	if err != nil || len(page.Data) != 1 {
		t.Fatalf("inbox = %+v, %v", page, err)
	}
	if title := page.Data[0].Title; strings.ContainsAny(title, "<>") || !strings.Contains(title, "[bob]") {
		t.Fatalf("inbox title = %q", title)
	}

	// markup only falls back to a placeholder name
	m, err = f.board.Submit(context.Background(), SubmitRequest{NickName: "<b></b>", Content: "other"}, Visitor{}, mapSession{})
	if err != nil || m.NickName != anonymousNickName {
		t.Fatalf("empty nickname = %q, %v", m.NickName, err)
	}
}

func TestSubmitWithOwnerAddressStillMailsOwner(t *testing.T) {
	f := newBoard(t, "", "")
	ctx := context.Background()
	root, err := f.board.Submit(ctx, SubmitRequest{NickName: "mallory", Content: "root", Email: "OWNER@blog.io"}, Visitor{}, mapSession{})
	if err != nil {
		t.Fatal(err)
	}
	if got := f.queue.recipients(); len(got) != 1 || got[0] != ownerEmail {
		t.Fatalf("root recipients = %v, want owner", got)
	}
	f.queue.sent = nil

	_, err = f.board.Submit(ctx, SubmitRequest{NickName: "mallory", Content: "reply", Email: ownerEmail, ParentID: root.ID}, Visitor{}, mapSession{})
	if err != nil {
		t.Fatal(err)
	}
	if got := f.queue.recipients(); len(got) != 1 || got[0] != ownerEmail {
		t.Fatalf("reply recipients = %v, want owner", got)
	}
}

func TestApproveNotifiesOthersAndChangesOneRow(t *testing.T) {
	f := newBoard(t, "", "(?i)casino")
	ctx := context.Background()
	root, _ := f.board.Submit(ctx, SubmitRequest{NickName: "a", Content: "root", Email: "a@x.io"}, Visitor{}, mapSession{})
	pending, _ := f.board.Submit(ctx, SubmitRequest{NickName: "p", Content: "casino", Email: "p@x.io", ParentID: root.ID}, Visitor{}, mapSession{})
	other, _ := f.board.Submit(ctx, SubmitRequest{NickName: "q", Content: "casino again", Email: "q@x.io", ParentID: root.ID}, Visitor{}, mapSession{})
	f.queue.sent = nil

	if _, err := f.board.Approve(ctx, pending.ID, ownerEmail); err != nil {
		t.Fatal(err)
	}
	got, _ := f.msgs.GetByID(ctx, pending.ID)
	if got.Status != models.StatusPublished {
		t.Fatal("approved comment still pending")
	}
	still, _ := f.msgs.GetByID(ctx, other.ID)
	if still.Status != models.StatusPending {
		t.Fatal("approve changed another comment")
	}

	rcpt := f.queue.recipients()
	sort.Strings(rcpt)
	if strings.Join(rcpt, ",") != "a@x.io,q@x.io" {
		t.Fatalf("approval recipients = %v", rcpt)
	}
	wantLink := f.board.notifier.MessageLink(root.ID)
	if !strings.HasSuffix(f.queue.sent[0].Body, wantLink) {
		t.Fatalf("approval link should target root, body=%q", f.queue.sent[0].Body)
	}

	if _, err := f.board.Approve(ctx, 12345, ownerEmail); !errors.Is(err, ErrNotFound) {
		t.Fatalf("approve missing = %v", err)
	}
}

func TestThreadsAndFocusVisibility(t *testing.T) {
	f := newBoard(t, "", "(?i)casino")
	ctx := context.Background()
	root, _ := f.board.Submit(ctx, SubmitRequest{NickName: "a", Content: "root", Email: "a@x.io"}, Visitor{}, mapSession{})
	reply, _ := f.board.Submit(ctx, SubmitRequest{NickName: "b", Content: "ok", ParentID: root.ID}, Visitor{}, mapSession{})
	_, _ = f.board.Submit(ctx, SubmitRequest{NickName: "c", Content: "casino", ParentID: root.ID}, Visitor{}, mapSession{})

	visitor, err := f.board.Threads(ctx, 1, 15, false)
	if err != nil {
		t.Fatal(err)
	}
	if visitor.Total != 1 || len(visitor.Rows) != 2 {
		t.Fatalf("visitor threads = %+v", visitor)
	}
	owner, _ := f.board.Threads(ctx, 1, 15, true)
	if len(owner.Rows) != 3 {
		t.Fatalf("owner rows = %d", len(owner.Rows))
	}

	focus, err := f.board.Focus(ctx, reply.ID, false)
	if err != nil || len(focus) != 2 || focus[0].ID != root.ID {
		t.Fatalf("focus = %+v %v", focus, err)
	}
	if none, _ := f.board.Focus(ctx, 999, false); len(none) != 0 {
		t.Fatalf("focus on missing id = %v", none)
	}

	n, err := f.board.Delete(ctx, root.ID)
	if err != nil || n != 3 {
		t.Fatalf("delete = %d %v", n, err)
	}
	empty, _ := f.board.Threads(ctx, 1, 15, true)
	if empty.Total != 0 || len(empty.Rows) != 0 {
		t.Fatalf("threads after delete = %+v", empty)
	}
}

func TestRecipientsDistinctAndExcluded(t *testing.T) {
	thread := []models.LeaveMessage{{Email: "a@x.io"}, {Email: "A@x.io "}, {Email: ""}, {Email: "b@x.io"}}
	got := Recipients(thread, []string{"owner@x.io", "b@x.io"}, "b@X.io")
	if strings.Join(got, ",") != "a@x.io,owner@x.io" {
		t.Fatalf("Recipients = %v", got)
	}
}

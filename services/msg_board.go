package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cppla/msgboard/models"
	"github.com/cppla/msgboard/utils"
)

// Session is the per-visitor key/value state the board reads and writes.
type Session interface {
	Get(key string) string
	Set(key, value string)
}

const (
	sessionKeyLastMessage = "msg"
	anonymousNickName     = "anonymous"
)

// Owner is the profile of the site owner when they are the one posting.
type Owner struct {
	NickName   string
	Email      string
	QQorWechat string
}

// Visitor carries request facts the workflow records.
type Visitor struct {
	IP        string
	UserAgent string
	Owner     *Owner
}

// SubmitRequest is a validated board submission.
type SubmitRequest struct {
	NickName   string
	Content    string
	Email      string
	QQorWechat string
	Browser    string
	ParentID   uint
}

// Locator maps an IP to a human readable location. It must not fail.
type Locator func(ctx context.Context, ip string) string

// MsgBoardDeps wires a MsgBoard.
type MsgBoardDeps struct {
	Messages   *LeaveMessageService
	Inbox      *InboxService
	Notifier   *Notifier
	Ban        utils.ContentFilter
	Moderation utils.ContentFilter
	OwnerEmail string
	Locate     Locator
	// OnChange runs after any mutation, e.g. to drop cached listings.
	OnChange func()
}

// MsgBoard runs the submission and moderation workflows of the board.
type MsgBoard struct {
	messages   *LeaveMessageService
	inbox      *InboxService
	notifier   *Notifier
	ban        utils.ContentFilter
	moderation utils.ContentFilter
	ownerEmail string
	locate     Locator
	onChange   func()
	now        func() time.Time
}

func NewMsgBoard(d MsgBoardDeps) *MsgBoard {
	b := &MsgBoard{
		messages:   d.Messages,
		inbox:      d.Inbox,
		notifier:   d.Notifier,
		ban:        d.Ban,
		moderation: d.Moderation,
		ownerEmail: d.OwnerEmail,
		locate:     d.Locate,
		onChange:   d.OnChange,
		now:        time.Now,
	}
	if b.ban == nil {
		b.ban = &utils.RegexFilter{}
	}
	if b.moderation == nil {
		b.moderation = &utils.RegexFilter{}
	}
	if b.locate == nil {
		b.locate = func(context.Context, string) string { return utils.UnknownLocation }
	}
	if b.onChange == nil {
		b.onChange = func() {}
	}
	return b
}

// Messages exposes the underlying thread store.
func (b *MsgBoard) Messages() *LeaveMessageService { return b.messages }

// Submit validates, stores and announces a new comment.
func (b *MsgBoard) Submit(ctx context.Context, req SubmitRequest, v Visitor, sess Session) (*models.LeaveMessage, error) {
	if token, hit := b.ban.Match(req.NickName + req.Content); hit {
		utils.Sugar.Infow("blocked submission", "nickname", req.NickName, "content", req.Content, "token", token, "ip", v.IP)
		return nil, ErrBlockedContent
	}

	content := strings.ReplaceAll(strings.TrimSpace(req.Content), "<p><br></p>", "")
	if prev := sess.Get(sessionKeyLastMessage); prev != "" && utils.StripTags(content) == prev {
		return nil, ErrDuplicateSubmission
	}

	if req.ParentID != 0 {
		if _, err := b.messages.GetByID(ctx, req.ParentID); err != nil {
			return nil, fmt.Errorf("parent %d: %w", req.ParentID, err)
		}
	}

	m := &models.LeaveMessage{
		ParentID:   req.ParentID,
		NickName:   utils.PlainText(req.NickName),
		Email:      strings.TrimSpace(req.Email),
		QQorWechat: strings.TrimSpace(req.QQorWechat),
		Status:     models.StatusPublished,
		PostDate:   b.now(),
	}
	if _, hit := b.moderation.Match(req.NickName + content); hit {
		m.Status = models.StatusPending
	}
	if m.NickName == "" {
		m.NickName = anonymousNickName
	}
	if o := v.Owner; o != nil {
		if o.NickName != "" {
			m.NickName = o.NickName
		}
		m.Email = o.Email
		m.QQorWechat = o.QQorWechat
		m.Status = models.StatusPublished
		m.IsMaster = true
	}

	m.Content = utils.Sanitize(content)
	m.Browser = req.Browser
	if m.Browser == "" {
		m.Browser = v.UserAgent
	}
	m.IP = v.IP
	m.Location = b.locate(ctx, v.IP)

	if err := b.messages.Create(ctx, m); err != nil {
		utils.Sugar.Errorw("save leave message failed", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrPersist, err)
	}
	sess.Set(sessionKeyLastMessage, utils.StripTags(m.Content))
	b.onChange()

	if !m.IsPublished() {
		b.notifier.NotifyPending(m, b.ownerEmail)
		return m, nil
	}

	if !m.IsMaster {
		in := &models.InternalMessage{
			Title:   fmt.Sprintf("New message from [%s]", m.NickName),
			Content: m.Content,
			Link:    b.notifier.MessageLink(m.ID),
			Time:    b.now(),
		}
		if err := b.inbox.Create(ctx, in); err != nil {
			utils.Sugar.Warnw("create inbox message failed", "message_id", m.ID, "error", err)
		}
	}

	if m.IsRoot() {
		b.notifier.NotifyNewRoot(m, b.announceTo(nil, m))
		return m, nil
	}
	thread, err := b.thread(ctx, m.ID)
	if err != nil {
		utils.Sugar.Warnw("load thread for reply notification failed", "message_id", m.ID, "error", err)
	}
	b.notifier.NotifyReply(m, b.announceTo(thread, m))
	return m, nil
}

// announceTo lists the thread participants other than the author. The owner
// is always added unless they wrote m, whatever address the author typed.
func (b *MsgBoard) announceTo(thread []models.LeaveMessage, m *models.LeaveMessage) []string {
	out := Recipients(thread, nil, m.Email)
	if m.IsMaster {
		return out
	}
	return Recipients(nil, append(out, b.ownerEmail))
}

// Approve publishes a pending comment and notifies the other thread participants.
// approverEmail is excluded from the recipients.
func (b *MsgBoard) Approve(ctx context.Context, id uint, approverEmail string) (*models.LeaveMessage, error) {
	m, err := b.messages.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := b.messages.Publish(ctx, id); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersist, err)
	}
	m.Status = models.StatusPublished
	b.onChange()

	rootID := m.ID
	if !m.IsRoot() {
		if rootID, err = b.messages.RootID(ctx, m.ID); err != nil || rootID == 0 {
			utils.Sugar.Warnw("resolve thread root failed", "message_id", m.ID, "error", err)
			rootID = m.ID
		}
	}
	thread, err := b.messages.SelfAndDescendants(ctx, rootID)
	if err != nil {
		utils.Sugar.Warnw("load thread for approval notification failed", "message_id", m.ID, "error", err)
	}
	b.notifier.NotifyApproved(m, rootID, Recipients(thread, nil, m.Email, approverEmail))
	return m, nil
}

// Delete removes a comment with its whole subtree.
func (b *MsgBoard) Delete(ctx context.Context, id uint) (int64, error) {
	n, err := b.messages.DeleteSubtree(ctx, id)
	if err != nil {
		return 0, err
	}
	b.onChange()
	return n, nil
}

// ThreadPage is one page of roots flattened with their visible descendants.
type ThreadPage struct {
	Total int64
	Page  int
	Size  int
	Rows  []models.LeaveMessage
}

// Threads pages the board. Visitors only see published comments.
func (b *MsgBoard) Threads(ctx context.Context, page, size int, owner bool) (ThreadPage, error) {
	roots, err := b.messages.ListRoots(ctx, page, size, owner)
	if err != nil {
		return ThreadPage{}, err
	}
	out := ThreadPage{Total: roots.TotalCount, Page: roots.Page, Size: roots.Size, Rows: []models.LeaveMessage{}}
	for _, r := range roots.Data {
		rows, err := b.messages.SelfAndDescendants(ctx, r.ID)
		if err != nil {
			return ThreadPage{}, err
		}
		out.Rows = append(out.Rows, visible(rows, owner)...)
	}
	return out, nil
}

// Focus returns the whole thread containing cid. The result is empty when
// cid does not exist or nothing in the thread is visible.
func (b *MsgBoard) Focus(ctx context.Context, cid uint, owner bool) ([]models.LeaveMessage, error) {
	rows, err := b.thread(ctx, cid)
	if err != nil {
		return nil, err
	}
	return visible(rows, owner), nil
}

func (b *MsgBoard) thread(ctx context.Context, id uint) ([]models.LeaveMessage, error) {
	rootID, err := b.messages.RootID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rootID == 0 {
		return []models.LeaveMessage{}, nil
	}
	return b.messages.SelfAndDescendants(ctx, rootID)
}

func visible(rows []models.LeaveMessage, owner bool) []models.LeaveMessage {
	if owner {
		return rows
	}
	out := make([]models.LeaveMessage, 0, len(rows))
	for _, m := range rows {
		if m.IsPublished() {
			out = append(out, m)
		}
	}
	return out
}

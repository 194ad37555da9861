package services

import (
	"strconv"
	"strings"
	"time"

	"github.com/cppla/msgboard/models"
	"github.com/cppla/msgboard/utils"
)

const pendingMarker = `<p style="color:red;">(pending review)</p>`

// MailQueue accepts fire-and-forget email deliveries.
type MailQueue interface {
	DispatchMail(to, subject, body string)
}

// Notifier renders notification emails and hands them to a MailQueue.
type Notifier struct {
	queue     MailQueue
	tpl       *utils.NotifyTemplate
	siteTitle string
	siteURL   string
	now       func() time.Time
}

func NewNotifier(queue MailQueue, tpl *utils.NotifyTemplate, siteTitle, siteURL string) *Notifier {
	return &Notifier{
		queue:     queue,
		tpl:       tpl,
		siteTitle: siteTitle,
		siteURL:   strings.TrimRight(siteURL, "/"),
		now:       time.Now,
	}
}

// MessageLink is the public URL focusing the board on one comment.
func (n *Notifier) MessageLink(id uint) string {
	return n.siteURL + "/msg?cid=" + strconv.FormatUint(uint64(id), 10)
}

func (n *Notifier) render(title string, m *models.LeaveMessage, link string) string {
	return n.tpl.Render(utils.NotifyData{
		Title:    title,
		Time:     n.now().Format("2006-01-02 15:04:05"),
		NickName: m.NickName,
		Content:  m.Content,
		Link:     link,
	})
}

func (n *Notifier) send(recipients []string, subject, body string) int {
	sent := 0
	for _, to := range recipients {
		if to == "" {
			continue
		}
		n.queue.DispatchMail(to, subject, body)
		sent++
	}
	return sent
}

// NotifyNewRoot mails a freshly published thread root to recipients (the owner).
func (n *Notifier) NotifyNewRoot(m *models.LeaveMessage, recipients []string) int {
	body := n.render("Message board", m, n.MessageLink(m.ID))
	return n.send(recipients, n.siteTitle+" | new message", body)
}

// NotifyReply mails a published reply to the thread participants.
func (n *Notifier) NotifyReply(m *models.LeaveMessage, recipients []string) int {
	body := n.render("Message board", m, n.MessageLink(m.ID))
	return n.send(recipients, n.siteTitle+" | message reply", body)
}

// NotifyPending tells the owner a comment waits for review.
func (n *Notifier) NotifyPending(m *models.LeaveMessage, ownerEmail string) int {
	body := n.render("Message board", m, n.MessageLink(m.ID)) + pendingMarker
	return n.send([]string{ownerEmail}, n.siteTitle+" | new message (pending review)", body)
}

// NotifyApproved mails thread participants once a pending comment is approved.
// The link points at the thread root.
func (n *Notifier) NotifyApproved(m *models.LeaveMessage, rootID uint, recipients []string) int {
	body := n.render("Message board", m, n.MessageLink(rootID))
	return n.send(recipients, n.siteTitle+" | message reply", body)
}

// Recipients collects the distinct, non-empty emails of thread plus extra,
// minus every address in exclude. Comparison ignores case and surrounding space.
func Recipients(thread []models.LeaveMessage, extra []string, exclude ...string) []string {
	skip := make(map[string]struct{}, len(exclude))
	for _, e := range exclude {
		if k := emailKey(e); k != "" {
			skip[k] = struct{}{}
		}
	}
	seen := map[string]struct{}{}
	var out []string
	add := func(addr string) {
		k := emailKey(addr)
		if k == "" {
			return
		}
		if _, ok := skip[k]; ok {
			return
		}
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		out = append(out, strings.TrimSpace(addr))
	}
	for _, m := range thread {
		add(m.Email)
	}
	for _, e := range extra {
		add(e)
	}
	return out
}

func emailKey(addr string) string {
	return strings.ToLower(strings.TrimSpace(addr))
}

package services

import (
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/msgboard/config"
	"github.com/cppla/msgboard/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := config.Open(config.AppConfig{DBDriver: "sqlite", DatabaseURI: ":memory:", LogLevel: "silent"})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.LeaveMessage{}, &models.InternalMessage{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

var baseTime = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

// seed inserts a comment; minutes offsets the post date from baseTime.
func seed(t *testing.T, db *gorm.DB, parent uint, email string, status models.MessageStatus, minutes int) *models.LeaveMessage {
	t.Helper()
	m := &models.LeaveMessage{
		ParentID: parent,
		NickName: "n" + email,
		Email:    email,
		Content:  "<p>hi</p>",
		PostDate: baseTime.Add(time.Duration(minutes) * time.Minute),
		Status:   status,
	}
	if err := db.Create(m).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	return m
}

type sentMail struct {
	To, Subject, Body string
}

type fakeQueue struct {
	mu   sync.Mutex
	sent []sentMail
}

func (q *fakeQueue) DispatchMail(to, subject, body string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.sent = append(q.sent, sentMail{to, subject, body})
}

func (q *fakeQueue) recipients() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, 0, len(q.sent))
	for _, m := range q.sent {
		out = append(out, m.To)
	}
	return out
}

type mapSession map[string]string

func (s mapSession) Get(k string) string { return s[k] }
func (s mapSession) Set(k, v string)     { s[k] = v }

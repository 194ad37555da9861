package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/msgboard/models"
)

// InboxService manages the owner's internal messages.
type InboxService struct {
	db *gorm.DB
}

func NewInboxService(db *gorm.DB) *InboxService {
	return &InboxService{db: db}
}

func (s *InboxService) Create(ctx context.Context, m *models.InternalMessage) error {
	return s.db.WithContext(ctx).Create(m).Error
}

func (s *InboxService) Get(ctx context.Context, id uint) (*models.InternalMessage, error) {
	var m models.InternalMessage
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// SetRead flips the read flag of one message.
func (s *InboxService) SetRead(ctx context.Context, id uint, read bool) (*models.InternalMessage, error) {
	m, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(m).Update("is_read", read).Error; err != nil {
		return nil, err
	}
	m.Read = read
	return m, nil
}

func (s *InboxService) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.InternalMessage{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List pages the inbox newest first.
func (s *InboxService) List(ctx context.Context, page, size int) (PagedList[models.InternalMessage], error) {
	page, size = normalizePage(page, size)
	q := s.db.WithContext(ctx).Model(&models.InternalMessage{}).Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return PagedList[models.InternalMessage]{}, err
	}
	var rows []models.InternalMessage
	err := q.Order("time DESC").Order("id DESC").Offset((page - 1) * size).Limit(size).Find(&rows).Error
	if err != nil {
		return PagedList[models.InternalMessage]{}, err
	}
	return newPagedList(rows, total, page, size), nil
}

// ListUnread returns every unread message newest first.
func (s *InboxService) ListUnread(ctx context.Context) ([]models.InternalMessage, error) {
	var rows []models.InternalMessage
	err := s.db.WithContext(ctx).Where("is_read = ?", false).Order("time DESC").Order("id DESC").Find(&rows).Error
	return rows, err
}

func (s *InboxService) CountUnread(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.InternalMessage{}).Where("is_read = ?", false).Count(&n).Error
	return n, err
}

// DeleteRead removes every read message and returns how many went.
func (s *InboxService) DeleteRead(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("is_read = ?", true).Delete(&models.InternalMessage{})
	return res.RowsAffected, res.Error
}

// DeleteReadBefore removes read messages older than cutoff.
func (s *InboxService) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Where("is_read = ? AND time < ?", true, cutoff).Delete(&models.InternalMessage{})
	return res.RowsAffected, res.Error
}

// MarkReadUpTo marks every message with id <= id as read. Repeating it is a no-op.
func (s *InboxService) MarkReadUpTo(ctx context.Context, id uint) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.InternalMessage{}).
		Where("id <= ? AND is_read = ?", id, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

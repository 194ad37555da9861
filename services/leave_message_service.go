package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/cppla/msgboard/models"
)

// MessageFilter narrows Count.
type MessageFilter struct {
	RootsOnly bool
	Status    *models.MessageStatus
}

// PublishedRoots counts published thread roots.
func PublishedRoots() MessageFilter {
	s := models.StatusPublished
	return MessageFilter{RootsOnly: true, Status: &s}
}

// PendingOnly counts comments awaiting review.
func PendingOnly() MessageFilter {
	s := models.StatusPending
	return MessageFilter{Status: &s}
}

// LeaveMessageService stores board comments and walks their threads.
type LeaveMessageService struct {
	db *gorm.DB
}

func NewLeaveMessageService(db *gorm.DB) *LeaveMessageService {
	return &LeaveMessageService{db: db}
}

func (s *LeaveMessageService) Count(ctx context.Context, f MessageFilter) (int64, error) {
	q := s.db.WithContext(ctx).Model(&models.LeaveMessage{})
	if f.RootsOnly {
		q = q.Where("parent_id = ?", 0)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	var n int64
	err := q.Count(&n).Error
	return n, err
}

// ListRoots pages thread roots newest first. Pending roots are only included when includePending is set.
func (s *LeaveMessageService) ListRoots(ctx context.Context, page, size int, includePending bool) (PagedList[models.LeaveMessage], error) {
	page, size = normalizePage(page, size)
	q := s.db.WithContext(ctx).Model(&models.LeaveMessage{}).Where("parent_id = ?", 0)
	if !includePending {
		q = q.Where("status = ?", models.StatusPublished)
	}
	q = q.Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return PagedList[models.LeaveMessage]{}, err
	}
	var rows []models.LeaveMessage
	err := q.Order("post_date DESC").Order("id DESC").
		Offset((page - 1) * size).Limit(size).Find(&rows).Error
	if err != nil {
		return PagedList[models.LeaveMessage]{}, err
	}
	return newPagedList(rows, total, page, size), nil
}

// SelfAndDescendants returns the comment id and its whole subtree, parents
// before children. A missing id yields an empty slice.
func (s *LeaveMessageService) SelfAndDescendants(ctx context.Context, id uint) ([]models.LeaveMessage, error) {
	return selfAndDescendants(s.db.WithContext(ctx), id)
}

func selfAndDescendants(db *gorm.DB, id uint) ([]models.LeaveMessage, error) {
	var self models.LeaveMessage
	if err := db.Where("id = ?", id).Take(&self).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return []models.LeaveMessage{}, nil
		}
		return nil, err
	}

	rows := map[uint]models.LeaveMessage{self.ID: self}
	ix := NewThreadIndex()
	frontier := []uint{self.ID}
	for len(frontier) > 0 {
		var level []models.LeaveMessage
		if err := db.Where("parent_id IN ?", frontier).Order("post_date ASC").Order("id ASC").Find(&level).Error; err != nil {
			return nil, err
		}
		frontier = frontier[:0]
		for _, m := range level {
			if _, seen := rows[m.ID]; seen {
				continue
			}
			rows[m.ID] = m
			ix.Add(m.ID, m.ParentID)
			frontier = append(frontier, m.ID)
		}
	}

	ids := ix.Subtree(self.ID)
	out := make([]models.LeaveMessage, 0, len(ids))
	for _, id := range ids {
		out = append(out, rows[id])
	}
	return out, nil
}

// RootID follows parent pointers from childID to the thread root.
// It returns 0 when childID does not exist.
func (s *LeaveMessageService) RootID(ctx context.Context, childID uint) (uint, error) {
	db := s.db.WithContext(ctx)
	visited := map[uint]struct{}{}
	cur, last := childID, uint(0)
	for {
		if _, seen := visited[cur]; seen {
			return 0, fmt.Errorf("root of %d: %w", childID, ErrThreadCycle)
		}
		visited[cur] = struct{}{}

		var m models.LeaveMessage
		err := db.Select("id", "parent_id").Where("id = ?", cur).Take(&m).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if cur == childID {
				return 0, nil
			}
			// dangling parent pointer: the last existing ancestor anchors the thread
			return last, nil
		}
		if err != nil {
			return 0, err
		}
		if m.ParentID == 0 {
			return m.ID, nil
		}
		last, cur = m.ID, m.ParentID
	}
}

func (s *LeaveMessageService) Create(ctx context.Context, m *models.LeaveMessage) error {
	return s.db.WithContext(ctx).Create(m).Error
}

func (s *LeaveMessageService) GetByID(ctx context.Context, id uint) (*models.LeaveMessage, error) {
	var m models.LeaveMessage
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// Publish marks exactly one comment Published.
func (s *LeaveMessageService) Publish(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Model(&models.LeaveMessage{}).
		Where("id = ?", id).
		Update("status", models.StatusPublished)
	return res.Error
}

// DeleteSubtree removes id and every descendant in one transaction and returns the number of rows deleted.
func (s *LeaveMessageService) DeleteSubtree(ctx context.Context, id uint) (int64, error) {
	var deleted int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := selfAndDescendants(tx, id)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return ErrNotFound
		}
		ids := make([]uint, 0, len(rows))
		for _, m := range rows {
			ids = append(ids, m.ID)
		}
		res := tx.Where("id IN ?", ids).Delete(&models.LeaveMessage{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	})
	return deleted, err
}

// ListPending pages comments awaiting review, newest first.
func (s *LeaveMessageService) ListPending(ctx context.Context, page, size int) (PagedList[models.LeaveMessage], error) {
	page, size = normalizePage(page, size)
	q := s.db.WithContext(ctx).Model(&models.LeaveMessage{}).Where("status = ?", models.StatusPending).Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return PagedList[models.LeaveMessage]{}, err
	}
	var rows []models.LeaveMessage
	err := q.Order("post_date DESC").Order("id DESC").
		Offset((page - 1) * size).Limit(size).Find(&rows).Error
	if err != nil {
		return PagedList[models.LeaveMessage]{}, err
	}
	return newPagedList(rows, total, page, size), nil
}

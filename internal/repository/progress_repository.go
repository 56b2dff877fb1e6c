package repository

import (
	"context"
	"learnhub_backend/internal/model"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

// Advance 原子地写入 (user, module) 进度：不存在则插入，存在则只允许状态前进。
// 返回最终落库的记录。
func (r *ProgressRepository) Advance(ctx context.Context, userID, moduleID, courseID uint, status model.ProgressStatus, now time.Time) (*model.ModuleProgress, error) {
	var out model.ModuleProgress
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := model.ModuleProgress{
			UserID:   userID,
			ModuleID: moduleID,
			CourseID: courseID,
			Status:   status,
		}
		stampProgress(&row, status, now)
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"status":     status,
			"updated_at": now,
		}
		switch status {
		case model.ProgressViewed:
			updates["viewed_at"] = gorm.Expr("COALESCE(viewed_at, ?)", now)
		case model.ProgressCompleted:
			updates["completed_at"] = now
			updates["viewed_at"] = gorm.Expr("COALESCE(viewed_at, ?)", now)
		}
		if below := status.Below(); len(below) > 0 {
			if err := tx.Model(&model.ModuleProgress{}).
				Where("user_id = ? AND module_id = ? AND status IN ?", userID, moduleID, below).
				Updates(updates).Error; err != nil {
				return err
			}
		}

		return tx.Where("user_id = ? AND module_id = ?", userID, moduleID).First(&out).Error
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func stampProgress(p *model.ModuleProgress, status model.ProgressStatus, now time.Time) {
	switch status {
	case model.ProgressViewed:
		p.ViewedAt = &now
	case model.ProgressCompleted:
		p.ViewedAt = &now
		p.CompletedAt = &now
	}
}

func (r *ProgressRepository) Find(ctx context.Context, userID, moduleID uint) (*model.ModuleProgress, error) {
	var p model.ModuleProgress
	if err := r.DB.WithContext(ctx).Where("user_id = ? AND module_id = ?", userID, moduleID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// CountCompletedModules 只统计课程中已发布且未删除模块上的完成记录
func (r *ProgressRepository) CountCompletedModules(ctx context.Context, userID, courseID uint) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.ModuleProgress{}).
		Joins("JOIN course_modules m ON m.id = module_progress.module_id").
		Where("module_progress.user_id = ? AND module_progress.status = ?", userID, model.ProgressCompleted).
		Where("m.course_id = ? AND m.is_published = ? AND m.deleted_at IS NULL", courseID, true).
		Count(&n).Error
	return n, err
}

func (r *ProgressRepository) ListByCourse(ctx context.Context, userID, courseID uint) ([]model.ModuleProgress, error) {
	var ps []model.ModuleProgress
	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Order("module_id asc").
		Find(&ps).Error
	return ps, err
}

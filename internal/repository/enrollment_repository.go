package repository

import (
	"context"
	"learnhub_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type EnrollmentRepository struct {
	DB *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: db}
}

func (r *EnrollmentRepository) Create(ctx context.Context, e *model.Enrollment) error {
	return r.DB.WithContext(ctx).Create(e).Error
}

func (r *EnrollmentRepository) Find(ctx context.Context, userID, courseID uint) (*model.Enrollment, error) {
	var e model.Enrollment
	err := r.DB.WithContext(ctx).Where("user_id = ? AND course_id = ?", userID, courseID).First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// MarkCompleted 条件更新，只有尚未完成的报名会被修改；返回受影响行数
func (r *EnrollmentRepository) MarkCompleted(ctx context.Context, userID, courseID uint, now time.Time) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&model.Enrollment{}).
		Where("user_id = ? AND course_id = ? AND status <> ?", userID, courseID, model.EnrollmentCompleted).
		Updates(map[string]interface{}{
			"status":       model.EnrollmentCompleted,
			"completed_at": now,
		})
	return res.RowsAffected, res.Error
}

// ListCompletedWithoutCertificate 已完成但尚无证书（含已撤销）的报名，按 id 游标分页：只返回 id > afterID 的记录
func (r *EnrollmentRepository) ListCompletedWithoutCertificate(ctx context.Context, afterID uint, limit int) ([]model.Enrollment, error) {
	var es []model.Enrollment
	err := r.DB.WithContext(ctx).
		Where("status = ? AND id > ?", model.EnrollmentCompleted, afterID).
		Where("NOT EXISTS (SELECT 1 FROM certificates c WHERE c.user_id = enrollments.user_id AND c.course_id = enrollments.course_id)").
		Order("id asc").
		Limit(limit).
		Find(&es).Error
	return es, err
}

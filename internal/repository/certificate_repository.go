package repository

import (
	"context"
	"learnhub_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

type CertificateRepository struct {
	DB *gorm.DB
}

func NewCertificateRepository(db *gorm.DB) *CertificateRepository {
	return &CertificateRepository{DB: db}
}

func (r *CertificateRepository) WithTx(tx *gorm.DB) *CertificateRepository {
	return &CertificateRepository{DB: tx}
}

// Create 依赖 (user_id, course_id) 唯一索引拒绝重复签发
func (r *CertificateRepository) Create(ctx context.Context, c *model.Certificate) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *CertificateRepository) FindByID(ctx context.Context, id uint) (*model.Certificate, error) {
	var c model.Certificate
	if err := r.DB.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CertificateRepository) FindByNumber(ctx context.Context, number string) (*model.Certificate, error) {
	var c model.Certificate
	if err := r.DB.WithContext(ctx).Where("certificate_number = ?", number).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CertificateRepository) ListByUser(ctx context.Context, userID uint) ([]model.Certificate, error) {
	var cs []model.Certificate
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Order("issued_at desc, id desc").Find(&cs).Error
	return cs, err
}

func (r *CertificateRepository) List(ctx context.Context, filter CertificateFilter, now time.Time) ([]model.Certificate, int64, error) {
	f := filter.Normalized()

	var total int64
	query := f.Apply(r.DB.WithContext(ctx).Model(&model.Certificate{}), now)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var cs []model.Certificate
	err := f.Apply(r.DB.WithContext(ctx).Model(&model.Certificate{}), now).
		Order("issued_at desc, id desc").
		Offset(f.Offset()).
		Limit(f.Limit).
		Find(&cs).Error
	return cs, total, err
}

// SoftDelete 撤销证书，返回受影响行数（0 表示不存在或已撤销）
func (r *CertificateRepository) SoftDelete(ctx context.Context, id uint) (int64, error) {
	res := r.DB.WithContext(ctx).Delete(&model.Certificate{}, id)
	return res.RowsAffected, res.Error
}

package repository

import (
	"context"
	"learnhub_backend/internal/model"

	"gorm.io/gorm"
)

// CatalogRepository 课程/模块目录的只读视图，写入由课程编排服务负责
type CatalogRepository struct {
	DB *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{DB: db}
}

func (r *CatalogRepository) WithTx(tx *gorm.DB) *CatalogRepository {
	return &CatalogRepository{DB: tx}
}

func (r *CatalogRepository) FindCourse(ctx context.Context, id uint) (*model.Course, error) {
	var c model.Course
	if err := r.DB.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CatalogRepository) FindModule(ctx context.Context, id uint) (*model.CourseModule, error) {
	var m model.CourseModule
	if err := r.DB.WithContext(ctx).First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *CatalogRepository) publishedModules(ctx context.Context, courseID uint) *gorm.DB {
	return r.DB.WithContext(ctx).Model(&model.CourseModule{}).
		Where("course_id = ? AND is_published = ?", courseID, true)
}

func (r *CatalogRepository) ListPublishedModules(ctx context.Context, courseID uint) ([]model.CourseModule, error) {
	var ms []model.CourseModule
	err := r.publishedModules(ctx, courseID).Order("`order` asc, id asc").Find(&ms).Error
	return ms, err
}

func (r *CatalogRepository) CountPublishedModules(ctx context.Context, courseID uint) (int64, error) {
	var n int64
	err := r.publishedModules(ctx, courseID).Count(&n).Error
	return n, err
}

func (r *CatalogRepository) CreateCourse(ctx context.Context, c *model.Course) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *CatalogRepository) CreateModule(ctx context.Context, m *model.CourseModule) error {
	return r.DB.WithContext(ctx).Create(m).Error
}

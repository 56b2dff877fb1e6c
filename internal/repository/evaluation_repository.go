package repository

import (
	"context"
	"learnhub_backend/internal/model"

	"gorm.io/gorm"
)

type EvaluationRepository struct {
	DB    *gorm.DB
	Cache *QuestionCache
}

func NewEvaluationRepository(db *gorm.DB, cache *QuestionCache) *EvaluationRepository {
	return &EvaluationRepository{DB: db, Cache: cache}
}

func (r *EvaluationRepository) FindByID(ctx context.Context, id uint) (*model.Evaluation, error) {
	var e model.Evaluation
	if err := r.DB.WithContext(ctx).First(&e, id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// ListQuestions 按 order 排序返回题目及选项（含正确标记），优先读缓存
func (r *EvaluationRepository) ListQuestions(ctx context.Context, evaluationID uint) ([]model.Question, error) {
	if qs, ok := r.Cache.Get(ctx, evaluationID); ok {
		return qs, nil
	}

	var qs []model.Question
	err := r.DB.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("`order` asc, id asc")
		}).
		Where("evaluation_id = ?", evaluationID).
		Order("`order` asc, id asc").
		Find(&qs).Error
	if err != nil {
		return nil, err
	}

	// 缓存失败不影响主流程
	_ = r.Cache.Set(ctx, evaluationID, qs)
	return qs, nil
}

func (r *EvaluationRepository) ListActiveByCourse(ctx context.Context, courseID uint) ([]model.Evaluation, error) {
	var es []model.Evaluation
	err := r.DB.WithContext(ctx).
		Where("course_id = ? AND is_active = ?", courseID, true).
		Order("id asc").
		Find(&es).Error
	return es, err
}

// Create 连同题目与选项一起写入（课程编排使用），提交后清掉该测验可能残留的题目缓存
func (r *EvaluationRepository) Create(ctx context.Context, e *model.Evaluation, questions []model.Question) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(e).Error; err != nil {
			return err
		}
		for i := range questions {
			questions[i].EvaluationID = e.ID
			if err := tx.Create(&questions[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return r.Cache.Invalidate(ctx, e.ID)
}

package repository

import (
	"context"
	"learnhub_backend/internal/model"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

func (r *AttemptRepository) WithTx(tx *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: tx}
}

// LockSlot 确保 (evaluation, user) 的计数行存在并加行锁，必须在事务内调用
func (r *AttemptRepository) LockSlot(ctx context.Context, evaluationID, userID uint) error {
	db := r.DB.WithContext(ctx)
	slot := model.AttemptSlot{EvaluationID: evaluationID, UserID: userID, UpdatedAt: time.Now()}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&slot).Error; err != nil {
		return err
	}
	var locked model.AttemptSlot
	return db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("evaluation_id = ? AND user_id = ?", evaluationID, userID).
		First(&locked).Error
}

func (r *AttemptRepository) CountCompleted(ctx context.Context, evaluationID, userID uint) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Attempt{}).
		Where("evaluation_id = ? AND user_id = ? AND status = ?", evaluationID, userID, model.AttemptCompleted).
		Count(&n).Error
	return n, err
}

// FindInProgress 没有进行中的作答时返回 (nil, nil)
func (r *AttemptRepository) FindInProgress(ctx context.Context, evaluationID, userID uint) (*model.Attempt, error) {
	var a model.Attempt
	err := r.DB.WithContext(ctx).
		Where("evaluation_id = ? AND user_id = ? AND status = ?", evaluationID, userID, model.AttemptInProgress).
		Order("attempt_number desc").
		First(&a).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AttemptRepository) Create(ctx context.Context, a *model.Attempt) error {
	return r.DB.WithContext(ctx).Create(a).Error
}

func (r *AttemptRepository) FindByID(ctx context.Context, id uint) (*model.Attempt, error) {
	var a model.Attempt
	if err := r.DB.WithContext(ctx).First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

type AttemptCompletion struct {
	CompletedAt time.Time
	TimeSpent   int
	Score       int
	Answers     datatypes.JSON
}

// Complete 仅当作答仍为 in-progress 时一次性写入全部判分结果；返回受影响行数
func (r *AttemptRepository) Complete(ctx context.Context, attemptID uint, c AttemptCompletion) (int64, error) {
	res := r.DB.WithContext(ctx).Model(&model.Attempt{}).
		Where("id = ? AND status = ?", attemptID, model.AttemptInProgress).
		Updates(map[string]interface{}{
			"status":       model.AttemptCompleted,
			"completed_at": c.CompletedAt,
			"time_spent":   c.TimeSpent,
			"score":        c.Score,
			"user_answers": c.Answers,
		})
	return res.RowsAffected, res.Error
}

func (r *AttemptRepository) ListByUser(ctx context.Context, evaluationID, userID uint) ([]model.Attempt, error) {
	var as []model.Attempt
	err := r.DB.WithContext(ctx).
		Where("evaluation_id = ? AND user_id = ?", evaluationID, userID).
		Order("attempt_number asc").
		Find(&as).Error
	return as, err
}

type EvaluationBestScore struct {
	EvaluationID uint
	BestScore    int
}

func (r *AttemptRepository) BestScores(ctx context.Context, userID uint, evaluationIDs []uint) ([]EvaluationBestScore, error) {
	var rows []EvaluationBestScore
	if len(evaluationIDs) == 0 {
		return rows, nil
	}
	err := r.DB.WithContext(ctx).Model(&model.Attempt{}).
		Select("evaluation_id, MAX(score) AS best_score").
		Where("user_id = ? AND evaluation_id IN ? AND status = ?", userID, evaluationIDs, model.AttemptCompleted).
		Group("evaluation_id").
		Scan(&rows).Error
	return rows, err
}

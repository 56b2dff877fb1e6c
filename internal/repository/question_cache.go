package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"learnhub_backend/internal/model"
	"time"

	"github.com/go-redis/redis/v8"
)

// QuestionCache 缓存测验题目（含正确答案），仅服务端使用，绝不直接下发
type QuestionCache struct {
	Redis *redis.Client
	TTL   time.Duration
}

func NewQuestionCache(rdb *redis.Client, ttl time.Duration) *QuestionCache {
	return &QuestionCache{Redis: rdb, TTL: ttl}
}

type cachedOption struct {
	ID        uint   `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
	Order     int    `json:"order"`
}

type cachedQuestion struct {
	ID          uint               `json:"id"`
	Text        string             `json:"text"`
	Type        model.QuestionType `json:"type"`
	Points      int                `json:"points"`
	Order       int                `json:"order"`
	Explanation string             `json:"explanation"`
	Options     []cachedOption     `json:"options"`
}

func questionCacheKey(evaluationID uint) string {
	return fmt.Sprintf("evaluation:%d:questions", evaluationID)
}

func (c *QuestionCache) enabled() bool {
	return c != nil && c.Redis != nil && c.TTL > 0
}

func (c *QuestionCache) Get(ctx context.Context, evaluationID uint) ([]model.Question, bool) {
	if !c.enabled() {
		return nil, false
	}
	raw, err := c.Redis.Get(ctx, questionCacheKey(evaluationID)).Bytes()
	if err != nil {
		return nil, false
	}
	var cached []cachedQuestion
	if err := json.Unmarshal(raw, &cached); err != nil {
		return nil, false
	}

	qs := make([]model.Question, len(cached))
	for i, cq := range cached {
		q := model.Question{
			EvaluationID: evaluationID,
			Text:         cq.Text,
			Type:         cq.Type,
			Points:       cq.Points,
			Order:        cq.Order,
			Explanation:  cq.Explanation,
			Options:      make([]model.Option, len(cq.Options)),
		}
		q.ID = cq.ID
		for j, co := range cq.Options {
			o := model.Option{QuestionID: cq.ID, Text: co.Text, IsCorrect: co.IsCorrect, Order: co.Order}
			o.ID = co.ID
			q.Options[j] = o
		}
		qs[i] = q
	}
	return qs, true
}

func (c *QuestionCache) Set(ctx context.Context, evaluationID uint, qs []model.Question) error {
	if !c.enabled() {
		return nil
	}
	cached := make([]cachedQuestion, len(qs))
	for i, q := range qs {
		cq := cachedQuestion{
			ID:          q.ID,
			Text:        q.Text,
			Type:        q.Type,
			Points:      q.Points,
			Order:       q.Order,
			Explanation: q.Explanation,
			Options:     make([]cachedOption, len(q.Options)),
		}
		for j, o := range q.Options {
			cq.Options[j] = cachedOption{ID: o.ID, Text: o.Text, IsCorrect: o.IsCorrect, Order: o.Order}
		}
		cached[i] = cq
	}
	raw, err := json.Marshal(cached)
	if err != nil {
		return err
	}
	return c.Redis.Set(ctx, questionCacheKey(evaluationID), raw, c.TTL).Err()
}

func (c *QuestionCache) Invalidate(ctx context.Context, evaluationID uint) error {
	if !c.enabled() {
		return nil
	}
	return c.Redis.Del(ctx, questionCacheKey(evaluationID)).Err()
}

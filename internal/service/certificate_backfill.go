package service

import (
	"context"
	"errors"
	"learnhub_backend/internal/model"

	"go.uber.org/zap"
)

// PendingCompletions 列出已完成但缺少证书的报名
type PendingCompletions interface {
	ListCompletedWithoutCertificate(ctx context.Context, afterID uint, limit int) ([]model.Enrollment, error)
}

type BackfillResult struct {
	Pending int `json:"pending"`
	Issued  int `json:"issued"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Backfill 按 id 游标遍历全部待补发报名并逐条颁证；单条失败只记录日志，不会阻塞后续记录。
// dryRun 时只统计不写入。
func (s *CertificateService) Backfill(ctx context.Context, pending PendingCompletions, batchSize int, dryRun bool) (*BackfillResult, error) {
	if batchSize <= 0 {
		batchSize = 200
	}

	res := &BackfillResult{}
	var cursor uint
	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		batch, err := pending.ListCompletedWithoutCertificate(ctx, cursor, batchSize)
		if err != nil {
			return res, storageError("list pending certificates", err)
		}
		if len(batch) == 0 {
			return res, nil
		}
		cursor = batch[len(batch)-1].ID
		res.Pending += len(batch)

		for _, e := range batch {
			if dryRun {
				s.Log.Info("pending certificate", zap.Uint("userId", e.UserID), zap.Uint("courseId", e.CourseID))
				continue
			}
			_, err := s.IssueForCompletion(ctx, e.UserID, e.CourseID)
			switch {
			case err == nil:
				res.Issued++
			case errors.Is(err, ErrDuplicateCertificate):
				res.Skipped++
			default:
				res.Failed++
				s.Log.Error("backfill failed",
					zap.Uint("enrollmentId", e.ID),
					zap.Uint("userId", e.UserID),
					zap.Uint("courseId", e.CourseID),
					zap.Error(err))
			}
		}

		if len(batch) < batchSize {
			return res, nil
		}
	}
}

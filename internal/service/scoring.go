package service

import (
	"learnhub_backend/internal/model"
)

// IsExactSelection 选中集合必须与正确集合完全一致，不给部分分
func IsExactSelection(selected, correct []uint) bool {
	if len(selected) != len(correct) {
		return false
	}
	set := make(map[uint]struct{}, len(selected))
	for _, id := range selected {
		set[id] = struct{}{}
	}
	// selected 有重复时集合会变小
	if len(set) != len(correct) {
		return false
	}
	for _, id := range correct {
		if _, ok := set[id]; !ok {
			return false
		}
	}
	return true
}

// PercentScore round(correct/total*100)，0.5 向上取整；total 为 0 时得 0
func PercentScore(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return (correct*200 + total) / (2 * total)
}

type ScoreResult struct {
	Score          int
	CorrectAnswers int
	TotalQuestions int
	// 按题目 ID 记录是否答对，未作答的题目为 false
	Correct map[uint]bool
}

// ValidateAnswers 拒绝未知题目、重复题目以及不属于该题的选项
func ValidateAnswers(questions []model.Question, answers []model.AnswerSubmission) error {
	options := make(map[uint]map[uint]struct{}, len(questions))
	for _, q := range questions {
		ids := make(map[uint]struct{}, len(q.Options))
		for _, o := range q.Options {
			ids[o.ID] = struct{}{}
		}
		options[q.ID] = ids
	}

	seen := make(map[uint]struct{}, len(answers))
	for _, a := range answers {
		valid, ok := options[a.QuestionID]
		if !ok {
			return ErrInvalidAnswers.WithDetail("question %d does not belong to this evaluation", a.QuestionID)
		}
		if _, dup := seen[a.QuestionID]; dup {
			return ErrInvalidAnswers.WithDetail("question %d answered more than once", a.QuestionID)
		}
		seen[a.QuestionID] = struct{}{}

		picked := make(map[uint]struct{}, len(a.SelectedOptionIDs))
		for _, id := range a.SelectedOptionIDs {
			if _, ok := valid[id]; !ok {
				return ErrInvalidAnswers.WithDetail("option %d does not belong to question %d", id, a.QuestionID)
			}
			if _, dup := picked[id]; dup {
				return ErrInvalidAnswers.WithDetail("option %d selected more than once", id)
			}
			picked[id] = struct{}{}
		}
	}
	return nil
}

// ScoreAnswers 以题目数为分母计分，answers 需先经过 ValidateAnswers
func ScoreAnswers(questions []model.Question, answers []model.AnswerSubmission) ScoreResult {
	byQuestion := make(map[uint][]uint, len(answers))
	for _, a := range answers {
		byQuestion[a.QuestionID] = a.SelectedOptionIDs
	}

	res := ScoreResult{
		TotalQuestions: len(questions),
		Correct:        make(map[uint]bool, len(questions)),
	}
	for i := range questions {
		q := &questions[i]
		selected, answered := byQuestion[q.ID]
		ok := answered && IsExactSelection(selected, q.CorrectOptionIDs())
		res.Correct[q.ID] = ok
		if ok {
			res.CorrectAnswers++
		}
	}
	res.Score = PercentScore(res.CorrectAnswers, res.TotalQuestions)
	return res
}

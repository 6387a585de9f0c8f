package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lms-certificate/backend/internal/api/web"
	"lms-certificate/backend/internal/service"
	"lms-certificate/backend/pkg/response"
)

// VerifyHandler 证书公开校验（无需登录）
type VerifyHandler struct {
	certSvc service.CertificateService
}

// NewVerifyHandler 创建 VerifyHandler
func NewVerifyHandler(certSvc service.CertificateService) *VerifyHandler {
	return &VerifyHandler{certSvc: certSvc}
}

// Page 校验页（二维码指向此地址）
// GET /certificate/verify/:serial
func (h *VerifyHandler) Page(c *gin.Context) {
	serial := c.Param("serial")

	result, err := h.certSvc.VerifyBySerial(c.Request.Context(), serial)
	if err != nil {
		c.String(http.StatusInternalServerError, "服务器内部错误")
		return
	}

	page, err := web.RenderVerify(web.VerifyView{Serial: serial, Result: result})
	if err != nil {
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, "服务器内部错误")
		return
	}

	status := http.StatusOK
	if !result.Found {
		status = http.StatusNotFound
	}
	c.Data(status, "text/html; charset=utf-8", page)
}

// JSON 校验结果（API 形式）；未找到时 found=false，HTTP 仍为 200
// GET /api/v1/certificates/verify/:serial
func (h *VerifyHandler) JSON(c *gin.Context) {
	result, err := h.certSvc.VerifyBySerial(c.Request.Context(), c.Param("serial"))
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

package handler

import "lms-certificate/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth        *AuthHandler
	Certificate *CertificateHandler
	Verify      *VerifyHandler
	Template    *TemplateHandler
	Export      *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:        NewAuthHandler(svc.Auth),
		Certificate: NewCertificateHandler(svc.Certificate),
		Verify:      NewVerifyHandler(svc.Certificate),
		Template:    NewTemplateHandler(svc.Template),
		Export:      NewExportHandler(svc.Export),
	}
}

// [自证通过] internal/api/handler/handler.go

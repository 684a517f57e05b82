package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"leadgen-api/internal/application/outreach"
	"leadgen-api/internal/application/principal"
	"leadgen-api/internal/domain/entity"
	"leadgen-api/internal/interfaces/http/dto"
)

// MailService 外联邮件用例
type MailService interface {
	GenerateMail(ctx context.Context, p *principal.Principal, draft entity.MailDraft) (*entity.GeneratedMail, error)
	SendMails(ctx context.Context, p *principal.Principal, in outreach.SendInput) (*entity.OutboundMail, error)
	MailStatus(ctx context.Context, userID, id string) (*entity.OutboundMail, error)
}

// MailHandler 外联邮件处理器
type MailHandler struct {
	svc MailService
}

// NewMailHandler 创建外联邮件处理器
func NewMailHandler(svc MailService) *MailHandler {
	return &MailHandler{svc: svc}
}

// Generate 生成中英文邮件草稿
// @Summary 生成外联邮件
// @Tags Mails
// @Accept json
// @Produce json
// @Param body body dto.GenerateMailRequest true "公司、联系人与备注"
// @Success 200 {object} dto.Response[entity.GeneratedMail]
// @Router /v1/mails/generate [post]
func (h *MailHandler) Generate(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	var req dto.GenerateMailRequest
	if !bindJSON(c, &req) {
		return
	}
	mail, err := h.svc.GenerateMail(c.Request.Context(), p, entity.MailDraft{
		Company:  req.Company,
		Employee: req.Employee,
		Notes:    req.Notes,
	})
	if err != nil {
		dto.FromError(c, err)
		return
	}
	dto.Success(c, mail)
}

// Send 提交发送任务，实际投递由 mail-worker 完成
// @Summary 发送外联邮件
// @Tags Mails
// @Accept json
// @Produce json
// @Param body body dto.SendMailsRequest true "收件人、主题与正文"
// @Success 202 {object} dto.Response[dto.MailResponse]
// @Router /v1/mails [post]
func (h *MailHandler) Send(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	var req dto.SendMailsRequest
	if !bindJSON(c, &req) {
		return
	}
	mail, err := h.svc.SendMails(c.Request.Context(), p, outreach.SendInput{
		Mails:   req.Mails,
		Subject: req.Subject,
		Message: req.Message,
	})
	if err != nil {
		dto.FromError(c, err)
		return
	}
	dto.Accepted(c, dto.ToMailResponse(mail))
}

// Status 查询发送状态
// @Router /v1/mails/{id} [get]
func (h *MailHandler) Status(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	mail, err := h.svc.MailStatus(c.Request.Context(), p.UserID, c.Param("id"))
	if err != nil {
		dto.FromError(c, err)
		return
	}
	dto.Success(c, dto.ToMailResponse(mail))
}

package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inkfinity/backend/models"
	"go.uber.org/zap"
)

type InquiryController struct {
	service InquiryServiceAPI
	logger  *zap.Logger
}

func NewInquiryController(service InquiryServiceAPI, logger *zap.Logger) *InquiryController {
	RegisterValidators()
	return &InquiryController{service: service, logger: logger}
}

// Submit handles POST /contact.
func (ic *InquiryController) Submit(c *gin.Context) {
	var req models.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleServiceError(c, ic.logger, "invalid contact form", bindError(err))
		return
	}
	inq, err := ic.service.Submit(c.Request.Context(), req)
	if err != nil {
		handleServiceError(c, ic.logger, "failed to submit inquiry", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Thank you! We will get back to you shortly.", "id": inq.ID})
}

// List handles GET /admin/inquiries?status=all|read|unread.
func (ic *InquiryController) List(c *gin.Context) {
	page, perPage := parsePagination(c)
	list, meta, err := ic.service.ListInquiries(c.Request.Context(), models.InquiryFilter{
		Status:  c.DefaultQuery("status", models.InquiryStatusAll),
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		handleServiceError(c, ic.logger, "failed to list inquiries", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inquiries": list, "meta": meta})
}

func (ic *InquiryController) Get(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		handleServiceError(c, ic.logger, "invalid inquiry id", err)
		return
	}
	inq, err := ic.service.GetInquiry(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, ic.logger, "failed to get inquiry", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inquiry": inq})
}

// MarkRead and MarkUnread handle PATCH /admin/inquiries/:id/read|unread.
func (ic *InquiryController) MarkRead(c *gin.Context)   { ic.setRead(c, true) }
func (ic *InquiryController) MarkUnread(c *gin.Context) { ic.setRead(c, false) }

func (ic *InquiryController) setRead(c *gin.Context, read bool) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		handleServiceError(c, ic.logger, "invalid inquiry id", err)
		return
	}
	inq, err := ic.service.SetRead(c.Request.Context(), id, read)
	if err != nil {
		handleServiceError(c, ic.logger, "failed to update inquiry", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inquiry": inq})
}

func (ic *InquiryController) Delete(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		handleServiceError(c, ic.logger, "invalid inquiry id", err)
		return
	}
	if err := ic.service.DeleteInquiry(c.Request.Context(), id); err != nil {
		handleServiceError(c, ic.logger, "failed to delete inquiry", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Inquiry deleted"})
}

// UnreadCount handles GET /admin/inquiries/unread-count.
func (ic *InquiryController) UnreadCount(c *gin.Context) {
	n, err := ic.service.UnreadCount(c.Request.Context())
	if err != nil {
		handleServiceError(c, ic.logger, "failed to count unread inquiries", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": n})
}

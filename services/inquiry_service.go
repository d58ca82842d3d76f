package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/inkfinity/backend/events"
	"github.com/inkfinity/backend/models"
	awspkg "github.com/inkfinity/backend/pkg/aws"
	"github.com/inkfinity/backend/repository"
	"go.uber.org/zap"
)

// RecentInquiriesLimit is how many inquiries the dashboard lists.
const RecentInquiriesLimit = 5

type InquiryService struct {
	inquiries repository.InquiryRepo
	publisher events.Publisher
	metrics   *awspkg.MetricsClient
	logger    *zap.Logger
}

func NewInquiryService(repo repository.InquiryRepo, publisher events.Publisher, metrics *awspkg.MetricsClient, logger *zap.Logger) *InquiryService {
	return &InquiryService{inquiries: repo, publisher: publisher, metrics: metrics, logger: logger}
}

// Submit stores a contact form submission as unread and announces it.
func (s *InquiryService) Submit(ctx context.Context, req models.ContactRequest) (*models.Inquiry, error) {
	inq := &models.Inquiry{
		Name:            strings.TrimSpace(req.Name),
		Email:           strings.TrimSpace(req.Email),
		Phone:           strings.TrimSpace(req.Phone),
		Company:         strings.TrimSpace(req.Company),
		ProductInterest: strings.TrimSpace(req.ProductInterest),
		Message:         strings.TrimSpace(req.Message),
	}
	if err := s.inquiries.Create(ctx, inq); err != nil {
		return nil, fmt.Errorf("create inquiry: %w", err)
	}

	events.PublishAsync(s.publisher, events.NewEvent(models.EventInquiryCreated, map[string]interface{}{
		"id":               inq.ID.String(),
		"name":             inq.Name,
		"email":            inq.Email,
		"phone":            inq.Phone,
		"company":          inq.Company,
		"product_interest": inq.ProductInterest,
		"message":          inq.Message,
	}), s.logger)
	if err := s.metrics.RecordCount(ctx, awspkg.MetricInquiriesReceived, nil); err != nil {
		s.logger.Warn("failed to record inquiry metric", zap.Error(err))
	}
	return inq, nil
}

func (s *InquiryService) ListInquiries(ctx context.Context, filter models.InquiryFilter) ([]models.Inquiry, PageMeta, error) {
	switch filter.Status {
	case models.InquiryStatusRead, models.InquiryStatusUnread:
	default:
		filter.Status = models.InquiryStatusAll
	}
	filter.PerPage = normalizePerPage(filter.PerPage)
	list, total, err := s.inquiries.Find(ctx, filter)
	if err != nil {
		return nil, PageMeta{}, fmt.Errorf("list inquiries: %w", err)
	}
	meta := NewPageMeta(filter.Page, filter.PerPage, total)
	if total > 0 && meta.Page != filter.Page && len(list) == 0 {
		filter.Page = meta.Page
		if list, _, err = s.inquiries.Find(ctx, filter); err != nil {
			return nil, PageMeta{}, fmt.Errorf("list inquiries: %w", err)
		}
	}
	if list == nil {
		list = []models.Inquiry{}
	}
	return list, meta, nil
}

func (s *InquiryService) GetInquiry(ctx context.Context, id uuid.UUID) (*models.Inquiry, error) {
	inq, err := s.inquiries.FindByID(ctx, id)
	if err != nil {
		return nil, notFound("Inquiry not found", err)
	}
	return inq, nil
}

// SetRead marks one inquiry read or unread and returns the stored row.
func (s *InquiryService) SetRead(ctx context.Context, id uuid.UUID, read bool) (*models.Inquiry, error) {
	if err := s.inquiries.SetRead(ctx, id, read); err != nil {
		return nil, notFound("Inquiry not found", fmt.Errorf("set inquiry read: %w", err))
	}
	return s.GetInquiry(ctx, id)
}

func (s *InquiryService) DeleteInquiry(ctx context.Context, id uuid.UUID) error {
	if err := s.inquiries.Delete(ctx, id); err != nil {
		return notFound("Inquiry not found", fmt.Errorf("delete inquiry: %w", err))
	}
	return nil
}

func (s *InquiryService) UnreadCount(ctx context.Context) (int64, error) {
	n, err := s.inquiries.CountUnread(ctx)
	if err != nil {
		return 0, fmt.Errorf("count unread inquiries: %w", err)
	}
	return n, nil
}

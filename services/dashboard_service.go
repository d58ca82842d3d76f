package services

import (
	"context"
	"fmt"

	"github.com/inkfinity/backend/models"
	"github.com/inkfinity/backend/repository"
)

type DashboardService struct {
	products   repository.ProductRepo
	categories repository.CategoryRepo
	posts      repository.BlogRepo
	inquiries  repository.InquiryRepo
}

func NewDashboardService(pr repository.ProductRepo, cr repository.CategoryRepo, br repository.BlogRepo, ir repository.InquiryRepo) *DashboardService {
	return &DashboardService{products: pr, categories: cr, posts: br, inquiries: ir}
}

// Summary collects the admin landing page counters. The first failing
// query aborts.
func (s *DashboardService) Summary(ctx context.Context) (*models.Dashboard, error) {
	var d models.Dashboard
	counts := []struct {
		name string
		dst  *int64
		fn   func(context.Context) (int64, error)
	}{
		{"categories", &d.Categories, s.categories.Count},
		{"products", &d.Products, s.products.Count},
		{"trending", &d.TrendingCount, s.products.CountTrending},
		{"posts", &d.Posts, func(ctx context.Context) (int64, error) { return s.posts.Count(ctx, false) }},
		{"published posts", &d.PublishedPosts, func(ctx context.Context) (int64, error) { return s.posts.Count(ctx, true) }},
		{"inquiries", &d.Inquiries, s.inquiries.Count},
		{"unread inquiries", &d.UnreadInquiries, s.inquiries.CountUnread},
	}
	for _, c := range counts {
		n, err := c.fn(ctx)
		if err != nil {
			return nil, fmt.Errorf("count %s: %w", c.name, err)
		}
		*c.dst = n
	}

	recent, err := s.inquiries.Recent(ctx, RecentInquiriesLimit)
	if err != nil {
		return nil, fmt.Errorf("recent inquiries: %w", err)
	}
	if recent == nil {
		recent = []models.Inquiry{}
	}
	d.RecentInquiries = recent
	return &d, nil
}

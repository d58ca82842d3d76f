package services

import (
	"context"
	"fmt"
	"mime/multipart"

	"github.com/google/uuid"
	apperrors "github.com/inkfinity/backend/common/errors"
	"github.com/inkfinity/backend/models"
	"github.com/inkfinity/backend/repository"
	"github.com/inkfinity/backend/storage"
	"go.uber.org/zap"
)

// RelatedPostsLimit is how many related posts a post page shows.
const RelatedPostsLimit = 3

type BlogService struct {
	posts  repository.BlogRepo
	images storage.ImageStore
	logger *zap.Logger
}

func NewBlogService(posts repository.BlogRepo, images storage.ImageStore, logger *zap.Logger) *BlogService {
	return &BlogService{posts: posts, images: images, logger: logger}
}

// BlogPostDetail is a post with the posts shown next to it.
type BlogPostDetail struct {
	Post    *models.BlogPost  `json:"post"`
	Related []models.BlogPost `json:"related"`
}

func (s *BlogService) ListPosts(ctx context.Context, filter models.BlogFilter) ([]models.BlogPost, PageMeta, error) {
	filter.PerPage = normalizePerPage(filter.PerPage)
	posts, total, err := s.posts.Find(ctx, filter)
	if err != nil {
		return nil, PageMeta{}, fmt.Errorf("list posts: %w", err)
	}
	meta := NewPageMeta(filter.Page, filter.PerPage, total)
	if total > 0 && meta.Page != filter.Page && len(posts) == 0 {
		filter.Page = meta.Page
		if posts, _, err = s.posts.Find(ctx, filter); err != nil {
			return nil, PageMeta{}, fmt.Errorf("list posts: %w", err)
		}
	}
	if posts == nil {
		posts = []models.BlogPost{}
	}
	return posts, meta, nil
}

// FeaturedPost returns the newest featured, published post.
func (s *BlogService) FeaturedPost(ctx context.Context) (*models.BlogPost, error) {
	p, err := s.posts.FindFeatured(ctx)
	if err != nil {
		return nil, notFound("No featured post", err)
	}
	return p, nil
}

// PostBySlug returns a published post and up to three other published
// posts.
func (s *BlogService) PostBySlug(ctx context.Context, slug string) (*BlogPostDetail, error) {
	post, err := s.posts.FindBySlug(ctx, slug, true)
	if err != nil {
		return nil, notFound("Post not found", err)
	}
	related, err := s.posts.FindRelated(ctx, post.ID, RelatedPostsLimit)
	if err != nil {
		return nil, fmt.Errorf("related posts: %w", err)
	}
	if related == nil {
		related = []models.BlogPost{}
	}
	return &BlogPostDetail{Post: post, Related: related}, nil
}

func (s *BlogService) GetPost(ctx context.Context, id uuid.UUID) (*models.BlogPost, error) {
	p, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, notFound("Post not found", err)
	}
	return p, nil
}

func (s *BlogService) CreatePost(ctx context.Context, in models.BlogPostInput, cover *multipart.FileHeader) (*models.BlogPost, error) {
	post := &models.BlogPost{
		Title:      in.Title,
		Slug:       slugOr(in.Slug, in.Title),
		Excerpt:    in.Excerpt,
		Content:    in.Content,
		CoverImage: in.CoverImage,
		Featured:   in.Featured,
		Published:  in.Published,
	}
	if post.Slug == "" {
		return nil, apperrors.Validation(map[string]string{"slug": "slug cannot be empty"})
	}

	var uploaded string
	if cover != nil {
		url, err := uploadFile(ctx, s.images, storage.FolderBlog, cover)
		if err != nil {
			return nil, apperrors.Internal("Failed to upload cover image", err)
		}
		uploaded, post.CoverImage = url, url
	}

	if err := s.posts.Create(ctx, post); err != nil {
		if uploaded != "" {
			discardImages(ctx, s.images, []string{uploaded}, s.logger)
		}
		return nil, duplicate("A post with this slug already exists", fmt.Errorf("create post: %w", err))
	}
	return post, nil
}

func (s *BlogService) UpdatePost(ctx context.Context, id uuid.UUID, in models.BlogPostInput, cover *multipart.FileHeader) (*models.BlogPost, error) {
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, notFound("Post not found", err)
	}
	oldCover := post.CoverImage

	post.Title = in.Title
	post.Slug = slugOr(in.Slug, in.Title)
	post.Excerpt = in.Excerpt
	post.Content = in.Content
	post.CoverImage = in.CoverImage
	post.Featured = in.Featured
	post.Published = in.Published

	var uploaded string
	if cover != nil {
		url, err := uploadFile(ctx, s.images, storage.FolderBlog, cover)
		if err != nil {
			return nil, apperrors.Internal("Failed to upload cover image", err)
		}
		uploaded, post.CoverImage = url, url
	}

	if err := s.posts.Update(ctx, post); err != nil {
		if uploaded != "" {
			discardImages(ctx, s.images, []string{uploaded}, s.logger)
		}
		return nil, duplicate("A post with this slug already exists",
			notFound("Post not found", fmt.Errorf("update post: %w", err)))
	}
	if oldCover != "" && oldCover != post.CoverImage {
		discardImages(ctx, s.images, []string{oldCover}, s.logger)
	}
	return s.GetPost(ctx, id)
}

// TogglePublished flips the published flag and returns the stored post.
func (s *BlogService) TogglePublished(ctx context.Context, id uuid.UUID) (*models.BlogPost, error) {
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, notFound("Post not found", err)
	}
	if err := s.posts.SetPublished(ctx, id, !post.Published); err != nil {
		return nil, notFound("Post not found", fmt.Errorf("toggle published: %w", err))
	}
	return s.GetPost(ctx, id)
}

func (s *BlogService) DeletePost(ctx context.Context, id uuid.UUID) error {
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return notFound("Post not found", err)
	}
	if err := s.posts.Delete(ctx, id); err != nil {
		return notFound("Post not found", fmt.Errorf("delete post: %w", err))
	}
	if post.CoverImage != "" {
		discardImages(ctx, s.images, []string{post.CoverImage}, s.logger)
	}
	return nil
}

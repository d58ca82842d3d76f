package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inkfinity/backend/models"
	"go.uber.org/zap"
)

type BlogController struct {
	service BlogServiceAPI
	logger  *zap.Logger
}

func NewBlogController(service BlogServiceAPI, logger *zap.Logger) *BlogController {
	RegisterValidators()
	return &BlogController{service: service, logger: logger}
}

// ListPublished handles GET /blog.
func (bc *BlogController) ListPublished(c *gin.Context) {
	bc.list(c, true)
}

// ListAll handles GET /admin/blog, drafts included.
func (bc *BlogController) ListAll(c *gin.Context) {
	bc.list(c, false)
}

func (bc *BlogController) list(c *gin.Context, publishedOnly bool) {
	page, perPage := parsePagination(c)
	posts, meta, err := bc.service.ListPosts(c.Request.Context(), models.BlogFilter{
		PublishedOnly: publishedOnly,
		Page:          page,
		PerPage:       perPage,
	})
	if err != nil {
		handleServiceError(c, bc.logger, "failed to list posts", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts, "meta": meta})
}

// Featured handles GET /blog/featured.
func (bc *BlogController) Featured(c *gin.Context) {
	post, err := bc.service.FeaturedPost(c.Request.Context())
	if err != nil {
		handleServiceError(c, bc.logger, "failed to get featured post", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post})
}

// GetBySlug handles GET /blog/:slug.
func (bc *BlogController) GetBySlug(c *gin.Context) {
	detail, err := bc.service.PostBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		handleServiceError(c, bc.logger, "failed to get post", err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (bc *BlogController) GetPost(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		handleServiceError(c, bc.logger, "invalid post id", err)
		return
	}
	post, err := bc.service.GetPost(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, bc.logger, "failed to get post", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post})
}

// CreatePost handles POST /admin/blog. The cover file goes under "cover".
func (bc *BlogController) CreatePost(c *gin.Context) {
	var in models.BlogPostInput
	if err := c.ShouldBind(&in); err != nil {
		handleServiceError(c, bc.logger, "invalid post", bindError(err))
		return
	}
	cover := formFile(c, "cover")
	if err := validateImage(cover); err != nil {
		handleServiceError(c, bc.logger, "invalid cover image", err)
		return
	}

	post, err := bc.service.CreatePost(c.Request.Context(), in, cover)
	if err != nil {
		handleServiceError(c, bc.logger, "failed to create post", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"post": post})
}

func (bc *BlogController) UpdatePost(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		handleServiceError(c, bc.logger, "invalid post id", err)
		return
	}
	var in models.BlogPostInput
	if err := c.ShouldBind(&in); err != nil {
		handleServiceError(c, bc.logger, "invalid post", bindError(err))
		return
	}
	cover := formFile(c, "cover")
	if err := validateImage(cover); err != nil {
		handleServiceError(c, bc.logger, "invalid cover image", err)
		return
	}

	post, err := bc.service.UpdatePost(c.Request.Context(), id, in, cover)
	if err != nil {
		handleServiceError(c, bc.logger, "failed to update post", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post})
}

// TogglePublished handles PATCH /admin/blog/:id/publish.
func (bc *BlogController) TogglePublished(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		handleServiceError(c, bc.logger, "invalid post id", err)
		return
	}
	post, err := bc.service.TogglePublished(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, bc.logger, "failed to toggle post", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"post": post})
}

func (bc *BlogController) DeletePost(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		handleServiceError(c, bc.logger, "invalid post id", err)
		return
	}
	if err := bc.service.DeletePost(c.Request.Context(), id); err != nil {
		handleServiceError(c, bc.logger, "failed to delete post", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post deleted"})
}

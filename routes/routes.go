package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inkfinity/backend/common/auth"
	commonmw "github.com/inkfinity/backend/common/middleware"
	"github.com/inkfinity/backend/controllers"
	"github.com/inkfinity/backend/middleware"
)

// Controllers groups every HTTP handler set the API serves.
type Controllers struct {
	Products   *controllers.ProductController
	Categories *controllers.CategoryController
	Blog       *controllers.BlogController
	Inquiries  *controllers.InquiryController
	Settings   *controllers.SettingsController
	Auth       *controllers.AuthController
	Dashboard  *controllers.DashboardController
	Trending   *controllers.TrendingController
}

// Limiters throttle the unauthenticated write endpoints per client IP. A
// nil limiter disables throttling for that route.
type Limiters struct {
	Contact *commonmw.RateLimiter
	Login   *commonmw.RateLimiter
}

// RegisterRoutes mounts the API under /api/v1 and the health check at
// /health.
func RegisterRoutes(r *gin.Engine, h Controllers, tokens *auth.TokenManager, limits Limiters) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	api := r.Group("/api/v1")

	api.GET("/categories", h.Categories.ListCategories)
	api.GET("/categories/:slug", h.Categories.GetCategoryBySlug)

	api.GET("/products", h.Products.ListProducts)
	api.GET("/products/trending", h.Products.ListTrending)
	api.GET("/products/:id", h.Products.GetProduct)

	api.GET("/blog", h.Blog.ListPublished)
	api.GET("/blog/featured", h.Blog.Featured)
	api.GET("/blog/:slug", h.Blog.GetBySlug)

	api.GET("/settings", h.Settings.Get)
	api.POST("/contact", limit(limits.Contact), h.Inquiries.Submit)
	api.POST("/auth/login", limit(limits.Login), commonmw.NoStore(), h.Auth.Login)

	admin := api.Group("/admin", middleware.AuthMiddleware(tokens), middleware.AdminOnly(), commonmw.NoStore())

	admin.GET("/dashboard", h.Dashboard.Summary)
	admin.GET("/uploads/presign", h.Dashboard.Presign)

	admin.GET("/categories", h.Categories.ListCategories)
	admin.GET("/categories/:id", h.Categories.GetCategory)
	admin.POST("/categories", h.Categories.CreateCategory)
	admin.PUT("/categories/:id", h.Categories.UpdateCategory)
	admin.DELETE("/categories/:id", h.Categories.DeleteCategory)

	admin.GET("/products", h.Products.ListProducts)
	admin.GET("/products/:id", h.Products.GetProduct)
	admin.POST("/products", h.Products.CreateProduct)
	admin.PUT("/products/:id", h.Products.UpdateProduct)
	admin.DELETE("/products/:id", h.Products.DeleteProduct)

	admin.GET("/blog", h.Blog.ListAll)
	admin.GET("/blog/:id", h.Blog.GetPost)
	admin.POST("/blog", h.Blog.CreatePost)
	admin.PUT("/blog/:id", h.Blog.UpdatePost)
	admin.PATCH("/blog/:id/publish", h.Blog.TogglePublished)
	admin.DELETE("/blog/:id", h.Blog.DeletePost)

	admin.GET("/inquiries", h.Inquiries.List)
	admin.GET("/inquiries/unread-count", h.Inquiries.UnreadCount)
	admin.GET("/inquiries/:id", h.Inquiries.Get)
	admin.PATCH("/inquiries/:id/read", h.Inquiries.MarkRead)
	admin.PATCH("/inquiries/:id/unread", h.Inquiries.MarkUnread)
	admin.DELETE("/inquiries/:id", h.Inquiries.Delete)

	admin.GET("/settings", h.Settings.Get)
	admin.PUT("/settings", h.Settings.Update)
	admin.POST("/settings/:image", h.Settings.SetImage)
	admin.DELETE("/settings/:image", h.Settings.RemoveImage)

	trending := admin.Group("/trending")
	trending.GET("", h.Trending.Get)
	trending.PUT("", h.Trending.Replace)
	trending.POST("/toggle/:id", h.Trending.Toggle)
	trending.POST("/move-up/:index", h.Trending.MoveUp)
	trending.POST("/move-down/:index", h.Trending.MoveDown)
	trending.POST("/save", h.Trending.Save)
}

func limit(rl *commonmw.RateLimiter) gin.HandlerFunc {
	if rl == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return commonmw.RateLimit(rl)
}

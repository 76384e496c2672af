package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jemaltech/app2automate/helper"
	"github.com/jemaltech/app2automate/metrics"
	"github.com/jemaltech/app2automate/middleware"
	"github.com/jemaltech/app2automate/models"
)

// RouterConfig holds everything NewRouter wires together.
type RouterConfig struct {
	Helper    *helper.HTTPHelper
	Logger    *zap.Logger
	JWTSecret []byte

	Auth  *AuthHandler
	Posts *PostHandler
	Blogs *BlogHandler
	Tags  *TagHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(cfg.Logger))
	router.Use(metrics.Middleware())
	router.Use(middleware.CORS())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", cfg.Auth.Register)
			auth.POST("/login", cfg.Auth.Login)
		}

		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware(cfg.Helper, cfg.JWTSecret))
		{
			protected.GET("/profile", cfg.Auth.GetProfile)

			posts := protected.Group("/posts")
			{
				posts.POST("", cfg.Posts.CreatePost)
				posts.PUT("", cfg.Posts.UpdatePost)
				posts.GET("", cfg.Posts.GetPosts)
				posts.GET("/:id", cfg.Posts.GetPost)
				posts.DELETE("/:id", cfg.Posts.DeletePost)
			}

			search := protected.Group("/_search")
			{
				search.GET("/posts", cfg.Posts.SearchPosts)
				search.GET("/status", middleware.RequireRole(cfg.Helper, models.RoleAdmin), cfg.Posts.GetIndexStatus)
			}

			blogs := protected.Group("/blogs")
			{
				blogs.POST("", cfg.Blogs.CreateBlog)
				blogs.GET("", cfg.Blogs.GetBlogs)
				blogs.GET("/:id", cfg.Blogs.GetBlog)
			}

			tags := protected.Group("/tags")
			{
				tags.POST("", cfg.Tags.CreateTag)
				tags.GET("", cfg.Tags.GetTags)
				tags.GET("/:id", cfg.Tags.GetTag)
			}
		}
	}

	return router
}

package router

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/folio/internal/config"
	"github.com/folio/internal/handler"
	"github.com/folio/internal/logger"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, cfg config.CORSConfig, log zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.RedirectTrailingSlash = false
	r.Use(logger.RequestLogger(log))
	r.Use(cors.New(corsConfig(cfg)))
	r.Use(api.Authenticate())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	requireAuth := handler.RequireAuth()

	auth := r.Group("/api/auth")
	{
		handle(auth, http.MethodPost, "/register", api.Register)
		handle(auth, http.MethodPost, "/login", api.Login)
		handle(auth, http.MethodPost, "/logout", requireAuth, api.Logout)
		handle(auth, http.MethodGet, "/profile", requireAuth, api.GetProfile)
		handle(auth, http.MethodPut, "/profile", requireAuth, api.ReplaceProfile)
		handle(auth, http.MethodPatch, "/profile", requireAuth, api.PatchProfile)
		handle(auth, http.MethodPost, "/change-password", requireAuth, api.ChangePassword)
	}

	// 静态路径需先于 :slug 注册
	pages := r.Group("/api/pages")
	{
		handle(pages, http.MethodGet, "", api.ListPages)
		handle(pages, http.MethodPost, "", requireAuth, api.CreatePage)
		handle(pages, http.MethodGet, "/navigation", api.NavigationPages)
		handle(pages, http.MethodGet, "/my-pages", requireAuth, api.MyPages)
		handle(pages, http.MethodGet, "/:slug", api.GetPage)
		handle(pages, http.MethodPut, "/:slug", requireAuth, api.ReplacePage)
		handle(pages, http.MethodPatch, "/:slug", requireAuth, api.PatchPage)
		handle(pages, http.MethodDelete, "/:slug", requireAuth, api.DeletePage)
	}

	posts := r.Group("/api/posts")
	{
		handle(posts, http.MethodGet, "", api.ListPosts)
		handle(posts, http.MethodPost, "", requireAuth, api.CreatePost)
		handle(posts, http.MethodGet, "/my-posts", requireAuth, api.MyPosts)
		handle(posts, http.MethodGet, "/:id", api.GetPost)
		handle(posts, http.MethodPut, "/:id", requireAuth, api.ReplacePost)
		handle(posts, http.MethodPatch, "/:id", requireAuth, api.PatchPost)
		handle(posts, http.MethodDelete, "/:id", requireAuth, api.DeletePost)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Not found."})
	})

	return r
}

// handle registers path both with and without a trailing slash.
func handle(group *gin.RouterGroup, method, path string, handlers ...gin.HandlerFunc) {
	group.Handle(method, path+"/", handlers...)
	group.Handle(method, path, handlers...)
}

func corsConfig(cfg config.CORSConfig) cors.Config {
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsCfg.MaxAge = 12 * time.Hour

	origins := make([]string, 0, len(cfg.AllowedOrigins))
	for _, origin := range cfg.AllowedOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = origins
	}
	return corsCfg
}

package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"mentor-hub/server/config"
	"mentor-hub/server/internal/api/handler"
	"mentor-hub/server/internal/api/middleware"
	"mentor-hub/server/pkg/jwt"
	"mentor-hub/server/pkg/redis"
)

// 限流参数
const (
	loginRateLimit   = 10
	checkInRateLimit = 20
	rateLimitWindow  = time.Minute
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 可为 nil（降级：不检查黑名单、不限流）；staticDir 非空时对外提供本地上传文件
func Setup(
	cfg *config.Config,
	h *handler.Handler,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	db *gorm.DB,
	staticDir string,
	logger *zap.Logger,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// 避免 nil 指针装入非 nil 接口
	var (
		checker middleware.TokenChecker
		limiter middleware.Limiter
	)
	if rdb != nil {
		checker = rdb
		limiter = rdb
	}

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimit))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		if db != nil {
			if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if staticDir != "" {
		r.Static("/static", staticDir)
	}

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", middleware.RateLimit(limiter, loginRateLimit, rateLimitWindow), h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 公开接口
		v1.GET("/mentors/:id", h.Profile.GetPublic)
		v1.GET("/events/:id/calendar.ics", h.Event.Calendar)

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, checker))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)

			// 活动报名、评价与签到（任意登录用户）
			events := authorized.Group("/events/:id")
			{
				events.POST("/registration", h.Event.Register)
				events.DELETE("/registration", h.Event.CancelRegistration)
				events.POST("/reviews", h.Event.SubmitReview)
			}
			authorized.POST("/checkin", middleware.RateLimit(limiter, checkInRateLimit, rateLimitWindow), h.CheckIn.CheckIn)

			// 导师申请（普通用户）
			authorized.GET("/mentor-registration", h.MentorRegistration.GetStatus)
			authorized.POST("/mentor-registration", middleware.RoleAuth("user"), h.MentorRegistration.Register)

			// 导师工作台
			mentor := authorized.Group("/mentor")
			mentor.Use(middleware.RoleAuth("mentor"))
			{
				mentor.GET("/bookings", h.Booking.ListBookings)
				mentor.GET("/bookings/:id", h.Booking.GetBooking)
				mentor.PUT("/bookings/:id/status", h.Booking.UpdateStatus)
				mentor.PUT("/bookings/:id/notes", h.Booking.UpdateNotes)
				mentor.GET("/calendar.ics", h.Booking.CalendarFeed)

				mentor.GET("/posts", h.Post.ListPosts)
				mentor.POST("/posts", h.Post.CreatePost)
				mentor.POST("/post-thumbnails", h.Post.UploadThumbnail)
				mentor.GET("/post-tags", h.Post.ListTags)
				mentor.GET("/posts/:id", h.Post.GetPost)
				mentor.PUT("/posts/:id", h.Post.UpdatePost)
				mentor.DELETE("/posts/:id", h.Post.DeletePost)
				mentor.POST("/posts/:id/submit", h.Post.SubmitPost)
				mentor.POST("/posts/:id/toggle-publish", h.Post.TogglePublish)

				mentor.POST("/posts/:id/preview", h.Preview.OpenPreview)
				mentor.GET("/posts/:id/preview/draft", h.Preview.GetDraft)
				mentor.PUT("/previews/:session_id", h.Preview.Push)
				mentor.GET("/previews/:session_id/render", h.Preview.Render)
				mentor.DELETE("/previews/:session_id", h.Preview.ClosePreview)

				mentor.GET("/profile", h.Profile.GetMine)
				mentor.PUT("/profile", h.Profile.SaveMine)
				mentor.POST("/profile/avatar", h.Profile.UploadAvatar)
			}

			// 管理后台
			admin := authorized.Group("/admin")
			admin.Use(middleware.RoleAuth("admin"))
			{
				admin.GET("/events", h.Event.ListEvents)
				admin.POST("/events", h.Event.CreateEvent)
				admin.GET("/events/:id", h.Event.GetEvent)
				admin.PUT("/events/:id", h.Event.UpdateEvent)
				admin.DELETE("/events/:id", h.Event.DeleteEvent)
				admin.POST("/events/:id/thumbnail", h.Event.UploadThumbnail)
				admin.GET("/events/:id/participants", h.Event.ListParticipants)
				admin.GET("/events/:id/reviews", h.Event.ListReviews)
				admin.GET("/events/:id/export", h.Export.ExportParticipants)
				admin.GET("/events/:id/checkin-codes", h.CheckIn.ListCodes)
				admin.POST("/events/:id/checkin-codes", h.CheckIn.CreateCode)

				admin.PUT("/registrations/:id/status", h.Event.UpdateRegistrationStatus)
				admin.DELETE("/reviews/:id", h.Event.DeleteReview)
				admin.POST("/checkin-codes/:id/deactivate", h.CheckIn.DeactivateCode)
				admin.DELETE("/checkin-codes/:id", h.CheckIn.DeleteCode)
				admin.GET("/export/fields", h.Export.ListFields)

				admin.GET("/post-submissions", h.Post.ListSubmissions)
				admin.PUT("/post-submissions/:id", h.Post.ReviewSubmission)

				admin.GET("/mentor-registrations", h.MentorRegistration.List)
				admin.PUT("/mentor-registrations/:id", h.MentorRegistration.Review)
			}
		}
	}

	return r
}

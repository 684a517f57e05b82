package router

import (
	"github.com/gin-gonic/gin"
)

// RouteMiddleware 路由组使用的中间件
type RouteMiddleware struct {
	Auth         gin.HandlerFunc
	OptionalAuth gin.HandlerFunc
	// RateLimit 全局按用户限流
	RateLimit gin.HandlerFunc
	// UpstreamLimit 会调用上游线索服务的路由共享的限流
	UpstreamLimit gin.HandlerFunc
}

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(v1 *gin.RouterGroup, h *Handlers, mw RouteMiddleware) {
	// 登录流程与会话查询不要求登录
	auth := v1.Group("/auth")
	{
		auth.GET("/google", h.Auth.GoogleStart)
		auth.GET("/google/callback", h.Auth.GoogleCallback)
		auth.GET("/session", mw.OptionalAuth, h.Auth.GetSession)
		auth.POST("/signout", mw.Auth, h.Auth.SignOut)
		auth.GET("/secret", mw.Auth, h.Auth.Secret)
	}

	protected := v1.Group("", mw.Auth, mw.RateLimit)
	upstream := mw.UpstreamLimit

	// 用户
	users := protected.Group("/users")
	{
		users.GET("/me", h.User.GetMe)
		users.PUT("/me", h.User.UpdateMe)
		users.GET("/:id", h.User.GetByID)
		users.POST("/me/profile/url", upstream, h.User.ProfileFromURL)
		users.POST("/me/profile/files", upstream, h.User.ProfileFromFiles)
	}

	// 收藏夹
	collections := protected.Group("/collections")
	{
		collections.GET("", h.Collection.List)
		collections.GET("/infinite", h.Collection.Infinite)
		collections.POST("", h.Collection.Create)
		collections.DELETE("", h.Collection.Delete)
		collections.GET("/:id", h.Collection.Get)
		collections.PUT("/:id", h.Collection.Update)
		collections.POST("/:id/items", h.Collection.AddItems)
		collections.DELETE("/:id/items", h.Collection.RemoveItems)
	}

	// 搜索历史
	history := protected.Group("/history")
	{
		history.POST("", h.History.Create)
		history.GET("/infinite", h.History.Infinite)
		history.DELETE("", h.History.Delete)
		history.GET("/:id/companies", upstream, h.History.Replay)
	}

	// 公司搜索与员工
	protected.POST("/search/companies", upstream, h.Lead.SearchCompanies)
	companies := protected.Group("/companies")
	{
		companies.GET("/employees", upstream, h.Lead.Employees)
		companies.GET("/:id/info", upstream, h.Lead.CompanyInfo)
	}

	// 联系方式
	contacts := protected.Group("/contacts")
	{
		contacts.GET("", h.Lead.ListUnlocked)
		contacts.POST("/:employeeId/unlock", upstream, h.Lead.UnlockContact)
	}

	// 关键词生成
	keywords := protected.Group("/keywords", upstream)
	{
		keywords.POST("/url", h.Lead.KeywordsFromURL)
		keywords.POST("/files", h.Lead.KeywordsFromFiles)
	}

	// 外联邮件
	mails := protected.Group("/mails")
	{
		mails.POST("/generate", upstream, h.Mail.Generate)
		mails.POST("", h.Mail.Send)
		mails.GET("/:id", h.Mail.Status)
	}

	protected.GET("/sites/preview", h.Lead.SitePreview)
}

package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/eatsy/identity-service/internal/domain"
)

func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(Metrics())

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	a := r.Group("/auth")
	{
		a.POST("/signup", h.RateLimit("auth"), h.Signup)
		a.POST("/vendor/signup", h.RateLimit("auth"), h.VendorSignup)
		a.POST("/signin", h.RateLimit("auth"), h.Signin)
		a.POST("/forgot-password", h.RateLimit("forgot"), h.ForgotPassword)
		a.POST("/verify-otp", h.RateLimit("forgot"), h.VerifyOTP)
		a.POST("/reset-password", h.RateLimit("auth"), h.ResetPassword)
		a.GET("/session", h.Authenticate(), h.Session)
		a.POST("/admin/create", h.Authenticate(), h.RequireRoles(domain.RoleAdmin), h.CreateAdmin)
		a.GET("/google", h.GoogleRedirect)
		a.GET("/google/callback", h.GoogleCallback)
	}

	return r
}

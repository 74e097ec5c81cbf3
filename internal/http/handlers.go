package http

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eatsy/identity-service/internal/apperr"
	"github.com/eatsy/identity-service/internal/auth"
	"github.com/eatsy/identity-service/internal/log"
	"github.com/eatsy/identity-service/internal/oauth"
)

// Pinger reports backing-store health for /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Limiter is the rate-limit check consulted on sensitive routes.
// *repo.Redis satisfies it; tests substitute deterministic fakes.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) bool
}

type Handler struct {
	Auth            *auth.Service
	Google          *oauth.GoogleOAuth
	Limiter         Limiter // nil disables rate limiting
	RateLimitPerMin int
	ClientURL       string
	Dev             bool
	Health          Pinger // nil reports ok
}

func NewHandler(svc *auth.Service, google *oauth.GoogleOAuth, limiter Limiter, rlPerMin int, clientURL string, dev bool, health Pinger) *Handler {
	return &Handler{
		Auth:            svc,
		Google:          google,
		Limiter:         limiter,
		RateLimitPerMin: rlPerMin,
		ClientURL:       clientURL,
		Dev:             dev,
		Health:          health,
	}
}

type signupReq struct {
	Name     string `json:"name" binding:"required,min=2,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

// Signup godoc
// @Summary Customer signup
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body signupReq true "signup"
// @Success 201 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /auth/signup [post]
func (h *Handler) Signup(c *gin.Context) {
	var in signupReq
	if err := c.ShouldBindJSON(&in); err != nil {
		respondErr(c, apperr.Validation("invalid signup payload").Wrap(err), h.Dev)
		return
	}
	u, tok, err := h.Auth.Signup(c.Request.Context(), in.Name, in.Email, in.Password)
	if err != nil {
		respondErr(c, err, h.Dev)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": u.Public(), "token": tok})
}

type vendorSignupReq struct {
	Name            string `json:"name" binding:"required,min=2,max=50"`
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,min=8,max=128"`
	BusinessName    string `json:"businessName" binding:"required,min=2,max=100"`
	BusinessAddress string `json:"businessAddress" binding:"required"`
	BusinessPhone   string `json:"businessPhone" binding:"required"`
}

// VendorSignup godoc
// @Summary Vendor signup (pending approval)
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body vendorSignupReq true "vendor signup"
// @Success 201 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /auth/vendor/signup [post]
func (h *Handler) VendorSignup(c *gin.Context) {
	var in vendorSignupReq
	if err := c.ShouldBindJSON(&in); err != nil {
		respondErr(c, apperr.Validation("invalid vendor signup payload").Wrap(err), h.Dev)
		return
	}
	u, tok, err := h.Auth.VendorSignup(c.Request.Context(),
		in.Name, in.Email, in.Password, in.BusinessName, in.BusinessAddress, in.BusinessPhone)
	if err != nil {
		respondErr(c, err, h.Dev)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": u.Public(), "token": tok})
}

type signinReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Signin godoc
// @Summary Signin
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body signinReq true "signin"
// @Success 200 {object} map[string]any
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Router /auth/signin [post]
func (h *Handler) Signin(c *gin.Context) {
	var in signinReq
	if err := c.ShouldBindJSON(&in); err != nil {
		respondErr(c, apperr.Validation("invalid signin payload").Wrap(err), h.Dev)
		return
	}
	u, tok, err := h.Auth.Signin(c.Request.Context(), in.Email, in.Password)
	if err != nil {
		respondErr(c, err, h.Dev)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u.Public(), "token": tok})
}

type forgotPasswordReq struct {
	Email string `json:"email" binding:"required,email"`
}

// ForgotPassword godoc
// @Summary Request a recovery code
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body forgotPasswordReq true "email"
// @Success 200 {object} map[string]string
// @Router /auth/forgot-password [post]
func (h *Handler) ForgotPassword(c *gin.Context) {
	var in forgotPasswordReq
	if err := c.ShouldBindJSON(&in); err != nil {
		respondErr(c, apperr.Validation("invalid payload").Wrap(err), h.Dev)
		return
	}
	if err := h.Auth.ForgotPassword(c.Request.Context(), in.Email); err != nil {
		respondErr(c, err, h.Dev)
		return
	}
	// identical answer whether or not the account exists
	c.JSON(http.StatusOK, gin.H{"message": "If the email exists, a code has been sent"})
}

type verifyOTPReq struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required,len=4"`
}

// VerifyOTP godoc
// @Summary Verify a recovery code
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body verifyOTPReq true "email + otp"
// @Success 200 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /auth/verify-otp [post]
func (h *Handler) VerifyOTP(c *gin.Context) {
	var in verifyOTPReq
	if err := c.ShouldBindJSON(&in); err != nil {
		respondErr(c, apperr.Validation("invalid payload").Wrap(err), h.Dev)
		return
	}
	proof, err := h.Auth.VerifyOTP(c.Request.Context(), in.Email, in.OTP)
	if err != nil {
		respondErr(c, err, h.Dev)
		return
	}
	c.JSON(http.StatusOK, gin.H{"resetToken": proof})
}

type resetPasswordReq struct {
	NewPassword string `json:"newPassword" binding:"required,min=8,max=128"`
}

// ResetPassword godoc
// @Summary Reset password with a proof token
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body resetPasswordReq true "new password"
// @Success 200 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /auth/reset-password [post]
func (h *Handler) ResetPassword(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		respondErr(c, apperr.Unauthorized("Reset token required"), h.Dev)
		return
	}
	uid, err := h.Auth.ValidateResetToken(token)
	if err != nil {
		respondErr(c, err, h.Dev)
		return
	}
	var in resetPasswordReq
	if err := c.ShouldBindJSON(&in); err != nil {
		respondErr(c, apperr.Validation("invalid payload").Wrap(err), h.Dev)
		return
	}
	if err := h.Auth.ResetPassword(c.Request.Context(), uid, in.NewPassword); err != nil {
		respondErr(c, err, h.Dev)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password reset successful"})
}

// Session godoc
// @Summary Current identity
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} map[string]any
// @Failure 401 {object} map[string]string
// @Router /auth/session [get]
func (h *Handler) Session(c *gin.Context) {
	u := currentUser(c)
	c.JSON(http.StatusOK, gin.H{"user": u.Public()})
}

type createAdminReq struct {
	Name     string `json:"name" binding:"required,min=2,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

// CreateAdmin godoc
// @Summary Create an admin account
// @Tags auth
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body createAdminReq true "admin"
// @Success 201 {object} map[string]any
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /auth/admin/create [post]
func (h *Handler) CreateAdmin(c *gin.Context) {
	requester := currentUser(c)
	var in createAdminReq
	if err := c.ShouldBindJSON(&in); err != nil {
		respondErr(c, apperr.Validation("invalid payload").Wrap(err), h.Dev)
		return
	}
	u, err := h.Auth.CreateAdmin(c.Request.Context(), requester.ID.Hex(), in.Name, in.Email, in.Password)
	if err != nil {
		respondErr(c, err, h.Dev)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": u.Public()})
}

// GoogleRedirect godoc
// @Summary Start Google OAuth
// @Tags auth
// @Success 302
// @Router /auth/google [get]
func (h *Handler) GoogleRedirect(c *gin.Context) {
	state := h.Google.MakeState(uuid.NewString())
	c.Redirect(http.StatusFound, h.Google.AuthURL(state))
}

// GoogleCallback godoc
// @Summary Google OAuth callback
// @Tags auth
// @Success 302
// @Failure 401 {object} map[string]string
// @Router /auth/google/callback [get]
func (h *Handler) GoogleCallback(c *gin.Context) {
	state := c.Query("state")
	code := c.Query("code")
	if code == "" || !h.Google.VerifyState(state) {
		respondErr(c, apperr.Unauthorized("Invalid OAuth state"), h.Dev)
		return
	}

	var profile *oauth.Profile
	var err error
	WithSpan(c.Request.Context(), "oauth.google.exchange", func(ctx context.Context) {
		profile, err = h.Google.ExchangeAndVerify(ctx, code)
	})
	if err != nil {
		log.L().Warn("google exchange failed", zap.Error(err))
		respondErr(c, apperr.Unauthorized("OAuth exchange failed"), h.Dev)
		return
	}

	u, err := h.Auth.ResolveGoogle(c.Request.Context(), profile.Sub, profile.Email, profile.Name)
	if err != nil {
		respondErr(c, err, h.Dev)
		return
	}
	tok, err := h.Auth.IssueSession(u)
	if err != nil {
		respondErr(c, err, h.Dev)
		return
	}
	c.Redirect(http.StatusFound, h.ClientURL+"/auth/callback?token="+url.QueryEscape(tok))
}

func (h *Handler) Healthz(c *gin.Context) {
	if h.Health != nil {
		if err := h.Health.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func bearerToken(c *gin.Context) (string, bool) {
	h := c.GetHeader("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", false
	}
	return strings.TrimPrefix(h, "Bearer "), true
}

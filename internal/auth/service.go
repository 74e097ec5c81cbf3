package auth

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/eatsy/identity-service/internal/apperr"
	"github.com/eatsy/identity-service/internal/domain"
	"github.com/eatsy/identity-service/internal/log"
	"github.com/eatsy/identity-service/internal/metrics"
	"github.com/eatsy/identity-service/internal/queue"
	"github.com/eatsy/identity-service/internal/repo"
	"github.com/eatsy/identity-service/internal/security"
)

// Store is the identity persistence contract. The Mongo implementation
// lives in internal/repo; tests substitute an in-memory fake.
type Store interface {
	FindUserByEmail(ctx context.Context, email string, p repo.Projection) (*domain.User, error)
	FindUserByID(ctx context.Context, id string, p repo.Projection) (*domain.User, error)
	FindUserByGoogleID(ctx context.Context, gid string) (*domain.User, error)
	CreateUser(ctx context.Context, u *domain.User) error
	SaveUser(ctx context.Context, u *domain.User) error
	SetRecovery(ctx context.Context, id primitive.ObjectID, codeHash string, expiresAt time.Time) error
	ConsumeRecovery(ctx context.Context, id primitive.ObjectID, passwordHash string) error
}

// Hasher is the one-way adaptive hash used for passwords and recovery
// codes.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(hash, plain string) bool
}

// Issuer signs and verifies purpose-tagged bearer tokens.
type Issuer interface {
	IssueSession(uid string) (string, error)
	IssueProof(uid, purpose string, ttl time.Duration) (string, error)
	Verify(token, expectedPurpose string) (string, error)
}

const (
	msgInvalidCredentials = "Invalid credentials"
	msgInvalidOTP         = "Invalid or expired OTP"
)

// Service orchestrates signup, signin, password recovery, admin
// creation and Google account resolution over explicitly injected
// components.
type Service struct {
	store    Store
	hasher   Hasher
	tokens   Issuer
	events   queue.Publisher
	otpTTL   time.Duration
	proofTTL time.Duration
	now      func() time.Time
}

func NewService(store Store, hasher Hasher, tokens Issuer, events queue.Publisher, otpTTL, proofTTL time.Duration) *Service {
	return &Service{
		store:    store,
		hasher:   hasher,
		tokens:   tokens,
		events:   events,
		otpTTL:   otpTTL,
		proofTTL: proofTTL,
		now:      time.Now,
	}
}

// WithClock overrides the service clock. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// publish fires an event without blocking the caller; failures are
// logged and never surfaced.
func (s *Service) publish(ctx context.Context, key string, event any) {
	reqID := log.RequestID(ctx)
	go func() {
		if err := s.events.Publish(context.Background(), key, event, reqID); err != nil {
			log.L().Warn("event publish failed", zap.String("key", key), zap.Error(err))
		}
	}()
}

// Signup creates a customer account and signs it in.
func (s *Service) Signup(ctx context.Context, name, email, password string) (*domain.User, string, error) {
	email = normalizeEmail(email)
	if existing, err := s.store.FindUserByEmail(ctx, email, repo.Public); err != nil {
		return nil, "", err
	} else if existing != nil {
		return nil, "", apperr.Conflict("Email already registered")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, "", err
	}
	u := &domain.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleCustomer,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if err == repo.ErrDuplicate {
			return nil, "", apperr.Conflict("Email already registered")
		}
		return nil, "", err
	}

	tok, err := s.tokens.IssueSession(u.ID.Hex())
	if err != nil {
		return nil, "", err
	}

	s.publish(ctx, queue.KeyUserRegistered, queue.UserRegistered{
		UserID: u.ID.Hex(), Email: u.Email, Name: u.Name, Role: string(u.Role),
	})
	return u, tok, nil
}

// VendorSignup creates a vendor account in pending status. The session
// token is issued immediately; vendor-only operations stay gated until
// an administrator activates the account.
func (s *Service) VendorSignup(ctx context.Context, name, email, password, bizName, bizAddr, bizPhone string) (*domain.User, string, error) {
	email = normalizeEmail(email)
	if existing, err := s.store.FindUserByEmail(ctx, email, repo.Public); err != nil {
		return nil, "", err
	} else if existing != nil {
		return nil, "", apperr.Conflict("Email already registered")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, "", err
	}
	u := &domain.User{
		Name:            strings.TrimSpace(name),
		Email:           email,
		PasswordHash:    hash,
		Role:            domain.RoleVendor,
		VendorStatus:    domain.VendorPending,
		BusinessName:    strings.TrimSpace(bizName),
		BusinessAddress: strings.TrimSpace(bizAddr),
		BusinessPhone:   strings.TrimSpace(bizPhone),
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if err == repo.ErrDuplicate {
			return nil, "", apperr.Conflict("Email already registered")
		}
		return nil, "", err
	}

	tok, err := s.tokens.IssueSession(u.ID.Hex())
	if err != nil {
		return nil, "", err
	}

	s.publish(ctx, queue.KeyVendorApplied, queue.VendorApplied{
		UserID: u.ID.Hex(), Email: u.Email, BusinessName: u.BusinessName,
	})
	return u, tok, nil
}

// Signin verifies credentials and issues a session token. Unknown
// email, provider-only account and wrong password all collapse into the
// same unauthorized message. A correct password still gets a forbidden
// answer for suspended or rejected vendors.
func (s *Service) Signin(ctx context.Context, email, password string) (*domain.User, string, error) {
	email = normalizeEmail(email)
	u, err := s.store.FindUserByEmail(ctx, email, repo.WithSecrets)
	if err != nil {
		return nil, "", err
	}
	if u == nil || u.PasswordHash == "" {
		metrics.SigninFailures.WithLabelValues("no_account").Inc()
		return nil, "", apperr.Unauthorized(msgInvalidCredentials)
	}
	if !s.hasher.Verify(u.PasswordHash, password) {
		metrics.SigninFailures.WithLabelValues("bad_password").Inc()
		return nil, "", apperr.Unauthorized(msgInvalidCredentials)
	}

	if u.Role == domain.RoleVendor {
		switch u.VendorStatus {
		case domain.VendorSuspended:
			metrics.SigninFailures.WithLabelValues("vendor_suspended").Inc()
			return nil, "", apperr.Forbidden("Your vendor account has been suspended")
		case domain.VendorRejected:
			metrics.SigninFailures.WithLabelValues("vendor_rejected").Inc()
			return nil, "", apperr.Forbidden("Your vendor application was rejected")
		case domain.VendorPending, domain.VendorActive:
			// pending vendors can authenticate; vendor-only routes
			// stay closed until activation
		default:
			metrics.SigninFailures.WithLabelValues("vendor_invalid_status").Inc()
			return nil, "", apperr.Forbidden("Invalid vendor status")
		}
	}

	tok, err := s.tokens.IssueSession(u.ID.Hex())
	if err != nil {
		return nil, "", err
	}

	s.publish(ctx, queue.KeyUserLoggedIn, queue.UserLoggedIn{UserID: u.ID.Hex(), Email: u.Email})
	return u, tok, nil
}

// CreateAdmin creates an admin account. The requester is reloaded and
// re-checked here regardless of any route-level guard.
func (s *Service) CreateAdmin(ctx context.Context, requesterID, name, email, password string) (*domain.User, error) {
	requester, err := s.store.FindUserByID(ctx, requesterID, repo.Public)
	if err != nil {
		return nil, err
	}
	if requester == nil || requester.Role != domain.RoleAdmin {
		return nil, apperr.Forbidden("Only admins can create admin accounts")
	}

	email = normalizeEmail(email)
	if existing, err := s.store.FindUserByEmail(ctx, email, repo.Public); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, apperr.Conflict("Email already registered")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		Name:         strings.TrimSpace(name),
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if err == repo.ErrDuplicate {
			return nil, apperr.Conflict("Email already registered")
		}
		return nil, err
	}
	return u, nil
}

// ForgotPassword issues a recovery challenge. It succeeds whether or
// not the email exists so callers cannot enumerate accounts; only the
// existing-account path writes anything.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	u, err := s.store.FindUserByEmail(ctx, email, repo.Public)
	if err != nil {
		return err
	}
	if u == nil {
		return nil
	}

	code, err := security.NewOTP()
	if err != nil {
		return err
	}
	codeHash, err := s.hasher.Hash(code)
	if err != nil {
		return err
	}
	if err := s.store.SetRecovery(ctx, u.ID, codeHash, s.now().Add(s.otpTTL)); err != nil {
		return err
	}
	metrics.OTPIssued.Inc()

	s.publish(ctx, queue.KeyOTPRequested, queue.OTPRequested{
		Email: u.Email, Code: code, ExpiresIn: s.otpTTL.String(),
	})
	return nil
}

// VerifyOTP checks the submitted code against the stored challenge and
// returns a short-lived reset proof token. Missing account, missing
// challenge, expired challenge and wrong code all yield the identical
// error. The stored challenge is left untouched; only ResetPassword
// clears it.
func (s *Service) VerifyOTP(ctx context.Context, email, code string) (string, error) {
	email = normalizeEmail(email)
	u, err := s.store.FindUserByEmail(ctx, email, repo.WithSecrets)
	if err != nil {
		return "", err
	}
	if u == nil || !u.HasRecovery() {
		return "", apperr.Unauthorized(msgInvalidOTP)
	}
	if !s.now().Before(u.RecoveryExpires) {
		return "", apperr.Unauthorized(msgInvalidOTP)
	}
	if !s.hasher.Verify(u.RecoveryCodeHash, code) {
		return "", apperr.Unauthorized(msgInvalidOTP)
	}
	return s.tokens.IssueProof(u.ID.Hex(), security.PurposePasswordReset, s.proofTTL)
}

// ResetPassword commits the new password and clears the recovery pair
// in one update.
func (s *Service) ResetPassword(ctx context.Context, uid, newPassword string) error {
	u, err := s.store.FindUserByID(ctx, uid, repo.WithSecrets)
	if err != nil {
		return err
	}
	if u == nil {
		return apperr.Unauthorized("Invalid reset session")
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	return s.store.ConsumeRecovery(ctx, u.ID, hash)
}

// ValidateToken resolves a session token to the current identity. Only
// the subject claim is trusted; everything else is reloaded.
func (s *Service) ValidateToken(ctx context.Context, token string) (*domain.User, error) {
	uid, err := s.tokens.Verify(token, security.PurposeSession)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid token").Wrap(err)
	}
	u, err := s.store.FindUserByID(ctx, uid, repo.Public)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.Unauthorized("Invalid token")
	}
	return u, nil
}

// ValidateResetToken resolves a reset proof token to a user id. A
// session token is rejected here exactly as a proof token is rejected
// by ValidateToken.
func (s *Service) ValidateResetToken(token string) (string, error) {
	uid, err := s.tokens.Verify(token, security.PurposePasswordReset)
	if err != nil {
		return "", apperr.Unauthorized("Invalid or expired reset token").Wrap(err)
	}
	return uid, nil
}

// ResolveGoogle maps an external Google profile onto a local identity:
// an account already linked to the sub is returned as-is; otherwise an
// account with the same email gets the sub attached; otherwise a fresh
// customer account is created with no password.
func (s *Service) ResolveGoogle(ctx context.Context, sub, email, name string) (*domain.User, error) {
	if sub == "" {
		return nil, apperr.Unauthorized("Invalid provider profile")
	}
	u, err := s.store.FindUserByGoogleID(ctx, sub)
	if err != nil {
		return nil, err
	}
	if u != nil {
		return u, nil
	}

	email = normalizeEmail(email)
	if email == "" {
		return nil, apperr.Validation("No email found in Google profile")
	}

	// loaded with secrets so the save keeps the password hash intact
	u, err = s.store.FindUserByEmail(ctx, email, repo.WithSecrets)
	if err != nil {
		return nil, err
	}
	if u != nil {
		// account linking: role, status and password are untouched
		u.GoogleID = sub
		if err := s.store.SaveUser(ctx, u); err != nil {
			return nil, err
		}
		return u, nil
	}

	if name == "" {
		name = "Google User"
	}
	u = &domain.User{
		Name:     name,
		Email:    email,
		GoogleID: sub,
		Role:     domain.RoleCustomer,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		if err == repo.ErrDuplicate {
			return nil, apperr.Conflict("Email already registered")
		}
		return nil, err
	}
	s.publish(ctx, queue.KeyUserRegistered, queue.UserRegistered{
		UserID: u.ID.Hex(), Email: u.Email, Name: u.Name, Role: string(u.Role),
	})
	return u, nil
}

// IssueSession exposes session issuance for the OAuth callback, which
// authenticates through the provider rather than a password.
func (s *Service) IssueSession(u *domain.User) (string, error) {
	return s.tokens.IssueSession(u.ID.Hex())
}

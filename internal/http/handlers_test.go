package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/eatsy/identity-service/internal/repo"
)

func Test_Signup_Signin_Session(t *testing.T) {
	env := newTestEnv(t)

	// signup
	w := env.do(t, "POST", "/auth/signup",
		`{"name":"Ana","email":"ana@x.com","password":"Password1!"}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("signup code=%d body=%s", w.Code, w.Body.String())
	}
	var sr struct {
		Token string `json:"token"`
		User  struct {
			ID    string `json:"id"`
			Role  string `json:"role"`
			Email string `json:"email"`
		} `json:"user"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &sr); err != nil || sr.Token == "" {
		t.Fatalf("signup resp parse: %v; body=%s", err, w.Body.String())
	}
	if sr.User.Role != "customer" {
		t.Fatalf("role=%s", sr.User.Role)
	}

	// signin
	w = env.do(t, "POST", "/auth/signin",
		`{"email":"ana@x.com","password":"Password1!"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("signin code=%d body=%s", w.Code, w.Body.String())
	}
	var lr struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &lr); err != nil || lr.Token == "" {
		t.Fatalf("signin resp: %v body=%s", err, w.Body.String())
	}

	// wrong password
	w = env.do(t, "POST", "/auth/signin",
		`{"email":"ana@x.com","password":"wrongwrong"}`, nil)
	if w.Code != http.StatusUnauthorized || !strings.Contains(w.Body.String(), "Invalid credentials") {
		t.Fatalf("wrong password: code=%d body=%s", w.Code, w.Body.String())
	}

	// session
	w = env.do(t, "GET", "/auth/session", "", bearer(lr.Token))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "ana@x.com") {
		t.Fatalf("session: code=%d body=%s", w.Code, w.Body.String())
	}

	// admin create with a customer token is forbidden
	w = env.do(t, "POST", "/auth/admin/create",
		`{"name":"Root","email":"root@x.com","password":"Password1!"}`, bearer(lr.Token))
	if w.Code != http.StatusForbidden {
		t.Fatalf("admin create by customer: code=%d body=%s", w.Code, w.Body.String())
	}
}

func Test_DuplicateSignup_Conflicts(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "POST", "/auth/signup",
		`{"name":"Ana","email":"ana@x.com","password":"Password1!"}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("signup: %d %s", w.Code, w.Body.String())
	}
	// different casing still conflicts
	w = env.do(t, "POST", "/auth/signup",
		`{"name":"Other","email":"ANA@X.COM","password":"Password2!"}`, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate signup: %d %s", w.Code, w.Body.String())
	}
}

func Test_VendorSignup_PendingAuthenticates(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "POST", "/auth/vendor/signup",
		`{"name":"Bo","email":"bo@x.com","password":"Password1!",
		  "businessName":"Bo Foods","businessAddress":"1 Main St","businessPhone":"555-0100"}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("vendor signup: %d %s", w.Code, w.Body.String())
	}
	var sr struct {
		Token string `json:"token"`
		User  struct {
			VendorStatus string `json:"vendor_status"`
		} `json:"user"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &sr)
	if sr.User.VendorStatus != "pending" {
		t.Fatalf("status=%q body=%s", sr.User.VendorStatus, w.Body.String())
	}

	// the freshly issued session token works immediately
	w = env.do(t, "GET", "/auth/session", "", bearer(sr.Token))
	if w.Code != http.StatusOK {
		t.Fatalf("pending vendor session: %d %s", w.Code, w.Body.String())
	}
}

func Test_ForgotPassword_IdenticalAnswers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	w := env.do(t, "POST", "/auth/signup",
		`{"name":"Ana","email":"ana@x.com","password":"Password1!"}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("signup: %d", w.Code)
	}

	known := env.do(t, "POST", "/auth/forgot-password", `{"email":"ana@x.com"}`, nil)
	unknown := env.do(t, "POST", "/auth/forgot-password", `{"email":"ghost@x.com"}`, nil)
	if known.Code != http.StatusOK || unknown.Code != http.StatusOK {
		t.Fatalf("codes: %d / %d", known.Code, unknown.Code)
	}
	if known.Body.String() != unknown.Body.String() {
		t.Fatalf("responses differ: %s vs %s", known.Body.String(), unknown.Body.String())
	}

	// only the existing account got a stored challenge
	u, _ := env.Store.FindUserByEmail(ctx, "ana@x.com", repo.WithSecrets)
	if !u.HasRecovery() {
		t.Fatal("no challenge stored for known email")
	}
}

func Test_ResetFlow_EndToEnd(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "POST", "/auth/signup",
		`{"name":"Ana","email":"ana@x.com","password":"Password1!"}`, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("signup: %d", w.Code)
	}
	var sr struct {
		Token string `json:"token"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &sr)
	session := sr.Token

	w = env.do(t, "POST", "/auth/forgot-password", `{"email":"ana@x.com"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("forgot: %d %s", w.Code, w.Body.String())
	}
	code := env.Pub.waitOTP(t).Code

	// wrong code is 401 with the collapsed message
	w = env.do(t, "POST", "/auth/verify-otp",
		`{"email":"ana@x.com","otp":"0000"}`, nil)
	if w.Code != http.StatusUnauthorized || !strings.Contains(w.Body.String(), "Invalid or expired OTP") {
		t.Fatalf("wrong otp: %d %s", w.Code, w.Body.String())
	}

	w = env.do(t, "POST", "/auth/verify-otp",
		`{"email":"ana@x.com","otp":"`+code+`"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("verify-otp: %d %s", w.Code, w.Body.String())
	}
	var vr struct {
		ResetToken string `json:"resetToken"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &vr); err != nil || vr.ResetToken == "" {
		t.Fatalf("verify resp: %v %s", err, w.Body.String())
	}

	// verification does not consume: the same code still verifies
	w = env.do(t, "POST", "/auth/verify-otp",
		`{"email":"ana@x.com","otp":"`+code+`"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("re-verify before reset: %d %s", w.Code, w.Body.String())
	}

	// a proof token is not a session token
	w = env.do(t, "GET", "/auth/session", "", bearer(vr.ResetToken))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("proof token accepted by session: %d", w.Code)
	}
	// and a session token is not a proof token
	w = env.do(t, "POST", "/auth/reset-password",
		`{"newPassword":"NewPassword2!"}`, bearer(session))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("session token accepted by reset: %d", w.Code)
	}

	w = env.do(t, "POST", "/auth/reset-password",
		`{"newPassword":"NewPassword2!"}`, bearer(vr.ResetToken))
	if w.Code != http.StatusOK {
		t.Fatalf("reset: %d %s", w.Code, w.Body.String())
	}

	// the challenge is gone after the reset commits
	w = env.do(t, "POST", "/auth/verify-otp",
		`{"email":"ana@x.com","otp":"`+code+`"}`, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("verify after reset: %d %s", w.Code, w.Body.String())
	}

	w = env.do(t, "POST", "/auth/signin",
		`{"email":"ana@x.com","password":"NewPassword2!"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("signin after reset: %d %s", w.Code, w.Body.String())
	}
}

func Test_AdminCreate_ByAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	hash, err := env.Hasher.Hash("Password1!")
	if err != nil {
		t.Fatal(err)
	}
	seedAdmin(t, env, ctx, hash)

	w := env.do(t, "POST", "/auth/signin",
		`{"email":"root@x.com","password":"Password1!"}`, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("admin signin: %d %s", w.Code, w.Body.String())
	}
	var lr struct {
		Token string `json:"token"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &lr)

	w = env.do(t, "POST", "/auth/admin/create",
		`{"name":"Second","email":"second@x.com","password":"Password1!"}`, bearer(lr.Token))
	if w.Code != http.StatusCreated || !strings.Contains(w.Body.String(), `"role":"admin"`) {
		t.Fatalf("admin create: %d %s", w.Code, w.Body.String())
	}

	// no token at all
	w = env.do(t, "POST", "/auth/admin/create",
		`{"name":"Third","email":"third@x.com","password":"Password1!"}`, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: %d", w.Code)
	}
}

func Test_GoogleRedirect(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "GET", "/auth/google", "", nil)
	if w.Code != http.StatusFound {
		t.Fatalf("redirect: %d", w.Code)
	}
	loc := w.Header().Get("Location")
	if !strings.Contains(loc, "accounts.google.com") || !strings.Contains(loc, "state=") {
		t.Fatalf("location: %s", loc)
	}

	// a callback with forged state is rejected before any exchange
	w = env.do(t, "GET", "/auth/google/callback?code=abc&state=forged.sig", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("forged state: %d %s", w.Code, w.Body.String())
	}
}

func Test_Healthz(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, "GET", "/healthz", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("healthz: %d %s", w.Code, w.Body.String())
	}
}

// exhaustedLimiter rejects every request, as redis does once a client
// burns through its window.
type exhaustedLimiter struct{}

func (exhaustedLimiter) Allow(context.Context, string, int, time.Duration) bool { return false }

func Test_RateLimited_Returns429(t *testing.T) {
	env := newTestEnv(t)
	env.Handler.Limiter = exhaustedLimiter{}
	env.Handler.RateLimitPerMin = 1

	for _, path := range []string{"/auth/signin", "/auth/forgot-password"} {
		w := env.do(t, "POST", path, `{"email":"ana@x.com","password":"Password1!"}`, nil)
		if w.Code != http.StatusTooManyRequests {
			t.Fatalf("%s: code=%d body=%s", path, w.Code, w.Body.String())
		}
		if !strings.Contains(w.Body.String(), "Too many attempts, please try again later") {
			t.Fatalf("%s: body=%s", path, w.Body.String())
		}
	}
}

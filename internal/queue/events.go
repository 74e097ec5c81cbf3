package queue

// Routing keys on the auth topic exchange.
const (
	KeyUserRegistered = "auth.user.registered"
	KeyVendorApplied  = "auth.vendor.applied"
	KeyUserLoggedIn   = "auth.user.loggedin"
	KeyOTPRequested   = "auth.otp.requested"
)

type UserRegistered struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

type VendorApplied struct {
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	BusinessName string `json:"business_name"`
}

type UserLoggedIn struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// OTPRequested carries the plaintext recovery code to the mail worker.
// It is never returned to the HTTP caller.
type OTPRequested struct {
	Email     string `json:"email"`
	Code      string `json:"code"`
	ExpiresIn string `json:"expires_in"`
}

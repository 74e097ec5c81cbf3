package security_test

import (
	"testing"

	"github.com/eatsy/identity-service/internal/security"
)

func TestNewOTPWidth(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := security.NewOTP()
		if err != nil {
			t.Fatal(err)
		}
		if len(code) != 4 {
			t.Fatalf("code %q is not four digits", code)
		}
		if code[0] == '0' {
			t.Fatalf("code %q below 1000", code)
		}
	}
}

func TestPasswordHasher(t *testing.T) {
	h := security.NewPasswordHasher(4)
	hash, err := h.Hash("Password1!")
	if err != nil {
		t.Fatal(err)
	}
	if hash == "Password1!" {
		t.Fatal("hash equals plaintext")
	}
	if !h.Verify(hash, "Password1!") {
		t.Fatal("hash does not verify")
	}
	if h.Verify(hash, "wrong") {
		t.Fatal("wrong password verified")
	}
}

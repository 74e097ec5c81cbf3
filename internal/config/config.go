package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port               string
	Dev                bool
	MongoURI           string
	MongoDB            string
	JWTSecret          string
	SessionTTLDays     int
	ResetProofTTLMin   int
	OTPTTLMin          int
	BcryptCost         int
	RedisAddr          string
	RateLimitPerMin    int
	RabbitURL          string
	RabbitExchange     string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string
	OAuthStateSecret   string
	ClientURL          string
}

func Load() Config {
	return Config{
		Port:               getenv("APP_PORT", "8080"),
		Dev:                getenv("APP_ENV", "dev") != "production",
		MongoURI:           getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:            getenv("MONGO_DB", "identity_db"),
		JWTSecret:          getenv("JWT_SECRET", "default_secret_key"),
		SessionTTLDays:     atoi(getenv("SESSION_TTL_DAYS", "7")),
		ResetProofTTLMin:   atoi(getenv("RESET_PROOF_TTL_MIN", "5")),
		OTPTTLMin:          atoi(getenv("OTP_TTL_MIN", "15")),
		BcryptCost:         atoi(getenv("BCRYPT_COST", "12")),
		RedisAddr:          getenv("REDIS_ADDR", "localhost:6379"),
		RateLimitPerMin:    atoi(getenv("RATE_LIMIT_PER_MIN", "10")),
		RabbitURL:          getenv("RABBITMQ_URL", ""),
		RabbitExchange:     getenv("RABBITMQ_EXCHANGE", "auth.events"),
		GoogleClientID:     getenv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getenv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURI:  getenv("GOOGLE_REDIRECT_URI", "http://localhost:8080/auth/google/callback"),
		OAuthStateSecret:   getenv("OAUTH_STATE_SECRET", "state_secret"),
		ClientURL:          getenv("CLIENT_URL", "http://localhost:3000"),
	}
}

func atoi(s string) int {
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return 0
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

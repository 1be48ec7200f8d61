package utils

import (
	"time"

	"github.com/mojocn/base64Captcha"
)

// captchaStore prefers Redis so captcha works behind load balancers; the
// library's memory store is the single-instance fallback.
var captchaStore base64Captcha.Store = base64Captcha.DefaultMemStore

// InitCaptchaStore switches to the Redis-backed store. Call after config load.
func InitCaptchaStore() {
	if GetRedis() != nil {
		captchaStore = NewRedisCaptchaStore(10 * time.Minute)
	}
}

// GenerateCaptcha creates a captcha and returns (id, dataURI) for frontend to display.
func GenerateCaptcha() (string, string, error) {
	// Simple digit captcha: width 120, height 40, length 5
	driver := base64Captcha.NewDriverDigit(40, 120, 5, 0.7, 80)
	c := base64Captcha.NewCaptcha(driver, captchaStore)
	id, b64, _, err := c.Generate()
	return id, b64, err
}

// VerifyCaptcha verifies the provided answer; it consumes the captcha on success.
func VerifyCaptcha(id, answer string) bool {
	if id == "" || answer == "" {
		return false
	}
	return captchaStore.Verify(id, answer, true)
}

// VerifyCaptchaNoConsume verifies without consuming the stored answer.
func VerifyCaptchaNoConsume(id, answer string) bool {
	if id == "" || answer == "" {
		return false
	}
	return captchaStore.Verify(id, answer, false)
}

package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestVerifyWebhook(t *testing.T) {
	body := []byte(`{"inventory_item_id": 808950810}`)
	secret := "hush"

	assert.True(t, VerifyWebhook(body, sign(body, secret), secret))
	assert.False(t, VerifyWebhook(body, sign(body, "other"), secret))
	assert.False(t, VerifyWebhook([]byte(`{}`), sign(body, secret), secret))
	assert.False(t, VerifyWebhook(body, "", secret))
	assert.False(t, VerifyWebhook(body, "not base64!", secret))
	assert.False(t, VerifyWebhook(body, sign(body, ""), ""))
}

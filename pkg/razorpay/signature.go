package razorpay

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// VerifySignature checks the checkout signature the gateway hands back after a
// payment: HMAC-SHA256 over "orderID|paymentID" keyed with the key secret,
// lowercase hex encoded. Malformed or empty inputs verify as false, never error.
func VerifySignature(orderID, paymentID, signature, secret string) bool {
	orderID = strings.TrimSpace(orderID)
	paymentID = strings.TrimSpace(paymentID)
	signature = strings.TrimSpace(signature)
	if orderID == "" || paymentID == "" || signature == "" || secret == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(strings.ToLower(signature)))
}

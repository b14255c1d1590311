package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mateatletas/tutorbilling/internal/shared/biztime"
	"github.com/mateatletas/tutorbilling/internal/shared/constants"
	"github.com/mateatletas/tutorbilling/internal/shared/logger"
	"github.com/mateatletas/tutorbilling/internal/shared/utils"
)

const (
	SignatureHeader           = constants.HeaderXSignature
	defaultSignatureTolerance = 5 * time.Minute
	maxWebhookBodyBytes       = 1 << 20
)

var (
	errMalformedSignature = errors.New("malformed signature header")
	errStaleSignature     = errors.New("signature timestamp outside tolerance")
	errSignatureMismatch  = errors.New("signature mismatch")
)

// WebhookSignatureMiddleware authenticates gateway webhooks signed as
// X-Signature: ts=<unix>,v1=<hex hmac-sha256 of "<ts>.<body>">.
type WebhookSignatureMiddleware struct {
	secret    []byte
	tolerance time.Duration
	required  bool
	now       func() time.Time
	logger    logger.Interface
}

// NewWebhookSignatureMiddleware builds the verifier. When secret is empty, requests pass
// unverified unless required is set, in which case they are refused.
func NewWebhookSignatureMiddleware(secret string, tolerance time.Duration, required bool, logger logger.Interface) *WebhookSignatureMiddleware {
	if tolerance <= 0 {
		tolerance = defaultSignatureTolerance
	}
	return &WebhookSignatureMiddleware{
		secret:    []byte(secret),
		tolerance: tolerance,
		required:  required,
		now:       biztime.NowUTC,
		logger:    logger,
	}
}

// SetClock replaces the time source.
func (m *WebhookSignatureMiddleware) SetClock(now func() time.Time) {
	m.now = now
}

func (m *WebhookSignatureMiddleware) Verify() gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(m.secret) == 0 {
			if m.required {
				m.logger.Errorw("webhook refused: no signing secret configured")
				utils.ErrorResponse(c, http.StatusUnauthorized, "webhook signing is not configured")
				return
			}
			c.Next()
			return
		}

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
		if err != nil {
			utils.ErrorResponse(c, http.StatusBadRequest, "failed to read request body")
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		if err := m.check(c.GetHeader(SignatureHeader), body); err != nil {
			m.logger.Warnw("webhook signature rejected",
				"client_ip", c.ClientIP(),
				"error", err)
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid webhook signature")
			return
		}

		c.Next()
	}
}

func (m *WebhookSignatureMiddleware) check(header string, body []byte) error {
	var ts, sig string
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "ts":
			ts = value
		case "v1":
			sig = value
		}
	}
	if ts == "" || sig == "" {
		return errMalformedSignature
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return errMalformedSignature
	}
	skew := m.now().Sub(time.Unix(unix, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > m.tolerance {
		return errStaleSignature
	}

	got, err := hex.DecodeString(sig)
	if err != nil {
		return errMalformedSignature
	}
	if !hmac.Equal(got, computeSignature(m.secret, ts, body)) {
		return errSignatureMismatch
	}
	return nil
}

func computeSignature(secret []byte, ts string, body []byte) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(body)
	return mac.Sum(nil)
}

// SignWebhook returns the X-Signature header value for body signed at ts.
func SignWebhook(secret string, ts time.Time, body []byte) string {
	unix := strconv.FormatInt(ts.Unix(), 10)
	return "ts=" + unix + ",v1=" + hex.EncodeToString(computeSignature([]byte(secret), unix, body))
}

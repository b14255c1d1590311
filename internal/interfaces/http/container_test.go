package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mateatletas/tutorbilling/internal/infrastructure/config"
	"github.com/mateatletas/tutorbilling/internal/infrastructure/database/dbtest"
	"github.com/mateatletas/tutorbilling/internal/interfaces/http/middleware"
	sharedConfig "github.com/mateatletas/tutorbilling/internal/shared/config"
	"github.com/mateatletas/tutorbilling/internal/shared/logger"
)

const (
	testAdminToken    = "admin-token"
	testWebhookSecret = "whsec_e2e"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

type e2e struct {
	t      *testing.T
	engine *gin.Engine
}

func newE2E(t *testing.T) *e2e {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Server:  sharedConfig.ServerConfig{Mode: "test", AdminToken: testAdminToken},
		Billing: sharedConfig.BillingConfig{GracePeriodDays: 3, MaxReconcileAttempts: 3},
		Webhook: sharedConfig.WebhookConfig{Secret: testWebhookSecret, SignatureTolerance: 5 * time.Minute},
		Notifier: sharedConfig.NotifierConfig{
			Sinks:   []string{"log"},
			Timeout: time.Second,
		},
	}

	container, err := NewContainer(dbtest.Open(t), nil, cfg, logger.NewNop())
	require.NoError(t, err)
	container.SetupRoutes()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = container.Shutdown(ctx)
	})

	return &e2e{t: t, engine: container.Engine()}
}

func (e *e2e) do(method, path string, body []byte, headers map[string]string) (int, envelope) {
	e.t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)

	var env envelope
	require.NoError(e.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func (e *e2e) admin(method, path string, body any) (int, envelope) {
	e.t.Helper()
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(e.t, err)
	}
	return e.do(method, path, raw, map[string]string{"Authorization": "Bearer " + testAdminToken})
}

func (e *e2e) webhook(body string) (int, envelope) {
	e.t.Helper()
	return e.do(nethttp.MethodPost, "/webhooks/gateway", []byte(body), map[string]string{
		middleware.SignatureHeader: middleware.SignWebhook(testWebhookSecret, time.Now(), []byte(body)),
	})
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestContainer_SubscriptionLifecycle(t *testing.T) {
	e := newE2E(t)

	code, resp := e.admin(nethttp.MethodPost, "/admin/plans", map[string]any{
		"name": "Mensual", "base_price": 500000, "currency": "ars", "interval": "MENSUAL",
	})
	require.Equal(t, nethttp.StatusCreated, code)
	plan := decode[struct {
		ID       uint   `json:"id"`
		Currency string `json:"currency"`
	}](t, resp.Data)
	assert.Equal(t, "ARS", plan.Currency)

	code, resp = e.admin(nethttp.MethodPost, "/admin/subscriptions", map[string]any{
		"tutor_id": "tutor-9", "plan_id": plan.ID, "gateway_subscription_ref": "preapproval-9",
	})
	require.Equal(t, nethttp.StatusCreated, code)
	sub := decode[struct {
		ID     uint   `json:"id"`
		Status string `json:"status"`
	}](t, resp.Data)
	assert.Equal(t, "PENDIENTE", sub.Status)

	code, resp = e.admin(nethttp.MethodGet, fmt.Sprintf("/admin/tutors/%s/access", "tutor-9"), nil)
	require.Equal(t, nethttp.StatusOK, code)
	assert.Equal(t, "limited", decode[struct {
		Access string `json:"access"`
	}](t, resp.Data).Access)

	event := `{"gateway_event_id":"evt-100","gateway_subscription_ref":"preapproval-9","gateway_payment_ref":"pay-100",` +
		`"gateway_status":"authorized","amount":5000,"currency":"ARS","raw_payload":{"id":"evt-100"}}`

	code, resp = e.webhook(event)
	require.Equal(t, nethttp.StatusOK, code)
	applied := decode[struct {
		Outcome   string `json:"outcome"`
		NewStatus string `json:"new_status"`
		Duplicate bool   `json:"duplicate"`
	}](t, resp.Data)
	assert.Equal(t, "applied", applied.Outcome)
	assert.Equal(t, "ACTIVA", applied.NewStatus)

	code, resp = e.webhook(event)
	require.Equal(t, nethttp.StatusOK, code)
	assert.True(t, decode[struct {
		Duplicate bool `json:"duplicate"`
	}](t, resp.Data).Duplicate)

	code, resp = e.admin(nethttp.MethodGet, fmt.Sprintf("/admin/subscriptions/%d/history", sub.ID), nil)
	require.Equal(t, nethttp.StatusOK, code)
	history := decode[struct {
		Status  string `json:"status"`
		Records []struct {
			PreviousStatus *string `json:"previous_status"`
			NewStatus      string  `json:"new_status"`
			Actor          string  `json:"actor"`
		} `json:"records"`
	}](t, resp.Data)
	assert.Equal(t, "ACTIVA", history.Status)
	require.Len(t, history.Records, 1)
	assert.Nil(t, history.Records[0].PreviousStatus)
	assert.Equal(t, "ACTIVA", history.Records[0].NewStatus)
	assert.Equal(t, "gateway", history.Records[0].Actor)

	code, resp = e.admin(nethttp.MethodGet, "/admin/tutors/tutor-9/access", nil)
	require.Equal(t, nethttp.StatusOK, code)
	assert.Equal(t, "full", decode[struct {
		Access string `json:"access"`
	}](t, resp.Data).Access)

	cancelPath := fmt.Sprintf("/admin/subscriptions/%d/cancel", sub.ID)
	code, _ = e.admin(nethttp.MethodPost, cancelPath, map[string]string{"actor": "tutor", "reason": "finished classes"})
	require.Equal(t, nethttp.StatusOK, code)

	code, resp = e.admin(nethttp.MethodPost, cancelPath, map[string]string{"actor": "admin", "reason": "again"})
	assert.Equal(t, nethttp.StatusConflict, code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "subscription already cancelled", resp.Error.Message)

	late := `{"gateway_event_id":"evt-101","gateway_subscription_ref":"preapproval-9","gateway_status":"authorized"}`
	code, resp = e.webhook(late)
	require.Equal(t, nethttp.StatusOK, code)
	assert.True(t, decode[struct {
		Rejected bool `json:"rejected"`
	}](t, resp.Data).Rejected)
}

func TestContainer_Guards(t *testing.T) {
	e := newE2E(t)

	t.Run("unsigned webhook", func(t *testing.T) {
		code, _ := e.do(nethttp.MethodPost, "/webhooks/gateway", []byte(`{}`), nil)
		assert.Equal(t, nethttp.StatusUnauthorized, code)
	})

	t.Run("unmappable status", func(t *testing.T) {
		code, resp := e.webhook(`{"gateway_event_id":"evt-1","gateway_subscription_ref":"ref","gateway_status":"charged_back"}`)
		assert.Equal(t, nethttp.StatusUnprocessableEntity, code)
		require.NotNil(t, resp.Error)
	})

	t.Run("unknown subscription", func(t *testing.T) {
		code, _ := e.webhook(`{"gateway_event_id":"evt-2","gateway_subscription_ref":"nobody","gateway_status":"authorized"}`)
		assert.Equal(t, nethttp.StatusNotFound, code)
	})

	t.Run("admin without token", func(t *testing.T) {
		code, _ := e.do(nethttp.MethodGet, "/admin/tutors/t/access", nil, nil)
		assert.Equal(t, nethttp.StatusUnauthorized, code)
	})

	t.Run("health", func(t *testing.T) {
		code, resp := e.do(nethttp.MethodGet, "/health", nil, nil)
		assert.Equal(t, nethttp.StatusOK, code)
		assert.True(t, resp.Success)
	})
}

package webpay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gatewayClient(serverURL string) *Client {
	cfg := testWebPayConfig()
	cfg.GatewayURL = serverURL
	return NewClient(cfg)
}

func TestClientInitiate(t *testing.T) {
	var received map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/payment", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"redirectUrl":"https://payment.webpay.by/v2/session/abc"}}`))
	}))
	defer srv.Close()

	order, items := testOrder(t)
	req, err := BuildPaymentRequest(order, items, testWebPayConfig(), SchemeV2{}, "1700000000000")
	require.NoError(t, err)

	redirect, err := gatewayClient(srv.URL).Initiate(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "https://payment.webpay.by/v2/session/abc", redirect)
	// Le corps JSON reprend tous les champs signés
	assert.Equal(t, "ORDER-1A2B3C4D", received["wsb_order_num"])
	assert.Equal(t, req.Signature, received["wsb_signature"])
}

func TestClientInitiateGatewayRefusal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errors":["wsb_signature invalid"]}`))
	}))
	defer srv.Close()

	order, items := testOrder(t)
	req, err := BuildPaymentRequest(order, items, testWebPayConfig(), SchemeV2{}, "1700000000000")
	require.NoError(t, err)

	_, err = gatewayClient(srv.URL).Initiate(context.Background(), req)

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, http.StatusBadRequest, gwErr.Status)
	assert.Contains(t, gwErr.Body, "wsb_signature invalid")
}

func TestClientInitiateMissingRedirectURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"data":{}}`))
	}))
	defer srv.Close()

	order, items := testOrder(t)
	req, err := BuildPaymentRequest(order, items, testWebPayConfig(), SchemeV2{}, "1700000000000")
	require.NoError(t, err)

	_, err = gatewayClient(srv.URL).Initiate(context.Background(), req)

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
}

func TestClientInitiateUnreachableGateway(t *testing.T) {
	_, err := gatewayClient("http://127.0.0.1:1").Initiate(context.Background(), &PaymentRequest{
		OrderNum: "ORDER-1A2B3C4D",
		Fields:   map[string]string{"wsb_order_num": "ORDER-1A2B3C4D"},
	})

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, 0, gwErr.Status)
}

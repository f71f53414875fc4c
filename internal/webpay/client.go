package webpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"rumor_backend/internal/config"
)

// GatewayError : la passerelle est injoignable ou a refusé la requête.
// La commande reste en pending, la tentative peut être rejouée (avec un
// nouveau seed et une nouvelle signature).
type GatewayError struct {
	Status int
	Body   string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("passerelle WebPay: HTTP %d: %s", e.Status, e.Body)
}

// Client parle à l'API JSON de WebPay. Pas de retry automatique ici :
// rejouer un paiement exige un nouveau seed, c'est à l'appelant de décider.
type Client struct {
	cfg  config.WebPayConfig
	http *http.Client
}

func NewClient(cfg config.WebPayConfig) *Client {
	return &Client{
		cfg: cfg,
		http: &http.Client{
			Timeout: 15 * time.Second, // la passerelle est le seul point de latence
		},
	}
}

// Initiate envoie la requête de paiement signée et retourne l'URL de la page
// de paiement hébergée vers laquelle rediriger le client.
func (c *Client) Initiate(ctx context.Context, req *PaymentRequest) (string, error) {
	payload, err := json.Marshal(req.Fields)
	if err != nil {
		return "", fmt.Errorf("sérialisation requête paiement: %w", err)
	}

	url := c.cfg.GatewayURL + "/api/v1/payment"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("construction requête: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return "", &GatewayError{Status: 0, Body: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &GatewayError{Status: resp.StatusCode, Body: "lecture réponse échouée"}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("❌ WebPay a refusé le paiement %s: HTTP %d", req.OrderNum, resp.StatusCode)
		return "", &GatewayError{Status: resp.StatusCode, Body: string(body)}
	}

	var envelope struct {
		Data struct {
			RedirectURL string `json:"redirectUrl"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Data.RedirectURL == "" {
		return "", &GatewayError{Status: resp.StatusCode, Body: "réponse sans redirectUrl: " + string(body)}
	}

	log.Printf("💳 Paiement initié pour %s (seed %s)", req.OrderNum, req.Seed)
	return envelope.Data.RedirectURL, nil
}

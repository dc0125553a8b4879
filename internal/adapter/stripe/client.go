package stripe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/app/config"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/domain/payment"
	"github.com/Abdurahmanit/GroupProject/adoption-service/internal/platform/logger"
	"github.com/go-resty/resty/v2"
)

const paymentIntentsPath = "/v1/payment_intents"

type paymentIntentResponse struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

type errorResponse struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type Client struct {
	http *resty.Client
	log  logger.Logger
}

// NewClient builds a Stripe REST client. Transport failures, 429 and 5xx are
// retried with the same idempotency key; any other 4xx is returned at once.
func NewClient(cfg config.StripeConfig, log logger.Logger) *Client {
	rc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.SecretKey).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWait).
		SetRetryMaxWaitTime(cfg.RetryMaxWait).
		AddRetryCondition(shouldRetry)

	return &Client{http: rc, log: log}
}

func shouldRetry(resp *resty.Response, err error) bool {
	if err != nil {
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	if resp == nil {
		return false
	}
	code := resp.StatusCode()
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func (c *Client) CreatePaymentIntent(ctx context.Context, params payment.IntentParams) (*payment.Intent, error) {
	form := map[string]string{
		"amount":                             strconv.FormatInt(params.AmountMinor, 10),
		"currency":                           params.Currency,
		"automatic_payment_methods[enabled]": "true",
	}
	for k, v := range params.Metadata {
		form["metadata["+k+"]"] = v
	}

	var result paymentIntentResponse
	var apiErr errorResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Idempotency-Key", params.IdempotencyKey).
		SetFormData(form).
		SetResult(&result).
		SetError(&apiErr).
		Post(paymentIntentsPath)
	if err != nil {
		c.log.Errorf("Stripe request for idempotency key %s failed: %v", params.IdempotencyKey, err)
		return nil, fmt.Errorf("stripe request failed: %w", err)
	}

	if resp.IsError() {
		msg := apiErr.Error.Message
		if msg == "" {
			msg = resp.Status()
		}
		c.log.Warnf("Stripe rejected payment intent (key %s, status %d): %s", params.IdempotencyKey, resp.StatusCode(), msg)
		if resp.StatusCode() < http.StatusInternalServerError && resp.StatusCode() != http.StatusTooManyRequests {
			return nil, fmt.Errorf("%w: %s", payment.ErrDeclined, msg)
		}
		return nil, fmt.Errorf("stripe unavailable (status %d): %s", resp.StatusCode(), msg)
	}

	if result.ID == "" || result.ClientSecret == "" {
		return nil, fmt.Errorf("stripe returned an incomplete payment intent")
	}

	c.log.Infof("Stripe payment intent %s created for idempotency key %s", result.ID, params.IdempotencyKey)
	return &payment.Intent{
		ID:           result.ID,
		ClientSecret: result.ClientSecret,
		Status:       result.Status,
	}, nil
}

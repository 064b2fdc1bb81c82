package promo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/flaia-functions/config"
)

const defaultRevenueCatURL = "https://api.revenuecat.com/v1"

// Promotional durations accepted by the billing API.
const (
	DurationMonthly  = "monthly"
	DurationYearly   = "yearly"
	DurationLifetime = "lifetime"
)

// EntitlementGranter grants and revokes promotional entitlements.
type EntitlementGranter interface {
	Grant(ctx context.Context, appUserID, entitlementID, duration string) (string, error)
	Revoke(ctx context.Context, appUserID, entitlementID string) error
}

var _ EntitlementGranter = (*RevenueCatClient)(nil)

type RevenueCatClient struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

func NewRevenueCatClient(cfg config.RevenueCatConfig, logger *slog.Logger) *RevenueCatClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultRevenueCatURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	c := &RevenueCatClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		secretKey:  cfg.SecretKey,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
	c.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "revenuecat-api",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				slog.String("name", name), slog.String("from", from.String()), slog.String("to", to.String()))
		},
	})
	return c
}

// APIError is a non-2xx answer from the billing API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("RevenueCat API error: %d - %s", e.Status, e.Message)
}

type grantResponse struct {
	Subscriber struct {
		OriginalAppUserID string `json:"original_app_user_id"`
	} `json:"subscriber"`
}

// Grant returns the subscriber id the entitlement was attached to.
func (c *RevenueCatClient) Grant(ctx context.Context, appUserID, entitlementID, duration string) (string, error) {
	ctx, span := otel.Tracer("RevenueCat").Start(ctx, "Grant", trace.WithAttributes(
		attribute.String("entitlement.id", entitlementID),
		attribute.String("duration", duration),
	))
	defer span.End()

	path := fmt.Sprintf("/subscribers/%s/entitlements/%s/promotional", url.PathEscape(appUserID), url.PathEscape(entitlementID))
	body, err := c.post(ctx, path, map[string]string{"duration": duration})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "grant failed")
		return "", err
	}

	var resp grantResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.WarnContext(ctx, "Unreadable grant response", slog.Any("error", err))
	}
	grantID := resp.Subscriber.OriginalAppUserID
	if grantID == "" {
		grantID = appUserID
	}
	c.logger.InfoContext(ctx, "RevenueCat entitlement granted",
		slog.String("appUserID", appUserID), slog.String("entitlementID", entitlementID), slog.String("duration", duration))
	span.SetStatus(codes.Ok, "granted")
	return grantID, nil
}

func (c *RevenueCatClient) Revoke(ctx context.Context, appUserID, entitlementID string) error {
	ctx, span := otel.Tracer("RevenueCat").Start(ctx, "Revoke", trace.WithAttributes(
		attribute.String("entitlement.id", entitlementID),
	))
	defer span.End()

	path := fmt.Sprintf("/subscribers/%s/entitlements/%s/revoke_promotionals", url.PathEscape(appUserID), url.PathEscape(entitlementID))
	if _, err := c.post(ctx, path, nil); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "revoke failed")
		return err
	}
	span.SetStatus(codes.Ok, "revoked")
	return nil
}

func (c *RevenueCatClient) post(ctx context.Context, path string, payload any) ([]byte, error) {
	result, err := c.cb.Execute(func() (interface{}, error) {
		var reader io.Reader = http.NoBody
		if payload != nil {
			raw, err := json.Marshal(payload)
			if err != nil {
				return nil, fmt.Errorf("failed to encode request: %w", err)
			}
			reader = bytes.NewReader(raw)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.secretKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			var apiErr struct {
				Message string `json:"message"`
			}
			_ = json.Unmarshal(body, &apiErr)
			msg := apiErr.Message
			if msg == "" {
				msg = http.StatusText(resp.StatusCode)
			}
			c.logger.ErrorContext(ctx, "RevenueCat API error", slog.Int("status", resp.StatusCode), slog.String("message", msg))
			return nil, &APIError{Status: resp.StatusCode, Message: msg}
		}
		return body, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("revenuecat unavailable: %w", err)
		}
		return nil, err
	}
	return result.([]byte), nil
}

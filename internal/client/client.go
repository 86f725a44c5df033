package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"senser/internal/domain"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ErrDuplicate the API refused the registration because the name is taken
var ErrDuplicate = errors.New("sensor already registered")

// apiError error body of the senser API
type apiError struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Client senser HTTP API client
type Client struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// New retries transport failures retries times with backoff between 1s and 5s
func New(baseURL string, retries int, logger *zap.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30*time.Second).
		SetRetryCount(retries).
		SetRetryWaitTime(1*time.Second).
		SetRetryMaxWaitTime(5*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		httpClient: httpClient,
		logger:     logger,
	}
}

// RegisterSensor POST /sensors
func (c *Client) RegisterSensor(ctx context.Context, sensor domain.SensorCreate) (*domain.RegisteredSensor, error) {
	var (
		result  domain.RegisteredSensor
		failure apiError
	)
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(sensor).
		SetResult(&result).
		SetError(&failure).
		Post("/sensors")
	if err != nil {
		return nil, fmt.Errorf("failed to call senser API: %w", err)
	}

	if resp.IsError() {
		if resp.StatusCode() == http.StatusBadRequest && failure.Message == domain.MsgDuplicateName {
			return nil, fmt.Errorf("%s: %w", sensor.Name, ErrDuplicate)
		}
		c.logger.Warn("Sensor registration rejected",
			zap.String("name", sensor.Name),
			zap.Int("status_code", resp.StatusCode()),
			zap.String("message", failure.Message),
		)
		return nil, fmt.Errorf("senser API error: %s (status: %d)", failure.Message, resp.StatusCode())
	}
	return &result, nil
}

// ImportSummary outcome of a bulk registration
type ImportSummary struct {
	Created    int
	Duplicates int
	Failed     int
	Errors     []error
}

// RegisterAll registers sensors one by one; duplicates are counted and skipped
func (c *Client) RegisterAll(ctx context.Context, sensors []domain.SensorCreate) ImportSummary {
	var summary ImportSummary
	for _, s := range sensors {
		if ctx.Err() != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors, fmt.Errorf("%s: %w", s.Name, ctx.Err()))
			continue
		}
		created, err := c.RegisterSensor(ctx, s)
		switch {
		case errors.Is(err, ErrDuplicate):
			summary.Duplicates++
		case err != nil:
			summary.Failed++
			summary.Errors = append(summary.Errors, err)
		default:
			summary.Created++
			c.logger.Info("Sensor registered", zap.Int64("sensor_id", created.ID), zap.String("name", created.Name))
		}
	}
	return summary
}

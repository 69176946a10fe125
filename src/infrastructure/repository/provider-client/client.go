package provider_client

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	domainCampaign "go-campaign-api/src/domain/campaign"
	logger "go-campaign-api/src/infrastructure/logger"
	"go-campaign-api/src/infrastructure/utils"

	uuid "github.com/gofrs/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"go.uber.org/zap"
)

// Client sends messages through the business-messaging provider's REST API.
// It is the single place where provider failures are classified, so the rest
// of the engine only ever sees transient / permanent / rate_limited.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	Logger     *logger.Logger
}

// NewClient creates a provider client configured from the environment
// (PROVIDER_API_URL, PROVIDER_API_TOKEN, PROVIDER_TIMEOUT)
func NewClient(loggerInstance *logger.Logger) *Client {
	return &Client{
		baseURL: utils.GetEnv("PROVIDER_API_URL", "http://localhost:9090"),
		token:   utils.GetEnv("PROVIDER_API_TOKEN", ""),
		httpClient: &http.Client{
			Timeout: utils.GetEnvDuration("PROVIDER_TIMEOUT", 30*time.Second),
		},
		Logger: loggerInstance,
	}
}

// Send submits one rendered message to the provider and returns the provider
// message id assigned on acceptance. Errors always carry a class.
func (c *Client) Send(ctx context.Context, address string, renderedMessage string) (string, error) {
	body, err := c.buildRequestBody(address, renderedMessage)
	if err != nil {
		return "", domainCampaign.NewDispatchError(domainCampaign.ErrorInternal, 0, "building request body: "+err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", domainCampaign.NewDispatchError(domainCampaign.ErrorInternal, 0, "building request: "+err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// connection refused, DNS failure, timeout
		return "", domainCampaign.NewDispatchError(domainCampaign.ErrorTransient, 0, err.Error())
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", domainCampaign.NewDispatchError(domainCampaign.ErrorTransient, resp.StatusCode, "reading response: "+err.Error())
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		messageID := gjson.GetBytes(payload, "messages.0.id").String()
		if messageID == "" {
			c.Logger.Error("Provider accepted the message without an id",
				zap.Int("status", resp.StatusCode), zap.String("address", address))
			return "", domainCampaign.NewDispatchError(domainCampaign.ErrorTransient, resp.StatusCode, "provider response missing message id")
		}
		return messageID, nil
	}

	return "", c.classifyFailure(resp.StatusCode, payload, address)
}

func (c *Client) buildRequestBody(address string, renderedMessage string) ([]byte, error) {
	clientRef, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}

	body := []byte(`{}`)
	body, err = sjson.SetBytes(body, "to", address)
	if err != nil {
		return nil, err
	}
	body, err = sjson.SetBytes(body, "type", "text")
	if err != nil {
		return nil, err
	}
	body, err = sjson.SetBytes(body, "text.body", renderedMessage)
	if err != nil {
		return nil, err
	}
	body, err = sjson.SetBytes(body, "client_ref", clientRef.String())
	if err != nil {
		return nil, err
	}
	return body, nil
}

// classifyFailure maps provider responses onto the dispatch error taxonomy:
// 429 is a rate-limit signal, other 4xx will not self-correct, 5xx is worth
// retrying.
func (c *Client) classifyFailure(status int, payload []byte, address string) error {
	detail := gjson.GetBytes(payload, "error.message").String()
	if detail == "" {
		detail = http.StatusText(status)
	}

	var class domainCampaign.ErrorClass
	switch {
	case status == http.StatusTooManyRequests:
		class = domainCampaign.ErrorRateLimited
	case status >= 400 && status < 500:
		class = domainCampaign.ErrorPermanent
	default:
		class = domainCampaign.ErrorTransient
	}

	c.Logger.Warn("Provider rejected message",
		zap.Int("status", status),
		zap.String("class", string(class)),
		zap.String("address", address),
		zap.String("detail", detail))

	return domainCampaign.NewDispatchError(class, status, detail)
}

package provider_client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domainCampaign "go-campaign-api/src/domain/campaign"
	logger "go-campaign-api/src/infrastructure/logger"

	"github.com/tidwall/gjson"
)

func setupLogger(t *testing.T) *logger.Logger {
	loggerInstance, err := logger.NewLogger()
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	return loggerInstance
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := &Client{
		baseURL:    server.URL,
		token:      "test-token",
		httpClient: &http.Client{Timeout: 5 * time.Second},
		Logger:     setupLogger(t),
	}
	return client, server
}

func TestClient_Send(t *testing.T) {
	tests := []struct {
		name          string
		handler       http.HandlerFunc
		wantMessageID string
		wantErr       bool
		wantClass     domainCampaign.ErrorClass
	}{
		{
			name: "OK - message accepted",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusAccepted)
				w.Write([]byte(`{"messages":[{"id":"wamid.abc123"}]}`))
			},
			wantMessageID: "wamid.abc123",
		},
		{
			name: "429 maps to rate_limited",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":{"message":"too many requests"}}`))
			},
			wantErr:   true,
			wantClass: domainCampaign.ErrorRateLimited,
		},
		{
			name: "400 maps to permanent",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"error":{"message":"invalid recipient address"}}`))
			},
			wantErr:   true,
			wantClass: domainCampaign.ErrorPermanent,
		},
		{
			name: "503 maps to transient",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
			wantErr:   true,
			wantClass: domainCampaign.ErrorTransient,
		},
		{
			name: "2xx without message id maps to transient",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(`{"messages":[]}`))
			},
			wantErr:   true,
			wantClass: domainCampaign.ErrorTransient,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, server := newTestClient(t, tt.handler)
			defer server.Close()

			messageID, err := client.Send(context.Background(), "+15550001111", "hello")
			if (err != nil) != tt.wantErr {
				t.Fatalf("[%s] got err = %v, wantErr = %v", tt.name, err, tt.wantErr)
			}

			if !tt.wantErr && messageID != tt.wantMessageID {
				t.Errorf("[%s] expected message id %s, got %s", tt.name, tt.wantMessageID, messageID)
			}

			if tt.wantErr {
				if got := domainCampaign.ClassifyError(err); got != tt.wantClass {
					t.Errorf("[%s] expected error class %s, got %s", tt.name, tt.wantClass, got)
				}
			}
		})
	}
}

func TestClient_SendRequestShape(t *testing.T) {
	var gotBody []byte
	var gotAuth string
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		gotBody = buf
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"messages":[{"id":"wamid.req"}]}`))
	})
	defer server.Close()

	if _, err := client.Send(context.Background(), "+15550002222", "rendered body"); err != nil {
		t.Fatalf("Send() returned error: %v", err)
	}

	if gotAuth != "Bearer test-token" {
		t.Errorf("expected Authorization header, got %q", gotAuth)
	}
	if to := gjson.GetBytes(gotBody, "to").String(); to != "+15550002222" {
		t.Errorf("expected to = +15550002222, got %q", to)
	}
	if text := gjson.GetBytes(gotBody, "text.body").String(); text != "rendered body" {
		t.Errorf("expected text.body = rendered body, got %q", text)
	}
	if ref := gjson.GetBytes(gotBody, "client_ref").String(); ref == "" {
		t.Error("expected a non-empty client_ref")
	}
}

func TestClient_SendConnectionFailure(t *testing.T) {
	client := &Client{
		baseURL:    "http://127.0.0.1:1",
		httpClient: &http.Client{Timeout: time.Second},
		Logger:     setupLogger(t),
	}

	_, err := client.Send(context.Background(), "+15550003333", "hello")
	if err == nil {
		t.Fatal("expected error on connection failure, got nil")
	}
	if got := domainCampaign.ClassifyError(err); got != domainCampaign.ErrorTransient {
		t.Errorf("expected error class transient, got %s", got)
	}
}

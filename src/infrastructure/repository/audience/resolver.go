package audience

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	domainCampaign "go-campaign-api/src/domain/campaign"
	logger "go-campaign-api/src/infrastructure/logger"
	"go-campaign-api/src/infrastructure/utils"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// Resolver fetches the audience snapshot of a campaign from the platform's
// audience service. Segmentation and contact management live there; the
// engine only consumes the materialized list.
type Resolver struct {
	baseURL    string
	token      string
	httpClient *http.Client
	Logger     *logger.Logger
}

// NewResolver creates an audience resolver configured from the environment
// (AUDIENCE_API_URL, AUDIENCE_API_TOKEN, AUDIENCE_TIMEOUT)
func NewResolver(loggerInstance *logger.Logger) *Resolver {
	return &Resolver{
		baseURL: utils.GetEnv("AUDIENCE_API_URL", "http://localhost:9091"),
		token:   utils.GetEnv("AUDIENCE_API_TOKEN", ""),
		httpClient: &http.Client{
			Timeout: utils.GetEnvDuration("AUDIENCE_TIMEOUT", 60*time.Second),
		},
		Logger: loggerInstance,
	}
}

// Resolve returns the frozen recipient snapshot for one campaign
func (r *Resolver) Resolve(ctx context.Context, campaignID int) ([]domainCampaign.RecipientSnapshot, error) {
	url := fmt.Sprintf("%s/v1/campaigns/%d/audience", r.baseURL, campaignID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		r.Logger.Error("Audience service returned an error",
			zap.Int("status", resp.StatusCode), zap.Int("campaignID", campaignID))
		return nil, errors.New("audience service returned status " + resp.Status)
	}

	contacts := gjson.GetBytes(payload, "contacts")
	if !contacts.Exists() || !contacts.IsArray() {
		return nil, errors.New("audience response missing contacts array")
	}

	snapshots := make([]domainCampaign.RecipientSnapshot, 0, len(contacts.Array()))
	for _, contact := range contacts.Array() {
		snapshot := domainCampaign.RecipientSnapshot{
			ContactID: int(contact.Get("id").Int()),
			Address:   contact.Get("address").String(),
			Context:   map[string]string{},
		}
		contact.Get("context").ForEach(func(key, value gjson.Result) bool {
			snapshot.Context[key.String()] = value.String()
			return true
		})
		if snapshot.Address == "" {
			r.Logger.Warn("Skipping audience contact without an address",
				zap.Int("contactID", snapshot.ContactID), zap.Int("campaignID", campaignID))
			continue
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, nil
}

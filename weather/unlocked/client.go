package unlocked

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"ski-forecast-mailer/config"
	"ski-forecast-mailer/models"
	"ski-forecast-mailer/utils"
)

const maxErrorBody = 512

// Client fetches resort forecasts from the Weather Unlocked ski API.
type Client struct {
	baseURL        string
	appID          string
	appKey         string
	hourlyInterval int
	numOfDays      int
	timeout        time.Duration
	httpClient     *http.Client
	logger         *utils.Logger
}

// New creates a Client from the weather settings in cfg.
func New(cfg *config.Config, logger *utils.Logger) *Client {
	return &Client{
		baseURL:        cfg.BaseURL,
		appID:          cfg.AppID,
		appKey:         cfg.AppKey,
		hourlyInterval: cfg.HourlyInterval,
		numOfDays:      cfg.NumOfDays,
		timeout:        cfg.HTTPTimeout,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		logger: logger,
	}
}

// FetchResortForecast issues one GET for the resort forecast and decodes it.
// Transport failures, timeouts and non-2xx answers wrap models.ErrFetch; an
// undecodable body wraps models.ErrMalformedData.
func (c *Client) FetchResortForecast(ctx context.Context, resortID string) (*models.RawForecast, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	params := url.Values{}
	params.Add("hourly_interval", strconv.Itoa(c.hourlyInterval))
	params.Add("num_of_days", strconv.Itoa(c.numOfDays))
	params.Add("app_id", c.appID)
	params.Add("app_key", c.appKey)
	endpoint := fmt.Sprintf("%s/resortforecast/%s?%s", c.baseURL, url.PathEscape(resortID), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", models.ErrFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("[weather] GET %s/resortforecast/%s", c.baseURL, resortID)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: execute request: %v", models.ErrFetch, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", models.ErrFetch, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := body
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, fmt.Errorf("%w: API error (status %d): %s", models.ErrFetch, resp.StatusCode, string(snippet))
	}

	var forecast models.RawForecast
	if err := json.Unmarshal(body, &forecast); err != nil {
		return nil, fmt.Errorf("%w: decode forecast: %v", models.ErrMalformedData, err)
	}
	return &forecast, nil
}

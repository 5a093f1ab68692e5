package isic

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"dermquiz/pkg/config"
	errs "dermquiz/pkg/errors"
	"dermquiz/pkg/logger"
	"dermquiz/pkg/retry"
)

// Client fetches pages from the ISIC Archive API with bounded retries.
// A fetch that survives the full retry budget returns a terminal error;
// that is the only fatal failure path during harvesting.
type Client struct {
	httpClient  *http.Client
	headers     map[string]string
	retryConfig *retry.Config
	logger      logger.Logger
}

// NewClient creates an ISIC API client. A nil retryCfg selects the default
// policy of five attempts with exponential backoff capped at 20 seconds.
func NewClient(timeout time.Duration, retryCfg *config.RetryConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	rc := retry.DefaultConfig()
	rc.Logger = log
	if retryCfg != nil {
		if retryCfg.MaxAttempts > 0 {
			rc.MaxAttempts = retryCfg.MaxAttempts
		}
		backoff := retry.DefaultExponentialBackoff()
		if retryCfg.BaseDelay > 0 {
			backoff.BaseDelay = retryCfg.BaseDelay
		}
		if retryCfg.MaxDelay > 0 {
			backoff.MaxDelay = retryCfg.MaxDelay
		}
		rc.Backoff = backoff
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		headers: map[string]string{
			"Accept":     "application/json",
			"User-Agent": "dermquiz/1.0 (dermatoscopy education dataset builder)",
		},
		retryConfig: rc,
		logger:      log,
	}
}

// SetHeader sets a custom header sent with every request.
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

// SetHTTPClient replaces the underlying HTTP client. Intended for tests.
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// doRequest performs a single HTTP request with the configured headers.
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.String(),
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.String(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
			Cause:   err,
		}
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"url":      req.URL.String(),
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// getJSON performs one GET attempt and decodes the JSON response into
// target. Failures come back as typed errors so the retry layer can
// classify them.
func (c *Client) getJSON(url string, target interface{}) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return &errs.Error{
			Type:    errs.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
			Cause:   err,
		}
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
			Cause:   err,
		}
	}

	if err := json.Unmarshal(body, target); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}

		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse JSON: %v", err),
			Code:    resp.StatusCode,
			Cause:   err,
		}
	}

	return nil
}

// checkResponseStatus maps non-2xx responses onto typed errors.
func (c *Client) checkResponseStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	errType := errs.TypeForStatusCode(resp.StatusCode)
	c.logger.WarnWithFields("API returned error status", map[string]interface{}{
		"status": resp.StatusCode,
		"type":   string(errType),
		"url":    resp.Request.URL.String(),
	})

	return &errs.Error{
		Type:    errType,
		Message: fmt.Sprintf("server returned status %d", resp.StatusCode),
		Code:    resp.StatusCode,
	}
}

// FetchJSON fetches a URL with the client's retry policy and decodes the
// response into target. After retry exhaustion it returns a terminal error.
func (c *Client) FetchJSON(url string, target interface{}) error {
	return retry.Do(func() error {
		return c.getJSON(url, target)
	}, c.retryConfig)
}

// FetchLesionPage fetches one page of the lesion-listing endpoint.
func (c *Client) FetchLesionPage(url string) (*LesionPage, error) {
	var page LesionPage
	if err := c.FetchJSON(url, &page); err != nil {
		return nil, fmt.Errorf("failed to fetch lesion page: %w", err)
	}
	return &page, nil
}

// FetchImagePage fetches one page of image search results.
func (c *Client) FetchImagePage(url string) (*ImagePage, error) {
	var page ImagePage
	if err := c.FetchJSON(url, &page); err != nil {
		return nil, fmt.Errorf("failed to fetch image page: %w", err)
	}
	return &page, nil
}

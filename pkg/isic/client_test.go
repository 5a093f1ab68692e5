package isic

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dermquiz/pkg/config"
	errs "dermquiz/pkg/errors"
	"dermquiz/pkg/logger"
)

// mockRoundTripper lets tests script HTTP responses per attempt.
type mockRoundTripper struct {
	calls     int
	roundTrip func(call int, req *http.Request) (*http.Response, error)
}

func (m *mockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	m.calls++
	return m.roundTrip(m.calls, req)
}

func jsonResponse(status int, body string, req *http.Request) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Request:    req,
	}
}

// fastRetryConfig keeps retry delays out of test runtime.
func fastRetryConfig(maxAttempts int) *config.RetryConfig {
	return &config.RetryConfig{
		MaxAttempts: maxAttempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    2 * time.Millisecond,
	}
}

func newTestClient(rt http.RoundTripper, retryCfg *config.RetryConfig) *Client {
	client := NewClient(5*time.Second, retryCfg, logger.NewTestLogger())
	client.SetHTTPClient(&http.Client{Transport: rt})
	return client
}

func TestFetchLesionPage(t *testing.T) {
	body := `{
		"count": 2,
		"next": "https://api.isic-archive.com/api/v2/lesions/?cursor=abc",
		"results": [
			{
				"id": "LES_1",
				"index_image_id": "ISIC_0000001",
				"outcome_diagnosis": "Melanoma",
				"images": [
					{
						"isic_id": "ISIC_0000001",
						"files": {"full": {"url": "https://example.com/1.jpg", "size": 100}},
						"metadata": {"acquisition": {"image_type": "dermoscopic"}}
					}
				]
			},
			{"id": "LES_2", "outcome_diagnosis_1": "Nevus"}
		]
	}`

	rt := &mockRoundTripper{
		roundTrip: func(_ int, req *http.Request) (*http.Response, error) {
			assert.Equal(t, "application/json", req.Header.Get("Accept"))
			assert.Contains(t, req.Header.Get("User-Agent"), "dermquiz")
			return jsonResponse(http.StatusOK, body, req), nil
		},
	}
	client := newTestClient(rt, fastRetryConfig(3))

	page, err := client.FetchLesionPage("https://api.isic-archive.com/api/v2/lesions/?limit=200")

	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Count)
	assert.Equal(t, "https://api.isic-archive.com/api/v2/lesions/?cursor=abc", page.Next)
	require.Len(t, page.Results, 2)
	assert.Equal(t, "LES_1", page.Results[0].ID)
	assert.Equal(t, "Melanoma", page.Results[0].OutcomeDiagnosis)
	assert.Equal(t, "ISIC_0000001", page.Results[0].Images[0].IsicID)
	assert.Equal(t, "https://example.com/1.jpg", page.Results[0].Images[0].Files.Full.URL)
	// Absent fields decode to their zero values.
	assert.Empty(t, page.Results[1].OutcomeDiagnosis)
	assert.Empty(t, page.Results[1].Images)
}

func TestFetchImagePageNullNext(t *testing.T) {
	body := `{"count": 1, "next": null, "results": [{"isic_id": "ISIC_0000001"}]}`
	rt := &mockRoundTripper{
		roundTrip: func(_ int, req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, body, req), nil
		},
	}
	client := newTestClient(rt, fastRetryConfig(3))

	page, err := client.FetchImagePage("https://api.isic-archive.com/api/v2/images/search/?query=x")

	require.NoError(t, err)
	// null next means last page.
	assert.Empty(t, page.Next)
	require.Len(t, page.Results, 1)
}

func TestFetchJSONRetriesServerErrors(t *testing.T) {
	rt := &mockRoundTripper{
		roundTrip: func(call int, req *http.Request) (*http.Response, error) {
			if call < 3 {
				return jsonResponse(http.StatusInternalServerError, `{"detail": "boom"}`, req), nil
			}
			return jsonResponse(http.StatusOK, `{"count": 0, "results": []}`, req), nil
		},
	}
	client := newTestClient(rt, fastRetryConfig(5))

	var page ImagePage
	err := client.FetchJSON("https://api.isic-archive.com/api/v2/images/search/", &page)

	require.NoError(t, err)
	assert.Equal(t, 3, rt.calls)
}

func TestFetchJSONTerminalAfterExhaustion(t *testing.T) {
	rt := &mockRoundTripper{
		roundTrip: func(_ int, req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusServiceUnavailable, `{"detail": "down"}`, req), nil
		},
	}
	client := newTestClient(rt, fastRetryConfig(3))

	var page ImagePage
	err := client.FetchJSON("https://api.isic-archive.com/api/v2/images/search/", &page)

	require.Error(t, err)
	assert.Equal(t, 3, rt.calls)

	var apiErr *errs.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, errs.ErrorTypeTerminal, apiErr.Type)
	assert.False(t, errs.IsRetryable(apiErr.Type))
	// The underlying server error survives in the chain.
	var cause *errs.Error
	require.True(t, errors.As(apiErr.Cause, &cause))
	assert.Equal(t, http.StatusServiceUnavailable, cause.Code)
}

func TestFetchJSONDoesNotRetryNotFound(t *testing.T) {
	rt := &mockRoundTripper{
		roundTrip: func(_ int, req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusNotFound, `{"detail": "missing"}`, req), nil
		},
	}
	client := newTestClient(rt, fastRetryConfig(5))

	var page ImagePage
	err := client.FetchJSON("https://api.isic-archive.com/api/v2/images/search/", &page)

	require.Error(t, err)
	assert.Equal(t, 1, rt.calls, "404 must not be retried")

	var apiErr *errs.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, errs.ErrorTypeNotFound, apiErr.Type)
}

func TestFetchJSONDoesNotRetryParseFailure(t *testing.T) {
	rt := &mockRoundTripper{
		roundTrip: func(_ int, req *http.Request) (*http.Response, error) {
			return jsonResponse(http.StatusOK, "<html>not json</html>", req), nil
		},
	}
	client := newTestClient(rt, fastRetryConfig(5))

	var page ImagePage
	err := client.FetchJSON("https://api.isic-archive.com/api/v2/images/search/", &page)

	require.Error(t, err)
	assert.Equal(t, 1, rt.calls, "parse failures must not be retried")

	var apiErr *errs.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, errs.ErrorTypeParsing, apiErr.Type)
}

func TestFetchJSONRetriesNetworkErrors(t *testing.T) {
	rt := &mockRoundTripper{
		roundTrip: func(call int, req *http.Request) (*http.Response, error) {
			if call == 1 {
				return nil, fmt.Errorf("connection reset by peer")
			}
			return jsonResponse(http.StatusOK, `{"count": 0, "results": []}`, req), nil
		},
	}
	client := newTestClient(rt, fastRetryConfig(3))

	var page ImagePage
	err := client.FetchJSON("https://api.isic-archive.com/api/v2/images/search/", &page)

	require.NoError(t, err)
	assert.Equal(t, 2, rt.calls)
}

func TestFetchJSONRetriesRateLimit(t *testing.T) {
	rt := &mockRoundTripper{
		roundTrip: func(call int, req *http.Request) (*http.Response, error) {
			if call == 1 {
				return jsonResponse(http.StatusTooManyRequests, `{"detail": "slow down"}`, req), nil
			}
			return jsonResponse(http.StatusOK, `{"count": 0, "results": []}`, req), nil
		},
	}
	client := newTestClient(rt, fastRetryConfig(3))

	var page ImagePage
	err := client.FetchJSON("https://api.isic-archive.com/api/v2/images/search/", &page)

	require.NoError(t, err)
	assert.Equal(t, 2, rt.calls)
}

func TestFetchJSONAgainstLiveServer(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"count": 1, "results": [{"isic_id": "ISIC_0000001"}]}`)
	}))
	defer server.Close()

	client := NewClient(5*time.Second, fastRetryConfig(3), logger.NewTestLogger())

	page, err := client.FetchImagePage(server.URL)

	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, "ISIC_0000001", page.Results[0].IsicID)
}

func TestSetHeader(t *testing.T) {
	rt := &mockRoundTripper{
		roundTrip: func(_ int, req *http.Request) (*http.Response, error) {
			assert.Equal(t, "custom-value", req.Header.Get("X-Custom"))
			return jsonResponse(http.StatusOK, `{"count": 0, "results": []}`, req), nil
		},
	}
	client := newTestClient(rt, fastRetryConfig(1))
	client.SetHeader("X-Custom", "custom-value")

	var page ImagePage
	require.NoError(t, client.FetchJSON("https://api.isic-archive.com/api/v2/images/search/", &page))
}

package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ohmynofan/tipverse/internal/domain/model"
	"github.com/ohmynofan/tipverse/internal/platform/logger"
	"github.com/ohmynofan/tipverse/pkg/utils"
)

var maxResponseBytes int64 = 8 << 20

type HTTPError struct {
	StatusCode int
	Status     string
	Body       []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP Error %d: %s", e.StatusCode, e.Status)
}

type FetchOptions struct {
	Query interface{}
}

type APIClient struct {
	BaseURL    string
	Token      string
	Proxy      string
	UserAgent  string
	HTTPClient *http.Client
	Log        *logger.ClassLogger
}

func NewAPIClient(baseURL, token, proxy string, session *model.Session) (*APIClient, error) {
	transport := &http.Transport{}

	if proxy != "" {
		proxyURL, err := url.Parse(proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	apiClient := &APIClient{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		Token:     token,
		Proxy:     proxy,
		UserAgent: "tipverse/1.0",
		HTTPClient: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		},
	}
	apiClient.Log = logger.NewLogger(apiClient, session)

	return apiClient, nil
}

func (c *APIClient) generateHeaders() map[string]string {
	headers := map[string]string{
		"Accept":     "application/json",
		"User-Agent": c.UserAgent,
	}
	if token := c.Token; token != "" {
		if !strings.HasPrefix(strings.ToLower(token), "bearer ") {
			token = "Bearer " + token
		}
		headers["Authorization"] = token
	}
	return headers
}

// Fetch performs a GET and returns the raw body of a 2xx response.
// Non-2xx responses come back as *HTTPError.
func (c *APIClient) Fetch(ctx context.Context, endpoint string, opts *FetchOptions) ([]byte, error) {
	if opts == nil {
		opts = &FetchOptions{}
	}

	target := endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		target = c.BaseURL + "/" + strings.TrimLeft(endpoint, "/")
	}
	if opts.Query != nil {
		qs, err := utils.EncodeURLParams(opts.Query)
		if err != nil {
			return nil, err
		}
		if qs != "" {
			target += "?" + qs
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range c.generateHeaders() {
		req.Header.Set(key, value)
	}

	c.Log.JustLog(fmt.Sprintf("GET %s", target))

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request error: %w", err)
	}
	defer res.Body.Close()

	resBodyBytes, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(resBodyBytes)) > maxResponseBytes {
		return nil, fmt.Errorf("response exceeds %d bytes", maxResponseBytes)
	}

	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return resBodyBytes, nil
	}

	c.Log.JustLog(fmt.Sprintf("Response %d Body:\n%s", res.StatusCode, utils.BeautifyJSON(resBodyBytes)))
	return nil, &HTTPError{
		StatusCode: res.StatusCode,
		Status:     res.Status,
		Body:       resBodyBytes,
	}
}

// FetchJSON is Fetch followed by decoding the body into out.
func (c *APIClient) FetchJSON(ctx context.Context, endpoint string, opts *FetchOptions, out interface{}) error {
	body, err := c.Fetch(ctx, endpoint, opts)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

package tester

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

var ErrNoAccessToken = errors.New("no access_token in token response")

// FetchToken requests a client credentials token from the OAuth endpoint at
// baseURL.
func FetchToken(ctx context.Context, baseURL string, key string, secret string, timeout time.Duration) (string, error) {
	resp, err := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		R().
		SetContext(ctx).
		SetBasicAuth(key, secret).
		SetFormData(map[string]string{"grant_type": "client_credentials"}).
		Post("/oauth/token")
	if err != nil {
		return "", fmt.Errorf("failed to fetch token: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("failed to fetch token: %w", &RequestError{StatusCode: resp.StatusCode(), Body: string(resp.Body())})
	}
	token := gjson.GetBytes(resp.Body(), "access_token")
	if !token.Exists() || token.String() == "" {
		return "", ErrNoAccessToken
	}
	return token.String(), nil
}

package ioclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
)

const (
	onboardPath = "api/onboarding/onboard-requests"
	loginPath   = "api/auth/login"
	tokensPath  = "api/auth/tokens"

	onboardContentType = "application/vnd.synopsys.io.onboard-request-2+json"
	jsonContentType    = "application/json"
)

var ErrNoAccessToken = errors.New("no access token in login response")

// Credentials of a throw-away user of a local IO server
type Credentials struct {
	Username string
	Password string
	Name     string
	Email    string
}

var EphemeralUser = Credentials{
	Username: "ephemeraluser",
	Password: "P@ssw0rd!",
	Name:     "ephemeraluser",
	Email:    "user@ephemeral.com",
}

// Client talks to the identity endpoints of an IO server
type Client struct {
	serverURL *url.URL
	client    *http.Client
}

func NewClient(serverURL string) (*Client, error) {
	parsedURL, err := url.Parse(serverURL)
	if err != nil {
		return nil, err
	}
	parsedURL.Path = strings.TrimRight(parsedURL.Path, "/")

	if parsedURL.Scheme == "" || parsedURL.Host == "" || parsedURL.Path != "" {
		return nil, errors.New("please define the server url with a scheme and without path, e.g. `http://localhost:9090`")
	}

	return &Client{
		serverURL: parsedURL,
		client:    &http.Client{},
	}, nil
}

// Onboard registers the user
func (c *Client) Onboard(ctx context.Context, creds Credentials) error {
	var body struct {
		User struct {
			Username string `json:"username"`
			Password string `json:"password"`
			Name     string `json:"name"`
			Email    string `json:"email"`
		} `json:"user"`
	}
	body.User.Username = creds.Username
	body.User.Password = creds.Password
	body.User.Name = creds.Name
	body.User.Email = creds.Email

	resp, err := c.post(ctx, c.client, onboardPath, onboardContentType, body)
	if err != nil {
		return fmt.Errorf("onboarding %s: %w", creds.Username, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if err := checkStatus(resp); err != nil {
		return fmt.Errorf("onboarding %s: %w", creds.Username, err)
	}
	slog.DebugContext(ctx, "user onboarded", "user", creds.Username, "status", resp.StatusCode)
	return nil
}

// Login returns the access token the server sets as a cookie
func (c *Client) Login(ctx context.Context, creds Credentials) (string, error) {
	body := struct {
		LoginID  string `json:"loginId"`
		Password string `json:"password"`
	}{
		LoginID:  creds.Username,
		Password: creds.Password,
	}

	resp, err := c.post(ctx, c.client, loginPath, jsonContentType, body)
	if err != nil {
		return "", fmt.Errorf("login %s: %w", creds.Username, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if err := checkStatus(resp); err != nil {
		return "", fmt.Errorf("login %s: %w", creds.Username, err)
	}

	for _, cookie := range resp.Header.Values("Set-Cookie") {
		if token := ExtractAccessToken(cookie); token != "" {
			return token, nil
		}
	}
	return "", ErrNoAccessToken
}

// IssueToken creates a named API token on behalf of the logged in user
func (c *Client) IssueToken(ctx context.Context, accessToken, name string) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.client)
	bearer := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))

	body := struct {
		Name string `json:"name"`
	}{Name: name}

	resp, err := c.post(ctx, bearer, tokensPath, jsonContentType, body)
	if err != nil {
		return "", fmt.Errorf("issuing token %s: %w", name, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if err := checkStatus(resp); err != nil {
		return "", fmt.Errorf("issuing token %s: %w", name, err)
	}

	var tokenResp struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("decoding json response failed: %w", err)
	}
	if tokenResp.Token == "" {
		return "", errors.New("received unexpected body")
	}
	return tokenResp.Token, nil
}

func (c *Client) post(ctx context.Context, client *http.Client, path, contentType string, body any) (*http.Response, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	requestURL := c.serverURL.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL.String(), bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	return client.Do(req)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return err
	}
	return fmt.Errorf("unexpected status: %d, body: %s", resp.StatusCode, string(respBody))
}

package ioclient

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
)

// DefaultArtifactsURL hosts the prescription script for every workflow version
const DefaultArtifactsURL = "https://raw.githubusercontent.com/blackduck-inc/io-artifacts"

// ScriptFetcher downloads the prescription script
type ScriptFetcher struct {
	baseURL string
	name    string
	client  *http.Client
}

func NewScriptFetcher(baseURL, name string) *ScriptFetcher {
	if baseURL == "" {
		baseURL = DefaultArtifactsURL
	}
	return &ScriptFetcher{
		baseURL: baseURL,
		name:    name,
		client:  &http.Client{},
	}
}

// Fetch stores the script of a given workflow version to dst. Nothing is
// written unless the server replies 200 OK.
func (f *ScriptFetcher) Fetch(ctx context.Context, version, dst string) error {
	requestURL, err := url.JoinPath(f.baseURL, version, f.name)
	if err != nil {
		return fmt.Errorf("script url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("downloading %s: %w", requestURL, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("downloading %s: status code: %d", requestURL, resp.StatusCode)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating file %s: %w", dst, err)
	}
	n, err := io.Copy(out, resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dst)
		return fmt.Errorf("storing %s: %w", dst, err)
	}
	slog.DebugContext(ctx, "script downloaded", "url", requestURL, "path", dst, "bytes", n)
	return nil
}

// Package secrets overlays configuration stored in an OpenBao KV v2 mount
// onto the process environment before config.Load reads it.
package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

var ErrSecretNotFound = errors.New("openbao secret path not found")

// Source locates one KV v2 secret.
type Source struct {
	Addr      string
	Token     string
	Mount     string
	Path      string
	Namespace string
}

// SourceFromEnv reads OPENBAO_ADDR, OPENBAO_TOKEN, OPENBAO_SECRET_PATH and the
// optional OPENBAO_MOUNT and OPENBAO_NAMESPACE. It returns false unless the
// first three are all set.
func SourceFromEnv() (Source, bool) {
	addr := strings.TrimSpace(os.Getenv("OPENBAO_ADDR"))
	token := os.Getenv("OPENBAO_TOKEN")
	path := strings.Trim(strings.TrimSpace(os.Getenv("OPENBAO_SECRET_PATH")), "/")
	if addr == "" || token == "" || path == "" {
		return Source{}, false
	}
	mount := strings.Trim(strings.TrimSpace(os.Getenv("OPENBAO_MOUNT")), "/")
	if mount == "" {
		mount = "secret"
	}
	return Source{
		Addr:      strings.TrimRight(addr, "/"),
		Token:     token,
		Mount:     mount,
		Path:      path,
		Namespace: strings.TrimSpace(os.Getenv("OPENBAO_NAMESPACE")),
	}, true
}

func (s Source) url() string {
	return fmt.Sprintf("%s/v1/%s/data/%s", s.Addr, s.Mount, s.Path)
}

// Fetch reads the secret's key/value pairs. Scalar values are rendered as
// strings; nested values are skipped.
func (s Source) Fetch(ctx context.Context) (map[string]string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, s.url(), nil)
	if err != nil {
		return nil, fmt.Errorf("create openbao request: %w", err)
	}
	req.Header.Set("X-Vault-Token", s.Token)
	if s.Namespace != "" {
		req.Header.Set("X-Vault-Namespace", s.Namespace)
	}

	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.RetryWaitMin = 100 * time.Millisecond
	client.RetryWaitMax = time.Second
	client.HTTPClient.Timeout = 5 * time.Second
	client.Logger = nil

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call openbao: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s/%s", ErrSecretNotFound, s.Mount, s.Path)
	default:
		return nil, fmt.Errorf("openbao request failed: status=%d", resp.StatusCode)
	}

	var payload struct {
		Data struct {
			Data map[string]any `json:"data"`
		} `json:"data"`
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode openbao response: %w", err)
	}

	out := make(map[string]string, len(payload.Data.Data))
	for k, v := range payload.Data.Data {
		switch val := v.(type) {
		case string:
			out[k] = val
		case json.Number:
			out[k] = val.String()
		case bool:
			out[k] = strconv.FormatBool(val)
		}
	}
	return out, nil
}

// Apply sets every key in values that the environment does not already
// define, and returns the applied keys in sorted order. Explicit environment
// always wins over the secret store.
func Apply(values map[string]string) ([]string, error) {
	var applied []string
	for k, v := range values {
		if cur, ok := os.LookupEnv(k); ok && cur != "" {
			continue
		}
		if err := os.Setenv(k, v); err != nil {
			return applied, fmt.Errorf("set %s: %w", k, err)
		}
		applied = append(applied, k)
	}
	sort.Strings(applied)
	return applied, nil
}

// Bootstrap fetches the configured secret and applies it. It is a no-op when
// OpenBao is not configured.
func Bootstrap(ctx context.Context) ([]string, error) {
	src, ok := SourceFromEnv()
	if !ok {
		return nil, nil
	}
	values, err := src.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return Apply(values)
}

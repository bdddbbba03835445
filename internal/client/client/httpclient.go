// Package client is a thin HTTP client for the lip JSON API.
//
// Every operation is a POST with a JSON body; the server always answers with
// {"info": ...} and, for update and retrieve, the last_update and lifetime
// fields. Non-200 answers become *StatusError, whatever their body, and
// transport failures wrap ErrUnavailable.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/lip/internal/common"
	"github.com/google/uuid"
)

// Response is the decoded body of a successful call.
type Response struct {
	Info       string `json:"info"`
	LastUpdate *int64 `json:"last_update,omitempty"`
	Lifetime   *int64 `json:"lifetime,omitempty"`
}

type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient returns a client for the server at addr. A bare host:port
// is taken as plain http.
func NewHTTPClient(addr string, timeout time.Duration) (*HTTPClient, error) {
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	u, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("server address: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server address: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("server address: missing host")
	}

	return &HTTPClient{
		baseURL: strings.TrimRight(u.String(), "/"),
		http:    &http.Client{Timeout: timeout},
	}, nil
}

type createBody struct {
	ID             string `json:"id"`
	AccessPassword string `json:"access_password"`
	MasterPassword string `json:"master_password"`
	Lifetime       *int64 `json:"lifetime,omitempty"`
}

type credentialsBody struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

type tokenBody struct {
	ID       string `json:"id"`
	Password string `json:"password"`
	Mode     string `json:"mode"`
}

type invalidateBody struct {
	ID       string `json:"id"`
	Password string `json:"password"`
	JWT      string `json:"jwt"`
}

type updateBody struct {
	JWT       string `json:"jwt"`
	IPAddress string `json:"ip_address"`
}

type retrieveBody struct {
	JWT string `json:"jwt"`
}

// Create registers a new address. A nil lifetime leaves the server default.
func (c *HTTPClient) Create(ctx context.Context, id, accessPw, masterPw string, lifetime *int64) (*Response, error) {
	return c.post(ctx, "/create", createBody{ID: id, AccessPassword: accessPw, MasterPassword: masterPw, Lifetime: lifetime})
}

// Token asks for a read or write token and returns it.
func (c *HTTPClient) Token(ctx context.Context, id, accessPw, mode string) (string, error) {
	res, err := c.post(ctx, "/jwt", tokenBody{ID: id, Password: accessPw, Mode: mode})
	if err != nil {
		return "", err
	}
	return res.Info, nil
}

func (c *HTTPClient) Invalidate(ctx context.Context, id, accessPw, token string) (*Response, error) {
	return c.post(ctx, "/invalidatejwt", invalidateBody{ID: id, Password: accessPw, JWT: token})
}

func (c *HTTPClient) Update(ctx context.Context, token, endpoint string) (*Response, error) {
	return c.post(ctx, "/update", updateBody{JWT: token, IPAddress: endpoint})
}

func (c *HTTPClient) Retrieve(ctx context.Context, token string) (*Response, error) {
	return c.post(ctx, "/retrieve", retrieveBody{JWT: token})
}

func (c *HTTPClient) Delete(ctx context.Context, id, masterPw string) (*Response, error) {
	return c.post(ctx, "/delete", credentialsBody{ID: id, Password: masterPw})
}

// Ping checks that the server answers its liveness probe.
func (c *HTTPClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/livez", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: livez answered %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}

func (c *HTTPClient) post(ctx context.Context, path string, body any) (*Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(common.RequestIDHeaderName, uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	var out Response
	decodeErr := json.NewDecoder(resp.Body).Decode(&out)
	if resp.StatusCode != http.StatusOK {
		// proxies in front of lip answer with their own, often non-JSON, bodies
		if decodeErr != nil || out.Info == "" {
			return nil, &StatusError{Code: resp.StatusCode, Info: resp.Status}
		}
		return nil, &StatusError{Code: resp.StatusCode, Info: out.Info}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("%s: decode response: %w", path, decodeErr)
	}
	return &out, nil
}

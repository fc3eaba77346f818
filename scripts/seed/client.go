package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/TomWia9/HoppyHub-sub002/pkg/httpclient"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// gatewayClient sends JSON requests through the gateway and unwraps the
// {"data": ...} envelope.
type gatewayClient struct {
	http *httpclient.Client
	base string
}

func newGatewayClient(c *httpclient.Client, base string) *gatewayClient {
	return &gatewayClient{http: c, base: strings.TrimRight(base, "/")}
}

type envelope struct {
	Data jsoniter.RawMessage `json:"data"`
}

func (c *gatewayClient) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%s %s: %w", method, path, httpclient.ParseResponseError(resp, "gateway"))
	}
	defer resp.Body.Close()

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s %s data: %w", method, path, err)
	}
	return nil
}

// findByName searches a paginated collection for an exact name match.
func (c *gatewayClient) findByName(ctx context.Context, collection, name string) (string, bool, error) {
	var page []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	path := fmt.Sprintf("%s?q=%s&per_page=100", collection, url.QueryEscape(name))
	if err := c.do(ctx, http.MethodGet, path, "", nil, &page); err != nil {
		return "", false, err
	}
	for _, item := range page {
		if strings.EqualFold(item.Name, name) {
			return item.ID, true, nil
		}
	}
	return "", false, nil
}

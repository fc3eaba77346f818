package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/TomWia9/HoppyHub-sub002/pkg/health"
	"github.com/TomWia9/HoppyHub-sub002/pkg/httpclient"
)

// RegisterDownstreamChecks adds a non-critical readiness check per upstream
// that probes its liveness endpoint. An unreachable service degrades the
// gateway without taking it out of rotation.
func RegisterDownstreamChecks(h *health.Handler, client *httpclient.Client, upstreams map[string]string) {
	for name, base := range upstreams {
		h.RegisterNonCritical(name+"-service", downstreamChecker(client, base))
	}
}

func downstreamChecker(client *httpclient.Client, base string) health.Checker {
	url := strings.TrimRight(base, "/") + "/health/live"
	return func(ctx context.Context) error {
		resp, err := client.Get(ctx, url)
		if err != nil {
			return fmt.Errorf("probe %s: %w", url, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("probe %s: status %d", url, resp.StatusCode)
		}
		return nil
	}
}

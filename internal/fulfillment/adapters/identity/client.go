// Package identity adapts the external identity collaborator to the
// IdentityDirectory port: a plain HTTP client plus a redis-cached decorator
// for listing decoration.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ovenline/fulfillment/internal/fulfillment/ports"
)

// HTTPDirectory resolves customer snapshots from the identity service.
type HTTPDirectory struct {
	baseURL string
	client  *http.Client
}

var _ ports.IdentityDirectory = (*HTTPDirectory)(nil)

// NewHTTPDirectory builds a directory client for the given base URL.
func NewHTTPDirectory(baseURL string) *HTTPDirectory {
	return &HTTPDirectory{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 3 * time.Second},
	}
}

// Customer fetches the display snapshot for one customer reference.
func (d *HTTPDirectory) Customer(ctx context.Context, ref string) (ports.CustomerSnapshot, error) {
	url := fmt.Sprintf("%s/customers/%s", d.baseURL, ref)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ports.CustomerSnapshot{}, fmt.Errorf("identity: build request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return ports.CustomerSnapshot{}, fmt.Errorf("identity: lookup %q: %w", ref, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ports.CustomerSnapshot{}, fmt.Errorf("identity: lookup %q: status %d", ref, resp.StatusCode)
	}

	var snap ports.CustomerSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return ports.CustomerSnapshot{}, fmt.Errorf("identity: decode snapshot for %q: %w", ref, err)
	}
	return snap, nil
}

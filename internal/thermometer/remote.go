package thermometer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/benvon/thermod/pkg/retry"
)

// Remote reads a temperature published by an HTTP endpoint returning
// {"temperature": <number>} — the abstract contract a 1-Wire, analog, or
// script-backed sensor bridge exposes over the network. It is built on
// the same context-aware http.Client + exponential-backoff pattern the
// teacher used for its OAuth-backed provider requests.
type Remote struct {
	url        string
	httpClient *http.Client
	retry      retry.Config
}

// NewRemote returns a Remote thermometer polling url, bounding each
// attempt by timeout and retrying transient failures per retryConfig.
func NewRemote(url string, timeout time.Duration, retryConfig retry.Config) *Remote {
	return &Remote{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		retry:      retryConfig,
	}
}

type remotePayload struct {
	Temperature float64 `json:"temperature"`
}

// Read implements Thermometer.
func (r *Remote) Read(ctx context.Context) (float64, error) {
	var temp float64
	err := retry.Do(ctx, r.retry, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
		if err != nil {
			return fmt.Errorf("building thermometer request: %w", err)
		}
		resp, err := r.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("reading remote thermometer: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("remote thermometer returned status %d", resp.StatusCode)
		}
		var payload remotePayload
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			return fmt.Errorf("decoding remote thermometer response: %w", err)
		}
		temp = payload.Temperature
		return nil
	})
	if err != nil {
		return 0, err
	}
	return temp, nil
}

// trafficInsight - live traffic chokepoint detection core
// SPDX-License-Identifier: Apache-2.0

package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	json "github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/akashdesaidev/trafficInsight/internal/config"
)

// FlowStyles is the fixed priority order TileFetcher walks until a style
// yields at least one feature.
var FlowStyles = []string{"relative", "absolute", "relative-delay", "relative-categorized"}

// maxErrorBodySize bounds how much of a failed response body is read back
// for diagnostics.
const maxErrorBodySize = 64 * 1024

// Client talks to the TomTom-style traffic endpoints. Each endpoint family
// has its own circuit breaker so a flaky incident feed can't trip fetches
// for tiles or flow segments.
type Client struct {
	baseURL string
	creds   config.TomTomConfig
	http    *http.Client

	tileBreaker     *gobreaker.CircuitBreaker[interface{}]
	segmentBreaker  *gobreaker.CircuitBreaker[interface{}]
	incidentBreaker *gobreaker.CircuitBreaker[interface{}]
	geocodeBreaker  *gobreaker.CircuitBreaker[interface{}]
}

// New builds a Client. baseURL is the provider's API root (no trailing
// slash); timeout bounds every individual outbound request.
func New(baseURL string, creds config.TomTomConfig, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		creds:   creds,
		http:    &http.Client{Timeout: timeout},

		tileBreaker:     newBreaker("tile"),
		segmentBreaker:  newBreaker("flow_segment"),
		incidentBreaker: newBreaker("incidents"),
		geocodeBreaker:  newBreaker("reverse_geocode"),
	}
}

func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	return body
}

// getBytes issues a GET and returns the raw response body. Any non-2xx
// status or transport failure is reported as a *TransportError tagged with
// endpoint, so callers (and the pipeline stages that tolerate these) can
// errors.As against the real taxonomy instead of a bare wrapped error.
func (c *Client) getBytes(ctx context.Context, endpoint, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: fmt.Errorf("build request: %w", err)}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: fmt.Errorf("do request: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body := readBodyForError(resp.Body)
		return nil, &TransportError{
			Endpoint: endpoint,
			Err:      fmt.Errorf("upstream status %d: %s", resp.StatusCode, string(body)),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Endpoint: endpoint, Err: fmt.Errorf("read body: %w", err)}
	}
	return data, nil
}

// getJSON issues a GET and decodes the JSON body into dst.
func (c *Client) getJSON(ctx context.Context, endpoint, rawURL string, dst interface{}) error {
	body, err := c.getBytes(ctx, endpoint, rawURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decode json: %w", err)
	}
	return nil
}

// FetchTile retrieves one vector flow tile for the given style and XYZ
// index. Errors (including a tripped breaker) are returned to the caller,
// which treats per-tile failure as a silent drop from the batch.
func (c *Client) FetchTile(ctx context.Context, style string, z, x, y int) ([]byte, error) {
	result, err := execute(c.tileBreaker, "tile", func() (interface{}, error) {
		u := fmt.Sprintf("%s/traffic/map/4/tile/flow/%s/%d/%d/%d.pbf?key=%s",
			c.baseURL, style, z, x, y, url.QueryEscape(c.creds.TrafficKey()))
		return c.getBytes(ctx, "tile", u)
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

// FetchFlowSegment queries the point-query flow segment endpoint for a
// single lat/lon, used both as a severity fallback source and as the grid
// probe's data source.
func (c *Client) FetchFlowSegment(ctx context.Context, lat, lon float64) (*FlowSegmentData, error) {
	result, err := execute(c.segmentBreaker, "flow_segment", func() (interface{}, error) {
		u := fmt.Sprintf("%s/traffic/services/4/flowSegmentData/absolute/10/json?key=%s&point=%f,%f&unit=KMPH",
			c.baseURL, url.QueryEscape(c.creds.TrafficKey()), lat, lon)
		var env flowSegmentEnvelope
		if err := c.getJSON(ctx, "flow_segment", u, &env); err != nil {
			return nil, err
		}
		return &env.FlowSegmentData, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*FlowSegmentData), nil
}

// FetchIncidents retrieves the incidents feed for one bbox (already split
// to within the area guard by the caller). The response is normalized to a
// flat slice regardless of whether the provider wrapped it in an envelope
// object or returned a bare array.
func (c *Client) FetchIncidents(ctx context.Context, minLon, minLat, maxLon, maxLat float64) ([]RawIncident, error) {
	result, err := execute(c.incidentBreaker, "incidents", func() (interface{}, error) {
		u := fmt.Sprintf(
			"%s/traffic/services/5/incidentDetails?key=%s&bbox=%f,%f,%f,%f&language=en-GB&timeValidityFilter=present&fields=%s",
			c.baseURL, url.QueryEscape(c.creds.StatsKey()), minLon, minLat, maxLon, maxLat,
			url.QueryEscape("{incidents{type,geometry{type,coordinates},properties{id,iconCategory,roadClosed,magnitudeOfDelay}}}"),
		)
		body, err := c.getBytes(ctx, "incidents", u)
		if err != nil {
			return nil, err
		}
		return decodeIncidentsPermissive(body)
	})
	if err != nil {
		return nil, err
	}
	return result.([]RawIncident), nil
}

// decodeIncidentsPermissive accepts either a bare JSON array of incidents or
// an object with an "incidents" key, per the provider's inconsistent shape.
func decodeIncidentsPermissive(body []byte) ([]RawIncident, error) {
	var list []RawIncident
	if err := json.Unmarshal(body, &list); err == nil {
		return list, nil
	}

	var env incidentsEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode incidents: %w", err)
	}
	return env.Incidents, nil
}

// ReverseGeocode resolves a centroid to a human-readable street name. A
// failure here is never fatal to the pipeline; callers treat an error as
// "no name available".
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	result, err := execute(c.geocodeBreaker, "reverse_geocode", func() (interface{}, error) {
		u := fmt.Sprintf("%s/search/2/reverseGeocode/%f,%f.json?key=%s&radius=50",
			c.baseURL, lat, lon, url.QueryEscape(c.creds.SearchKey()))
		var env reverseGeocodeEnvelope
		if err := c.getJSON(ctx, "reverse_geocode", u, &env); err != nil {
			return nil, err
		}
		if len(env.Addresses) == 0 {
			return "", nil
		}
		name := env.Addresses[0].Address.StreetName
		if name == "" {
			name = env.Addresses[0].Address.FreeformAddress
		}
		return name, nil
	})
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

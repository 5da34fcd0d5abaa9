// Package directory looks stations up in the Radio Browser community
// directory so a stream URL can be filled in from a station name.
package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	defaultBaseURL = "https://all.api.radio-browser.info"
	requestTimeout = 12 * time.Second
	searchLimit    = 20
)

// ErrNoMatch is returned by Lookup when the directory has no station with
// a playable URL for the name.
var ErrNoMatch = errors.New("no matching station")

type Client struct {
	userAgent string
	http      *http.Client

	mu      sync.Mutex
	baseURL string
}

type serverInfo struct {
	Name string `json:"name"`
}

// NewClient creates a Radio Browser API client. The mirror is picked on
// first use, so construction never touches the network.
func NewClient(userAgent string) (*Client, error) {
	if strings.TrimSpace(userAgent) == "" {
		return nil, errors.New("user agent is required")
	}

	return &Client{
		userAgent: userAgent,
		http:      &http.Client{Timeout: requestTimeout},
	}, nil
}

// Search returns up to 20 working stations whose name contains name, most
// clicked first.
func (c *Client) Search(ctx context.Context, name string) ([]Station, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("station name is required")
	}

	endpoint := fmt.Sprintf("/json/stations/byname/%s", url.PathEscape(name))
	query := url.Values{}
	query.Set("hidebroken", "true")
	query.Set("order", "clickcount")
	query.Set("reverse", "true")
	query.Set("limit", fmt.Sprint(searchLimit))

	var stations []Station
	if err := c.doJSON(ctx, endpoint+"?"+query.Encode(), &stations); err != nil {
		return nil, err
	}
	return stations, nil
}

// Lookup picks the best station for name: an exact case-insensitive name
// match if there is one, else the most popular result.
func (c *Client) Lookup(ctx context.Context, name string) (Station, error) {
	stations, err := c.Search(ctx, name)
	if err != nil {
		return Station{}, err
	}

	var best *Station
	for i := range stations {
		if stations[i].StreamURL() == "" && stations[i].UUID == "" {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(stations[i].Name), strings.TrimSpace(name)) {
			best = &stations[i]
			break
		}
		if best == nil {
			best = &stations[i]
		}
	}
	if best == nil {
		return Station{}, fmt.Errorf("%w: %q", ErrNoMatch, name)
	}

	if best.StreamURL() == "" {
		resolved, err := c.ResolveStationURL(ctx, best.UUID)
		if err != nil {
			return Station{}, err
		}
		best.URLResolved = resolved
	}
	return *best, nil
}

// ResolveStationURL calls /json/url/{stationuuid} and returns a resolved stream URL.
func (c *Client) ResolveStationURL(ctx context.Context, uuid string) (string, error) {
	uuid = strings.TrimSpace(uuid)
	if uuid == "" {
		return "", errors.New("station uuid is required")
	}

	data, err := c.getBytes(ctx, fmt.Sprintf("/json/url/%s", url.PathEscape(uuid)))
	if err != nil {
		return "", err
	}

	var station Station
	if err := json.Unmarshal(data, &station); err == nil && station.UUID != "" {
		return resolvedURL(station)
	}

	var stations []Station
	if err := json.Unmarshal(data, &stations); err != nil {
		return "", err
	}
	if len(stations) == 0 {
		return "", errors.New("no station data returned")
	}
	return resolvedURL(stations[0])
}

func resolvedURL(station Station) (string, error) {
	if u := station.StreamURL(); u != "" {
		return u, nil
	}
	return "", errors.New("station has no stream url")
}

func (c *Client) doJSON(ctx context.Context, path string, target any) error {
	data, err := c.getBytes(ctx, path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, target)
}

func (c *Client) getBytes(ctx context.Context, path string) ([]byte, error) {
	return c.get(ctx, c.server(ctx)+path)
}

func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("request failed: %s", resp.Status)
	}

	// Limit response size to 10MB to prevent OOM on malformed responses
	return io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
}

// server returns the mirror to use, picking one at random on first call.
// When the pick fails the round-robin DNS name is used and kept.
func (c *Client) server(ctx context.Context) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.baseURL != "" {
		return c.baseURL
	}
	c.baseURL = defaultBaseURL
	if mirror, err := c.pickRandomServer(ctx); err == nil {
		c.baseURL = mirror
	}
	return c.baseURL
}

func (c *Client) pickRandomServer(ctx context.Context) (string, error) {
	data, err := c.get(ctx, defaultBaseURL+"/json/servers")
	if err != nil {
		return "", err
	}
	var servers []serverInfo
	if err := json.Unmarshal(data, &servers); err != nil {
		return "", err
	}
	if len(servers) == 0 {
		return "", errors.New("no api servers returned")
	}

	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	choice := servers[r.Intn(len(servers))].Name
	if strings.TrimSpace(choice) == "" {
		return "", errors.New("empty server name")
	}
	return "https://" + choice, nil
}

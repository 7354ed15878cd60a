package pokeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// CanonicalTypes is the fixed allow-list applied to the upstream type
// catalog. Only these five survive ListTypes; this is a deliberate
// scope-limiting policy carried over from the original service.
var CanonicalTypes = []string{"normal", "fire", "water", "grass", "electric"}

// typeFetchCap bounds the per-type detail fan-out: a popular type lists
// dozens of members and each one costs a detail request.
const typeFetchCap = 10

type Client struct {
	host       string
	httpClient *http.Client
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.Status, e.Body)
}

func NewClient(httpClient *http.Client, host string) *Client {
	if host == "" {
		host = "https://pokeapi.co/api/v2"
	}
	host = strings.TrimRight(host, "/")
	return &Client{
		host:       host,
		httpClient: httpClient,
	}
}

func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	fullURL := c.host + path
	if len(query) > 0 {
		fullURL = fullURL + "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

// ListPage fetches one page of the upstream pokemon listing. Entries carry
// only name and URL; detail fields come from FindByName per entry.
func (c *Client) ListPage(ctx context.Context, limit, offset int) ([]PageEntry, error) {
	query := url.Values{}
	query.Set("limit", fmt.Sprintf("%d", limit))
	query.Set("offset", fmt.Sprintf("%d", offset))
	body, err := c.doRequest(ctx, "/pokemon", query)
	if err != nil {
		return nil, err
	}
	var parsed listResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse listing: %w", err)
	}
	return parsed.Results, nil
}

// FindByName looks up one pokemon by exact name (or stringified id; the
// upstream detail endpoint accepts both). Upstream not-found is reported as
// (nil, nil), not as an error. Payloads missing the id or types are treated
// the same way.
func (c *Client) FindByName(ctx context.Context, name string) (*Pokemon, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, nil
	}
	body, err := c.doRequest(ctx, "/pokemon/"+url.PathEscape(name), nil)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var parsed detailResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse detail: %w", err)
	}
	return parsed.normalize(), nil
}

// FindByType lists members of one upstream type and fetches full detail for
// each, capped at typeFetchCap entries. Entries whose detail fetch fails or
// comes back malformed are skipped rather than failing the whole call.
func (c *Client) FindByType(ctx context.Context, typ string) ([]Pokemon, error) {
	typ = strings.ToLower(strings.TrimSpace(typ))
	if typ == "" {
		return nil, nil
	}
	body, err := c.doRequest(ctx, "/type/"+url.PathEscape(typ), nil)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var parsed typeDetailResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse type detail: %w", err)
	}

	out := make([]Pokemon, 0, typeFetchCap)
	for _, entry := range parsed.Pokemon {
		if len(out) >= typeFetchCap {
			break
		}
		if entry.Pokemon.Name == "" {
			continue
		}
		detail, err := c.FindByName(ctx, entry.Pokemon.Name)
		if err != nil || detail == nil {
			continue
		}
		out = append(out, *detail)
	}
	return out, nil
}

// ListTypes fetches the upstream type catalog and filters it down to
// CanonicalTypes, sorted ascending.
func (c *Client) ListTypes(ctx context.Context) ([]string, error) {
	body, err := c.doRequest(ctx, "/type", nil)
	if err != nil {
		return nil, err
	}
	var parsed listResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse type listing: %w", err)
	}
	allowed := make(map[string]struct{}, len(CanonicalTypes))
	for _, name := range CanonicalTypes {
		allowed[name] = struct{}{}
	}
	out := make([]string, 0, len(CanonicalTypes))
	for _, entry := range parsed.Results {
		if _, ok := allowed[entry.Name]; ok {
			out = append(out, entry.Name)
		}
	}
	sort.Strings(out)
	return out, nil
}

func isNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusNotFound
	}
	return false
}

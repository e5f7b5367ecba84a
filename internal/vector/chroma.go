// File path: internal/vector/chroma.go
package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/querypilot/querypilot/internal/common"
)

// Document is one indexed text unit. The store owns documents exclusively;
// reindexing supersedes them by id.
type Document struct {
	ID       string
	Text     string
	Metadata map[string]any
}

// Match is one nearest-neighbor result. Distance is the raw store distance;
// lower is closer.
type Match struct {
	ID       string
	Text     string
	Metadata map[string]any
	Distance float64
}

// Store is the vector-store collaborator contract. ChromaDB embeds document
// and query text server-side, so no vectors cross this boundary.
type Store interface {
	Available() bool
	Collection() string
	Add(ctx context.Context, docs []Document) error
	Query(ctx context.Context, text string, topK int) ([]Match, error)
	Get(ctx context.Context, ids []string) ([]string, error)
	Delete(ctx context.Context, ids []string) error
	Count(ctx context.Context) (int, error)
}

// Client talks to a ChromaDB server over its REST API.
type Client struct {
	httpClient *http.Client

	baseURL      string
	collection   string
	collectionID string
	available    bool
	apiKey       string

	mu sync.RWMutex
}

var (
	errNotFound = errors.New("resource not found")
	errConflict = errors.New("resource conflict")
)

func NewFromEnv(ctx context.Context) (*Client, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	return New(ctx, cfg)
}

// New constructs a client using the provided configuration. An unreachable
// server is not an error; the client reports unavailable and callers degrade.
func New(ctx context.Context, cfg Config) (*Client, error) {
	logger := common.Logger()
	baseURL := fmt.Sprintf("%s://%s:%s/api/v1", cfg.Scheme, cfg.Host, cfg.Port)
	logger.Info(
		"vector: initializing chromadb client",
		"host", cfg.Host,
		"port", cfg.Port,
		"collection", cfg.Collection,
	)
	client := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: cfg.Collection,
		apiKey:     cfg.APIKey,
	}
	if err := client.ensureReady(ctx); err != nil {
		logger.Warn("vector: chromadb initialization failed", "collection", cfg.Collection, "error", err)
		return client, nil
	}
	logger.Info("vector: chromadb connection established")
	return client, nil
}

func (c *Client) Available() bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.available
}

func (c *Client) Collection() string {
	if c == nil {
		return ""
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.collection
}

func (c *Client) ensureReady(ctx context.Context) error {
	if c == nil {
		return errors.New("chromadb client not configured")
	}
	c.mu.RLock()
	available := c.available
	collectionID := c.collectionID
	c.mu.RUnlock()
	if available && collectionID != "" {
		return nil
	}
	const maxAttempts = 3
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = c.health(ctx)
		if err == nil {
			break
		}
		select {
		case <-ctx.Done():
			c.setAvailable(false)
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 250 * time.Millisecond):
		}
	}
	if err != nil {
		c.setAvailable(false)
		return err
	}
	if err = c.ensureCollectionID(ctx); err != nil {
		c.setAvailable(false)
		return err
	}
	c.setAvailable(true)
	return nil
}

func (c *Client) setAvailable(v bool) {
	c.mu.Lock()
	c.available = v
	c.mu.Unlock()
}

// Add appends documents to the collection in a single batch.
func (c *Client) Add(ctx context.Context, docs []Document) error {
	if err := c.ensureReady(ctx); err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}
	ids := make([]string, 0, len(docs))
	documents := make([]string, 0, len(docs))
	metadatas := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		ids = append(ids, doc.ID)
		documents = append(documents, doc.Text)
		metadata := doc.Metadata
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadatas = append(metadatas, metadata)
	}
	payload := map[string]any{
		"ids":       ids,
		"documents": documents,
		"metadatas": metadatas,
	}
	endpoint := fmt.Sprintf("%s/collections/%s/add", c.baseURL, url.PathEscape(c.collectionIDLocked()))
	return c.doRequest(ctx, http.MethodPost, endpoint, payload, nil)
}

// Query runs a nearest-neighbor search for the given text.
func (c *Client) Query(ctx context.Context, text string, topK int) ([]Match, error) {
	if err := c.ensureReady(ctx); err != nil {
		return nil, err
	}
	if topK <= 0 {
		topK = 10
	}
	body := map[string]any{
		"query_texts": []string{text},
		"n_results":   topK,
		"include":     []string{"documents", "metadatas", "distances"},
	}
	endpoint := fmt.Sprintf("%s/collections/%s/query", c.baseURL, url.PathEscape(c.collectionIDLocked()))
	var resp struct {
		IDs       [][]string         `json:"ids"`
		Distances [][]float64        `json:"distances"`
		Metadatas [][]map[string]any `json:"metadatas"`
		Documents [][]string         `json:"documents"`
	}
	if err := c.doRequest(ctx, http.MethodPost, endpoint, body, &resp); err != nil {
		return nil, err
	}
	if len(resp.IDs) == 0 {
		return nil, nil
	}
	matches := make([]Match, 0, len(resp.IDs[0]))
	for idx, id := range resp.IDs[0] {
		match := Match{ID: id}
		if len(resp.Documents) > 0 && idx < len(resp.Documents[0]) {
			match.Text = resp.Documents[0][idx]
		}
		if len(resp.Metadatas) > 0 && idx < len(resp.Metadatas[0]) {
			match.Metadata = resp.Metadatas[0][idx]
		}
		if len(resp.Distances) > 0 && idx < len(resp.Distances[0]) {
			match.Distance = resp.Distances[0][idx]
		}
		matches = append(matches, match)
	}
	return matches, nil
}

// Get returns the subset of ids that exist in the collection. An empty ids
// slice fetches every stored id.
func (c *Client) Get(ctx context.Context, ids []string) ([]string, error) {
	if err := c.ensureReady(ctx); err != nil {
		return nil, err
	}
	body := map[string]any{}
	if len(ids) > 0 {
		body["ids"] = ids
	}
	endpoint := fmt.Sprintf("%s/collections/%s/get", c.baseURL, url.PathEscape(c.collectionIDLocked()))
	var resp struct {
		IDs []string `json:"ids"`
	}
	if err := c.doRequest(ctx, http.MethodPost, endpoint, body, &resp); err != nil {
		return nil, err
	}
	return resp.IDs, nil
}

// Delete removes the identified documents.
func (c *Client) Delete(ctx context.Context, ids []string) error {
	if err := c.ensureReady(ctx); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	payload := map[string]any{"ids": ids}
	endpoint := fmt.Sprintf("%s/collections/%s/delete", c.baseURL, url.PathEscape(c.collectionIDLocked()))
	return c.doRequest(ctx, http.MethodPost, endpoint, payload, nil)
}

// Count reports the number of stored documents.
func (c *Client) Count(ctx context.Context) (int, error) {
	if err := c.ensureReady(ctx); err != nil {
		return 0, err
	}
	endpoint := fmt.Sprintf("%s/collections/%s/count", c.baseURL, url.PathEscape(c.collectionIDLocked()))
	var count int
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &count); err != nil {
		return 0, err
	}
	return count, nil
}

var _ Store = (*Client)(nil)

func (c *Client) collectionIDLocked() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.collectionID
}

func (c *Client) ensureCollectionID(ctx context.Context) error {
	c.mu.RLock()
	if c.collectionID != "" {
		c.mu.RUnlock()
		return nil
	}
	c.mu.RUnlock()
	id, err := c.findCollection(ctx, c.collection)
	if err != nil {
		return err
	}
	if id == "" {
		id, err = c.createCollection(ctx, c.collection)
		if err != nil {
			return err
		}
	}
	c.mu.Lock()
	c.collectionID = id
	c.mu.Unlock()
	return nil
}

func (c *Client) findCollection(ctx context.Context, name string) (string, error) {
	endpoint := fmt.Sprintf("%s/collections?name=%s", c.baseURL, url.QueryEscape(name))
	var resp struct {
		Collections []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"collections"`
	}
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		if errors.Is(err, errNotFound) {
			return "", nil
		}
		// Fall back to enumerating when the name filter is unsupported.
		endpoint = fmt.Sprintf("%s/collections", c.baseURL)
		if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
			return "", err
		}
	}
	for _, col := range resp.Collections {
		if strings.EqualFold(col.Name, name) {
			return col.ID, nil
		}
	}
	return "", nil
}

func (c *Client) createCollection(ctx context.Context, name string) (string, error) {
	payload := map[string]any{"name": name}
	endpoint := fmt.Sprintf("%s/collections", c.baseURL)
	var resp struct {
		ID string `json:"id"`
	}
	if err := c.doRequest(ctx, http.MethodPost, endpoint, payload, &resp); err != nil {
		if errors.Is(err, errConflict) {
			return c.findCollection(ctx, name)
		}
		return "", err
	}
	return resp.ID, nil
}

func (c *Client) health(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/heartbeat", c.baseURL)
	return c.doRequest(ctx, http.MethodGet, endpoint, nil, nil)
}

func (c *Client) doRequest(ctx context.Context, method, endpoint string, body any, out any) error {
	if c == nil {
		return errors.New("chromadb client not configured")
	}
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode == http.StatusConflict {
		return errConflict
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("chromadb %s %s failed: %s", method, endpoint, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

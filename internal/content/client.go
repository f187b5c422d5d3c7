package content

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// maxMetadataBytes caps how much of a gateway response is read.
const maxMetadataBytes = 1 << 20

// Metadata is the ERC-721 metadata JSON document.
type Metadata struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Image       string           `json:"image"`
	Attributes  []map[string]any `json:"attributes,omitempty"`
}

// Client fetches token metadata through the HTTP gateway.
type Client struct {
	resolver   *Resolver
	httpClient *http.Client
	log        *zap.Logger
}

func NewClient(resolver *Resolver, log *zap.Logger) *Client {
	return &Client{
		resolver: resolver,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		log: log,
	}
}

func (c *Client) FetchMetadata(ctx context.Context, uri string) (*Metadata, error) {
	url := c.resolver.GatewayURL(uri)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ipfs gateway unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("ipfs gateway returned %d: %s", resp.StatusCode, string(body))
	}

	var md Metadata
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxMetadataBytes)).Decode(&md); err != nil {
		return nil, fmt.Errorf("decode metadata %s: %w", url, err)
	}
	md.Image = c.resolver.GatewayURL(md.Image)

	c.log.Debug("metadata fetched", zap.String("uri", uri))
	return &md, nil
}

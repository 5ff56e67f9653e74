// Copyright 2026 The AgentRig Authors
// SPDX-License-Identifier: Apache-2.0

package viewerui

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ValyrianTech/AgentRig/lib/assetcache"
	"github.com/ValyrianTech/AgentRig/lib/avatar"
	"github.com/ValyrianTech/AgentRig/lib/gltf"
)

// maxAssetBytes bounds a single model download. Production avatars
// are single-digit megabytes; the cap exists so a misconfigured URL
// pointing at something huge fails fast instead of exhausting memory.
const maxAssetBytes = 256 << 20

// maxStateBytes bounds the state poll response.
const maxStateBytes = 1 << 20

// stateRequestTimeout bounds one state poll. A hung /api/state read
// must fail within a few poll intervals and retry on the next tick,
// not pin the reconciler for the asset-download timeout.
const stateRequestTimeout = 2 * time.Second

// Client talks to the avatar server over HTTP: state polls against
// /api/state and asset downloads against the static model mount. It
// satisfies both the poll fetcher and the scene loader interfaces.
// The two surfaces use separate underlying clients: asset downloads
// get a transfer-sized timeout, state polls a tick-sized one.
type Client struct {
	baseURL     string
	assetClient *http.Client
	stateClient *http.Client
	cache       *assetcache.Cache
	logger      *slog.Logger
}

// ClientConfig configures a Client.
type ClientConfig struct {
	// BaseURL is the server root, e.g. "http://127.0.0.1:8080".
	// Required.
	BaseURL string

	// Cache stores parsed asset metadata keyed by content digest.
	// Optional; without it every download is re-parsed.
	Cache *assetcache.Cache

	// Logger is the structured logger. Required.
	Logger *slog.Logger
}

// NewClient creates a server client.
func NewClient(config ClientConfig) *Client {
	if config.BaseURL == "" {
		panic("viewerui.Client: BaseURL is required")
	}
	if config.Logger == nil {
		panic("viewerui.Client: Logger is required")
	}
	return &Client{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		assetClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
		stateClient: &http.Client{
			Timeout: stateRequestTimeout,
		},
		cache:  config.Cache,
		logger: config.Logger,
	}
}

// FetchState retrieves the server's current avatar state.
func (c *Client) FetchState(ctx context.Context) (avatar.State, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/state", nil)
	if err != nil {
		return avatar.State{}, err
	}
	response, err := c.stateClient.Do(request)
	if err != nil {
		return avatar.State{}, err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return avatar.State{}, fmt.Errorf("state poll: server returned %s", response.Status)
	}

	var state avatar.State
	decoder := json.NewDecoder(io.LimitReader(response.Body, maxStateBytes))
	if err := decoder.Decode(&state); err != nil {
		return avatar.State{}, fmt.Errorf("state poll: decoding response: %w", err)
	}
	return state, nil
}

// Load downloads and parses one model asset from the server's static
// mount. Parsed metadata is cached by content digest, so a model that
// round-trips (robot to fox and back) skips the parse on return.
func (c *Client) Load(ctx context.Context, name, extension string) (*gltf.Asset, error) {
	url := c.baseURL + "/static/models/" + name + extension
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	response, err := c.assetClient.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading %s%s: server returned %s", name, extension, response.Status)
	}

	data, err := io.ReadAll(io.LimitReader(response.Body, maxAssetBytes))
	if err != nil {
		return nil, fmt.Errorf("downloading %s%s: %w", name, extension, err)
	}

	if c.cache != nil {
		key := assetcache.Key(data)
		if asset, ok := c.cache.Load(key); ok {
			c.logger.Debug("asset metadata served from cache",
				"model", name,
				"digest", key,
			)
			return asset, nil
		}
		asset, err := gltf.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s%s: %w", name, extension, err)
		}
		if err := c.cache.Store(key, asset); err != nil {
			c.logger.Warn("asset cache store failed",
				"model", name,
				"error", err,
			)
		}
		return asset, nil
	}

	asset, err := gltf.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s%s: %w", name, extension, err)
	}
	return asset, nil
}

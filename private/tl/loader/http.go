// Copyright 2026 The tlsync Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package loader

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"time"

	"github.com/quic-go/quic-go/http3"

	"github.com/tlsync/tlsync/pkg/private/serrors"
)

const (
	// DefaultTimeout is the per request timeout.
	DefaultTimeout = 30 * time.Second
	// DefaultMaxSize is the largest document accepted, in bytes.
	DefaultMaxSize = 32 << 20
	userAgent      = "tlsync"
)

// HTTPConfig configures an HTTPLoader.
type HTTPConfig struct {
	// Timeout bounds each request. Zero means DefaultTimeout.
	Timeout time.Duration
	// MaxSize is the largest accepted body. Zero means DefaultMaxSize.
	MaxSize int64
	// HTTP3 fetches over QUIC instead of TCP.
	HTTP3 bool
	// TLSConfig is used for both transports. Nil uses the system roots.
	TLSConfig *tls.Config
}

// HTTPLoader fetches documents over HTTP.
type HTTPLoader struct {
	Client  *http.Client
	Timeout time.Duration
	MaxSize int64
}

// NewHTTPLoader creates a loader from the config.
func NewHTTPLoader(cfg HTTPConfig) *HTTPLoader {
	var transport http.RoundTripper
	if cfg.HTTP3 {
		transport = &http3.Transport{TLSClientConfig: cfg.TLSConfig}
	} else {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.TLSClientConfig = cfg.TLSConfig
		transport = t
	}
	return &HTTPLoader{
		Client:  &http.Client{Transport: transport},
		Timeout: cfg.Timeout,
		MaxSize: cfg.MaxSize,
	}
}

// Load implements tl.Loader.
func (l *HTTPLoader) Load(ctx context.Context, url string) ([]byte, error) {
	timeout := l.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	ctx, cancelF := context.WithTimeout(ctx, timeout)
	defer cancelF()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, serrors.Wrap("creating request", err, "url", url)
	}
	req.Header.Set("User-Agent", userAgent)
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, serrors.Wrap("fetching document", err, "url", url)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, serrors.JoinNoStack(ErrStatus, nil,
			"url", url, "status", resp.StatusCode)
	}

	maxSize := l.MaxSize
	if maxSize == 0 {
		maxSize = DefaultMaxSize
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxSize+1))
	if err != nil {
		return nil, serrors.Wrap("reading body", err, "url", url)
	}
	if int64(len(raw)) > maxSize {
		return nil, serrors.JoinNoStack(ErrTooLarge, nil, "url", url, "max_size", maxSize)
	}
	return raw, nil
}

// JSON POST client used to hand segments and reassembled messages to the next service
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"segtransport/internal/global"
	"sync/atomic"

	"github.com/klauspost/compress/gzip"
)

const maxErrorBody int = 512

type Client struct {
	Namespace []string
	target    string
	compress  bool
	http      *http.Client
	Metrics   *MetricStorage
}

type MetricStorage struct {
	Requests atomic.Uint64 // Successful POSTs
	Failures atomic.Uint64 // POSTs that errored or returned non-2xx
	Bytes    atomic.Uint64 // Body bytes sent (after compression)
}

// compress gzips request bodies and sets Content-Encoding
func New(namespace []string, target string, compress bool) (new *Client, err error) {
	parsed, err := url.Parse(target)
	if err != nil {
		err = fmt.Errorf("invalid relay URL %q: %w", target, err)
		return
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		err = fmt.Errorf("invalid relay URL %q: scheme must be http or https", target)
		return
	}
	if parsed.Host == "" {
		err = fmt.Errorf("invalid relay URL %q: missing host", target)
		return
	}

	new = &Client{
		Namespace: append(append([]string(nil), namespace...), global.NSOut),
		target:    target,
		compress:  compress,
		http:      &http.Client{Timeout: global.DeliveryTimeout},
		Metrics:   &MetricStorage{},
	}
	return
}

func (client *Client) Target() string {
	return client.target
}

// Sends body as JSON. Any non-2xx response is an error carrying the response text.
func (client *Client) Post(ctx context.Context, body any) (err error) {
	defer func() {
		if err != nil {
			client.Metrics.Failures.Add(1)
		}
	}()

	payload, err := json.Marshal(body)
	if err != nil {
		err = fmt.Errorf("failed encoding request body: %w", err)
		return
	}

	if client.compress {
		payload, err = gzipBytes(payload)
		if err != nil {
			return
		}
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, client.target, bytes.NewReader(payload))
	if err != nil {
		err = fmt.Errorf("failed creating request: %w", err)
		return
	}
	request.Header.Set("Content-Type", "application/json")
	if client.compress {
		request.Header.Set("Content-Encoding", "gzip")
	}

	response, err := client.http.Do(request)
	if err != nil {
		err = fmt.Errorf("failed posting to %s: %w", client.target, err)
		return
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(response.Body, int64(maxErrorBody)))
		err = fmt.Errorf("%s responded %d: %s", client.target, response.StatusCode, bytes.TrimSpace(text))
		return
	}
	_, _ = io.Copy(io.Discard, response.Body)

	client.Metrics.Requests.Add(1)
	client.Metrics.Bytes.Add(uint64(len(payload)))
	return
}

func gzipBytes(data []byte) (compressed []byte, err error) {
	var buffer bytes.Buffer
	writer := gzip.NewWriter(&buffer)
	if _, err = writer.Write(data); err != nil {
		err = fmt.Errorf("failed compressing request body: %w", err)
		return
	}
	if err = writer.Close(); err != nil {
		err = fmt.Errorf("failed compressing request body: %w", err)
		return
	}
	compressed = buffer.Bytes()
	return
}

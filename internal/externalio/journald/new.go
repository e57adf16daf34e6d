// Output to a systemd-journal-remote endpoint in journal export format
package journald

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Creates new journald output module. Tests connection. Returns nil nil if no url.
func NewOutput(endpoint string) (module *OutModule, err error) {
	if endpoint == "" {
		return
	}

	new := &OutModule{}

	transport := &http.Transport{
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: -1, // Not supported by journal remote server
	}

	baseURL, err := url.Parse(endpoint)
	if err != nil {
		err = fmt.Errorf("invalid journald URL: %v", err)
		return
	}
	if baseURL.Scheme != "http" && baseURL.Scheme != "https" {
		err = fmt.Errorf("invalid journald URL scheme %q", baseURL.Scheme)
		return
	}
	messagePublishPath := &url.URL{Path: "upload"} // Only path accepted by the remote server
	new.url = baseURL.ResolveReference(messagePublishPath).String()

	new.sink = &http.Client{
		Transport: transport,
	}

	testCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(testCtx, http.MethodPost, new.url, bytes.NewReader(nil))
	if err != nil {
		err = fmt.Errorf("failed to create test HTTP connection to journald: %v", err)
		return
	}
	req.Header.Set("Content-Type", exportContentType)

	resp, err := new.sink.Do(req)
	if err != nil {
		err = fmt.Errorf("failed to test HTTP connection to journald: %v", err)
		return
	}
	resp.Body.Close()

	module = new
	return
}

func (mod *OutModule) Name() string {
	return "journald"
}

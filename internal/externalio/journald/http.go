package journald

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

const (
	exportContentType string = "application/vnd.fdo.journal"
	maxErrorBody      int64  = 512
)

// Writes journal export format payload to the journal-remote HTTP endpoint
func sendJournalExport(ctx context.Context, client *http.Client, url string, payload []byte) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		err = fmt.Errorf("failed request creation: %v", err)
		return
	}

	req.Header.Set("Content-Type", exportContentType)
	req.Header.Del("Expect") // Unsupported by journal remote server

	resp, err := client.Do(req)
	if err != nil {
		err = fmt.Errorf("failed HTTP request: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err = fmt.Errorf("received HTTP status '%s'", resp.Status)

		// Include response body if present for additional error details
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if readErr == nil && len(body) > 0 {
			err = fmt.Errorf("%v: %s", err, bytes.TrimSpace(body))
		}
		return
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return
}

package output

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"segtransport/internal/externalio/relay"
	"segtransport/pkg/protocol"
	"testing"
)

func TestRelayForwarderBody(t *testing.T) {
	var form protocol.SegmentForm
	var raw map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body json.RawMessage
		json.NewDecoder(r.Body).Decode(&body)
		json.Unmarshal(body, &form)
		json.Unmarshal(body, &raw)
	}))
	defer server.Close()

	client, err := relay.New(nil, server.URL, false)
	if err != nil {
		t.Fatalf("client: %v", err)
	}

	segment := protocol.Segment{Payload: []byte{1, 2}, SegCount: 3, SegNum: 1, Sender: "s1", SendTime: "1700000000000"}
	if err := NewRelayForwarder(client).Publish(context.Background(), segment); err != nil {
		t.Fatalf("publish: %v", err)
	}

	got, err := form.Segment()
	if err != nil {
		t.Fatalf("relayed form invalid: %v", err)
	}
	if got.SegNum != 1 || got.SegCount != 3 || got.Sender != "s1" || string(got.Payload) != "\x01\x02" {
		t.Errorf("relayed %+v", got)
	}
	// Legacy receivers expect an integer array
	if _, isArray := raw["payload"].([]any); !isArray {
		t.Errorf("payload not sent as integer array: %T", raw["payload"])
	}
}

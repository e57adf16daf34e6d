// Forwarding of segments to the produce service over HTTP
package output

import (
	"context"
	"segtransport/internal/externalio/relay"
	"segtransport/pkg/protocol"
)

// Posts each segment as a relay body to the produce service
type RelayForwarder struct {
	client *relay.Client
}

func NewRelayForwarder(client *relay.Client) (new *RelayForwarder) {
	new = &RelayForwarder{client: client}
	return
}

func (forwarder *RelayForwarder) Publish(ctx context.Context, segment protocol.Segment) (err error) {
	err = forwarder.client.Post(ctx, protocol.NewSegmentForm(segment))
	return
}

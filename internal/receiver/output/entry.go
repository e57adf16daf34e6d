// Delivers reassembled messages to the receiving service and optional sinks
package output

import (
	"context"
	"runtime/debug"
	"segtransport/internal/atomics"
	"segtransport/internal/global"
	"segtransport/internal/logctx"
	"segtransport/internal/queue/mpmc"
	"segtransport/pkg/protocol"
	"sync/atomic"
)

// Creates new worker instance. pending is decremented once per finished message.
func New(namespace []string, inQueue *mpmc.Queue[protocol.Message], relay Deliverer, sinks []Sink, encoding string, pending *atomic.Uint64) (new *Instance) {
	if encoding == "" {
		encoding = global.DefaultPayloadEncoding
	}
	new = &Instance{
		Namespace: append(append([]string(nil), namespace...), global.NSWorker),
		Inbox:     inQueue,
		relay:     relay,
		sinks:     sinks,
		encoding:  encoding,
		pending:   pending,
		Metrics:   &MetricStorage{},
	}
	return
}

// Take reassembled messages and deliver them until ctx is cancelled
func (instance *Instance) Run(ctx context.Context) {
	for {
		msg, ok := instance.Inbox.Pop(ctx)
		if !ok {
			if ctx.Err() != nil {
				return
			}
			continue
		}
		instance.deliver(ctx, msg)
	}
}

// Delivery failures are logged and counted, never retried
func (instance *Instance) deliver(ctx context.Context, msg protocol.Message) {
	defer func() {
		// Record panics and continue output
		if fatalError := recover(); fatalError != nil {
			stack := debug.Stack()
			logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
				"panic in output worker thread: %v\n%s", fatalError, stack)
		}
		if instance.pending != nil {
			atomics.Subtract(instance.pending, 1, 4)
		}
	}()

	instance.Metrics.Received.Add(1)

	form, err := protocol.NewDeliveryForm(msg, instance.encoding)
	if err != nil {
		// Undecodable text is reported downstream as a failed group
		instance.Metrics.DecodeErrors.Add(1)
		logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
			"Payload of %s@%s is not valid %s, delivering as failure: %v\n",
			msg.Sender, msg.SendTime, instance.encoding, err)
		form = protocol.DeliveryForm{HasError: true, Sender: msg.Sender, SendTime: msg.SendTime}
	}
	if form.HasError {
		instance.Metrics.FailureMarkers.Add(1)
	}

	if instance.relay != nil {
		err = instance.relay.Post(ctx, form)
		if err != nil {
			instance.Metrics.FailedDelivery.Add(1)
			logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
				"Failed delivering message %s@%s: %v\n", msg.Sender, msg.SendTime, err)
		} else {
			instance.Metrics.Delivered.Add(1)
			logctx.LogEvent(ctx, global.VerbosityData, global.InfoLog,
				"Delivered message %s@%s (error=%t, %d bytes)\n", msg.Sender, msg.SendTime, form.HasError, len(msg.Payload))
		}
	}

	for _, sink := range instance.sinks {
		n, err := sink.Write(ctx, msg, form.Payload)
		if err != nil {
			instance.Metrics.SinkErrors.Add(1)
			logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
				"Failed to write message to %s output: %v\n", sink.Name(), err)
		}
		instance.Metrics.SinkWrites.Add(uint64(n))
	}
}

// Daemon consuming segments from the broker, reassembling them and delivering the results
package receiver

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"segtransport/internal/atomics"
	"segtransport/internal/externalio/beats"
	"segtransport/internal/externalio/file"
	"segtransport/internal/externalio/journald"
	"segtransport/internal/externalio/kafka"
	"segtransport/internal/externalio/relay"
	"segtransport/internal/externalio/server"
	"segtransport/internal/global"
	"segtransport/internal/logctx"
	metricGlb "segtransport/internal/metrics"
	"segtransport/internal/queue/mpmc"
	"segtransport/internal/receiver/assembler"
	"segtransport/internal/receiver/listener"
	"segtransport/internal/receiver/output"
	"segtransport/internal/receiver/shard"
	"segtransport/pkg/protocol"
	"time"
)

// Create new receiver daemon instance
func NewDaemon(cfg Config) (new *Daemon) {
	ctx, cancel := context.WithCancel(context.Background())
	new = &Daemon{
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
	}
	return
}

// Starts pipeline worker threads in background - gracefully shuts down if startup error is encountered
func (daemon *Daemon) Start(globalCtx context.Context) (err error) {
	// New context for the daemon
	daemon.ctx, daemon.cancel = context.WithCancel(context.Background())
	daemon.ctx = logctx.WithLogger(daemon.ctx, logctx.GetLogger(globalCtx))

	// Top level tag for daemon logs
	daemon.ctx = logctx.AppendCtxTag(daemon.ctx, global.NSConsume)

	logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.InfoLog, "Starting...\n")

	daemon.cfg.setDefaults()

	global.Hostname, err = os.Hostname()
	if err != nil {
		err = fmt.Errorf("failed to determine local hostname: %w", err)
		return
	}
	global.PID = os.Getpid()

	namespace := []string{global.NSConsume}

	// Stage 4 - Outputs
	if daemon.cfg.ReceiveURL != "" {
		daemon.relay, err = relay.New(namespace, daemon.cfg.ReceiveURL, daemon.cfg.CompressBodies)
		if err != nil {
			err = fmt.Errorf("failed creating delivery client: %w", err)
			return
		}
	}
	daemon.beatsMod, err = beats.NewOutput(daemon.cfg.BeatsEndpoint)
	if err != nil {
		err = fmt.Errorf("failed starting beats output: %w", err)
		daemon.Shutdown()
		return
	}
	daemon.jrnlMod, err = journald.NewOutput(daemon.cfg.JournaldURL)
	if err != nil {
		err = fmt.Errorf("failed starting journald output: %w", err)
		daemon.Shutdown()
		return
	}
	daemon.fileMod, err = file.NewOutput(daemon.cfg.FilePath)
	if err != nil {
		err = fmt.Errorf("failed starting file output: %w", err)
		daemon.Shutdown()
		return
	}

	daemon.queue, err = mpmc.New[protocol.Message](append(namespace, global.NSOut),
		uint64(daemon.cfg.MinOutputQueueSize),
		daemon.cfg.MinOutputQueueSize,
		daemon.cfg.MaxOutputQueueSize)
	if err != nil {
		err = fmt.Errorf("failed creating output queue: %w", err)
		daemon.Shutdown()
		return
	}

	// Typed nils would defeat the worker's nil checks
	var deliverer output.Deliverer
	if daemon.relay != nil {
		deliverer = daemon.relay
	}
	var sinks []output.Sink
	if daemon.beatsMod != nil {
		sinks = append(sinks, daemon.beatsMod)
	}
	if daemon.jrnlMod != nil {
		sinks = append(sinks, daemon.jrnlMod)
	}
	if daemon.fileMod != nil {
		sinks = append(sinks, daemon.fileMod)
	}
	for i := 0; i < daemon.cfg.OutputWorkers; i++ {
		instance := output.New(append(namespace, global.NSOut), daemon.queue, deliverer,
			sinks, daemon.cfg.PayloadEncoding, &daemon.pending)
		daemon.outputs = append(daemon.outputs, instance)

		workerCtx := logctx.AppendCtxTag(daemon.ctx, global.NSOut)
		daemon.wg.Add(1)
		go func() {
			defer daemon.wg.Done()
			instance.Run(workerCtx)
		}()
	}

	// Stage 3 - Cache + Engine
	daemon.cache = shard.New(namespace, daemon.cfg.MaxRetry, daemon.cfg.CacheMemoryPct)
	daemon.engine = assembler.New(namespace, daemon.cache, daemon.cfg.Retention)

	// Stage 2 - Broker
	daemon.consumer, err = kafka.NewConsumer(namespace, daemon.cfg.Brokers, daemon.cfg.Topic, daemon.cfg.GroupID)
	if err != nil {
		err = fmt.Errorf("failed creating broker consumer: %w", err)
		daemon.Shutdown()
		return
	}

	// Stage 1 - Collector
	daemon.collector = listener.New(namespace, daemon.consumer, daemon.runPass,
		daemon.cfg.CollectionWindow,
		daemon.cfg.PollTimeout,
		daemon.cfg.MaxInflightPasses)

	daemon.collectCtx, daemon.collectCancel = context.WithCancel(daemon.ctx)
	daemon.collectCtx = logctx.AppendCtxTag(daemon.collectCtx, global.NSListen)
	daemon.collectDone = make(chan struct{})
	go func() {
		defer close(daemon.collectDone)
		daemon.collector.Run(daemon.collectCtx)
	}()

	// Metrics Collector
	daemon.metricsCollector = metricGlb.NewGatherer(daemon.metricSources,
		daemon.cfg.MetricCollectionInterval,
		daemon.cfg.MetricMaxAge)
	workerCtx := daemon.ctx
	daemon.wg.Add(1)
	go func() {
		defer daemon.wg.Done()
		daemon.metricsCollector.Run(workerCtx)
	}()
	daemon.MetricDataSearcher = daemon.metricsCollector.Registry.Search
	daemon.MetricDiscoverer = daemon.metricsCollector.Registry.Discover

	// Output queue autoscaler
	if daemon.cfg.AutoscaleEnabled {
		scaleCtx := logctx.AppendCtxTag(daemon.ctx, global.NSQueue)
		daemon.wg.Add(1)
		go func() {
			defer daemon.wg.Done()
			daemon.scaleQueue(scaleCtx)
		}()
	}

	// Metric Server
	if daemon.cfg.MetricQueryServerEnabled {
		serverCtx := logctx.AppendCtxTag(daemon.ctx, global.NSMetric)
		serverCtx = logctx.AppendCtxTag(serverCtx, global.NSMetricSrv)

		daemon.MetricServer = server.SetupListener(serverCtx,
			daemon.cfg.MetricQueryServerPort,
			daemon.MetricDataSearcher,
			daemon.MetricDiscoverer)
		daemon.wg.Add(1)
		go func() {
			defer daemon.wg.Done()
			server.Start(serverCtx, daemon.MetricServer)
		}()
	}

	logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.InfoLog,
		"Startup complete: consuming %s from %v as %s, delivering to %s\n",
		daemon.cfg.Topic, daemon.cfg.Brokers, daemon.cfg.GroupID, daemon.cfg.ReceiveURL)
	return
}

// One reassembly pass. Results are queued for the output workers.
func (daemon *Daemon) runPass(ctx context.Context, batch []protocol.Segment) {
	messages, _ := daemon.engine.Process(ctx, batch)

	for _, msg := range messages {
		daemon.pending.Add(1)
		// Daemon context outlives collection so shutdown can still queue results
		if !daemon.queue.PushBlocking(daemon.ctx, msg, msg.Size()) {
			atomics.Subtract(&daemon.pending, 1, 4)
			logctx.LogEvent(ctx, global.VerbosityStandard, global.WarnLog,
				"Dropped message %s@%s, output queue closed\n", msg.Sender, msg.SendTime)
		}
	}
}

// Periodically resizes the output queue
func (daemon *Daemon) scaleQueue(ctx context.Context) {
	ticker := time.NewTicker(daemon.cfg.AutoscaleCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			daemon.queue.ScaleCapacity(ctx)
		}
	}
}

// Everything reporting metrics, read on each gather
func (daemon *Daemon) metricSources() (collectors []metricGlb.Collector) {
	if daemon.collector != nil {
		collectors = append(collectors, daemon.collector)
	}
	if daemon.consumer != nil {
		collectors = append(collectors, daemon.consumer)
	}
	if daemon.engine != nil {
		collectors = append(collectors, daemon.engine)
	}
	if daemon.cache != nil {
		collectors = append(collectors, daemon.cache)
	}
	if daemon.queue != nil {
		collectors = append(collectors, daemon.queue)
	}
	if daemon.relay != nil {
		collectors = append(collectors, daemon.relay)
	}
	for _, instance := range daemon.outputs {
		collectors = append(collectors, instance)
	}
	return
}

// Gracefully shutdown pipeline worker threads (errors are printed to program log buffer)
func (daemon *Daemon) Shutdown() {
	logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.InfoLog,
		"Daemon shutdown started...\n")

	// Stop metric server
	if daemon.MetricServer != nil {
		err := daemon.MetricServer.Shutdown(daemon.ctx)
		if err != nil && err != http.ErrServerClosed {
			logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.WarnLog,
				"metric HTTP server did not shutdown gracefully: %v\n", err)
		}
	}

	// Stop collecting, the partial batch is still dispatched
	if daemon.collectCancel != nil {
		daemon.collectCancel()
		<-daemon.collectDone
	}
	if daemon.collector != nil {
		if !daemon.collector.Wait(global.DrainTimeout) {
			logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.WarnLog,
				"reassembly passes did not finish within %v\n", global.DrainTimeout)
		}
	}

	// Let outputs deliver what the passes produced
	if daemon.queue != nil && len(daemon.outputs) > 0 {
		success, last := atomics.WaitUntilZero(&daemon.pending, global.DrainTimeout)
		if !success {
			logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.WarnLog,
				"output queue did not empty in time: dropped %d messages\n", last)
		}
	}

	if daemon.cache != nil && daemon.cache.Len() > 0 {
		logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.WarnLog,
			"discarding %d incomplete groups\n", daemon.cache.Len())
	}

	// Stop the run loop after instances are drained and stopped
	daemon.cancel()

	// Wait for all workers to finish (with timeout)
	done := make(chan struct{})
	go func() {
		daemon.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(global.ReceiveShutdownTimeout):
		logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.WarnLog,
			"Timeout: consume daemon workers did not stop within %v seconds\n",
			global.ReceiveShutdownTimeout.Seconds())
	}

	if daemon.consumer != nil {
		if err := daemon.consumer.Close(); err != nil {
			logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.WarnLog,
				"failed closing broker consumer: %v\n", err)
		}
	}
	if err := daemon.beatsMod.Shutdown(); err != nil {
		logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.WarnLog,
			"failed closing beats output: %v\n", err)
	}
	if err := daemon.fileMod.Close(); err != nil {
		logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.WarnLog,
			"failed closing file output: %v\n", err)
	}

	logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.InfoLog,
		"Daemon shutdown completed\n")
}

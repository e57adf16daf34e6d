// Daemon accepting payloads over HTTP and handing their segments to the broker or produce service
package sender

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"segtransport/internal/externalio/ingest"
	"segtransport/internal/externalio/kafka"
	"segtransport/internal/externalio/relay"
	"segtransport/internal/externalio/server"
	"segtransport/internal/global"
	"segtransport/internal/logctx"
	metricGlb "segtransport/internal/metrics"
	"segtransport/internal/sender/assembler"
	"segtransport/internal/sender/output"
	"time"
)

// Create new sending daemon instance
func NewDaemon(cfg Config) (new *Daemon) {
	ctx, cancel := context.WithCancel(context.Background())
	new = &Daemon{
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
	}
	return
}

// Starts the service listener in background - gracefully shuts down if startup error is encountered
func (daemon *Daemon) Start(globalCtx context.Context) (err error) {
	// New context for the daemon
	daemon.ctx, daemon.cancel = context.WithCancel(context.Background())
	daemon.ctx = logctx.WithLogger(daemon.ctx, logctx.GetLogger(globalCtx))

	daemon.cfg.setDefaults()

	nsTop := global.NSSplit
	if daemon.cfg.Mode == ModeProduce {
		nsTop = global.NSProduce
	}
	namespace := []string{nsTop}
	daemon.ctx = logctx.AppendCtxTag(daemon.ctx, nsTop)

	logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.InfoLog, "Starting...\n")

	global.Hostname, err = os.Hostname()
	if err != nil {
		err = fmt.Errorf("failed to determine local hostname: %w", err)
		return
	}
	global.PID = os.Getpid()

	// Stage 2 - Next hop
	var forwarder assembler.Forwarder
	if daemon.cfg.publishesDirect() {
		daemon.producer, err = kafka.NewProducer(namespace, daemon.cfg.Brokers, daemon.cfg.Topic)
		if err != nil {
			err = fmt.Errorf("failed creating broker producer: %w", err)
			return
		}
		forwarder = daemon.producer
	} else {
		daemon.relay, err = relay.New(namespace, daemon.cfg.CodeServiceURL, daemon.cfg.CompressBodies)
		if err != nil {
			err = fmt.Errorf("failed creating produce service client: %w", err)
			return
		}
		forwarder = output.NewRelayForwarder(daemon.relay)
	}

	// Stage 1 - HTTP ingest
	daemon.ingest = ingest.New(daemon.ctx, namespace)
	switch daemon.cfg.Mode {
	case ModeSplit:
		daemon.segmenter = assembler.New(namespace, forwarder, daemon.cfg.ChunkByteSize)
		daemon.ingest.OnSend(daemon.segmenter.Send)
	case ModeProduce:
		daemon.ingest.OnTransfer(forwarder.Publish)
	}

	daemon.HTTPServer = daemon.ingest.Listener(daemon.cfg.ListenAddr)
	daemon.wg.Add(1)
	go func() {
		defer daemon.wg.Done()
		daemon.ingest.Start(daemon.HTTPServer)
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

	next := daemon.cfg.CodeServiceURL
	if daemon.producer != nil {
		next = "topic " + daemon.cfg.Topic
	}
	logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.InfoLog,
		"Startup complete: %s service on %s forwarding to %s\n", daemon.cfg.Mode, daemon.cfg.ListenAddr, next)
	return
}

func (daemon *Daemon) metricSources() (collectors []metricGlb.Collector) {
	if daemon.ingest != nil {
		collectors = append(collectors, daemon.ingest)
	}
	if daemon.segmenter != nil {
		collectors = append(collectors, daemon.segmenter)
	}
	if daemon.relay != nil {
		collectors = append(collectors, daemon.relay)
	}
	if daemon.producer != nil {
		collectors = append(collectors, daemon.producer)
	}
	return
}

// Stops accepting requests, lets in-flight ones finish, then closes the broker writer
func (daemon *Daemon) Shutdown() {
	logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.InfoLog,
		"Daemon shutdown started...\n")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), global.SendShutdownTimeout)
	defer cancel()

	for _, httpServer := range []*http.Server{daemon.HTTPServer, daemon.MetricServer} {
		if httpServer == nil {
			continue
		}
		err := httpServer.Shutdown(shutdownCtx)
		if err != nil && err != http.ErrServerClosed {
			logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.WarnLog,
				"HTTP server on %s did not shutdown gracefully: %v\n", httpServer.Addr, err)
		}
	}

	if daemon.producer != nil {
		if err := daemon.producer.Close(); err != nil {
			logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.WarnLog,
				"failed flushing broker producer: %v\n", err)
		}
	}

	daemon.cancel()

	done := make(chan struct{})
	go func() {
		daemon.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.InfoLog,
			"Daemon shutdown completed successfully\n")
	case <-time.After(global.SendShutdownTimeout):
		logctx.LogEvent(daemon.ctx, global.VerbosityStandard, global.WarnLog,
			"Timeout: send daemon did not shutdown within %v seconds\n",
			global.SendShutdownTimeout.Seconds())
	}
}

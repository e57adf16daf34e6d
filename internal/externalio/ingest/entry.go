// HTTP entry points of the split and produce services
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"segtransport/internal/global"
	"segtransport/internal/logctx"
	"segtransport/pkg/protocol"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/gzip"
)

// Largest accepted request body
const maxBodyBytes int64 = 64 << 20

// Router with the health endpoint. Services register their POST routes on it.
func New(ctx context.Context, namespace []string) (new *Server) {
	new = &Server{
		Namespace: append(append([]string(nil), namespace...), global.NSIngest),
		router:    chi.NewRouter(),
		Metrics:   &MetricStorage{},
	}
	new.ctx = logctx.AppendCtxTag(ctx, global.NSIngest)

	new.router.Use(middleware.Recoverer)
	new.router.Get(global.HealthPath, func(serverResponder http.ResponseWriter, clientRequest *http.Request) {
		textResp(serverResponder, http.StatusOK, "ok")
	})
	return
}

// Registers POST /send
func (server *Server) OnSend(send SendFunc) {
	server.router.Post(global.SendPath, func(serverResponder http.ResponseWriter, clientRequest *http.Request) {
		var request protocol.SplitRequest
		if !server.decode(serverResponder, clientRequest, &request) {
			return
		}

		msg := request.Outbound()
		err := send(clientRequest.Context(), msg)
		if err != nil {
			server.fail(serverResponder, "Failed segmenting message from %s: %v", msg.Sender, err)
			return
		}

		server.Metrics.Accepted.Add(1)
		textResp(serverResponder, http.StatusOK, "ok")
	})
}

// Registers POST /transfer
func (server *Server) OnTransfer(transfer TransferFunc) {
	server.router.Post(global.TransferPath, func(serverResponder http.ResponseWriter, clientRequest *http.Request) {
		var form protocol.SegmentForm
		if !server.decode(serverResponder, clientRequest, &form) {
			return
		}

		segment, err := form.Segment()
		if err != nil {
			server.Metrics.Malformed.Add(1)
			server.fail(serverResponder, "Rejected segment: %v", err)
			return
		}

		err = transfer(clientRequest.Context(), segment)
		if err != nil {
			server.fail(serverResponder, "Failed publishing segment %d/%d of %s: %v",
				segment.SegNum, segment.SegCount, segment.Key(), err)
			return
		}

		server.Metrics.Accepted.Add(1)
		textResp(serverResponder, http.StatusOK, "ok")
	})
}

func (server *Server) Handler() http.Handler {
	return server.router
}

// HTTP server for listenAddr with the service routes
func (server *Server) Listener(listenAddr string) (httpServer *http.Server) {
	httpServer = &http.Server{
		Addr:         listenAddr,
		Handler:      server.router,
		ReadTimeout:  global.HTTPReadTimeout,
		WriteTimeout: global.HTTPWriteTimeout,
		IdleTimeout:  global.HTTPIdleTimeout,
		ErrorLog:     log.New(httpLogWriter{ctx: server.ctx}, "", 0),
	}
	return
}

// Serves until the server is shut down
func (server *Server) Start(httpServer *http.Server) {
	logctx.LogEvent(server.ctx, global.VerbosityStandard, global.InfoLog,
		"Service listening on %s\n", httpServer.Addr)

	err := httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		logctx.LogEvent(server.ctx, global.VerbosityStandard, global.ErrorLog,
			"Service listener failed: %v\n", err)
	}
}

// Reads a JSON body (optionally gzip encoded). Writes the error response itself.
func (server *Server) decode(serverResponder http.ResponseWriter, clientRequest *http.Request, target any) (ok bool) {
	var body io.Reader = http.MaxBytesReader(serverResponder, clientRequest.Body, maxBodyBytes)

	if strings.EqualFold(clientRequest.Header.Get("Content-Encoding"), "gzip") {
		reader, err := gzip.NewReader(body)
		if err != nil {
			server.Metrics.Malformed.Add(1)
			server.fail(serverResponder, "Invalid gzip body: %v", err)
			return
		}
		defer reader.Close()
		body = io.LimitReader(reader, maxBodyBytes)
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		server.Metrics.Malformed.Add(1)
		server.fail(serverResponder, "Failed reading body: %v", err)
		return
	}
	server.Metrics.Bytes.Add(uint64(len(raw)))

	err = json.Unmarshal(raw, target)
	if err != nil {
		server.Metrics.Malformed.Add(1)
		server.fail(serverResponder, "Invalid request body: %v", err)
		return
	}

	ok = true
	return
}

// Logs and answers 500 with a readable body
func (server *Server) fail(serverResponder http.ResponseWriter, format string, vars ...any) {
	server.Metrics.Failed.Add(1)
	text := fmt.Sprintf(format, vars...)
	logctx.LogEvent(server.ctx, global.VerbosityStandard, global.ErrorLog, "%s\n", text)
	textResp(serverResponder, http.StatusInternalServerError, text)
}

func textResp(serverResponder http.ResponseWriter, status int, text string) {
	serverResponder.Header().Set("Content-Type", "text/plain; charset=utf-8")
	serverResponder.WriteHeader(status)
	serverResponder.Write([]byte(text + "\n"))
}

func (logWriter httpLogWriter) Write(p []byte) (n int, err error) {
	n = len(p)
	if n == 0 {
		return
	}
	logctx.LogEvent(logWriter.ctx, global.VerbosityStandard, global.ErrorLog,
		"%s\n", strings.TrimSpace(string(p)))
	return
}

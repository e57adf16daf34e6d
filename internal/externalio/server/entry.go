// HTTP server exposing discovery and querying of metric data to programs on the local system
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"segtransport/internal/global"
	"segtransport/internal/logctx"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const helpText = `Metric query server

GET %[1]s<namespace...>?name=&description=&unit=&type=counter|gauge|summary
    Lists available metrics (no values).

GET %[2]s<namespace...>?name=&starttime=&endtime=
    Returns metric values. starttime accepts RFC3339 or a relative
    duration such as -5m (default -1m). endtime accepts RFC3339 or now.

Example: curl http://%[3]s%[2]sConsume/Cache?name=groups
`

// Sets up HTTP listener configuration for metric querying
func SetupListener(ctx context.Context, port int, search DataSearcher, discover Discoverer) (server *http.Server) {
	listenAddr := global.HTTPListenAddr + ":" + strconv.Itoa(port)
	help := fmt.Sprintf(helpText, global.DiscoveryPath, global.DataPath, listenAddr)

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)

	router.Get("/", func(serverResponder http.ResponseWriter, clientRequest *http.Request) {
		serverResponder.Header().Set("Content-Type", "text/plain; charset=utf-8")
		serverResponder.WriteHeader(http.StatusOK)
		serverResponder.Write([]byte(help))
	})
	router.Get(global.DiscoveryPath+"*", func(serverResponder http.ResponseWriter, clientRequest *http.Request) {
		handleDiscovery(ctx, discover, serverResponder, clientRequest)
	})
	router.Get(global.DataPath+"*", func(serverResponder http.ResponseWriter, clientRequest *http.Request) {
		handleData(ctx, search, serverResponder, clientRequest)
	})

	server = &http.Server{
		Addr:         listenAddr,
		Handler:      router,
		ReadTimeout:  global.HTTPReadTimeout,
		WriteTimeout: global.HTTPWriteTimeout,
		IdleTimeout:  global.HTTPIdleTimeout,
		ErrorLog:     log.New(httpLogWriter{ctx: ctx}, "", 0),
	}
	return
}

// Starts the metric HTTP server and waits for requests
func Start(ctx context.Context, server *http.Server) {
	logctx.LogEvent(ctx, global.VerbosityStandard, global.InfoLog,
		"Metric query server starting on %s (http://%s/)\n", server.Addr, server.Addr)

	err := server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog,
			"Metric query server failed to start: %v\n", err)
	}
}

// Splits the wildcard remainder of the path into namespace parts
func pathNamespace(clientRequest *http.Request) (namespace []string) {
	raw := strings.Trim(chi.URLParam(clientRequest, "*"), "/")
	if raw == "" {
		return
	}
	namespace = strings.Split(raw, "/")
	return
}

// Encodes JSON and sends as response body
func jResp(ctx context.Context, serverResponder http.ResponseWriter, content any) {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(content); err != nil {
		serverResponder.WriteHeader(http.StatusInternalServerError)
		logctx.LogEvent(ctx, global.VerbosityStandard, global.ErrorLog, "Failed marshaling metric results: %v\n", err)
		return
	}
	serverResponder.Header().Set("Content-Type", "application/json")
	serverResponder.WriteHeader(http.StatusOK)
	serverResponder.Write(buf.Bytes())
}

// Logs HTTP server errors to internal program buffer (via context logger)
func (logWriter httpLogWriter) Write(p []byte) (n int, err error) {
	n = len(p)
	if n == 0 {
		return
	}
	logctx.LogEvent(logWriter.ctx, global.VerbosityStandard, global.ErrorLog,
		"%s\n", strings.TrimSpace(string(p)))
	return
}

package main

import (
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownServerDrainsInFlightRequests(t *testing.T) {
	var served atomic.Bool
	srv := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			time.Sleep(100 * time.Millisecond)
			served.Store(true)
			w.WriteHeader(http.StatusOK)
		}),
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ln) }()

	reqDone := make(chan error, 1)
	go func() {
		resp, err := http.Get("http://" + ln.Addr().String() + "/")
		if err == nil {
			resp.Body.Close()
		}
		reqDone <- err
	}()

	// Give the request time to reach the handler before shutting down.
	time.Sleep(20 * time.Millisecond)
	shutdownServer(srv)

	assert.ErrorIs(t, <-serveErr, http.ErrServerClosed)
	require.NoError(t, <-reqDone)
	assert.True(t, served.Load(), "in-flight request dropped during shutdown")
}

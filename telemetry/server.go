package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"

	"railsim/config"
	"railsim/core"
)

// Server samples a *core.Fab on a fixed cadence and exposes the result both
// as a plain JSON GET and as a throttled websocket push stream. Routing
// uses gorilla/mux to distinguish the read endpoint from the push endpoint
// under one router.
type Server struct {
	addr    string
	fab     *core.Fab
	updates chan Snapshot
	logger  config.Logger
}

// NewServer returns a Server sampling fab, listening on addr.
func NewServer(addr string, fab *core.Fab, logger config.Logger) *Server {
	if logger == nil {
		logger = config.NopLogger
	}
	return &Server{
		addr:    addr,
		fab:     fab,
		updates: make(chan Snapshot, 1),
		logger:  logger,
	}
}

// Run starts the sampling loop and the HTTP server, blocking until ctx is
// canceled or the listener fails.
func (s *Server) Run(ctx context.Context, sampleInterval time.Duration) error {
	group, groupCtx := errgroup.WithContext(ctx)

	router := mux.NewRouter()
	router.HandleFunc("/snapshot", s.serveSnapshot).Methods(http.MethodGet)
	router.HandleFunc("/ws", s.serveWebsocket)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	httpSrv := &http.Server{Addr: s.addr, Handler: router}

	group.Go(func() error {
		return s.sampleLoop(groupCtx, sampleInterval)
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), closeGracePeriod)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})
	group.Go(func() error {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("telemetry: serve: %w", err)
		}
		return nil
	})

	return group.Wait()
}

// sampleLoop samples the Fab every interval and pushes the latest snapshot
// into s.updates, dropping a stale unread sample rather than blocking —
// every sample is a fully idempotent state, so only the freshest matters.
func (s *Server) sampleLoop(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = minPublishGap
	}
	ticker := channerics.NewTicker(ctx.Done(), interval)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker:
			snap := BuildSnapshot(s.fab)
			select {
			case s.updates <- snap:
			default:
				select {
				case <-s.updates:
				default:
				}
				s.updates <- snap
			}
		}
	}
}

func (s *Server) serveSnapshot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(BuildSnapshot(s.fab)); err != nil {
		s.logger.Warnf("telemetry: encode snapshot: %v", err)
	}
}

func (s *Server) serveWebsocket(w http.ResponseWriter, r *http.Request) {
	cli, err := newSnapshotClient(s.updates, w, r)
	if err != nil {
		s.logger.Warnf("telemetry: upgrade: %v", err)
		return
	}
	defer cli.close()
	if err := cli.serve(r.Context()); err != nil && !isClosure(err) {
		s.logger.Warnf("telemetry: client: %v", err)
	}
}

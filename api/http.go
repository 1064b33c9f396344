package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"runtime/pprof"
	"time"

	"github.com/projecteru2/logview/common"
	"github.com/projecteru2/logview/manager/logview"
	"github.com/projecteru2/logview/metrics"
	"github.com/projecteru2/logview/types"
	"github.com/projecteru2/logview/version"
	"github.com/projecteru2/logview/view"

	"github.com/bmizerany/pat"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 5 * time.Second

// Handler define handler
type Handler struct {
	config   *types.Config
	manager  *logview.Manager
	sessions *view.Registry
	metrics  *metrics.Client
}

// NewHandler new api http handler
func NewHandler(config *types.Config, manager *logview.Manager, sessions *view.Registry, metricsClient *metrics.Client) *Handler {
	return &Handler{
		config:   config,
		manager:  manager,
		sessions: sessions,
		metrics:  metricsClient,
	}
}

// URL /version/
func (h *Handler) version(req *Request) (int, interface{}) {
	return http.StatusOK, JSON{
		"name":     version.NAME,
		"version":  version.VERSION,
		"revision": version.REVISION,
		"built":    version.BUILTAT,
	}
}

// URL /profile/
func (h *Handler) profile(req *Request) (int, interface{}) {
	r := JSON{}
	for _, p := range pprof.Profiles() {
		r[p.Name()] = p.Count()
	}
	return http.StatusOK, r
}

// URL GET /log/?lines=N
func (h *Handler) tailLog(req *Request) (int, string) {
	return http.StatusOK, h.manager.Snapshot().Tail(req.Lines)
}

// URL POST /log/clear/
// the clear command outlives a dropped client, bounded by clear.timeout
func (h *Handler) clearLog(req *Request) (int, interface{}) {
	snapshot, err := h.manager.Clear(context.WithoutCancel(req.Context()))
	if err != nil {
		return http.StatusInternalServerError, JSON{"error": err.Error()}
	}
	return http.StatusOK, JSON{
		"content":    snapshot.Content(),
		"generation": snapshot.Generation,
	}
}

// URL POST /log/refresh/
func (h *Handler) refresh(req *Request) (int, interface{}) {
	refreshed := h.manager.Refresh(req.Context())
	snapshot := h.manager.Snapshot()
	return http.StatusOK, JSON{
		"refreshed":  refreshed,
		"content":    snapshot.Content(),
		"generation": snapshot.Generation,
	}
}

// URL GET /log/follow/
// streams one json snapshot per line, the current one first
func (h *Handler) follow(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	follower, err := h.manager.Follow(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	defer h.manager.Unfollow(follower)

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)

	encoder := json.NewEncoder(w)
	send := func(snapshot types.Snapshot) error {
		if err := encoder.Encode(JSON{
			"content":    snapshot.Content(),
			"generation": snapshot.Generation,
			"lines":      snapshot.Lines,
		}); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	if err := send(h.manager.Snapshot()); err != nil {
		return
	}
	for {
		select {
		case <-r.Context().Done():
			return
		case snapshot, ok := <-follower.C:
			if !ok {
				return
			}
			if err := send(snapshot); err != nil {
				log.Debugf("[follow] %s gone: %v", follower.ID, err)
				return
			}
		}
	}
}

// URL GET /log/status/
func (h *Handler) status(req *Request) (int, interface{}) {
	status := h.manager.Status()
	status.Sessions = h.sessions.Count()
	h.metrics.Sessions(status.Sessions)
	return http.StatusOK, status
}

// URL POST /session/
func (h *Handler) attach(req *Request) (int, interface{}) {
	ID, _ := h.sessions.Attach()
	h.metrics.Sessions(h.sessions.Count())
	return http.StatusCreated, JSON{"id": ID}
}

// URL GET /session/:id/?height=N
// height is the rendered content height, defaults to the number of lines
func (h *Handler) showSession(req *Request) (int, interface{}) {
	session, err := h.sessions.Get(req.ID())
	if err != nil {
		return http.StatusNotFound, JSON{"error": err.Error()}
	}
	snapshot := h.manager.Snapshot()
	height := req.Height
	if height < 0 {
		height = snapshot.Lines
	}
	offset := session.Place(height)
	_, follow := session.State()
	return http.StatusOK, JSON{
		"content":     snapshot.Content(),
		"generation":  snapshot.Generation,
		"offset":      offset,
		"auto_follow": follow,
	}
}

// URL PUT /session/:id/scroll/?offset=N
func (h *Handler) scroll(req *Request) (int, interface{}) {
	session, err := h.sessions.Get(req.ID())
	if err != nil {
		return http.StatusNotFound, JSON{"error": err.Error()}
	}
	session.Scroll(req.Offset)
	position, follow := session.State()
	return http.StatusOK, JSON{"offset": position, "auto_follow": follow}
}

// URL PUT /session/:id/reset/
func (h *Handler) reset(req *Request) (int, interface{}) {
	session, err := h.sessions.Get(req.ID())
	if err != nil {
		return http.StatusNotFound, JSON{"error": err.Error()}
	}
	session.Reset()
	return http.StatusOK, JSON{"auto_follow": true}
}

// URL DELETE /session/:id/
func (h *Handler) detach(req *Request) (int, interface{}) {
	if _, err := h.sessions.Get(req.ID()); errors.Is(err, common.ErrSessionNotFound) {
		return http.StatusNotFound, JSON{"error": err.Error()}
	}
	h.sessions.Detach(req.ID())
	h.metrics.Sessions(h.sessions.Count())
	return http.StatusOK, JSON{"id": req.ID()}
}

type route struct {
	method  string
	pattern string
	handler http.Handler
}

// Router builds the restful api, more specific patterns go first
// since a pattern ending with "/" matches every path under it
func (h *Handler) Router() http.Handler {
	restfulAPIServer := pat.New()
	routes := []route{
		{"GET", "/log/status/", JSONWrapper(h.status)},
		{"GET", "/log/follow/", http.HandlerFunc(h.follow)},
		{"GET", "/log/", TextWrapper(h.tailLog)},
		{"POST", "/log/clear/", JSONWrapper(h.clearLog)},
		{"POST", "/log/refresh/", JSONWrapper(h.refresh)},
		{"POST", "/session/", JSONWrapper(h.attach)},
		{"GET", "/session/:id/", JSONWrapper(h.showSession)},
		{"PUT", "/session/:id/scroll/", JSONWrapper(h.scroll)},
		{"PUT", "/session/:id/reset/", JSONWrapper(h.reset)},
		{"DELETE", "/session/:id/", JSONWrapper(h.detach)},
		{"GET", "/profile/", JSONWrapper(h.profile)},
		{"GET", "/version/", JSONWrapper(h.version)},
		{"GET", "/metrics", promhttp.Handler()},
	}
	for _, r := range routes {
		restfulAPIServer.Add(r.method, r.pattern, r.handler)
	}
	return restfulAPIServer
}

// Serve start serving http api until ctx is done
func (h *Handler) Serve(ctx context.Context) error {
	if h.config.API.Addr == "" {
		return nil
	}

	server := &http.Server{
		Addr:              h.config.API.Addr,
		Handler:           h.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Infof("[apiServe] http api started %s", h.config.API.Addr)
		errChan <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		log.Info("[apiServe] http api stopping")
		return server.Shutdown(shutdownCtx)
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		log.Errorf("[apiServe] http api failed %v", err)
		return err
	}
}

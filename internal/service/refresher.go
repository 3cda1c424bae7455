package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/Alkira-Consulting/skylight-web/internal/model"
)

// renderTimeout bounds one background cycle; a slow engine delays the next
// tick but never wedges the loop forever.
const renderTimeout = 30 * time.Second

type trackRequest struct {
	sessionID string
	input     model.RenderInput
}

// Refresher re-renders each tracked session's last input on a fixed
// interval and keeps the latest snapshot for cheap reads. Ticks for a
// session that is mid-cycle block on its cycle lock, so cycles never
// overlap; a backed-up tick is simply deferred.
type Refresher struct {
	dashboard DashboardService
	sessions  SessionService
	interval  time.Duration

	track chan trackRequest
	wg    sync.WaitGroup

	mu        sync.RWMutex
	inputs    map[string]model.RenderInput
	snapshots map[string]model.RenderResult
}

// NewRefresher starts the background loop.
func NewRefresher(dashboard DashboardService, sessions SessionService, interval time.Duration) *Refresher {
	r := &Refresher{
		dashboard: dashboard,
		sessions:  sessions,
		interval:  interval,
		track:     make(chan trackRequest, 64),
		inputs:    make(map[string]model.RenderInput),
		snapshots: make(map[string]model.RenderResult),
	}
	r.wg.Add(1)
	go r.startLoop()
	return r
}

// Track records the input to replay for a session on the next ticks.
func (r *Refresher) Track(sessionID string, in model.RenderInput) {
	r.track <- trackRequest{sessionID: sessionID, input: in}
}

// Snapshot returns the latest background render for a session, if any.
func (r *Refresher) Snapshot(sessionID string) (model.RenderResult, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.snapshots[sessionID]
	return res, ok
}

// Shutdown stops the loop and waits for an in-flight cycle to finish.
func (r *Refresher) Shutdown() {
	close(r.track)
	r.wg.Wait()
}

func (r *Refresher) startLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case req, ok := <-r.track:
			if !ok {
				return
			}
			r.mu.Lock()
			r.inputs[req.sessionID] = req.input
			r.mu.Unlock()

		case <-ticker.C:
			r.refreshAll()
		}
	}
}

func (r *Refresher) refreshAll() {
	r.mu.RLock()
	pending := make(map[string]model.RenderInput, len(r.inputs))
	for id, in := range r.inputs {
		pending[id] = in
	}
	r.mu.RUnlock()

	for id, in := range pending {
		if err := r.refreshOne(id, in); err != nil {
			if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrNotAuthenticated) {
				r.drop(id)
				continue
			}
			log.Printf("auto refresh for session %s: %v", id, err)
		}
	}
}

func (r *Refresher) refreshOne(id string, in model.RenderInput) error {
	ctx, cancel := context.WithTimeout(context.Background(), renderTimeout)
	defer cancel()

	return r.sessions.WithSession(id, func(sess *model.Session) error {
		res, err := r.dashboard.Render(ctx, sess, in)
		if err != nil {
			return err
		}
		r.mu.Lock()
		r.snapshots[id] = res
		r.mu.Unlock()
		return nil
	})
}

func (r *Refresher) drop(id string) {
	r.mu.Lock()
	delete(r.inputs, id)
	delete(r.snapshots, id)
	r.mu.Unlock()
}

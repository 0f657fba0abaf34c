package api

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/wricardo/gridpath/game/engine"
	"github.com/wricardo/gridpath/transport/websocket"
	"golang.org/x/time/rate"
)

const (
	defaultPlayInterval = 50 * time.Millisecond
	minPlayInterval     = time.Millisecond
)

// PlayRequest starts server-side playback. A zero interval uses the default
// pace and a zero budget plays until the search finishes.
type PlayRequest struct {
	IntervalMS int `json:"interval_ms"`
	Budget     int `json:"budget"`
}

func (r PlayRequest) interval() time.Duration {
	if r.IntervalMS == 0 {
		return defaultPlayInterval
	}
	d := time.Duration(r.IntervalMS) * time.Millisecond
	if d < minPlayInterval {
		return minPlayInterval
	}
	return d
}

// Reasons playback ends
const (
	stopFinished = "finished"
	stopBudget   = "budget"
	stopCanceled = "stopped"
	stopError    = "error"
)

type playResult struct {
	Steps  int           `json:"steps"`
	Status engine.Status `json:"status"`
	Reason string        `json:"reason"`
	Error  string        `json:"error,omitempty"`
}

// play advances one step per limiter token and streams every frame
func (s *Server) play(ctx context.Context, sessionID string, interval time.Duration, budget int) playResult {
	limiter := rate.NewLimiter(rate.Every(interval), 1)
	if s.hub != nil {
		s.hub.BroadcastEvent(sessionID, websocket.EventPlayStart, map[string]interface{}{
			"interval_ms": interval.Milliseconds(),
			"budget":      budget,
		})
	}

	var res playResult
	for {
		if budget > 0 && res.Steps >= budget {
			res.Reason = stopBudget
			break
		}
		if err := limiter.Wait(ctx); err != nil {
			res.Reason = stopCanceled
			break
		}

		result, err := s.service.Step(ctx, sessionID, 1)
		if err != nil {
			res.Reason = stopError
			res.Error = err.Error()
			break
		}
		res.Steps += result.StepsTaken
		res.Status = result.Status

		if s.hub != nil {
			if frame, err := s.service.GetFrame(ctx, sessionID); err == nil {
				s.hub.BroadcastFrame(sessionID, *frame)
			}
		}

		if result.Status.Terminal() {
			res.Reason = stopFinished
			break
		}
		if ctx.Err() != nil {
			res.Reason = stopCanceled
			break
		}
	}

	if s.hub != nil {
		s.hub.BroadcastEvent(sessionID, websocket.EventPlayStop, res)
	}
	return res
}

type playback struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// players tracks at most one running playback per session. Keys are
// lower-cased to match the case-insensitive session lookup.
type players struct {
	mu      sync.Mutex
	running map[string]*playback
}

func newPlayers() *players {
	return &players{running: make(map[string]*playback)}
}

func playerKey(sessionID string) string {
	return strings.ToLower(sessionID)
}

// start replaces any playback already running for the session. The new
// playback is registered before the old one is cancelled, and it only runs
// once the old one has exited.
func (p *players) start(sessionID string, fn func(ctx context.Context) playResult) {
	key := playerKey(sessionID)
	ctx, cancel := context.WithCancel(context.Background())
	pb := &playback{cancel: cancel, done: make(chan struct{})}

	p.mu.Lock()
	prev := p.running[key]
	p.running[key] = pb
	p.mu.Unlock()

	go func() {
		defer close(pb.done)
		defer cancel()

		if prev != nil {
			prev.cancel()
			<-prev.done
		}

		res := fn(ctx)

		p.mu.Lock()
		if p.running[key] == pb {
			delete(p.running, key)
		}
		p.mu.Unlock()

		slog.Info("playback ended", "session", sessionID, "steps", res.Steps,
			"status", res.Status, "reason", res.Reason)
	}()
}

// stop cancels the session's playback and waits for it to exit
func (p *players) stop(sessionID string) bool {
	key := playerKey(sessionID)

	p.mu.Lock()
	pb, ok := p.running[key]
	delete(p.running, key)
	p.mu.Unlock()

	if !ok {
		return false
	}
	pb.cancel()
	<-pb.done
	return true
}

func (p *players) active(sessionID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.running[playerKey(sessionID)]
	return ok
}

func (p *players) stopAll() {
	p.mu.Lock()
	ids := make([]string, 0, len(p.running))
	for id := range p.running {
		ids = append(ids, id)
	}
	p.mu.Unlock()

	for _, id := range ids {
		p.stop(id)
	}
}

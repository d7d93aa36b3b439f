package chime

import (
	"log/slog"
	"sync"

	"audio-sentry/models"
	"audio-sentry/utils"
)

// EventHandler receives each classified event together with its match
// result. Handlers run on the monitor's worker goroutine, never on the
// block ingestion path.
type EventHandler func(Event, models.MatchResult)

// Monitor is the live pipeline: blocks flow synchronously through the
// activity tracker and event classifier, and emitted events are handed to
// a single worker that runs fingerprint matching and the handler. A slow
// match therefore never delays or drops subsequent blocks, and no two
// matches run concurrently against the store.
type Monitor struct {
	cfg        Config
	tracker    *ActivityTracker
	classifier *EventClassifier
	store      FingerprintStore
	handler    EventHandler
	logger     *slog.Logger

	pending chan Event
	mu      sync.Mutex
	stopped bool
	once    sync.Once
	wg      sync.WaitGroup
}

// NewMonitor builds a monitor. store may be nil, in which case events are
// emitted unidentified.
func NewMonitor(cfg Config, store FingerprintStore, handler EventHandler) *Monitor {
	return &Monitor{
		cfg:        cfg,
		tracker:    NewActivityTracker(cfg),
		classifier: NewEventClassifier(cfg),
		store:      store,
		handler:    handler,
		logger:     utils.GetLogger(),
		pending:    make(chan Event, 16),
	}
}

// Start launches the matching worker. Must be called before Process.
func (m *Monitor) Start() {
	m.wg.Add(1)
	go m.matchLoop()
}

// Process ingests one block. Blocks must arrive in timestamp order from a
// single goroutine; ordering is load-bearing for the peak hold and for
// duration accumulation. Blocks arriving after Stop are discarded.
func (m *Monitor) Process(block AudioBlock) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}

	act := m.tracker.Observe(block)
	for _, event := range m.classifier.Feed(block, act) {
		select {
		case m.pending <- event:
		default:
			// Never stall ingestion waiting on the matcher.
			m.logger.Warn("event dropped, match worker saturated",
				slog.String("kind", string(event.Kind)))
		}
	}
}

// Stop abandons any in-progress activity without emitting a dangling
// event, then waits for queued matches to finish. Safe to call more than
// once; Process calls after Stop are no-ops.
func (m *Monitor) Stop() {
	m.once.Do(func() {
		m.mu.Lock()
		m.stopped = true
		m.classifier.Reset()
		m.tracker.Reset()
		close(m.pending)
		m.mu.Unlock()
	})
	m.wg.Wait()
}

func (m *Monitor) matchLoop() {
	defer m.wg.Done()
	for event := range m.pending {
		var match models.MatchResult
		if m.store != nil && len(event.Captured) > 0 {
			match = Match(event.Captured, event.SampleRate, m.store.List(), m.cfg.MinConfidence)
		}
		if m.handler != nil {
			m.handler(event, match)
		}
	}
}

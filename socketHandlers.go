package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"audio-sentry/chime"
	"audio-sentry/db"
	"audio-sentry/models"
	"audio-sentry/store"
	"audio-sentry/utils"
	"audio-sentry/wav"

	socketio "github.com/googollee/go-socket.io"
	"github.com/mdobak/go-xerrors"
)

// socketController routes live monitoring traffic. Each connected socket
// gets its own monitor pipeline so concurrent clients never interleave
// blocks; the fingerprint store and event log are shared.
type socketController struct {
	cfg             chime.Config
	store           *store.Store
	learner         *chime.Learner
	events          db.EventStore
	persistCaptures bool

	mu       sync.Mutex
	sockets  map[string]socketio.Conn
	monitors map[string]*chime.Monitor
}

type storeInfo struct {
	SoundCount int      `json:"soundCount"`
	Sounds     []string `json:"sounds"`
}

type soundEventPayload struct {
	Kind       string  `json:"kind"`
	Timestamp  int64   `json:"timestampMs"`
	Duration   float64 `json:"duration"`
	Sound      string  `json:"sound,omitempty"`
	Confidence float64 `json:"confidence"`
}

func newSocketController(cfg chime.Config, fingerprints *store.Store, events db.EventStore, persistCaptures bool) *socketController {
	return &socketController{
		cfg:             cfg,
		store:           fingerprints,
		learner:         chime.NewLearner(fingerprints),
		events:          events,
		persistCaptures: persistCaptures,
		sockets:         make(map[string]socketio.Conn),
		monitors:        make(map[string]*chime.Monitor),
	}
}

func (c *socketController) register(socket socketio.Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sockets[socket.ID()] = socket
}

// unregister drops the socket and stops its monitor if one is running.
func (c *socketController) unregister(socket socketio.Conn) {
	c.mu.Lock()
	monitor := c.monitors[socket.ID()]
	delete(c.monitors, socket.ID())
	delete(c.sockets, socket.ID())
	c.mu.Unlock()

	if monitor != nil {
		monitor.Stop()
	}
}

// stopAll shuts down every live monitoring session.
func (c *socketController) stopAll() {
	c.mu.Lock()
	monitors := make([]*chime.Monitor, 0, len(c.monitors))
	for id, monitor := range c.monitors {
		monitors = append(monitors, monitor)
		delete(c.monitors, id)
	}
	c.mu.Unlock()

	for _, monitor := range monitors {
		monitor.Stop()
	}
}

func (c *socketController) emitStoreInfo(socket socketio.Conn) {
	socket.Emit("storeInfo", storeInfo{
		SoundCount: c.store.Len(),
		Sounds:     c.store.Names(),
	})
}

// broadcastStoreInfo refreshes every connected client after the learned
// sound set changes.
func (c *socketController) broadcastStoreInfo() {
	info := storeInfo{
		SoundCount: c.store.Len(),
		Sounds:     c.store.Names(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, socket := range c.sockets {
		socket.Emit("storeInfo", info)
	}
}

func (c *socketController) handleStartMonitor(socket socketio.Conn) {
	logger := utils.GetLogger()
	ctx := context.Background()

	monitor := chime.NewMonitor(c.cfg, c.store, func(event chime.Event, match models.MatchResult) {
		c.deliverEvent(socket, event, match)
	})

	c.mu.Lock()
	if previous := c.monitors[socket.ID()]; previous != nil {
		c.mu.Unlock()
		previous.Stop()
		c.mu.Lock()
	}
	c.monitors[socket.ID()] = monitor
	c.mu.Unlock()

	monitor.Start()
	logger.InfoContext(ctx, "monitoring started",
		slog.String("socketID", socket.ID()),
		slog.Int("soundCount", c.store.Len()),
	)
	socket.Emit("monitorStarted", map[string]bool{"ok": true})
}

func (c *socketController) handleAudioBlock(socket socketio.Conn, msg string) {
	logger := utils.GetLogger()
	ctx := context.Background()

	c.mu.Lock()
	monitor := c.monitors[socket.ID()]
	c.mu.Unlock()
	if monitor == nil {
		socket.Emit("monitorError", map[string]string{"message": "monitoring is not active"})
		return
	}

	var payload models.BlockPayload
	if err := json.Unmarshal([]byte(msg), &payload); err != nil {
		err := xerrors.New(err)
		logger.ErrorContext(ctx, "failed to parse block payload", slog.Any("error", err))
		socket.Emit("monitorError", map[string]string{"message": "invalid block payload"})
		return
	}

	pcm, err := base64.StdEncoding.DecodeString(payload.PCM)
	if err != nil {
		err := xerrors.New(err)
		logger.ErrorContext(ctx, "failed to decode block PCM", slog.Any("error", err))
		socket.Emit("monitorError", map[string]string{"message": "invalid block PCM"})
		return
	}

	sampleRate := payload.SampleRate
	if sampleRate <= 0 {
		sampleRate = chime.DefaultSampleRate
	}

	monitor.Process(chime.AudioBlock{
		Samples:    wav.PCM16ToSamples(pcm),
		SampleRate: sampleRate,
		Timestamp:  time.UnixMilli(payload.TimestampMs),
	})
}

func (c *socketController) handleStopMonitor(socket socketio.Conn) {
	c.mu.Lock()
	monitor := c.monitors[socket.ID()]
	delete(c.monitors, socket.ID())
	c.mu.Unlock()

	if monitor == nil {
		return
	}
	monitor.Stop()
	socket.Emit("monitorStopped", map[string]bool{"ok": true})
}

// deliverEvent runs on the monitor's worker goroutine: emit to the
// client, archive the capture, append to the event log.
func (c *socketController) deliverEvent(socket socketio.Conn, event chime.Event, match models.MatchResult) {
	logger := utils.GetLogger()
	ctx := context.Background()

	log.Printf("[Monitor] %s event for socket %s: duration=%.2fs, match=%q (%.3f)\n",
		event.Kind, socket.ID(), event.Duration, match.Name, match.Confidence)
	logger.InfoContext(ctx, "sound event",
		slog.String("socketID", socket.ID()),
		slog.String("kind", string(event.Kind)),
		slog.Float64("duration", event.Duration),
		slog.String("sound", match.Name),
		slog.Float64("confidence", match.Confidence),
	)

	socket.Emit("soundEvent", soundEventPayload{
		Kind:       string(event.Kind),
		Timestamp:  event.StartedAt.UnixMilli(),
		Duration:   event.Duration,
		Sound:      match.Name,
		Confidence: match.Confidence,
	})

	capturePath := ""
	if c.persistCaptures && len(event.Captured) > 0 {
		capturePath = c.persistCapture(event)
	}

	record := &models.EventRecord{
		Timestamp:   event.StartedAt,
		Kind:        string(event.Kind),
		Duration:    event.Duration,
		Sound:       match.Name,
		Confidence:  match.Confidence,
		CapturePath: capturePath,
	}
	if err := c.events.StoreEvent(record); err != nil {
		logger.ErrorContext(ctx, "failed to store event", slog.Any("error", xerrors.New(err)))
	}
}

// persistCapture archives the event's raw audio as a WAV file under the
// data directory. Returns "" on failure; archiving is best-effort.
func (c *socketController) persistCapture(event chime.Event) string {
	logger := utils.GetLogger()
	ctx := context.Background()

	captureDir := filepath.Join(utils.DefaultDataDir(), "captures")
	if err := utils.CreateFolder(captureDir); err != nil {
		logger.ErrorContext(ctx, "failed to create capture dir", slog.Any("error", xerrors.New(err)))
		return ""
	}

	name := fmt.Sprintf("%s-%d-%d.wav", event.Kind, event.StartedAt.UnixMilli(), utils.GenerateUniqueID())
	path := filepath.Join(captureDir, name)
	if err := wav.Write(path, event.Captured, event.SampleRate); err != nil {
		logger.ErrorContext(ctx, "failed to write capture", slog.Any("error", xerrors.New(err)))
		return ""
	}
	return path
}

package main

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"audio-sentry/chime"
	"audio-sentry/db"
	"audio-sentry/models"
	"audio-sentry/store"
	"audio-sentry/utils"
	"audio-sentry/wav"

	socketio "github.com/googollee/go-socket.io"
	"github.com/googollee/go-socket.io/engineio"
	"github.com/googollee/go-socket.io/engineio/transport"
	"github.com/googollee/go-socket.io/engineio/transport/polling"
	"github.com/googollee/go-socket.io/engineio/transport/websocket"
	"github.com/mdobak/go-xerrors"
)

type apiError struct {
	Message string `json:"message"`
}

type soundSummary struct {
	Name           string    `json:"name"`
	Duration       float64   `json:"duration"`
	ActiveDuration float64   `json:"activeDuration"`
	PeakLevel      float64   `json:"peakLevel"`
	TopFrequencies []float64 `json:"topFrequencies"`
	LearnedAt      time.Time `json:"learnedAt,omitempty"`
}

type learnRequest struct {
	Name string `json:"name"`
	models.RecordData
}

type identifyResponse struct {
	Match   models.MatchResult `json:"match"`
	Segment soundSummary       `json:"segment"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	if w.Header().Get("Access-Control-Allow-Origin") == "" {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode JSON response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiError{Message: message})
}

func summarize(fp models.Fingerprint) soundSummary {
	return soundSummary{
		Name:           fp.Name,
		Duration:       fp.Duration,
		ActiveDuration: fp.ActiveDuration,
		PeakLevel:      fp.PeakLevel,
		TopFrequencies: fp.TopFrequencies,
		LearnedAt:      fp.LearnedAt,
	}
}

// decodeRecording turns a posted RecordData payload into mono float
// samples. The audio field carries either a full base64 WAV file or raw
// base64 16-bit PCM at the advertised sample rate.
func decodeRecording(recData models.RecordData) ([]float64, int, error) {
	raw, err := base64.StdEncoding.DecodeString(recData.Audio)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid base64 audio: %w", err)
	}

	if len(raw) >= 4 && string(raw[:4]) == "RIFF" {
		return wav.DecodeBytes(raw)
	}

	sampleRate := recData.SampleRate
	if sampleRate <= 0 {
		return nil, 0, fmt.Errorf("raw PCM payload needs a sample rate")
	}
	return wav.PCM16ToSamples(raw), sampleRate, nil
}

// configFromEnv layers environment overrides over the default detection
// thresholds.
func configFromEnv() chime.Config {
	cfg := chime.DefaultConfig()
	cfg.NotificationThreshold = envFloat("NOTIFICATION_THRESHOLD", cfg.NotificationThreshold)
	cfg.CallThreshold = envFloat("CALL_THRESHOLD", cfg.CallThreshold)
	cfg.MinConfidence = envFloat("MIN_CONFIDENCE", cfg.MinConfidence)
	if seconds := envFloat("CALL_DURATION_SEC", cfg.CallDuration.Seconds()); seconds > 0 {
		cfg.CallDuration = time.Duration(seconds * float64(time.Second))
	}
	return cfg
}

func envFloat(key string, fallback float64) float64 {
	value, err := strconv.ParseFloat(utils.GetEnv(key, ""), 64)
	if err != nil {
		return fallback
	}
	return value
}

func newSoundsHandler(controller *socketController) http.HandlerFunc {
	logger := utils.GetLogger()
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := context.Background()

		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		switch r.Method {
		case http.MethodGet:
			prints := controller.store.List()
			sounds := make([]soundSummary, 0, len(prints))
			for _, fp := range prints {
				sounds = append(sounds, summarize(fp))
			}
			writeJSON(w, http.StatusOK, sounds)

		case http.MethodDelete:
			name := strings.TrimPrefix(r.URL.Path, "/api/sounds/")
			if name == "" || name == r.URL.Path {
				writeJSONError(w, http.StatusBadRequest, "sound name is required")
				return
			}
			if err := controller.store.Remove(name); err != nil {
				logger.ErrorContext(ctx, "failed to remove sound", slog.Any("error", xerrors.New(err)))
				writeJSONError(w, http.StatusInternalServerError, "failed to remove sound")
				return
			}
			controller.broadcastStoreInfo()
			writeJSON(w, http.StatusOK, map[string]string{"removed": name})

		default:
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	}
}

func newLearnHandler(controller *socketController) http.HandlerFunc {
	logger := utils.GetLogger()
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := context.Background()

		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if r.Method != http.MethodPost {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var req learnRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.ErrorContext(ctx, "failed to parse learn payload", slog.Any("error", xerrors.New(err)))
			writeJSONError(w, http.StatusBadRequest, "invalid request payload")
			return
		}

		name := strings.TrimSpace(req.Name)
		if name == "" {
			writeJSONError(w, http.StatusBadRequest, "sound name is required")
			return
		}
		if req.Audio == "" {
			writeJSONError(w, http.StatusBadRequest, "no audio data received")
			return
		}

		samples, sampleRate, err := decodeRecording(req.RecordData)
		if err != nil {
			logger.ErrorContext(ctx, "failed to decode learn audio", slog.Any("error", xerrors.New(err)))
			writeJSONError(w, http.StatusBadRequest, "unable to decode audio")
			return
		}

		fp, err := controller.learner.Learn(name, samples, sampleRate)
		if err != nil {
			if errors.Is(err, chime.ErrInvalidSegment) {
				writeJSONError(w, http.StatusBadRequest, "recording contains no audible sound")
				return
			}
			logger.ErrorContext(ctx, "failed to learn sound", slog.Any("error", xerrors.New(err)))
			writeJSONError(w, http.StatusInternalServerError, "failed to store fingerprint")
			return
		}

		log.Printf("[HTTP] Learned sound %q: activeDuration=%.2fs, peak=%.3f\n",
			name, fp.ActiveDuration, fp.PeakLevel)
		controller.broadcastStoreInfo()
		writeJSON(w, http.StatusOK, summarize(fp))
	}
}

func newIdentifyHandler(controller *socketController) http.HandlerFunc {
	logger := utils.GetLogger()
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := context.Background()

		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if r.Method != http.MethodPost {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		var recData models.RecordData
		if err := json.NewDecoder(r.Body).Decode(&recData); err != nil {
			logger.ErrorContext(ctx, "failed to parse identify payload", slog.Any("error", xerrors.New(err)))
			writeJSONError(w, http.StatusBadRequest, "invalid request payload")
			return
		}
		if recData.Audio == "" {
			writeJSONError(w, http.StatusBadRequest, "no audio data received")
			return
		}

		started := time.Now()
		samples, sampleRate, err := decodeRecording(recData)
		if err != nil {
			logger.ErrorContext(ctx, "failed to decode identify audio", slog.Any("error", xerrors.New(err)))
			writeJSONError(w, http.StatusBadRequest, "unable to decode audio")
			return
		}

		segment := chime.ExtractFingerprint(samples, sampleRate)
		match := chime.MatchFingerprint(segment, controller.store.List(), controller.cfg.MinConfidence)

		log.Printf("[HTTP] Identify complete: match=%q, confidence=%.3f, latency=%.2fms\n",
			match.Name, match.Confidence, time.Since(started).Seconds()*1000)

		writeJSON(w, http.StatusOK, identifyResponse{
			Match:   match,
			Segment: summarize(segment),
		})
	}
}

func newEventsHandler(controller *socketController) http.HandlerFunc {
	logger := utils.GetLogger()
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := context.Background()

		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		if r.Method != http.MethodGet {
			writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}

		limit := 100
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil {
				limit = parsed
			}
		}

		events, err := controller.events.RecentEvents(limit)
		if err != nil {
			logger.ErrorContext(ctx, "failed to load events", slog.Any("error", xerrors.New(err)))
			writeJSONError(w, http.StatusInternalServerError, "failed to load events")
			return
		}
		if events == nil {
			events = []models.EventRecord{}
		}
		writeJSON(w, http.StatusOK, events)
	}
}

func serve(protocol, port string) {
	protocol = strings.ToLower(protocol)
	var allowOriginFunc = func(r *http.Request) bool {
		return true
	}

	cfg := configFromEnv()

	storePath := utils.GetEnv("FINGERPRINT_STORE_PATH", store.DefaultPath())
	fingerprints, err := store.Open(storePath)
	if err != nil {
		if !errors.Is(err, store.ErrCorruptStore) {
			log.Fatalf("failed to open fingerprint store: %v", err)
		}
		// Keep serving with an empty store; the next learn overwrites it.
		log.Printf("WARNING: %v\n", err)
		log.Println("Starting with an empty fingerprint store.")
	}
	log.Printf("Loaded %d learned sounds from %s\n", fingerprints.Len(), storePath)

	events, err := db.NewEventStore()
	if err != nil {
		log.Fatalf("failed to open event store: %v", err)
	}
	defer events.Close()

	persistCaptures := strings.EqualFold(utils.GetEnv("PERSIST_CAPTURES", "true"), "true")
	controller := newSocketController(cfg, fingerprints, events, persistCaptures)
	defer controller.stopAll()

	server := socketio.NewServer(&engineio.Options{
		PingTimeout:  60 * time.Second,
		PingInterval: 25 * time.Second,
		Transports: []transport.Transport{
			&websocket.Transport{
				CheckOrigin: allowOriginFunc,
			},
			&polling.Transport{
				CheckOrigin: allowOriginFunc,
			},
		},
	})

	server.OnConnect("/", func(socket socketio.Conn) error {
		socket.SetContext("")
		connURL := socket.URL()
		log.Printf("CONNECTED: %s, transport: %s, remote addr: %s\n", socket.ID(), connURL.String(), socket.RemoteAddr())
		controller.register(socket)
		controller.emitStoreInfo(socket)
		return nil
	})

	server.OnEvent("/", "requestStoreInfo", func(socket socketio.Conn) {
		controller.emitStoreInfo(socket)
	})

	server.OnEvent("/", "startMonitor", func(socket socketio.Conn) {
		log.Printf("startMonitor received from %s\n", socket.ID())
		controller.handleStartMonitor(socket)
	})

	server.OnEvent("/", "audioBlock", func(socket socketio.Conn, msg string) {
		controller.handleAudioBlock(socket, msg)
	})

	server.OnEvent("/", "stopMonitor", func(socket socketio.Conn) {
		log.Printf("stopMonitor received from %s\n", socket.ID())
		controller.handleStopMonitor(socket)
	})

	server.OnError("/", func(s socketio.Conn, e error) {
		log.Println("meet error:", e)
	})

	server.OnDisconnect("/", func(s socketio.Conn, reason string) {
		log.Printf("Socket disconnected - ID: %s, Reason: %s\n", s.ID(), reason)
		controller.unregister(s)
	})

	go func() {
		if err := server.Serve(); err != nil {
			log.Fatalf("socketio listen error: %s\n", err)
		}
	}()
	defer server.Close()

	serveHTTPS := protocol == "https"

	mux := http.NewServeMux()
	mux.Handle("/socket.io/", server)
	mux.HandleFunc("/api/sounds", newSoundsHandler(controller))
	mux.HandleFunc("/api/sounds/", newSoundsHandler(controller))
	mux.HandleFunc("/api/sounds/learn", newLearnHandler(controller))
	mux.HandleFunc("/api/identify", newIdentifyHandler(controller))
	mux.HandleFunc("/api/events", newEventsHandler(controller))
	mux.Handle("/", http.FileServer(http.Dir("static")))

	serveHTTP(server, serveHTTPS, port, mux)
}

func serveHTTP(socketServer *socketio.Server, serveHTTPS bool, port string, handler http.Handler) {
	if handler == nil {
		handler = socketServer
	}
	if serveHTTPS {
		httpsAddr := ":" + port
		httpsServer := &http.Server{
			Addr: httpsAddr,
			TLSConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
			Handler: handler,
		}

		certKeyDefault := filepath.Join("/etc/letsencrypt/live/localport.online", "privkey.pem")
		certFileDefault := filepath.Join("/etc/letsencrypt/live/localport.online", "fullchain.pem")

		certKey := utils.GetEnv("CERT_KEY", certKeyDefault)
		certFile := utils.GetEnv("CERT_FILE", certFileDefault)
		if certKey == "" || certFile == "" {
			log.Fatal("Missing cert")
		}

		log.Printf("Starting HTTPS server on %s\n", httpsAddr)
		if err := httpsServer.ListenAndServeTLS(certFile, certKey); err != nil {
			log.Fatalf("HTTPS server ListenAndServeTLS: %v", err)
		}
	}

	log.Printf("Starting HTTP server on port %v", port)
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatalf("HTTP server ListenAndServe: %v", err)
	}
}

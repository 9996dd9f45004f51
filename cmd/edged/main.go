package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"edged/internal/config"
	"edged/internal/head"
	"edged/internal/httpapi"
	"edged/internal/session"
	"edged/internal/vocab"
)

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// logPublisher forwards session transitions to the structured logger.
type logPublisher struct{ log zerolog.Logger }

func (p logPublisher) Publish(s session.Snapshot) {
	ev := p.log.Debug().Str("state", string(s.State))
	if s.Message != "" {
		ev = ev.Str("message", s.Message)
	}
	ev.Msg("session")
}

func main() {
	// Flags with environment variable defaults
	addr := flag.String("addr", envStr("EDGED_ADDR", ":8080"), "HTTP listen address, e.g. :8080")
	configPath := flag.String("config", envStr("EDGED_CONFIG", ""), "Optional config file (.yaml/.json/.toml)")
	peerHost := flag.String("peer-host", envStr("EDGED_PEER_HOST", "127.0.0.1"), "Remote generation peer host")
	peerPort := flag.Int("peer-port", envInt("EDGED_PEER_PORT", 5000), "Remote generation peer port")
	connectTimeoutMS := flag.Int("connect-timeout-ms", 15000, "Peer connect timeout in milliseconds")
	receiveTimeoutMS := flag.Int("receive-timeout-ms", 0, "Response read deadline in milliseconds (0 = none)")
	vocabPath := flag.String("vocab", envStr("EDGED_VOCAB", ""), "Path to JSON vocabulary file {token: id}")
	headModel := flag.String("head-model", envStr("EDGED_HEAD_MODEL", ""), "Path to head model (requires -tags=llama build)")
	maxTokens := flag.Int("max-tokens", session.DefaultMaxTokens, "Maximum token sequence length")
	embedDim := flag.Int("embed-dim", session.DefaultEmbedDim, "Embedding channel dimension")
	llamaCtx := flag.Int("llama-ctx", 2048, "Context size for the llama head model")
	llamaThreads := flag.Int("llama-threads", 4, "Threads for the llama head model")
	flag.Parse()

	// A config file, when given, supplies values for flags left at defaults.
	if *configPath != "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		explicit := map[string]bool{}
		flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
		apply := func(name string, set func()) {
			if !explicit[name] {
				set()
			}
		}
		apply("addr", func() {
			if cfg.Addr != "" {
				*addr = cfg.Addr
			}
		})
		apply("peer-host", func() {
			if cfg.PeerHost != "" {
				*peerHost = cfg.PeerHost
			}
		})
		apply("peer-port", func() {
			if cfg.PeerPort != 0 {
				*peerPort = cfg.PeerPort
			}
		})
		apply("connect-timeout-ms", func() {
			if cfg.ConnectTimeoutMS != 0 {
				*connectTimeoutMS = cfg.ConnectTimeoutMS
			}
		})
		apply("receive-timeout-ms", func() {
			if cfg.ReceiveTimeoutMS != 0 {
				*receiveTimeoutMS = cfg.ReceiveTimeoutMS
			}
		})
		apply("vocab", func() {
			if cfg.VocabPath != "" {
				*vocabPath = cfg.VocabPath
			}
		})
		apply("head-model", func() {
			if cfg.HeadModelPath != "" {
				*headModel = cfg.HeadModelPath
			}
		})
		apply("max-tokens", func() {
			if cfg.MaxTokens != 0 {
				*maxTokens = cfg.MaxTokens
			}
		})
		apply("embed-dim", func() {
			if cfg.EmbedDim != 0 {
				*embedDim = cfg.EmbedDim
			}
		})
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	httpapi.SetLogger(logger)

	// Vocabulary is required before any tokenization; without it the daemon
	// starts in a not-ready state and every request fails its precondition.
	var tab *vocab.Table
	if *vocabPath != "" {
		t, err := vocab.LoadFile(*vocabPath, "")
		if err != nil {
			log.Fatalf("failed to load vocabulary: %v", err)
		}
		tab = t
		logger.Info().Int("entries", tab.Size()).Str("path", *vocabPath).Msg("vocabulary loaded")
	} else {
		logger.Warn().Msg("no vocabulary configured; daemon will not be ready")
	}

	adapter, err := head.NewLlamaAdapter(*headModel, *llamaCtx, *llamaThreads, *embedDim)
	if err != nil {
		log.Fatalf("failed to initialize head adapter: %v", err)
	}

	peerAddr := config.Config{PeerHost: *peerHost, PeerPort: *peerPort}.PeerAddr()
	client := session.New(session.Config{
		PeerAddr:       peerAddr,
		ConnectTimeout: time.Duration(*connectTimeoutMS) * time.Millisecond,
		ReceiveTimeout: time.Duration(*receiveTimeoutMS) * time.Millisecond,
		MaxTokens:      *maxTokens,
	}, tab, adapter)
	client.SetPublisher(logPublisher{log: logger})

	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	httpapi.SetBaseContext(baseCtx)

	mux := httpapi.NewMux(client)
	srv := &http.Server{Addr: *addr, Handler: mux}

	go func() {
		logger.Info().Str("addr", *addr).Str("peer", peerAddr).Msg("edged listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	cancelBase()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown error")
	}
}

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"edged/internal/peer"
	"edged/internal/session"
	"edged/internal/tokenizer"
	"edged/internal/vocab"
	"edged/pkg/types"
)

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl).With().Timestamp().Logger()
}

func buildRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "edgectl",
		Short:         "Developer utilities for the edged split-inference client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug|info|warn|error")

	var vocabPath string
	var maxTokens int
	tokenizeCmd := &cobra.Command{
		Use:     "tokenize [prompt...]",
		Short:   "Tokenize a prompt with the protocol tokenizer and print the ids",
		Example: "  edgectl tokenize --vocab vocab.json Hello world",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tab, err := vocab.LoadFile(vocabPath, "")
			if err != nil {
				return err
			}
			ids := tokenizer.Encode(tab, strings.Join(args, " "), maxTokens)
			out, err := json.Marshal(ids)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
	tokenizeCmd.Flags().StringVar(&vocabPath, "vocab", "", "Path to JSON vocabulary file")
	tokenizeCmd.Flags().IntVar(&maxTokens, "max-tokens", session.DefaultMaxTokens, "Maximum token sequence length")
	_ = tokenizeCmd.MarkFlagRequired("vocab")

	var daemonURL string
	var timeout time.Duration
	inferCmd := &cobra.Command{
		Use:     "infer [prompt...]",
		Short:   "Run one split-inference request through a running edged daemon",
		Example: "  edgectl infer --daemon http://localhost:8080 Write a haiku",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := json.Marshal(types.InferRequest{Prompt: strings.Join(args, " ")})
			if err != nil {
				return err
			}
			hc := &http.Client{Timeout: timeout}
			resp, err := hc.Post(daemonURL+"/infer", "application/json", bytes.NewReader(body))
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			raw, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}
			if resp.StatusCode != http.StatusOK {
				var e types.ErrorResponse
				if json.Unmarshal(raw, &e) == nil && e.Error != "" {
					return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, e.Error)
				}
				return fmt.Errorf("daemon returned %d", resp.StatusCode)
			}
			var r types.InferResponse
			if err := json.Unmarshal(raw, &r); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), r.Text)
			return nil
		},
	}
	inferCmd.Flags().StringVar(&daemonURL, "daemon", "http://localhost:8080", "Base URL of the edged daemon")
	inferCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "Overall request timeout")

	var listen string
	var fixedText string
	peerCmd := &cobra.Command{
		Use:     "peer",
		Short:   "Run a reference remote peer for protocol debugging",
		Example: "  edgectl peer --listen :5000 --text \"a fixed reply\"",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(logLevel)
			ln, err := net.Listen("tcp", listen)
			if err != nil {
				return err
			}
			var gen peer.Generator
			if fixedText != "" {
				gen = func(int, int) string { return fixedText }
			}
			log.Info().Str("addr", ln.Addr().String()).Msg("reference peer listening")
			return peer.New(gen, log).Serve(ln)
		},
	}
	peerCmd.Flags().StringVar(&listen, "listen", ":5000", "Listen address")
	peerCmd.Flags().StringVar(&fixedText, "text", "", "Fixed response text (default: echo the received shape)")

	root.AddCommand(tokenizeCmd, inferCmd, peerCmd)
	return root
}

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

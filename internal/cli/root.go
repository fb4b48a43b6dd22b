// Package cli implements the pattern-memory CLI commands.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/pattern-memory/internal/config"
	"github.com/rcliao/pattern-memory/internal/logging"
	"github.com/rcliao/pattern-memory/internal/persist"
	"github.com/rcliao/pattern-memory/internal/service"
)

var (
	dbPath       string
	configPath   string
	backendFlag  string
	formatFlag   string
	logLevelFlag string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "pattern-memory",
	Short: "Detect and keep the musical patterns you play",
	Long:  "Records played notes, splits them into phrases on silence or context changes, and keeps the interesting ones. SQLite or bbolt backed, single binary.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $PATTERN_MEMORY_DB or ~/.pattern-memory/patterns.db)")
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: $PATTERN_MEMORY_CONFIG or ~/.pattern-memory/config.toml)")
	RootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "Storage backend: sqlite or bolt (overrides config)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
	RootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
}

func loadConfig() (config.Config, error) {
	path := configPath
	if path == "" {
		p, err := config.Path()
		if err != nil {
			return config.Config{}, err
		}
		path = p
	}
	return config.Load(path)
}

func newLogger(cfg config.Config) logging.Logger {
	level := cfg.LogLevel()
	if logLevelFlag != "" {
		level = logLevelFlag
	}
	return logging.New(os.Stderr, logging.ParseLevel(level))
}

// session bundles what a command needs.
type session struct {
	cfg  config.Config
	log  logging.Logger
	host *service.Host
	det  *service.Detector
}

// openSession loads config, opens storage and restores the detector. Config
// file detection settings override stored ones. Silence that elapsed since
// the last run is applied before the command sees the detector.
func openSession(cmd *cobra.Command, opts ...service.Option) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := newLogger(cfg)

	path, err := cfg.DBPath(dbPath)
	if err != nil {
		return nil, fmt.Errorf("resolve db path: %w", err)
	}
	backend := cfg.Backend()
	if backendFlag != "" {
		backend = backendFlag
	}
	kv, err := persist.Open(backend, path)
	if err != nil {
		return nil, err
	}

	host, err := service.OpenHost(cmd.Context(), kv, log, opts...)
	if err != nil {
		kv.Close()
		return nil, err
	}
	det := host.Detector()
	if p := cfg.Detection.Patch(); !p.Empty() {
		det.UpdateConfig(p)
	}
	det.SegmentIfIdle()
	return &session{cfg: cfg, log: log, host: host, det: det}, nil
}

// mustOpen is openSession for commands without a live timer.
func mustOpen(cmd *cobra.Command) *session {
	s, err := openSession(cmd, service.WithAfterFunc(nil))
	if err != nil {
		exitErr("open store", err)
	}
	return s
}

// Close stores the snapshot and closes the backend. It still saves after ctx
// was cancelled by an interrupt.
func (s *session) Close(ctx context.Context) {
	if err := s.host.Close(context.WithoutCancel(ctx)); err != nil {
		exitErr("save", err)
	}
}

func textOutput() bool {
	return strings.EqualFold(formatFlag, "text")
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		t = strings.TrimSpace(t)
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}

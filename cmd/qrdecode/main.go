// Package main provides the CLI entry point for qrdecode.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/five82/qrdecode"
	"github.com/five82/qrdecode/internal/logging"
	"github.com/five82/qrdecode/internal/reporter"
	"github.com/five82/qrdecode/internal/util"
)

const (
	appName    = "qrdecode"
	appVersion = "0.1.0"
)

// decodeFlags holds the parsed flags for the decode command.
type decodeFlags struct {
	camera     bool
	outputDir  string
	logDir     string
	verbose    bool
	noLog      bool
	fps        float64
	startTime  float64
	maxFrames  int
	threads    int
	skip       int
	timeoutS   uint64
	reportJSON bool
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     appName,
		Short:   appName + " reconstructs files from a fountain-coded QR video or camera feed",
		Version: appVersion,
	}
	cmd.AddCommand(newDecodeCmd())
	return cmd
}

func newDecodeCmd() *cobra.Command {
	var fl decodeFlags

	cmd := &cobra.Command{
		Use:   "decode <video>",
		Short: "Decode a recorded video or live camera feed into reconstructed files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			code, err := runDecode(args[0], &fl)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			if code != 0 {
				os.Exit(code)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&fl.camera, "camera", false, "treat <video> as a live camera device identifier")
	flags.StringVarP(&fl.outputDir, "output", "o", "", "output directory (defaults to current directory)")
	flags.StringVar(&fl.logDir, "log-dir", "", "log directory (defaults to ~/.local/state/qrdecode/logs)")
	flags.BoolVarP(&fl.verbose, "verbose", "v", false, "enable verbose output")
	flags.BoolVar(&fl.noLog, "no-log", false, "disable log file creation")
	flags.Float64Var(&fl.fps, "fps", 0, "frame sampling rate in frames per second")
	flags.Float64Var(&fl.startTime, "start-time", 0, "seek into the input before sampling begins, in seconds")
	flags.IntVar(&fl.maxFrames, "max-frames", 0, "stop after sampling this many frames (0 = unbounded)")
	flags.IntVar(&fl.threads, "threads", 0, "QR-extraction worker pool size (0 = auto)")
	flags.IntVar(&fl.skip, "skip", 0, "process every Nth sampled frame (0 = use default)")
	flags.Uint64Var(&fl.timeoutS, "timeout", 0, "abandon decoding after this many seconds (0 = no timeout)")
	flags.BoolVar(&fl.reportJSON, "json", false, "emit NDJSON events instead of a terminal report")

	return cmd
}

func runDecode(input string, fl *decodeFlags) (int, error) {
	if os.Getenv("DEBUG") == "1" {
		fl.verbose = true
	}

	outputDir := fl.outputDir
	if outputDir == "" {
		outputDir = "."
	}
	outputDir, err := filepath.Abs(outputDir)
	if err != nil {
		return 1, fmt.Errorf("invalid output path: %w", err)
	}
	if err := util.EnsureDirectory(outputDir); err != nil {
		return 1, fmt.Errorf("failed to create output directory: %w", err)
	}

	logDir := fl.logDir
	if logDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return 1, fmt.Errorf("failed to get home directory: %w", err)
		}
		logDir = filepath.Join(homeDir, ".local", "state", "qrdecode", "logs")
	}

	logger, err := logging.Setup(logDir, fl.verbose, fl.noLog)
	if err != nil {
		return 1, fmt.Errorf("failed to setup logging: %w", err)
	}
	if logger != nil {
		defer func() { _ = logger.Close() }()
	}

	opts := []qrdecode.Option{qrdecode.WithOutputDir(outputDir)}
	if fl.camera {
		opts = append(opts, qrdecode.WithCamera())
	}
	if fl.fps > 0 {
		opts = append(opts, qrdecode.WithSampleRate(fl.fps))
	}
	if fl.startTime > 0 {
		opts = append(opts, qrdecode.WithStartOffset(fl.startTime))
	}
	if fl.maxFrames > 0 {
		opts = append(opts, qrdecode.WithMaxFrames(fl.maxFrames))
	}
	if fl.threads > 0 {
		opts = append(opts, qrdecode.WithThreads(fl.threads))
	}
	if fl.skip > 0 {
		opts = append(opts, qrdecode.WithSkip(fl.skip))
	}
	if fl.timeoutS > 0 {
		opts = append(opts, qrdecode.WithTimeout(fl.timeoutS))
	}
	if fl.verbose {
		opts = append(opts, qrdecode.WithVerbose())
	}

	d, err := qrdecode.New(opts...)
	if err != nil {
		return 1, fmt.Errorf("invalid configuration: %w", err)
	}

	var rep qrdecode.Reporter
	if fl.reportJSON {
		rep = reporter.NewJSONReporter()
	} else {
		rep = reporter.NewTerminalReporter()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	var summary qrdecode.SessionSummary
	if info, statErr := os.Stat(input); !fl.camera && statErr == nil && info.IsDir() {
		videos, findErr := qrdecode.FindVideos(input)
		if findErr != nil {
			return 1, findErr
		}
		summary, err = d.DecodeBatch(ctx, videos, rep)
	} else {
		summary, err = d.DecodeWithReporter(ctx, input, rep)
	}
	if err != nil {
		return 1, err
	}

	if err := writeIntegrityReport(outputDir, summary); err != nil && logger != nil {
		logger.Warn("failed to write integrity report", "error", err)
	}

	return qrdecode.ExitCode(summary), nil
}

// writeIntegrityReport persists the session summary as OUT/integrity_report.json
// so a caller can inspect the outcome without parsing terminal output.
func writeIntegrityReport(outputDir string, summary qrdecode.SessionSummary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal integrity report: %w", err)
	}
	path := filepath.Join(outputDir, "integrity_report.json")
	return os.WriteFile(path, data, 0644)
}

package reporter

import (
	"fmt"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"github.com/five82/qrdecode/internal/util"
)

// TerminalReporter outputs human-friendly text to the terminal.
type TerminalReporter struct {
	mu         sync.Mutex
	progress   map[string]*progressbar.ProgressBar
	maxPercent map[string]float32
	cyan       *color.Color
	green      *color.Color
	yellow     *color.Color
	red        *color.Color
	magenta    *color.Color
	bold       *color.Color
}

// NewTerminalReporter creates a new terminal reporter.
func NewTerminalReporter() *TerminalReporter {
	return &TerminalReporter{
		progress:   make(map[string]*progressbar.ProgressBar),
		maxPercent: make(map[string]float32),
		cyan:       color.New(color.FgCyan, color.Bold),
		green:      color.New(color.FgGreen),
		yellow:     color.New(color.FgYellow, color.Bold),
		red:        color.New(color.FgRed, color.Bold),
		magenta:    color.New(color.FgMagenta),
		bold:       color.New(color.Bold),
	}
}

func (r *TerminalReporter) finishProgress(fileName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if bar, ok := r.progress[fileName]; ok {
		_ = bar.Finish()
		delete(r.progress, fileName)
	}
	delete(r.maxPercent, fileName)
}

// printLabel prints a bold label with fixed width padding followed by a value.
func (r *TerminalReporter) printLabel(width int, label, value string) {
	paddedLabel := fmt.Sprintf("%-*s", width, label)
	fmt.Printf("  %s %s\n", r.bold.Sprint(paddedLabel), value)
}

func (r *TerminalReporter) Hardware(summary HardwareSummary) {
	fmt.Println()
	_, _ = r.cyan.Println("HARDWARE")
	r.printLabel(10, "Hostname:", summary.Hostname)
}

func (r *TerminalReporter) SessionStarted(info SessionStartInfo) {
	fmt.Println()
	_, _ = r.cyan.Println("SESSION")
	source := "file"
	if info.IsCamera {
		source = "camera"
	}
	r.printLabel(12, "Input:", fmt.Sprintf("%s (%s)", info.Input, source))
	r.printLabel(12, "Output dir:", info.OutputDir)
	r.printLabel(12, "Sample rate:", fmt.Sprintf("%.1f fps", info.SampleRate))
}

func (r *TerminalReporter) FileDiscovered(file FileDiscovered) {
	fmt.Println()
	size := "unknown size"
	if file.FileSize >= 0 {
		size = util.FormatBytesReadable(uint64(file.FileSize))
	}
	fmt.Printf("  %s %s (%s, %d chunks, id %s)\n",
		r.magenta.Sprint("›"), r.bold.Sprint(file.FileName), size, file.NumChunks, file.FileID)
}

func (r *TerminalReporter) PacketProgress(progress PacketProgress) {
	r.mu.Lock()
	defer r.mu.Unlock()

	bar, ok := r.progress[progress.FileName]
	if !ok {
		bar = progressbar.NewOptions(
			100,
			progressbar.OptionSetDescription(progress.FileName),
			progressbar.OptionSetWidth(40),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionShowDescriptionAtLineEnd(),
			progressbar.OptionSetElapsedTime(false),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "Decoding [",
				BarEnd:        "]",
			}),
		)
		r.progress[progress.FileName] = bar
	}

	clamped := progress.Percent
	if clamped > 100 {
		clamped = 100
	}
	if clamped < 0 {
		clamped = 0
	}

	if clamped >= r.maxPercent[progress.FileName] {
		r.maxPercent[progress.FileName] = clamped
		_ = bar.Set(int(clamped))
	}
}

func (r *TerminalReporter) VerificationResult(result VerificationResult) {
	r.finishProgress(result.FileName)

	var status string
	switch result.Classification {
	case "verified":
		status = r.green.Sprint("verified")
	case "corrupt":
		status = r.red.Sprint("corrupt")
	default:
		status = r.yellow.Sprint("unverified")
	}
	fmt.Printf("  %s %s: %s (%s)\n", r.bold.Sprint("Integrity:"), result.FileName, status, result.Algorithm)
}

func (r *TerminalReporter) FileSaved(saved FileSaved) {
	fmt.Printf("  %s %s -> %s (%s)\n",
		r.bold.Sprint("Saved:"), saved.FileName, r.green.Sprint(saved.OutputPath),
		util.FormatBytesReadable(uint64(saved.Bytes)))
}

func (r *TerminalReporter) Warning(message string) {
	fmt.Println()
	_, _ = r.yellow.Printf("WARN: %s\n", message)
}

func (r *TerminalReporter) Error(err ReporterError) {
	_, _ = fmt.Fprintln(os.Stderr)
	_, _ = r.red.Fprintf(os.Stderr, "ERROR %s\n", err.Title)
	_, _ = fmt.Fprintf(os.Stderr, "  %s\n", err.Message)
	if err.Context != "" {
		_, _ = fmt.Fprintf(os.Stderr, "  Context: %s\n", err.Context)
	}
	if err.Suggestion != "" {
		_, _ = fmt.Fprintf(os.Stderr, "  Suggestion: %s\n", err.Suggestion)
	}
}

func (r *TerminalReporter) OperationComplete(message string) {
	fmt.Println()
	fmt.Printf("%s %s\n", r.green.Add(color.Bold).Sprint("✓"), r.bold.Sprint(message))
}

func (r *TerminalReporter) SessionSummary(summary SessionSummary) {
	fmt.Println()
	_, _ = r.cyan.Println("SESSION SUMMARY")
	fmt.Printf("  %s\n", r.bold.Sprintf("%d of %d files completed", summary.CompletedFiles, summary.TotalFiles))
	fmt.Printf("  Time: %s\n", util.FormatDurationFromSecs(int64(summary.Duration.Seconds())))

	for _, f := range summary.Files {
		fmt.Printf("  - %s: %s (%d/%d chunks)\n", f.FileName, f.Classification, f.ChunksReceived, f.ChunksTotal)
	}
}

func (r *TerminalReporter) Verbose(message string) {
	_, _ = color.New(color.Faint).Printf("  %s\n", message)
}

package reporter

// Reporter defines the interface for decode progress reporting.
type Reporter interface {
	Hardware(summary HardwareSummary)
	SessionStarted(info SessionStartInfo)
	FileDiscovered(file FileDiscovered)
	PacketProgress(progress PacketProgress)
	VerificationResult(result VerificationResult)
	FileSaved(saved FileSaved)
	Warning(message string)
	Error(err ReporterError)
	OperationComplete(message string)
	SessionSummary(summary SessionSummary)
	Verbose(message string)
}

// NullReporter is a no-op reporter that discards all updates.
type NullReporter struct{}

func (NullReporter) Hardware(HardwareSummary)             {}
func (NullReporter) SessionStarted(SessionStartInfo)      {}
func (NullReporter) FileDiscovered(FileDiscovered)        {}
func (NullReporter) PacketProgress(PacketProgress)        {}
func (NullReporter) VerificationResult(VerificationResult) {}
func (NullReporter) FileSaved(FileSaved)                  {}
func (NullReporter) Warning(string)                       {}
func (NullReporter) Error(ReporterError)                  {}
func (NullReporter) OperationComplete(string)             {}
func (NullReporter) SessionSummary(SessionSummary)        {}
func (NullReporter) Verbose(string)                       {}

package reporter

// CompositeReporter fans out events to multiple reporters.
type CompositeReporter struct {
	reporters []Reporter
}

// NewCompositeReporter creates a composite reporter.
func NewCompositeReporter(reporters ...Reporter) *CompositeReporter {
	return &CompositeReporter{reporters: reporters}
}

func (c *CompositeReporter) Hardware(summary HardwareSummary) {
	for _, r := range c.reporters {
		r.Hardware(summary)
	}
}

func (c *CompositeReporter) SessionStarted(info SessionStartInfo) {
	for _, r := range c.reporters {
		r.SessionStarted(info)
	}
}

func (c *CompositeReporter) FileDiscovered(file FileDiscovered) {
	for _, r := range c.reporters {
		r.FileDiscovered(file)
	}
}

func (c *CompositeReporter) PacketProgress(progress PacketProgress) {
	for _, r := range c.reporters {
		r.PacketProgress(progress)
	}
}

func (c *CompositeReporter) VerificationResult(result VerificationResult) {
	for _, r := range c.reporters {
		r.VerificationResult(result)
	}
}

func (c *CompositeReporter) FileSaved(saved FileSaved) {
	for _, r := range c.reporters {
		r.FileSaved(saved)
	}
}

func (c *CompositeReporter) Warning(message string) {
	for _, r := range c.reporters {
		r.Warning(message)
	}
}

func (c *CompositeReporter) Error(err ReporterError) {
	for _, r := range c.reporters {
		r.Error(err)
	}
}

func (c *CompositeReporter) OperationComplete(message string) {
	for _, r := range c.reporters {
		r.OperationComplete(message)
	}
}

func (c *CompositeReporter) SessionSummary(summary SessionSummary) {
	for _, r := range c.reporters {
		r.SessionSummary(summary)
	}
}

func (c *CompositeReporter) Verbose(message string) {
	for _, r := range c.reporters {
		r.Verbose(message)
	}
}

package producer

// MetricsReporter is told about what happens to messages.
// Implementations must be safe for concurrent use and must not block.
type MetricsReporter interface {
	// Report is called once per message, with its final outcome.
	Report(msg *Message, o Outcome)

	// Retry is called before a message is sent again. attempt counts
	// from zero and err is the failure of the previous attempt.
	Retry(msg *Message, attempt int, err error)
}

type nopReporter struct{}

func (nopReporter) Report(*Message, Outcome)   {}
func (nopReporter) Retry(*Message, int, error) {}

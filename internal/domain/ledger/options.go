package ledger

// Option applies a configuration option to the in-memory ledger.
type Option func(*inMemoryLedger)

// WithMaxRecords bounds the audit log; zero or negative means unbounded.
func WithMaxRecords(n int) Option {
	return func(l *inMemoryLedger) {
		l.maxRecords = n
	}
}

package gtfsfeed

import "github.com/okian/busmaybe/pkg/logger"

// Option configures an import.
type Option func(*importer)

// WithDefaultHeadway sets the headway, in minutes, for routes whose schedule
// has fewer than two trips.
func WithDefaultHeadway(minutes float64) Option {
	return func(i *importer) {
		if minutes > 0 {
			i.defaultHeadway = minutes
		}
	}
}

// WithLogger sets the logger for import summaries.
func WithLogger(l logger.Logger) Option {
	return func(i *importer) {
		if l != nil {
			i.log = l
		}
	}
}

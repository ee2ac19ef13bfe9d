package logging

import (
	"log/slog"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var countPrinter = message.NewPrinter(language.English)

// Count formats n with thousands separators for log messages.
func Count(n int64) string {
	return countPrinter.Sprintf("%d", n)
}

// LoopProgress reports completion counts for long chunked iterations. It
// emits a log line when progress crosses a percentage bucket (default 5%) so
// large loops stay visible without flooding the log. It never alters the
// iteration itself.
type LoopProgress struct {
	logger     *slog.Logger
	message    string
	total      int
	done       int
	bucketSize float64
	lastBucket int
}

// NewLoopProgress constructs a progress reporter for a loop of total
// iterations. A nil logger disables output.
func NewLoopProgress(total int, logger *slog.Logger, message string) *LoopProgress {
	if logger == nil {
		logger = NewNop()
	}
	return &LoopProgress{
		logger:     logger,
		message:    message,
		total:      total,
		bucketSize: 5,
		lastBucket: -1,
	}
}

// Advance records n completed iterations and logs when a percentage bucket
// boundary is crossed.
func (p *LoopProgress) Advance(n int) {
	if p == nil || n <= 0 {
		return
	}
	p.done += n
	if p.total <= 0 {
		return
	}
	percent := float64(p.done) / float64(p.total) * 100
	bucket := int(percent / p.bucketSize)
	if percent >= 100 {
		bucket = int(100 / p.bucketSize)
	}
	if bucket <= p.lastBucket {
		return
	}
	p.lastBucket = bucket
	p.logger.Info(p.message,
		String("progress", Count(int64(p.done))+"/"+Count(int64(p.total))),
	)
}

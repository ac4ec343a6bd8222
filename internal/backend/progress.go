package backend

import (
	"context"
	"io"
	"log/slog"
)

// progressReader logs upload progress at debug level in quarter steps.
type progressReader struct {
	ctx    context.Context
	r      io.Reader
	total  int64
	sent   int64
	next   int64
	op     string
	logger *slog.Logger
}

func newProgressReader(ctx context.Context, r io.Reader, total int64, op string, logger *slog.Logger) *progressReader {
	return &progressReader{ctx: ctx, r: r, total: total, next: 25, op: op, logger: logger}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.sent += int64(n)
	if p.total > 0 {
		pct := p.sent * 100 / p.total
		for pct >= p.next && p.next <= 100 {
			p.logger.DebugContext(p.ctx, "upload progress",
				"operation", p.op,
				"percent", p.next,
				"bytes", p.sent,
				"total", p.total,
			)
			p.next += 25
		}
	}
	return n, err
}

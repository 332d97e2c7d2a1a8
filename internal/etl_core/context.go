package etl_core

import (
	"github.com/chtzvt/certtab/internal/job"
	"github.com/chtzvt/certtab/internal/logger"
)

// Context is shared by the extractor, transformers and sinks of one run.
type Context struct {
	Spec *job.JobSpec

	// Columns is the schema of the table currently being written.
	Columns []string

	Logger *logger.Logger
}

// Log returns the context logger, or a no-op logger when none is set.
func (c *Context) Log() *logger.Logger {
	if c == nil || c.Logger == nil {
		return logger.Nop()
	}
	return c.Logger
}

// WithColumns returns a shallow copy of c describing another table.
func (c *Context) WithColumns(cols []string) *Context {
	cp := *c
	cp.Columns = cols
	return &cp
}

// Package types provides the core data structures shared by the container
// decoders: the Tags record, the per-parse Context, formats and errors.
package types

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Context carries the options and diagnostics of one parse call.
//
// A Context is owned by a single top-level parse. When a decoder hands an
// embedded container to another decoder it passes a child from Nested, which
// shares the flags, logger and warning list of its parent.
type Context struct {
	// Logger receives debug records about skipped or malformed units.
	// It is never nil.
	Logger *slog.Logger

	// warnings is shared between a context and its nested children.
	warnings *warningList

	// Encoding forces the charset of single-byte tag text, e.g. "cp1252".
	Encoding string

	// Path identifies the stream in error messages.
	Path string

	// Size is the number of bytes visible to the decoder.
	Size int64

	ParseTags     bool
	ParseDuration bool
	LoadImage     bool

	// IgnoreErrors selects the lenient text policy: undecodable bytes are
	// replaced and parsing continues.
	IgnoreErrors bool
}

type warningList struct {
	mu    sync.Mutex
	items []Warning
}

// NewContext returns a context that parses tags and duration and discards
// log output.
func NewContext(path string, size int64) *Context {
	return &Context{
		Logger:        slog.New(slog.DiscardHandler),
		warnings:      &warningList{},
		Path:          path,
		Size:          size,
		ParseTags:     true,
		ParseDuration: true,
	}
}

// Nested returns a child context for an embedded container of the given size.
func (c *Context) Nested(size int64) *Context {
	child := *c
	child.Size = size
	if child.warnings == nil {
		c.warnings = &warningList{}
		child.warnings = c.warnings
	}
	return &child
}

// Warn records a recovered problem and logs it at debug level.
func (c *Context) Warn(stage string, offset int64, format string, args ...any) {
	w := Warning{Stage: stage, Message: fmt.Sprintf(format, args...), Offset: offset}
	if c.warnings == nil {
		c.warnings = &warningList{}
	}
	c.warnings.mu.Lock()
	c.warnings.items = append(c.warnings.items, w)
	c.warnings.mu.Unlock()

	c.logger().Debug("recovered", "path", c.Path, "stage", stage, "offset", offset, "msg", w.Message)
}

// WarnErr records err as a warning.
func (c *Context) WarnErr(stage string, offset int64, err error) {
	c.Warn(stage, offset, "%v", err)
}

// Warnings returns the warnings recorded so far.
func (c *Context) Warnings() []Warning {
	if c.warnings == nil {
		return nil
	}
	c.warnings.mu.Lock()
	defer c.warnings.mu.Unlock()
	return append([]Warning(nil), c.warnings.items...)
}

// Debug logs a trace record for the current stream.
func (c *Context) Debug(msg string, args ...any) {
	l := c.logger()
	if !l.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	l.Debug(msg, append([]any{"path", c.Path}, args...)...)
}

func (c *Context) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.Logger
}

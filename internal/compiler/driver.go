// Package compiler drives scanning, parsing and indexing over a set of
// source units and aggregates the outcome into a single Result.
package compiler

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/ruka-lang/ruka/internal/chrono"
	"github.com/ruka-lang/ruka/internal/compiler/diag"
	"github.com/ruka-lang/ruka/internal/compiler/emitter"
	"github.com/ruka-lang/ruka/internal/compiler/lexer"
	"github.com/ruka-lang/ruka/internal/compiler/parser"
	"github.com/ruka-lang/ruka/internal/compiler/scope"
	"github.com/ruka-lang/ruka/internal/compiler/token"
	"github.com/ruka-lang/ruka/internal/transport"
)

// Compiler holds run-wide configuration. It keeps no per-unit state, so one
// Compiler may serve concurrent Compile calls.
type Compiler struct {
	chrono    chrono.Chrono
	transport transport.Transport
	logger    *slog.Logger
	jobs      int
	syncSet   parser.SyncSet
	stream    bool
	emitTree  bool
}

type Option func(*Compiler)

// WithChrono times every unit's phases on c.
func WithChrono(c chrono.Chrono) Option {
	return func(cc *Compiler) {
		if c != nil {
			cc.chrono = c
		}
	}
}

// WithTransport forwards the aggregate result, and streamed diagnostics
// when enabled, to t.
func WithTransport(t transport.Transport) Option {
	return func(c *Compiler) {
		if t != nil {
			c.transport = t
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithJobs sets how many units may be compiled at once. Values below 1
// mean 1.
func WithJobs(n int) Option {
	return func(c *Compiler) { c.jobs = max(n, 1) }
}

func WithSyncSet(s parser.SyncSet) Option {
	return func(c *Compiler) { c.syncSet = s }
}

// WithStreamDiagnostics sends each diagnostic through the transport as soon
// as it is found instead of only with the final result.
func WithStreamDiagnostics() Option {
	return func(c *Compiler) { c.stream = true }
}

// WithEmitTree renders each parsed unit as an S-expression tree.
func WithEmitTree() Option {
	return func(c *Compiler) { c.emitTree = true }
}

func New(opts ...Option) *Compiler {
	c := &Compiler{
		chrono:    chrono.Nop,
		transport: transport.Nop,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		jobs:      1,
		syncSet:   parser.DefaultSyncSet(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile processes every source and always returns a Result with one Unit
// per source, in input order. Once ctx is done, units that have not started
// are marked Skipped.
func (c *Compiler) Compile(ctx context.Context, sources []Source) *Result {
	units := make([]*Unit, len(sources))
	for i, src := range sources {
		units[i] = &Unit{Index: i, Name: src.Name, Status: Pending}
	}

	if c.jobs == 1 || len(sources) < 2 {
		for i, src := range sources {
			c.compileUnit(ctx, units[i], src)
		}
	} else {
		// Units never fail the group; errgroup only bounds the fan-out.
		var g errgroup.Group
		g.SetLimit(c.jobs)
		for i, src := range sources {
			g.Go(func() error {
				c.compileUnit(ctx, units[i], src)
				return nil
			})
		}
		_ = g.Wait()
	}

	res := &Result{Units: units, Success: success(units)}
	c.logger.Info("compilation finished",
		"units", len(units),
		"errors", res.ErrorCount(),
		"warnings", res.WarningCount(),
		"skipped", res.Skipped(),
		"success", res.Success)

	c.send(context.WithoutCancel(ctx), transport.Payload{Kind: transport.KindResult, Result: res})
	return res
}

func (c *Compiler) compileUnit(ctx context.Context, u *Unit, src Source) {
	if ctx.Err() != nil {
		c.setStatus(u, Skipped)
		return
	}

	timed := c.chrono != chrono.Nop
	if timed {
		u.Timings = &Timings{}
	}
	total := c.chrono.Begin(u.Name + "/total")
	defer func() {
		d := c.chrono.End(total)
		if u.Timings != nil {
			u.Timings.Total = d
		}
	}()

	var list diag.List
	reporter := diag.Reporter(&list)
	if c.stream {
		reporter = diag.Tee(&list, diag.ReporterFunc(func(d diag.Diagnostic) {
			c.send(ctx, transport.Payload{Kind: transport.KindDiagnostic, Unit: u.Name, Diagnostic: &d})
		}))
	}

	if d, fatal := checkSource(src); fatal {
		reporter.Report(d)
		u.Diagnostics = list.Items()
		c.setStatus(u, Failed)
		return
	}

	// --- Scan + Parse ---
	// The parser pulls tokens from the lexer on demand, so the two phases
	// interleave. Scanning covers setting up the token source; from Parsing
	// on, both run together and timedSource tells their costs apart.
	c.setStatus(u, Scanning)
	lex := lexer.NewLexer(string(src.Text), reporter)
	var tokens parser.TokenSource = lex
	var ts *timedSource
	if timed {
		ts = &timedSource{src: lex}
		tokens = ts
	}

	c.setStatus(u, Parsing)
	h := c.chrono.Begin(u.Name + "/scan+parse")
	p := parser.NewParser(tokens,
		parser.WithName(u.Name),
		parser.WithReporter(reporter),
		parser.WithSyncSet(c.syncSet),
		parser.WithContext(ctx))
	u.Program = p.ParseProgram()
	scanParse := c.chrono.End(h)

	if ts != nil {
		parse := max(scanParse-ts.elapsed, 0)
		chrono.Record(c.chrono, u.Name+"/scan", ts.elapsed)
		chrono.Record(c.chrono, u.Name+"/parse", parse)
		u.Timings.Scan, u.Timings.Parse = ts.elapsed, parse
	}

	if p.Canceled() {
		u.Diagnostics = list.Items()
		c.logger.Debug("unit abandoned mid-parse", "unit", u.Name)
		c.setStatus(u, Skipped)
		return
	}

	// --- Index ---
	c.setStatus(u, Indexing)
	ih := c.chrono.Begin(u.Name + "/index")
	u.Symbols = scope.Build(u.Program, reporter).Sorted()
	if d := c.chrono.End(ih); u.Timings != nil {
		u.Timings.Index = d
	}

	if c.emitTree {
		em := emitter.NewEmitter()
		u.Artifact = em.Emit(u.Program)
		for _, msg := range em.Errors() {
			c.logger.Warn("tree rendering incomplete", "unit", u.Name, "error", msg)
		}
	}

	u.Diagnostics = list.Items()
	if u.ErrorCount() > 0 {
		c.setStatus(u, Failed)
	} else {
		c.setStatus(u, Succeeded)
	}
}

func (c *Compiler) setStatus(u *Unit, s Status) {
	u.Status = s
	if s.Done() {
		c.logger.Info("unit compiled",
			"unit", u.Name,
			"status", s,
			"errors", u.ErrorCount(),
			"warnings", u.WarningCount())
		return
	}
	c.logger.Debug("unit status", "unit", u.Name, "status", s)
}

// send forwards p and logs, but otherwise ignores, delivery failures.
func (c *Compiler) send(ctx context.Context, p transport.Payload) {
	if err := c.transport.Send(ctx, p); err != nil {
		c.logger.Warn("transport send failed", "kind", p.Kind, "unit", p.Unit, "error", err)
	}
}

// checkSource reports conditions that prevent a unit from being scanned at
// all. Such diagnostics point at the start of the unit, or at the first
// undecodable byte.
func checkSource(src Source) (diag.Diagnostic, bool) {
	start := token.Span{Line: 1, Column: 1}
	if src.Err != nil {
		return diag.Errorf(diag.UnreadableSource, start, "cannot read source: %v", src.Err), true
	}
	if off := firstInvalidByte(src.Text); off >= 0 {
		line := 1 + bytes.Count(src.Text[:off], []byte("\n"))
		col := off - bytes.LastIndexByte(src.Text[:off], '\n')
		span := token.Span{Start: off, End: off, Line: line, Column: col}
		return diag.Errorf(diag.InvalidEncoding, span, "source is not valid UTF-8: invalid byte 0x%02x", src.Text[off]), true
	}
	return diag.Diagnostic{}, false
}

func firstInvalidByte(b []byte) int {
	if utf8.Valid(b) {
		return -1
	}
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return -1
}

// timedSource accumulates the time spent producing tokens so scanning can
// be told apart from parsing even though the parser pulls tokens lazily.
type timedSource struct {
	src     parser.TokenSource
	elapsed time.Duration
}

func (t *timedSource) NextToken() token.Token {
	start := time.Now()
	tok := t.src.NextToken()
	t.elapsed += time.Since(start)
	return tok
}

// WriteArtifacts writes the tree of every unit that has one into outDir and
// returns the written paths. Two units that map to the same file are an
// error, and nothing is written in that case.
func WriteArtifacts(res *Result, outDir string) ([]string, error) {
	var units []*Unit
	var paths []string
	owner := make(map[string]string)
	for _, u := range res.Units {
		if u.Artifact == "" {
			continue
		}
		outFile := filepath.Join(outDir, artifactName(u.Name))
		if prev, dup := owner[outFile]; dup {
			return nil, fmt.Errorf("units %s and %s would both write %s", prev, u.Name, outFile)
		}
		owner[outFile] = u.Name
		units = append(units, u)
		paths = append(paths, outFile)
	}

	var written []string
	for i, u := range units {
		outFile := paths[i]
		if err := os.MkdirAll(filepath.Dir(outFile), 0o755); err != nil {
			return written, fmt.Errorf("creating output directory: %w", err)
		}
		if err := os.WriteFile(outFile, []byte(u.Artifact), 0o644); err != nil {
			return written, fmt.Errorf("writing %s: %w", outFile, err)
		}
		written = append(written, outFile)
	}
	return written, nil
}

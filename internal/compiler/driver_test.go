package compiler

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ruka-lang/ruka/internal/chrono"
	"github.com/ruka-lang/ruka/internal/compiler/ast"
	"github.com/ruka-lang/ruka/internal/compiler/diag"
	"github.com/ruka-lang/ruka/internal/transport"
)

// --- Test Helper Functions ---

func compile(t *testing.T, opts []Option, sources ...Source) *Result {
	t.Helper()
	res := New(opts...).Compile(context.Background(), sources)
	if len(res.Units) != len(sources) {
		t.Fatalf("expected %d units, got %d", len(sources), len(res.Units))
	}
	return res
}

func checkNoErrors(t *testing.T, u *Unit) {
	t.Helper()
	if u.ErrorCount() == 0 {
		return
	}
	t.Errorf("unit %s has %d errors:", u.Name, u.ErrorCount())
	for i, d := range u.Diagnostics {
		t.Errorf("   diagnostic %d: %s", i+1, d)
	}
	t.FailNow()
}

func hasKind(ds []diag.Diagnostic, k diag.Kind) bool {
	for _, d := range ds {
		if d.Kind == k {
			return true
		}
	}
	return false
}

// --- Orchestration ---

func TestOneMalformedUnitDoesNotHideTheOther(t *testing.T) {
	res := compile(t, nil,
		NewSource("a.ruka", "let x = "),
		NewSource("b.ruka", "fn main() do\n    return 1\nend\n"),
	)

	if res.Success {
		t.Errorf("expected aggregate failure")
	}

	a, b := res.Units[0], res.Units[1]
	if a.Status != Failed {
		t.Errorf("a.ruka: expected failed, got %s", a.Status)
	}
	if len(a.Diagnostics) != 1 || a.Diagnostics[0].Kind != diag.ExpectedExpression {
		t.Errorf("a.ruka: unexpected diagnostics %v", a.Diagnostics)
	}
	if a.Program == nil || ast.CountBad(a.Program) != 1 {
		t.Errorf("a.ruka: expected a partial tree with one error marker")
	}

	checkNoErrors(t, b)
	if b.Status != Succeeded {
		t.Errorf("b.ruka: expected succeeded, got %s", b.Status)
	}
	if b.Program == nil || len(b.Program.Statements) != 1 {
		t.Fatalf("b.ruka: expected one statement")
	}
	if n := ast.CountBad(b.Program); n != 0 {
		t.Errorf("b.ruka: expected a complete tree, found %d error markers", n)
	}
	if len(b.Symbols) != 1 || b.Symbols[0].Name != "main" {
		t.Errorf("b.ruka: unexpected symbols %+v", b.Symbols)
	}

	if got := res.ErrorCount(); got != 1 {
		t.Errorf("expected 1 error overall, got %d", got)
	}
}

func TestFatalUnits(t *testing.T) {
	res := compile(t, nil,
		Source{Name: "gone.ruka", Err: errors.New("file does not exist")},
		NewSource("latin1.ruka", "let a = 1\nlet \xff = 2"),
		NewSource("fine.ruka", "let a = 1"),
	)

	gone := res.Units[0]
	if gone.Status != Failed || gone.Program != nil {
		t.Errorf("gone.ruka: expected failed without a tree, got %s", gone.Status)
	}
	if len(gone.Diagnostics) != 1 || gone.Diagnostics[0].Kind != diag.UnreadableSource {
		t.Fatalf("gone.ruka: unexpected diagnostics %v", gone.Diagnostics)
	}
	if sp := gone.Diagnostics[0].Span; sp.Start != 0 || sp.Len() != 0 || sp.Line != 1 || sp.Column != 1 {
		t.Errorf("gone.ruka: expected a zero-width span at the start, got %+v", sp)
	}

	latin := res.Units[1]
	if latin.Status != Failed || latin.Program != nil {
		t.Errorf("latin1.ruka: expected failed without a tree, got %s", latin.Status)
	}
	if len(latin.Diagnostics) != 1 || latin.Diagnostics[0].Kind != diag.InvalidEncoding {
		t.Fatalf("latin1.ruka: unexpected diagnostics %v", latin.Diagnostics)
	}
	if sp := latin.Diagnostics[0].Span; sp.Start != 14 || sp.Line != 2 || sp.Column != 5 {
		t.Errorf("latin1.ruka: expected the first bad byte at 2:5, got %+v", sp)
	}

	if res.Units[2].Status != Succeeded {
		t.Errorf("fine.ruka: expected succeeded, got %s", res.Units[2].Status)
	}
	if res.Success {
		t.Errorf("expected aggregate failure")
	}
}

func TestCanceledRunSkipsUnits(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := New(WithJobs(4)).Compile(ctx, []Source{
		NewSource("a.ruka", "let x = "),
		NewSource("b.ruka", "let y = 1"),
	})

	for _, u := range res.Units {
		if u.Status != Skipped {
			t.Errorf("%s: expected skipped, got %s", u.Name, u.Status)
		}
		if u.Program != nil || len(u.Diagnostics) != 0 {
			t.Errorf("%s: skipped unit should carry nothing", u.Name)
		}
	}
	if !res.Success {
		t.Errorf("skipped units must not fail the run")
	}
	if res.Skipped() != 2 {
		t.Errorf("expected 2 skipped units, got %d", res.Skipped())
	}
}

func TestParallelResultsKeepInputOrder(t *testing.T) {
	var sources []Source
	for i := range 24 {
		text := fmt.Sprintf("let v%d = %d", i, i)
		if i%5 == 0 {
			text = fmt.Sprintf("let v%d = (%d", i, i)
		}
		sources = append(sources, NewSource(fmt.Sprintf("u%02d.ruka", i), text))
	}

	res := compile(t, []Option{WithJobs(4)}, sources...)

	for i, u := range res.Units {
		if u.Index != i || u.Name != sources[i].Name {
			t.Fatalf("unit %d: got index %d name %s", i, u.Index, u.Name)
		}
		wantFailed := i%5 == 0
		if (u.Status == Failed) != wantFailed {
			t.Errorf("%s: status %s, want failed=%v", u.Name, u.Status, wantFailed)
		}
		if wantFailed {
			continue
		}
		if len(u.Symbols) != 1 || u.Symbols[0].Name != fmt.Sprintf("v%d", i) {
			t.Errorf("%s: unexpected symbols %+v", u.Name, u.Symbols)
		}
	}

	// Flattened diagnostics follow unit order, not completion order.
	ds := res.Diagnostics()
	if len(ds) != 5 {
		t.Fatalf("expected 5 diagnostics, got %d", len(ds))
	}
	for _, d := range ds {
		if d.Kind != diag.UnbalancedDelimiter {
			t.Errorf("unexpected diagnostic %s", d)
		}
	}
}

func TestDuplicateDeclarationsAreWarnings(t *testing.T) {
	res := compile(t, nil, NewSource("dup.ruka", "let a = 1\nfn a() do end"))

	u := res.Units[0]
	if u.Status != Succeeded || !res.Success {
		t.Errorf("warnings must not fail a unit, got %s", u.Status)
	}
	if u.WarningCount() != 1 || !hasKind(u.Diagnostics, diag.DuplicateDeclaration) {
		t.Errorf("expected one duplicate-declaration warning, got %v", u.Diagnostics)
	}
	if len(u.Symbols) != 1 || u.Symbols[0].Name != "a" {
		t.Errorf("expected the first declaration to be kept, got %+v", u.Symbols)
	}
}

func TestChronoRecordsPhases(t *testing.T) {
	sw := chrono.NewStopwatch()
	res := compile(t, []Option{WithChrono(sw)}, NewSource("a.ruka", "let a = 1 + 2"))

	for _, label := range []string{"a.ruka/total", "a.ruka/scan+parse", "a.ruka/scan", "a.ruka/parse", "a.ruka/index"} {
		if _, ok := sw.Lookup(label); !ok {
			t.Errorf("no interval recorded for %s", label)
		}
	}

	u := res.Units[0]
	if u.Timings == nil {
		t.Fatalf("expected timings when a stopwatch is configured")
	}
	if u.Timings.Total < u.Timings.Scan {
		t.Errorf("total %s shorter than scan %s", u.Timings.Total, u.Timings.Scan)
	}

	res = compile(t, nil, NewSource("a.ruka", "let a = 1"))
	if res.Units[0].Timings != nil {
		t.Errorf("expected no timings without a stopwatch")
	}
}

func TestTransportStreamsDiagnosticsAndResult(t *testing.T) {
	var buf bytes.Buffer
	res := compile(t, []Option{WithTransport(transport.NewStream(&buf)), WithStreamDiagnostics()},
		NewSource("a.ruka", "let x = "),
		NewSource("b.ruka", "let y = 2"),
	)
	if res.Success {
		t.Errorf("expected aggregate failure")
	}

	var kinds []string
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var p struct {
			Kind   string `json:"kind"`
			Unit   string `json:"unit"`
			Result struct {
				Success bool `json:"success"`
				Units   []struct {
					Name   string `json:"name"`
					Status string `json:"status"`
				} `json:"units"`
			} `json:"result"`
		}
		if err := json.Unmarshal(sc.Bytes(), &p); err != nil {
			t.Fatalf("invalid payload %q: %v", sc.Text(), err)
		}
		kinds = append(kinds, p.Kind+":"+p.Unit)
		if p.Kind == "result" {
			if p.Result.Success || len(p.Result.Units) != 2 || p.Result.Units[1].Status != "succeeded" {
				t.Errorf("unexpected result payload %s", sc.Text())
			}
		}
	}

	want := []string{"diagnostic:a.ruka", "result:"}
	if strings.Join(kinds, ",") != strings.Join(want, ",") {
		t.Errorf("expected payloads %v, got %v", want, kinds)
	}
}

type failingTransport struct{}

func (failingTransport) Send(context.Context, transport.Payload) error {
	return errors.New("connection refused")
}

func TestTransportFailureDoesNotChangeOutcome(t *testing.T) {
	res := compile(t, []Option{WithTransport(failingTransport{}), WithStreamDiagnostics()},
		NewSource("a.ruka", "let a = 1"))
	if !res.Success || res.Units[0].Status != Succeeded {
		t.Errorf("transport failure changed the outcome: %s", res.Units[0].Status)
	}
}

// --- Golden Files ---

func TestGoodSources(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "good", "*"+Extension))
	if err != nil || len(paths) == 0 {
		t.Fatalf("no good sources found: %v", err)
	}

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			src := ReadSources([]string{path})[0]
			if src.Err != nil {
				t.Fatal(src.Err)
			}
			src.Name = filepath.Base(path)

			res := compile(t, []Option{WithEmitTree()}, src)
			u := res.Units[0]
			checkNoErrors(t, u)
			if n := ast.CountBad(u.Program); n != 0 {
				t.Errorf("expected a complete tree, found %d error markers", n)
			}

			golden := strings.TrimSuffix(path, Extension) + ".tree"
			want, err := os.ReadFile(golden)
			if errors.Is(err, os.ErrNotExist) {
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if u.Artifact != string(want) {
				t.Errorf("tree mismatch\nexpected:\n%s\nactual:\n%s", want, u.Artifact)
			}
		})
	}
}

func TestBadSources(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "bad", "*"+Extension))
	if err != nil || len(paths) == 0 {
		t.Fatalf("no bad sources found: %v", err)
	}

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			src := ReadSources([]string{path})[0]
			if src.Err != nil {
				t.Fatal(src.Err)
			}

			// The first line names the diagnostic the file must produce.
			first, _, _ := strings.Cut(string(src.Text), "\n")
			want := diag.Kind(strings.TrimSpace(strings.TrimPrefix(first, "// expect:")))

			res := compile(t, nil, src)
			u := res.Units[0]
			if u.Status != Failed || res.Success {
				t.Fatalf("expected failure, got %s", u.Status)
			}
			if !hasKind(u.Diagnostics, want) {
				t.Errorf("expected a %s diagnostic, got %v", want, u.Diagnostics)
			}
			if u.Program == nil || ast.CountBad(u.Program) == 0 {
				t.Errorf("expected a partial tree with error markers")
			}
		})
	}
}

// --- Sources and Artifacts ---

func TestReadSources(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "main.ruka")
	if err := os.WriteFile(good, []byte("let a = 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	srcs := ReadSources([]string{good, filepath.Join(dir, "main.grc"), filepath.Join(dir, "missing.ruka")})
	if srcs[0].Err != nil || string(srcs[0].Text) != "let a = 1\n" {
		t.Errorf("main.ruka: unexpected %+v", srcs[0])
	}
	if srcs[1].Err == nil || !strings.Contains(srcs[1].Err.Error(), Extension) {
		t.Errorf("main.grc: expected an extension error, got %v", srcs[1].Err)
	}
	if !errors.Is(srcs[2].Err, os.ErrNotExist) {
		t.Errorf("missing.ruka: expected a wrapped not-exist error, got %v", srcs[2].Err)
	}

	res := compile(t, nil, srcs...)
	if res.Units[1].Status != Failed || res.Units[2].Status != Failed {
		t.Errorf("unreadable sources must fail their units")
	}
	if res.Units[0].Status != Succeeded {
		t.Errorf("main.ruka: expected succeeded, got %s", res.Units[0].Status)
	}
}

func TestWriteArtifacts(t *testing.T) {
	res := compile(t, []Option{WithEmitTree()},
		NewSource("src/one.ruka", "let a = 1"),
		Source{Name: "two.ruka", Err: errors.New("unreadable")},
	)

	out := filepath.Join(t.TempDir(), "out")
	written, err := WriteArtifacts(res, out)
	if err != nil {
		t.Fatal(err)
	}
	if len(written) != 1 || written[0] != filepath.Join(out, "src", "one.tree") {
		t.Fatalf("unexpected artifacts %v", written)
	}

	b, err := os.ReadFile(written[0])
	if err != nil {
		t.Fatal(err)
	}
	want := "(program \"src/one.ruka\"\n  (let a (int 1)))\n"
	if string(b) != want {
		t.Errorf("expected %q, got %q", want, b)
	}
}

func TestWriteArtifactsKeepsRelativeDirectories(t *testing.T) {
	res := compile(t, []Option{WithEmitTree()},
		NewSource(filepath.Join("a", "main.ruka"), "let a = 1"),
		NewSource(filepath.Join("b", "main.ruka"), "let b = 2"),
	)

	out := t.TempDir()
	written, err := WriteArtifacts(res, out)
	if err != nil {
		t.Fatal(err)
	}
	if len(written) != 2 || written[0] == written[1] {
		t.Fatalf("expected two distinct artifacts, got %v", written)
	}

	for i, want := range []string{"(let a (int 1))", "(let b (int 2))"} {
		b, err := os.ReadFile(written[i])
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(b), want) {
			t.Errorf("%s: expected %s, got %q", written[i], want, b)
		}
	}
}

func TestWriteArtifactsRejectsCollisions(t *testing.T) {
	dir := t.TempDir()
	res := compile(t, []Option{WithEmitTree()},
		NewSource(filepath.Join(dir, "a", "main.ruka"), "let a = 1"),
		NewSource(filepath.Join(dir, "b", "main.ruka"), "let b = 2"),
	)

	out := filepath.Join(t.TempDir(), "out")
	written, err := WriteArtifacts(res, out)
	if err == nil {
		t.Fatalf("expected an error for two units writing main.tree, got %v", written)
	}
	if !strings.Contains(err.Error(), "main.tree") {
		t.Errorf("unexpected error %v", err)
	}
	if _, statErr := os.Stat(out); !errors.Is(statErr, os.ErrNotExist) {
		t.Errorf("expected nothing to be written, stat returned %v", statErr)
	}
}

func TestStatusTransitionsAreLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	compile(t, []Option{WithLogger(logger)}, NewSource("a.ruka", "let a = 1"))

	var got []string
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var rec struct {
			Msg    string `json:"msg"`
			Unit   string `json:"unit"`
			Status string `json:"status"`
		}
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			t.Fatalf("bad log line %q: %v", sc.Text(), err)
		}
		if rec.Unit == "a.ruka" && rec.Status != "" {
			got = append(got, rec.Status)
		}
	}

	want := []string{"scanning", "parsing", "indexing", "succeeded"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("expected transitions %v, got %v", want, got)
	}
}

func TestUnitJSON(t *testing.T) {
	res := compile(t, nil, NewSource("a.ruka", "pub fn f(x: int) -> int do return x end"))

	b, err := json.Marshal(res)
	if err != nil {
		t.Fatal(err)
	}
	var got struct {
		Success bool `json:"success"`
		Units   []struct {
			Status      string            `json:"status"`
			Diagnostics []json.RawMessage `json:"diagnostics"`
			Symbols     []struct {
				Name   string `json:"name"`
				Kind   string `json:"kind"`
				Public bool   `json:"public"`
			} `json:"symbols"`
		} `json:"units"`
	}
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if !got.Success || len(got.Units) != 1 || got.Units[0].Status != "succeeded" {
		t.Fatalf("unexpected JSON %s", b)
	}
	if got.Units[0].Diagnostics == nil {
		t.Errorf("diagnostics should encode as an empty list, got %s", b)
	}
	syms := got.Units[0].Symbols
	if len(syms) != 1 || syms[0].Name != "f" || syms[0].Kind != "function" || !syms[0].Public {
		t.Errorf("unexpected symbols %s", b)
	}
}

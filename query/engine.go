// Package query implements the filter-expression compiler and scanner
// described in spec.md §4.6: substring, /regex/, and XPath-like event-name
// queries over a trace.Database, returning a lazy result set.
package query

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"wtftrace/trace"
)

// Predicate reports whether one event matches a compiled query.
type Predicate func(it *trace.EventIterator) bool

// Expression is a compiled filter: a predicate plus its display form.
type Expression struct {
	Source    string
	Display   string
	predicate Predicate
}

// Compile parses a filter expression per spec.md §4.6:
//   - "/regex/"       — anchored literally as given, matched against the event name.
//   - "a/b/c"         — XPath-like "descendant-or-self::" selector: matches
//     an event whose full name equals the selector, or ends with "/" plus the
//     selector's last segment ("ns/foo" matches "other/foo").
//   - anything else   — case-sensitive substring match over the event name.
func Compile(source string) (*Expression, error) {
	switch {
	case len(source) >= 2 && source[0] == '/' && source[len(source)-1] == '/':
		pattern := source[1 : len(source)-1]
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, &trace.QueryCompileError{
				EventStoreError: trace.EventStoreError{Op: "query.compile", Err: err},
				Expression:      source,
			}
		}
		return &Expression{
			Source:  source,
			Display: fmt.Sprintf("regex(%s)", pattern),
			predicate: func(it *trace.EventIterator) bool {
				return re.MatchString(it.Name())
			},
		}, nil

	case strings.Contains(source, "/"):
		selector := strings.Trim(source, "/")
		segments := strings.Split(selector, "/")
		suffix := "/" + segments[len(segments)-1]
		return &Expression{
			Source:  source,
			Display: fmt.Sprintf("path(%s)", selector),
			predicate: func(it *trace.EventIterator) bool {
				name := it.Name()
				return name == selector || strings.HasSuffix(name, suffix)
			},
		}, nil

	default:
		return &Expression{
			Source:  source,
			Display: fmt.Sprintf("substring(%s)", source),
			predicate: func(it *trace.EventIterator) bool {
				return strings.Contains(it.Name(), source)
			},
		}, nil
	}
}

// Match is one matching event, identified by zone and record index.
type Match struct {
	Zone     string
	EventID  int
	Name     string
	TimeMs   int64
	EndMs    int64
	Duration float64
}

// Result is the lazy result set of a Scan: the compiled expression, the
// matching events (already materialized — "lazy" here means the scan itself
// defers per-zone work to goroutines, not that Matches is re-evaluated on
// read), and how long the scan took.
type Result struct {
	Expression *Expression
	Matches    []Match
	Elapsed    time.Duration
}

// Engine scans a trace.Database with a compiled predicate.
type Engine struct {
	db *trace.Database
}

func NewEngine(db *trace.Database) *Engine {
	return &Engine{db: db}
}

// Scan runs expr across every zone in the database concurrently — each
// zone's backing buffer is read-only once committed (spec.md §5), so
// independent concurrent scans need no locking. The first compile/scan
// error across zones is returned (SPEC_FULL.md §3, golang.org/x/sync).
func (e *Engine) Scan(ctx context.Context, expr *Expression) (*Result, error) {
	start := time.Now()
	zones := e.db.Zones()

	perZone := make([][]Match, len(zones))
	g, _ := errgroup.WithContext(ctx)
	for i, z := range zones {
		i, z := i, z
		g.Go(func() error {
			perZone[i] = scanZone(z, expr)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var matches []Match
	for _, m := range perZone {
		matches = append(matches, m...)
	}
	return &Result{Expression: expr, Matches: matches, Elapsed: time.Since(start)}, nil
}

func scanZone(z *trace.Zone, expr *Expression) []Match {
	var out []Match
	it := z.Store.Begin()
	for !it.Done() {
		if expr.predicate(it) {
			out = append(out, Match{
				Zone:     z.Name,
				EventID:  it.ID(),
				Name:     it.Name(),
				TimeMs:   it.TimeMs(),
				EndMs:    it.EndTimeMs(),
				Duration: it.TotalDurationMs(),
			})
		}
		it.Next()
	}
	return out
}

// Dump serializes a Result as CSV: one row per event, columns
// (zone, time_ms, type_name, duration_ms, arguments-as-JSON). Arguments are
// not carried on Match, so argLookup resolves them per (zone, eventID) —
// callers holding the scanned trace.Database can pass its ArgumentsFor.
func (r *Result) Dump(w io.Writer, argLookup func(zone string, eventID int) *trace.ArgumentData) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"zone", "time_ms", "type_name", "duration_ms", "arguments"}); err != nil {
		return err
	}
	for _, m := range r.Matches {
		argsJSON := "{}"
		if argLookup != nil {
			if args := argLookup(m.Zone, m.EventID); args != nil {
				if b, err := argsToJSON(args); err == nil {
					argsJSON = string(b)
				}
			}
		}
		row := []string{
			m.Zone,
			strconv.FormatInt(m.TimeMs, 10),
			m.Name,
			strconv.FormatFloat(m.Duration, 'f', -1, 64),
			argsJSON,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	return cw.Error()
}

func argsToJSON(args *trace.ArgumentData) ([]byte, error) {
	m := make(map[string]any, args.Len())
	for _, k := range args.Keys() {
		v, _ := args.Get(k)
		m[k] = valueToAny(v)
	}
	return json.Marshal(m)
}

func valueToAny(v trace.Value) any {
	switch v.Kind {
	case trace.KindInt:
		return v.Int
	case trace.KindFloat:
		return v.Float
	case trace.KindString:
		return v.Str
	case trace.KindBytes:
		return v.Bytes
	case trace.KindList:
		out := make([]any, len(v.List))
		for i, e := range v.List {
			out[i] = valueToAny(e)
		}
		return out
	case trace.KindMap:
		out := make(map[string]any, len(v.Map))
		for _, kv := range v.Map {
			out[kv.Key] = valueToAny(kv.Value)
		}
		return out
	default:
		return nil
	}
}

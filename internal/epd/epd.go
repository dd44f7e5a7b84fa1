// Package epd reads Extended Position Description records, the format test
// suites such as STS are distributed in.
package epd

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/abrenneke/rescue-chess/internal/board"
)

// Record is one EPD line: a position and its operations.
type Record struct {
	Line     int // 1-based line number in the source, 0 when parsed directly
	Position *board.Position
	Ops      map[string][]string
}

// Parse reads a single EPD record. The four position fields are required;
// the halfmove clock and move number default to 0 and 1 unless hmvc or fmvn
// operations say otherwise.
func Parse(line string) (*Record, error) {
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return nil, fmt.Errorf("%w: EPD needs four position fields: %q", board.ErrMalformedNotation, line)
	}

	ops, err := parseOps(strings.Join(fields[4:], " "))
	if err != nil {
		return nil, err
	}

	hmvc, fmvn := "0", "1"
	if v := ops["hmvc"]; len(v) == 1 {
		hmvc = v[0]
	}
	if v := ops["fmvn"]; len(v) == 1 {
		fmvn = v[0]
	}
	pos, err := board.ParseFEN(strings.Join(append(fields[:4:4], hmvc, fmvn), " "))
	if err != nil {
		return nil, err
	}
	return &Record{Position: pos, Ops: ops}, nil
}

// parseOps splits "bm Nf3; id \"x y\";" into opcodes and operands. Quoted
// operands may hold spaces and semicolons.
func parseOps(s string) (map[string][]string, error) {
	ops := make(map[string][]string)
	var (
		tokens []string
		cur    strings.Builder
		quoted bool
		inTok  bool
	)
	flushTok := func() {
		if inTok {
			tokens = append(tokens, cur.String())
			cur.Reset()
			inTok = false
		}
	}
	flushOp := func() error {
		flushTok()
		if len(tokens) == 0 {
			return nil
		}
		op := tokens[0]
		if !validOpcode(op) {
			return fmt.Errorf("%w: bad EPD opcode %q", board.ErrMalformedNotation, op)
		}
		ops[op] = tokens[1:]
		tokens = nil
		return nil
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quoted && c == '"':
			quoted = false
		case quoted:
			cur.WriteByte(c)
		case c == '"':
			quoted, inTok = true, true
		case c == ';':
			if err := flushOp(); err != nil {
				return nil, err
			}
		case c == ' ' || c == '\t':
			flushTok()
		default:
			cur.WriteByte(c)
			inTok = true
		}
	}
	if quoted {
		return nil, fmt.Errorf("%w: unterminated string in %q", board.ErrMalformedNotation, s)
	}
	if err := flushOp(); err != nil {
		return nil, err
	}
	return ops, nil
}

func validOpcode(op string) bool {
	if op == "" {
		return false
	}
	c := op[0]
	if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
		return false
	}
	for i := 1; i < len(op); i++ {
		c := op[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_') {
			return false
		}
	}
	return true
}

// ReadAll parses every non-blank line of r. Lines starting with '#' are
// skipped. The first bad line stops the read.
func ReadAll(r io.Reader) ([]*Record, error) {
	var out []*Record
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	n := 0
	for sc.Scan() {
		n++
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		rec, err := Parse(line)
		if err != nil {
			return out, fmt.Errorf("line %d: %w", n, err)
		}
		rec.Line = n
		out = append(out, rec)
	}
	return out, sc.Err()
}

// ID returns the id operation, or "" if there is none.
func (r *Record) ID() string {
	if v := r.Ops["id"]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// Comment returns comment cN (0 through 9).
func (r *Record) Comment(n int) string {
	if v := r.Ops[fmt.Sprintf("c%d", n)]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// BestMoves returns the bm operands in SAN.
func (r *Record) BestMoves() []string { return r.Ops["bm"] }

// AvoidMoves returns the am operands in SAN.
func (r *Record) AvoidMoves() []string { return r.Ops["am"] }

// String renders the record back to EPD with opcodes in sorted order.
func (r *Record) String() string {
	var b strings.Builder
	fen := strings.Fields(r.Position.FEN())
	b.WriteString(strings.Join(fen[:4], " "))

	keys := make([]string, 0, len(r.Ops))
	for k := range r.Ops {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(k)
		for _, v := range r.Ops[k] {
			b.WriteByte(' ')
			if strings.ContainsAny(v, " ;\"") || k == "id" || (len(k) == 2 && k[0] == 'c') {
				b.WriteString(`"` + v + `"`)
			} else {
				b.WriteString(v)
			}
		}
		b.WriteByte(';')
	}
	return b.String()
}

package maincmd

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/embers-lang/embers/lang/sexpr"
)

// readForms is a small recursive-descent reader for the CLI's own benefit:
// lang/sexpr deliberately has no general reader (spec §1, the reader is out
// of scope for the compiler core), so a command that wants to run source
// text through pass 1 needs something to turn that text into sexpr.Value
// forms first. This is intentionally minimal — symbols, integers, booleans,
// strings, proper/dotted lists, and #(...) vectors, no quote/quasiquote
// shorthand, no characters, no floats — exactly enough surface for the
// worked examples a CLI user is expected to hand it. It lives here rather
// than in lang/sexpr so the core module itself still owns no reader.
func readForms(src string) ([]sexpr.Value, error) {
	r := &reader{src: src}
	var forms []sexpr.Value
	for {
		r.skipSpace()
		if r.atEOF() {
			return forms, nil
		}
		v, err := r.readValue()
		if err != nil {
			return nil, err
		}
		forms = append(forms, v)
	}
}

type reader struct {
	src string
	pos int
}

func (r *reader) atEOF() bool { return r.pos >= len(r.src) }

func (r *reader) peek() byte {
	if r.atEOF() {
		return 0
	}
	return r.src[r.pos]
}

func (r *reader) skipSpace() {
	for !r.atEOF() {
		c := r.peek()
		switch {
		case c == ';':
			for !r.atEOF() && r.peek() != '\n' {
				r.pos++
			}
		case unicode.IsSpace(rune(c)):
			r.pos++
		default:
			return
		}
	}
}

func (r *reader) readValue() (sexpr.Value, error) {
	r.skipSpace()
	if r.atEOF() {
		return nil, fmt.Errorf("reader: unexpected end of input")
	}
	switch c := r.peek(); {
	case c == '(':
		return r.readList()
	case c == ')':
		return nil, fmt.Errorf("reader: unexpected )")
	case c == '#':
		return r.readHash()
	case c == '"':
		return r.readString()
	default:
		return r.readAtom()
	}
}

func (r *reader) readList() (sexpr.Value, error) {
	r.pos++ // consume (
	var items []sexpr.Value
	var tail sexpr.Value = sexpr.Nil
	for {
		r.skipSpace()
		if r.atEOF() {
			return nil, fmt.Errorf("reader: unterminated list")
		}
		if r.peek() == ')' {
			r.pos++
			break
		}
		if r.peek() == '.' && r.pos+1 < len(r.src) && isDelim(r.src[r.pos+1]) {
			r.pos++
			v, err := r.readValue()
			if err != nil {
				return nil, err
			}
			tail = v
			r.skipSpace()
			if r.atEOF() || r.peek() != ')' {
				return nil, fmt.Errorf("reader: malformed dotted list")
			}
			r.pos++
			break
		}
		v, err := r.readValue()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	result := tail
	for i := len(items) - 1; i >= 0; i-- {
		result = &sexpr.Pair{Car: items[i], Cdr: result}
	}
	return result, nil
}

func (r *reader) readHash() (sexpr.Value, error) {
	r.pos++ // consume #
	if r.atEOF() {
		return nil, fmt.Errorf("reader: unexpected end after #")
	}
	switch r.peek() {
	case 't':
		r.pos++
		return sexpr.Bool(true), nil
	case 'f':
		r.pos++
		return sexpr.Bool(false), nil
	case '(':
		lst, err := r.readList()
		if err != nil {
			return nil, err
		}
		items, ok := sexpr.ToSlice(lst)
		if !ok {
			return nil, fmt.Errorf("reader: improper list in vector literal")
		}
		return sexpr.Vector{Items: items}, nil
	default:
		return nil, fmt.Errorf("reader: unsupported # syntax: #%c", r.peek())
	}
}

func (r *reader) readString() (sexpr.Value, error) {
	r.pos++ // consume opening "
	var sb strings.Builder
	for {
		if r.atEOF() {
			return nil, fmt.Errorf("reader: unterminated string")
		}
		c := r.src[r.pos]
		if c == '"' {
			r.pos++
			return sexpr.Str(sb.String()), nil
		}
		if c == '\\' && r.pos+1 < len(r.src) {
			r.pos++
			c = r.src[r.pos]
		}
		sb.WriteByte(c)
		r.pos++
	}
}

func isDelim(c byte) bool {
	return c == 0 || unicode.IsSpace(rune(c)) || c == '(' || c == ')'
}

func (r *reader) readAtom() (sexpr.Value, error) {
	start := r.pos
	for !r.atEOF() && !isDelim(r.peek()) && r.peek() != ')' {
		r.pos++
	}
	text := r.src[start:r.pos]
	if text == "" {
		return nil, fmt.Errorf("reader: empty atom")
	}
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		return sexpr.Int(i), nil
	}
	return sexpr.Symbol{Name: text}, nil
}

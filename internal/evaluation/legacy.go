// Package evaluation maps canonical form records into structured evaluation documents.
package evaluation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/Riolite55/performance-evaluation/internal/types"
)

// nullLiterals are bare values written for empty cells in a dumped row
var nullLiterals = map[string]struct{}{
	"None": {},
	"nan":  {},
	"NaN":  {},
	"null": {},
}

// AssembleLegacy assembles a document from a row that was dumped as a
// dictionary literal, e.g. {'Timestamp': '01/01/2025 10:00:00', 'Score': 4}.
func (a *Assembler) AssembleLegacy(encoded string) (*types.Document, error) {
	rec, err := ParseLegacyRecord(encoded)
	if err != nil {
		return nil, err
	}
	return a.Assemble(rec), nil
}

// ParseLegacyRecord reads a dictionary literal with quoted string keys and
// quoted or bare scalar values. None/nan/null become absent values.
func ParseLegacyRecord(encoded string) (types.Record, error) {
	p := &legacyParser{src: []rune(encoded)}
	fields, err := p.parse()
	if err != nil {
		return types.Record{}, &FormatError{
			Message: "record is not a key/value dictionary",
			Cause:   err,
		}
	}
	return types.NewRecord(fields), nil
}

type legacyParser struct {
	src []rune
	pos int
}

func (p *legacyParser) parse() ([]types.Field, error) {
	p.skipSpace()
	if err := p.expect('{'); err != nil {
		return nil, err
	}

	var fields []types.Field
	p.skipSpace()
	if p.peek() == '}' {
		p.pos++
		return fields, p.end()
	}

	for {
		p.skipSpace()
		key, err := p.quoted()
		if err != nil {
			return nil, fmt.Errorf("key %d: %w", len(fields)+1, err)
		}

		p.skipSpace()
		if err := p.expect(':'); err != nil {
			return nil, err
		}

		p.skipSpace()
		value, err := p.value()
		if err != nil {
			return nil, fmt.Errorf("value for %q: %w", key, err)
		}
		fields = append(fields, types.Field{Key: key, Value: value})

		p.skipSpace()
		switch p.peek() {
		case ',':
			p.pos++
			p.skipSpace()
			if p.peek() == '}' {
				p.pos++
				return fields, p.end()
			}
		case '}':
			p.pos++
			return fields, p.end()
		default:
			return nil, p.unexpected("',' or '}'")
		}
	}
}

func (p *legacyParser) value() (*string, error) {
	switch p.peek() {
	case '\'', '"':
		s, err := p.quoted()
		if err != nil {
			return nil, err
		}
		return types.StringPtr(s), nil
	}

	start := p.pos
	for p.pos < len(p.src) && p.src[p.pos] != ',' && p.src[p.pos] != '}' {
		p.pos++
	}
	bare := strings.TrimSpace(string(p.src[start:p.pos]))
	if bare == "" {
		return nil, p.unexpected("value")
	}
	if strings.ContainsAny(bare, "{[:") {
		return nil, fmt.Errorf("nested or malformed value %q", bare)
	}
	if _, isNull := nullLiterals[bare]; isNull {
		return nil, nil
	}
	return types.StringPtr(bare), nil
}

func (p *legacyParser) quoted() (string, error) {
	quote := p.peek()
	if quote != '\'' && quote != '"' {
		return "", p.unexpected("quoted string")
	}
	p.pos++

	var sb strings.Builder
	for p.pos < len(p.src) {
		r := p.src[p.pos]
		p.pos++
		switch r {
		case quote:
			return sb.String(), nil
		case '\\':
			if p.pos >= len(p.src) {
				return "", fmt.Errorf("unterminated escape")
			}
			esc := p.src[p.pos]
			p.pos++
			switch esc {
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case 'r':
				sb.WriteRune('\r')
			default:
				sb.WriteRune(esc)
			}
		default:
			sb.WriteRune(r)
		}
	}
	return "", fmt.Errorf("unterminated string")
}

func (p *legacyParser) expect(r rune) error {
	if p.peek() != r {
		return p.unexpected(fmt.Sprintf("%q", r))
	}
	p.pos++
	return nil
}

func (p *legacyParser) end() error {
	p.skipSpace()
	if p.pos != len(p.src) {
		return fmt.Errorf("trailing content at offset %d", p.pos)
	}
	return nil
}

func (p *legacyParser) peek() rune {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *legacyParser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(p.src[p.pos]) {
		p.pos++
	}
}

func (p *legacyParser) unexpected(want string) error {
	if p.pos >= len(p.src) {
		return fmt.Errorf("expected %s, got end of input", want)
	}
	return fmt.Errorf("expected %s at offset %d, got %q", want, p.pos, p.src[p.pos])
}

package query

import (
	"context"
	"strings"
)

// token is one whitespace-delimited unit of a raw query string. A token
// with hasField set came in as field:value syntax.
type token struct {
	field    string
	value    string
	hasField bool
}

// Compile tokenizes a raw search string and combines the per-token
// predicates conjunctively. field:value tokens dispatch to the operator
// registry; bare terms go through the default field. The full boolean
// grammar (NOT, parentheses) is deliberately not part of this front door.
func (b *Builder) Compile(ctx context.Context, raw string) (Predicate, error) {
	tokens := scan(raw)
	if len(tokens) == 0 {
		return nil, parseErrorf("empty query")
	}
	preds := make([]Predicate, 0, len(tokens))
	for _, tok := range tokens {
		if tok.hasField {
			p, err := b.Dispatch(ctx, tok.field, tok.value)
			if err != nil {
				return nil, err
			}
			preds = append(preds, p)
			continue
		}
		preds = append(preds, b.DefaultField(tok.value))
	}
	return And(preds...), nil
}

// scan splits a raw query on whitespace, honoring double quotes around
// values and bare terms. Field keywords are lowercased; quotes are
// stripped from values.
func scan(raw string) []token {
	var tokens []token
	var buf strings.Builder
	inQuotes := false

	flush := func() {
		if buf.Len() == 0 {
			return
		}
		tokens = append(tokens, splitToken(buf.String()))
		buf.Reset()
	}

	for _, r := range raw {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			buf.WriteRune(r)
		case !inQuotes && (r == ' ' || r == '\t' || r == '\n'):
			flush()
		default:
			buf.WriteRune(r)
		}
	}
	flush()
	return tokens
}

// splitToken separates field:value syntax from bare terms. A colon only
// introduces a field when what precedes it looks like a keyword; anything
// else stays a bare term, quoted values lose their quotes.
func splitToken(s string) token {
	if i := strings.IndexByte(s, ':'); i > 0 && isKeyword(s[:i]) {
		return token{
			field:    strings.ToLower(s[:i]),
			value:    unquote(s[i+1:]),
			hasField: true,
		}
	}
	return token{value: unquote(s)}
}

func isKeyword(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && r != '_' {
			return false
		}
	}
	return true
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

package nl2sql

import (
	"errors"
	"fmt"
	"strings"
)

var ErrStatementRejected = errors.New("statement rejected")

// SplitStatements splits a reply on ';' into trimmed, non-empty statements.
// Semicolons inside string literals are not special-cased.
func SplitStatements(reply string) []string {
	parts := strings.Split(stripMarkdownSQL(reply), ";")
	statements := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		statements = append(statements, trimmed)
	}
	return statements
}

func stripMarkdownSQL(value string) string {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```sql")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(trimmed, "```")
		return strings.TrimSpace(trimmed)
	}
	return trimmed
}

var (
	writeKeywords = keywordSet("INSERT", "UPDATE", "DELETE", "MERGE", "DROP", "CREATE", "ALTER", "TRUNCATE",
		"ATTACH", "DETACH", "COPY", "PRAGMA", "INSTALL", "LOAD", "EXPORT", "IMPORT", "CALL", "SET", "GRANT", "REVOKE")
	// FROM inside these calls is argument syntax, not a relation list.
	fromArgumentCalls = keywordSet("EXTRACT", "SUBSTRING", "TRIM", "OVERLAY", "POSITION")
	fromClauseEnd     = keywordSet("WHERE", "GROUP", "HAVING", "ORDER", "LIMIT", "OFFSET", "FETCH", "QUALIFY",
		"WINDOW", "UNION", "INTERSECT", "EXCEPT", "SELECT", "RETURNING")
	fileFunctions = keywordSet("GETENV", "GLOB", "SNIFF_CSV", "QUERY", "QUERY_TABLE", "PARQUET_SCAN",
		"PARQUET_METADATA", "PARQUET_SCHEMA", "ICEBERG_SCAN", "DELTA_SCAN")
	schemaQualifiers = keywordSet("MAIN", "PUBLIC")
)

// Guard accepts only read-only statements over one table. It tokenizes the
// statement and checks every relation of every FROM clause; it is not a full
// parser.
type Guard struct {
	Table string
}

func (g Guard) Check(statement string) error {
	tokens, err := tokenizeSQL(statement)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStatementRejected, err)
	}
	first := 0
	for first < len(tokens) && tokens[first].is("(") {
		first++
	}
	if first == len(tokens) || !tokens[first].keywordIn(keywordSet("SELECT", "WITH")) {
		return fmt.Errorf("%w: only SELECT statements are allowed", ErrStatementRejected)
	}

	allowed := map[string]struct{}{strings.ToLower(g.Table): {}}
	for i, tok := range tokens {
		if tok.keywordIn(writeKeywords) {
			return fmt.Errorf("%w: %s is not allowed", ErrStatementRejected, tok.upper)
		}
		if tok.kind == tokenIdent && i+1 < len(tokens) && tokens[i+1].is("(") {
			if tok.keywordIn(fileFunctions) || strings.HasPrefix(tok.upper, "READ_") {
				return fmt.Errorf("%w: function %s is not allowed", ErrStatementRejected, tok.text)
			}
		}
		// WITH name AS (, WITH RECURSIVE name AS ( and , name AS (
		if tok.keyword("AS") && i >= 2 && i+1 < len(tokens) && tokens[i+1].is("(") && tokens[i-1].kind == tokenIdent {
			if prev := tokens[i-2]; prev.keyword("WITH") || prev.keyword("RECURSIVE") || prev.is(",") {
				allowed[strings.ToLower(tokens[i-1].text)] = struct{}{}
			}
		}
	}

	var argumentParens []bool
	for i, tok := range tokens {
		switch {
		case tok.is("("):
			argumentParens = append(argumentParens, i > 0 && tokens[i-1].keywordIn(fromArgumentCalls))
		case tok.is(")"):
			if len(argumentParens) > 0 {
				argumentParens = argumentParens[:len(argumentParens)-1]
			}
		case tok.keyword("FROM"):
			if len(argumentParens) > 0 && argumentParens[len(argumentParens)-1] {
				continue
			}
			if i >= 2 && tokens[i-1].keyword("DISTINCT") && (tokens[i-2].keyword("IS") || tokens[i-2].keyword("NOT")) {
				continue
			}
			if err := checkFromClause(tokens[i+1:], allowed); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkFromClause checks each comma- or JOIN-separated relation at the
// clause's own nesting level. Subqueries are left to the caller's scan.
func checkFromClause(tokens []sqlToken, allowed map[string]struct{}) error {
	depth := 0
	expectRelation := true
	for i, tok := range tokens {
		if depth == 0 {
			switch {
			case tok.is(")"), tok.is(";"), tok.keywordIn(fromClauseEnd):
				return nil
			case tok.is(","), tok.keyword("JOIN"):
				expectRelation = true
				continue
			}
			if expectRelation {
				expectRelation = false
				if err := checkRelation(tokens[i:], allowed); err != nil {
					return err
				}
			}
		}
		if tok.is("(") {
			depth++
		} else if tok.is(")") {
			depth--
		}
	}
	if expectRelation {
		return fmt.Errorf("%w: FROM clause names no relation", ErrStatementRejected)
	}
	return nil
}

func checkRelation(tokens []sqlToken, allowed map[string]struct{}) error {
	tok := tokens[0]
	switch {
	case tok.is("("):
		return nil
	case tok.keyword("LATERAL"):
		return fmt.Errorf("%w: LATERAL is not allowed", ErrStatementRejected)
	case tok.kind == tokenString:
		return fmt.Errorf("%w: reading files is not allowed", ErrStatementRejected)
	case tok.kind != tokenIdent:
		return fmt.Errorf("%w: unexpected %q in FROM clause", ErrStatementRejected, tok.text)
	}

	parts := []sqlToken{tok}
	j := 1
	for j+1 < len(tokens) && tokens[j].is(".") && tokens[j+1].kind == tokenIdent {
		parts = append(parts, tokens[j+1])
		j += 2
	}
	name := parts[len(parts)-1]
	if j < len(tokens) && tokens[j].is("(") {
		return fmt.Errorf("%w: table function %s is not allowed", ErrStatementRejected, name.text)
	}
	for _, qualifier := range parts[:len(parts)-1] {
		if _, ok := schemaQualifiers[strings.ToUpper(qualifier.text)]; !ok {
			return fmt.Errorf("%w: schema %q is not allowed", ErrStatementRejected, qualifier.text)
		}
	}
	if _, ok := allowed[strings.ToLower(name.text)]; !ok {
		return fmt.Errorf("%w: table %q is not allowed", ErrStatementRejected, strings.ToLower(name.text))
	}
	return nil
}

type tokenKind int

const (
	tokenIdent tokenKind = iota
	tokenString
	tokenNumber
	tokenPunct
)

type sqlToken struct {
	kind   tokenKind
	text   string
	upper  string
	quoted bool
}

func (t sqlToken) is(punct string) bool { return t.kind == tokenPunct && t.text == punct }

func (t sqlToken) keyword(word string) bool {
	return t.kind == tokenIdent && !t.quoted && t.upper == word
}

func (t sqlToken) keywordIn(set map[string]struct{}) bool {
	if t.kind != tokenIdent || t.quoted {
		return false
	}
	_, ok := set[t.upper]
	return ok
}

func keywordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, word := range words {
		set[word] = struct{}{}
	}
	return set
}

// tokenizeSQL splits statement into identifiers, string literals, numbers
// and single-character punctuation. Comments are dropped.
func tokenizeSQL(statement string) ([]sqlToken, error) {
	var tokens []sqlToken
	s := statement
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f':
			i++
		case strings.HasPrefix(s[i:], "--"):
			end := strings.IndexByte(s[i:], '\n')
			if end < 0 {
				i = len(s)
			} else {
				i += end + 1
			}
		case strings.HasPrefix(s[i:], "/*"):
			end := strings.Index(s[i+2:], "*/")
			if end < 0 {
				return nil, errors.New("unterminated comment")
			}
			i += end + 4
		case c == '\'' || c == '"':
			text, n, ok := readQuoted(s[i:], c)
			if !ok {
				return nil, errors.New("unterminated quote")
			}
			if c == '\'' {
				tokens = append(tokens, sqlToken{kind: tokenString, text: text})
			} else {
				tokens = append(tokens, sqlToken{kind: tokenIdent, text: text, upper: strings.ToUpper(text), quoted: true})
			}
			i += n
		case isIdentStart(c):
			j := i + 1
			for j < len(s) && (isIdentStart(s[j]) || isDigit(s[j]) || s[j] == '$') {
				j++
			}
			tokens = append(tokens, sqlToken{kind: tokenIdent, text: s[i:j], upper: strings.ToUpper(s[i:j])})
			i = j
		case isDigit(c):
			j := i + 1
			for j < len(s) && (isDigit(s[j]) || s[j] == '.' || s[j] == '_' || isIdentStart(s[j])) {
				j++
			}
			tokens = append(tokens, sqlToken{kind: tokenNumber, text: s[i:j]})
			i = j
		default:
			tokens = append(tokens, sqlToken{kind: tokenPunct, text: string(c)})
			i++
		}
	}
	return tokens, nil
}

// readQuoted reads a quote-delimited token where a doubled quote escapes
// itself. It returns the unescaped text and the bytes consumed.
func readQuoted(s string, quote byte) (string, int, bool) {
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		if s[i] != quote {
			b.WriteByte(s[i])
			continue
		}
		if i+1 < len(s) && s[i+1] == quote {
			b.WriteByte(quote)
			i++
			continue
		}
		return b.String(), i + 1, true
	}
	return "", 0, false
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

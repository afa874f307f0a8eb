package handlers

import "strings"

type operationDef struct {
	kind string
	name string
}

// operationKind reports whether the operation Exec would select from document
// is a "query", "mutation" or "subscription". It returns "" when no single
// operation can be selected; Exec reports that case itself.
func operationKind(document, operationName string) string {
	ops := topLevelOperations(document)
	if operationName == "" {
		if len(ops) == 1 {
			return ops[0].kind
		}
		return ""
	}
	for _, op := range ops {
		if op.name == operationName {
			return op.kind
		}
	}
	return ""
}

// topLevelOperations scans the definitions of a GraphQL document without
// building a tree. Selection sets, argument lists, strings and comments are
// skipped; only tokens at depth zero are inspected.
func topLevelOperations(document string) []operationDef {
	var (
		ops        []operationDef
		braces     int
		parens     int
		atStart    = true
		expectName bool
	)

	for i := 0; i < len(document); {
		c := document[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == ',':
			i++
			continue
		case c == '#':
			for i < len(document) && document[i] != '\n' && document[i] != '\r' {
				i++
			}
			continue
		case c == '"':
			i = skipString(document, i)
			expectName = false
			continue
		case isNameStart(c):
			j := i + 1
			for j < len(document) && isNameChar(document[j]) {
				j++
			}
			word := document[i:j]
			i = j
			if braces > 0 || parens > 0 {
				continue
			}
			switch {
			case expectName:
				ops[len(ops)-1].name = word
				expectName = false
			case atStart && (word == "query" || word == "mutation" || word == "subscription"):
				ops = append(ops, operationDef{kind: word})
				expectName = true
				atStart = false
			case atStart:
				// fragment definitions
				atStart = false
			}
			continue
		}

		expectName = false
		switch c {
		case '{':
			if braces == 0 && parens == 0 && atStart {
				ops = append(ops, operationDef{kind: "query"})
				atStart = false
			}
			braces++
		case '}':
			if braces > 0 {
				braces--
			}
			if braces == 0 && parens == 0 {
				atStart = true
			}
		case '(':
			parens++
		case ')':
			if parens > 0 {
				parens--
			}
		}
		i++
	}
	return ops
}

func skipString(document string, i int) int {
	if strings.HasPrefix(document[i:], `"""`) {
		end := strings.Index(document[i+3:], `"""`)
		if end < 0 {
			return len(document)
		}
		return i + 3 + end + 3
	}
	for i++; i < len(document); i++ {
		switch document[i] {
		case '\\':
			i++
		case '"':
			return i + 1
		}
	}
	return len(document)
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameChar(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9')
}

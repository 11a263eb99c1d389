package query

import (
	"fmt"
	"strings"
)

// Print renders an expression tree back into query syntax. The result is
// always reparseable to a structurally equal tree (§8 round-trip
// property); values are always single-quoted to avoid re-deriving the
// unquoted-value character-class rules.
func Print(e Expr) string {
	var sb strings.Builder
	writeExpr(&sb, e, 0)
	return sb.String()
}

// precedence levels: or=0, and=1, not=2, atom=3
func writeExpr(sb *strings.Builder, e Expr, parentPrec int) {
	switch n := e.(type) {
	case *Predicate:
		fmt.Fprintf(sb, "%s:'%s'", n.Name, strings.ReplaceAll(strings.ReplaceAll(n.Value, `\`, `\\`), `'`, `\'`))
	case *Not:
		sb.WriteByte('!')
		writeExpr(sb, n.Inner, 2)
	case *And:
		needParens := parentPrec > 1
		if needParens {
			sb.WriteByte('(')
		}
		writeExpr(sb, n.Left, 1)
		sb.WriteString(" & ")
		// operators are left-associative, so a right operand of equal
		// precedence needs parentheses to keep its grouping
		writeExpr(sb, n.Right, 2)
		if needParens {
			sb.WriteByte(')')
		}
	case *Or:
		needParens := parentPrec > 0
		if needParens {
			sb.WriteByte('(')
		}
		writeExpr(sb, n.Left, 0)
		sb.WriteString(" | ")
		writeExpr(sb, n.Right, 1)
		if needParens {
			sb.WriteByte(')')
		}
	}
}

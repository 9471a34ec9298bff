package medialib

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidSelection is returned for selections outside the supported grammar.
var ErrInvalidSelection = errors.New("invalid selection")

var (
	andSplit   = regexp.MustCompile(`(?i)\s+and\s+`)
	clauseExpr = regexp.MustCompile(`(?i)^\s*([a-z_]+)\s*(=|like)\s*\?\s*$`)
	orderExpr  = regexp.MustCompile(`(?i)^\s*([a-z_]+)(?:\s+(asc|desc))?\s*$`)
)

// buildWhere turns FetchOptions into a WHERE/ORDER BY suffix and its args.
// Column names come from the FileKey allow list only.
func buildWhere(opts FetchOptions) (string, []any, error) {
	var sb strings.Builder
	var args []any

	sel := strings.TrimSpace(opts.Selections)
	if sel != "" {
		clauses := andSplit.Split(sel, -1)
		if len(clauses) != len(opts.SelectionArgs) {
			return "", nil, fmt.Errorf("%w: %d placeholders for %d args", ErrInvalidSelection, len(clauses), len(opts.SelectionArgs))
		}
		sb.WriteString(" WHERE ")
		for i, clause := range clauses {
			m := clauseExpr.FindStringSubmatch(clause)
			if m == nil {
				return "", nil, fmt.Errorf("%w: %q", ErrInvalidSelection, clause)
			}
			key := FileKey(strings.ToLower(m[1]))
			if !fileKeys[key] {
				return "", nil, fmt.Errorf("%w: unknown key %q", ErrInvalidSelection, m[1])
			}
			if i > 0 {
				sb.WriteString(" AND ")
			}
			fmt.Fprintf(&sb, "%s %s ?", key, strings.ToUpper(m[2]))
			args = append(args, opts.SelectionArgs[i])
		}
	} else if len(opts.SelectionArgs) > 0 {
		return "", nil, fmt.Errorf("%w: args without selections", ErrInvalidSelection)
	}

	order := "id ASC"
	if strings.TrimSpace(opts.Order) != "" {
		m := orderExpr.FindStringSubmatch(opts.Order)
		if m == nil || !fileKeys[FileKey(strings.ToLower(m[1]))] {
			return "", nil, fmt.Errorf("%w: order %q", ErrInvalidSelection, opts.Order)
		}
		dir := "ASC"
		if strings.EqualFold(m[2], "desc") {
			dir = "DESC"
		}
		order = fmt.Sprintf("%s %s, id ASC", strings.ToLower(m[1]), dir)
	}
	sb.WriteString(" ORDER BY ")
	sb.WriteString(order)
	return sb.String(), args, nil
}

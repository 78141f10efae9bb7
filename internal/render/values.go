package render

import (
	"fmt"
	"io"
	"strings"

	"sire/internal/value"
)

// Describe renders the value behind id as a nested expression, following
// references up to depth levels. References already on the current path are
// printed as "@index" so cyclic graphs terminate.
func Describe(id value.Id, pools value.Pools[value.Value], depth int) string {
	var sb strings.Builder
	describe(&sb, id, pools, depth, map[value.Id]bool{})
	return sb.String()
}

func describe(sb *strings.Builder, id value.Id, pools value.Pools[value.Value], depth int, path map[value.Id]bool) {
	if path[id] {
		fmt.Fprintf(sb, "@%d", id.Index)
		return
	}
	v, err := value.Resolve(id, pools)
	if err != nil {
		fmt.Fprintf(sb, "<%v>", err)
		return
	}
	if depth <= 0 {
		fmt.Fprintf(sb, "#%d", id.Index)
		return
	}
	path[id] = true
	defer delete(path, id)

	ref := func(r value.Id) { describe(sb, r, pools, depth-1, path) }
	switch v := v.(type) {
	case value.BuiltinOperation:
		if v.Op == "" {
			sb.WriteString("builtin_op")
		} else {
			sb.WriteString("builtin_op:" + v.Op)
		}
	case value.BuiltinValue:
		sb.WriteString(v.Name)
	case value.From:
		ref(v.Base)
		sb.WriteString(" from ")
		ref(v.Variable)
	case value.Match:
		sb.WriteString("match ")
		ref(v.Base)
		sb.WriteString(" {")
		for i, c := range v.Cases {
			if i > 0 {
				sb.WriteString(";")
			}
			sb.WriteString(" ")
			ref(c.Pattern)
			sb.WriteString(" => ")
			ref(c.Result)
		}
		sb.WriteString(" }")
	case value.Opaque:
		fmt.Fprintf(sb, "%s#%d: ", strings.ToLower(v.Class.String()), v.ID.Index)
		ref(v.Typee)
	case value.Substituting:
		ref(v.Base)
		sb.WriteString("[")
		ref(v.Target)
		sb.WriteString(" is ")
		ref(v.Value)
		sb.WriteString("]")
	default:
		fmt.Fprintf(sb, "<%T>", v)
	}
}

// WritePool lists every item of p with its raw summary and, when depth > 0,
// its expanded description.
func WritePool(w io.Writer, p *value.Pool[value.Value], pools value.Pools[value.Value], depth int) error {
	if _, err := fmt.Fprintf(w, "pool %d (%d values)\n", p.ID, p.Len()); err != nil {
		return err
	}
	for id, v := range p.All() {
		line := fmt.Sprintf("  %4d  %s", id.Index, value.Summary(v))
		if depth > 0 {
			line += "\n        = " + Describe(id, pools, depth)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// Package filter implements the tabflight filter expression language.
//
// A filter is a tree of boolean combinators (anyof, allof, not) over leaf
// comparisons (single, one) between a column and a literal. Filters arrive
// from untrusted clients as JSON or MessagePack and are converted into the
// closed Node type by the sanitizer, which is the only place dynamic input is
// inspected.
//
// # Basic Usage
//
//	raw, err := filter.ParseJSON(payload)
//	if err != nil {
//	    return err // malformed JSON
//	}
//	node, err := filter.SanitizeFilter(raw)
//	if err != nil {
//	    return err // top level is not an object
//	}
//
//	match := filter.Compile(node, ds.Schema())
//	for _, row := range ds.Rows() {
//	    if match(row) { ... }
//	}
//
// # Wire Format
//
//	{
//	  "type": "allof",
//	  "children": [
//	    {"type": "single", "operation": "cni", "left": 1, "right": "berlin"},
//	    {"type": "single", "operation": "le", "left": 0, "right": "42"}
//	  ]
//	}
//
// type is one of single, one, anyof, allof, not. operation is one of null,
// eq, lt, le, lte, gt, ge, gte, cn, cni, sw, swi, ew, ewi. left is a column
// position and right the literal, coerced against the column type at
// evaluation time.
//
// # Sanitization
//
// Sanitize never fails. Unknown types become anyof, unknown operations the
// no-op operator, non-numeric column references -1, and literals are cut to
// 1024 runes. Trees are cut to depth 4 and 16 children per node; anything
// past those bounds is dropped silently.
//
// # Comparison Semantics
//
// An anyof, allof or not node without children matches every row. A leaf
// whose literal is missing matches every row unless its operation is null.
// gt compares as lt and ge compares as le; clients relying on the current
// behavior should keep sending lt/le.
//
// # SQL Export
//
// DuckDBEncoder renders a tree as a DuckDB boolean expression with the same
// semantics, for replaying a filter against a DuckDB copy of the data.
package filter

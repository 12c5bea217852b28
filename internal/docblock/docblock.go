// Package docblock parses PHP doc-comments into the structured tag set
// internal/symbols.DocBlock carries: @param, @return, @var, @throws,
// @deprecated, @property[-read|-write], and @method. It generalizes the
// teacher's single inline `@var $x Type` regex into the full mini-language,
// keeping the same best-effort, regex-driven parsing style rather than
// building a grammar for it.
package docblock

import (
	"regexp"
	"strings"

	"github.com/go-phpls/phpls/internal/symbols"
)

// tagLineRe strips the leading "*"/"/**"/"*/" decoration from one doc-comment
// line, the way block comments are conventionally formatted.
var tagLineRe = regexp.MustCompile(`^\s*/?\*+/?\s?`)

// tagRe splits a stripped line into its @tag and the remainder.
var tagRe = regexp.MustCompile(`^@(\w[\w-]*)\s*(.*)$`)

// typeAndNameRe matches "Type $name rest...", tolerating a missing type
// (e.g. "@param $x description").
var typeAndNameRe = regexp.MustCompile(`^(\S+)\s+\$([A-Za-z_][A-Za-z0-9_]*)\s*(.*)$`)

var nameOnlyRe = regexp.MustCompile(`^\$([A-Za-z_][A-Za-z0-9_]*)\s*(.*)$`)

// propertyRe matches "Type $name description" for @property tags.
var propertyRe = typeAndNameRe

// methodRe matches "[static] ReturnType name(Type $a, Type $b = default) description".
var methodRe = regexp.MustCompile(`^(static\s+)?(\S+\s+)?([A-Za-z_][A-Za-z0-9_]*)\s*\(([^)]*)\)`)

var paramSplitRe = regexp.MustCompile(`\s*,\s*`)
var paramRe = regexp.MustCompile(`^(\S+)?\s*\$([A-Za-z_][A-Za-z0-9_]*)(\s*=\s*(.+))?$`)

// Parse converts a raw doc-comment (including its /** */ delimiters) into a
// structured DocBlock. Lines that are not tags are folded into Summary;
// tags other than the recognized ones are dropped.
func Parse(raw string) symbols.DocBlock {
	doc := symbols.DocBlock{
		Params: make(map[string]symbols.TypeExpr),
	}
	var summaryLines []string

	for _, line := range strings.Split(raw, "\n") {
		stripped := tagLineRe.ReplaceAllString(line, "")
		stripped = strings.TrimSpace(stripped)
		stripped = strings.TrimSuffix(stripped, "*/")
		stripped = strings.TrimSpace(stripped)
		if stripped == "" {
			continue
		}

		m := tagRe.FindStringSubmatch(stripped)
		if m == nil {
			summaryLines = append(summaryLines, stripped)
			continue
		}

		tag, rest := strings.ToLower(m[1]), strings.TrimSpace(m[2])
		switch tag {
		case "param":
			if pm := typeAndNameRe.FindStringSubmatch(rest); pm != nil {
				doc.Params[pm[2]] = ParseTypeExpr(pm[1])
			} else if pm := nameOnlyRe.FindStringSubmatch(rest); pm != nil {
				doc.Params[pm[1]] = symbols.Unknown()
			}
		case "return":
			doc.Return = ParseTypeExpr(firstToken(rest))
		case "var":
			if pm := typeAndNameRe.FindStringSubmatch(rest); pm != nil {
				doc.Var = ParseTypeExpr(pm[1])
			} else {
				doc.Var = ParseTypeExpr(firstToken(rest))
			}
		case "throws":
			doc.Throws = append(doc.Throws, ParseTypeExpr(firstToken(rest)))
		case "deprecated":
			doc.Deprecated = true
			doc.DeprecatedReason = rest
		case "property", "property-read", "property-write":
			if pm := propertyRe.FindStringSubmatch(rest); pm != nil {
				access := symbols.AccessReadWrite
				switch tag {
				case "property-read":
					access = symbols.AccessRead
				case "property-write":
					access = symbols.AccessWrite
				}
				doc.Properties = append(doc.Properties, symbols.PropertyTag{
					Name:   pm[2],
					Type:   ParseTypeExpr(pm[1]),
					Access: access,
				})
			}
		case "method":
			if mm := methodRe.FindStringSubmatch(rest); mm != nil {
				doc.Methods = append(doc.Methods, symbols.MethodTag{
					Static:     strings.TrimSpace(mm[1]) == "static",
					ReturnType: ParseTypeExpr(strings.TrimSpace(mm[2])),
					Name:       mm[3],
					Parameters: parseMethodParams(mm[4]),
				})
			}
		default:
			// Unrecognized tags (e.g. @see, @since, @api) carry no
			// structured meaning for name resolution; drop silently.
		}
	}

	doc.Summary = strings.TrimSpace(strings.Join(summaryLines, " "))
	return doc
}

func firstToken(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func parseMethodParams(raw string) []symbols.Parameter {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := paramSplitRe.Split(raw, -1)
	params := make([]symbols.Parameter, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		m := paramRe.FindStringSubmatch(p)
		if m == nil {
			continue
		}
		params = append(params, symbols.Parameter{
			Name:     m[2],
			Type:     ParseTypeExpr(m[1]),
			Optional: m[3] != "",
			Default:  strings.TrimSpace(m[4]),
		})
	}
	return params
}

// ParseTypeExpr parses a docblock type token such as "?Foo", "Foo|Bar",
// "Foo&Countable", or "array<int, Foo>" (generics are treated as their bare
// name; spec.md's best-effort propagation doesn't need the parameters).
func ParseTypeExpr(raw string) symbols.TypeExpr {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return symbols.Unknown()
	}
	if idx := strings.IndexByte(raw, '<'); idx >= 0 {
		raw = raw[:idx]
	}

	nullable := false
	if strings.HasPrefix(raw, "?") {
		nullable = true
		raw = raw[1:]
	}

	var expr symbols.TypeExpr
	switch {
	case strings.Contains(raw, "|"):
		parts := strings.Split(raw, "|")
		expr = symbols.TypeExpr{Kind: symbols.TypeUnion, Parts: typeParts(parts)}
	case strings.Contains(raw, "&"):
		parts := strings.Split(raw, "&")
		expr = symbols.TypeExpr{Kind: symbols.TypeIntersection, Parts: typeParts(parts)}
	default:
		expr = namedOrKeyword(raw)
	}

	if nullable {
		return symbols.TypeExpr{Kind: symbols.TypeNullable, Parts: []symbols.TypeExpr{expr}}
	}
	return expr
}

func typeParts(parts []string) []symbols.TypeExpr {
	out := make([]symbols.TypeExpr, 0, len(parts))
	for _, p := range parts {
		out = append(out, namedOrKeyword(strings.TrimSpace(p)))
	}
	return out
}

func namedOrKeyword(raw string) symbols.TypeExpr {
	raw = strings.TrimPrefix(raw, "\\")
	switch strings.ToLower(raw) {
	case "self":
		return symbols.TypeExpr{Kind: symbols.TypeSelf}
	case "static":
		return symbols.TypeExpr{Kind: symbols.TypeStatic}
	case "parent":
		return symbols.TypeExpr{Kind: symbols.TypeParent}
	case "":
		return symbols.Unknown()
	default:
		return symbols.Named(raw)
	}
}

package typeddata

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/eidos-exchange/eidos/eidos-sigkit/pkg/errors"
)

var (
	intTypePattern   = regexp.MustCompile(`^(u?)int([0-9]*)$`)
	bytesTypePattern = regexp.MustCompile(`^bytes([0-9]+)$`)
	arrayPattern     = regexp.MustCompile(`^(.+)\[([0-9]*)\]$`)
)

type atomKind int

const (
	atomNone atomKind = iota
	atomString
	atomBytes
	atomBool
	atomAddress
	atomUint
	atomInt
	atomFixedBytes
)

// atom describes a non-struct, non-array type. size is the bit width for
// integers and the byte width for bytesN.
type atom struct {
	kind atomKind
	size int
}

func (a atom) dynamic() bool {
	return a.kind == atomString || a.kind == atomBytes
}

func parseAtom(typ string) (atom, bool) {
	switch typ {
	case "string":
		return atom{kind: atomString}, true
	case "bytes":
		return atom{kind: atomBytes}, true
	case "bool":
		return atom{kind: atomBool}, true
	case "address":
		return atom{kind: atomAddress}, true
	}
	if m := intTypePattern.FindStringSubmatch(typ); m != nil {
		bits := 256
		if m[2] != "" {
			n, err := strconv.Atoi(m[2])
			if err != nil || n < 8 || n > 256 || n%8 != 0 {
				return atom{}, false
			}
			bits = n
		}
		if m[1] == "u" {
			return atom{kind: atomUint, size: bits}, true
		}
		return atom{kind: atomInt, size: bits}, true
	}
	if m := bytesTypePattern.FindStringSubmatch(typ); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > 32 {
			return atom{}, false
		}
		return atom{kind: atomFixedBytes, size: n}, true
	}
	return atom{}, false
}

// splitArray peels the outermost dimension off an array type. length is -1
// for dynamic arrays.
func splitArray(typ string) (elem string, length int, ok bool) {
	m := arrayPattern.FindStringSubmatch(typ)
	if m == nil {
		return "", 0, false
	}
	if m[2] == "" {
		return m[1], -1, true
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return "", 0, false
	}
	return m[1], n, true
}

// baseType strips every array dimension.
func baseType(typ string) string {
	for {
		elem, _, ok := splitArray(typ)
		if !ok {
			return typ
		}
		typ = elem
	}
}

// dependencies returns every struct reachable from primary, primary excluded,
// sorted by name. Recursive references are allowed.
func dependencies(types Types, primary string) ([]string, error) {
	seen := map[string]bool{primary: true}
	var deps []string
	var walk func(name string) error
	walk = func(name string) error {
		fields, ok := types[name]
		if !ok {
			return errors.ErrUndefinedType.WithMessagef("type %q is not defined", name)
		}
		for _, f := range fields {
			base := baseType(f.Type)
			if _, isAtom := parseAtom(base); isAtom {
				continue
			}
			if _, ok := types[base]; !ok {
				return errors.ErrUndefinedType.WithMessagef("type %q referenced by %s.%s is not defined", base, name, f.Name)
			}
			if seen[base] {
				continue
			}
			seen[base] = true
			deps = append(deps, base)
			if err := walk(base); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(primary); err != nil {
		return nil, err
	}
	sort.Strings(deps)
	return deps, nil
}

// TypeString renders the canonical encodeType string of primary, e.g.
// "Mail(Person from,Person to,string contents)Person(string name,address wallet)".
func TypeString(types Types, primary string) (string, error) {
	deps, err := dependencies(types, primary)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, name := range append([]string{primary}, deps...) {
		sb.WriteString(name)
		sb.WriteByte('(')
		for i, f := range types[name] {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(f.Type)
			sb.WriteByte(' ')
			sb.WriteString(f.Name)
		}
		sb.WriteByte(')')
	}
	return sb.String(), nil
}

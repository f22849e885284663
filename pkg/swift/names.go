package swift

import "strings"

// reserved lists the Swift keywords an identifier must avoid, plus main,
// which every generated module defines.
var reserved = map[string]bool{
	"associatedtype": true, "class": true, "deinit": true, "enum": true, "extension": true,
	"fileprivate": true, "func": true, "import": true, "init": true, "inout": true,
	"internal": true, "let": true, "open": true, "operator": true, "private": true,
	"protocol": true, "public": true, "rethrows": true, "static": true, "struct": true,
	"subscript": true, "typealias": true, "var": true, "break": true, "case": true,
	"continue": true, "default": true, "defer": true, "do": true, "else": true,
	"fallthrough": true, "for": true, "guard": true, "if": true, "in": true,
	"repeat": true, "return": true, "switch": true, "where": true, "while": true,
	"as": true, "catch": true, "false": true, "is": true, "nil": true, "super": true,
	"self": true, "throw": true, "throws": true, "true": true, "try": true,
	"main": true,
}

// reservedTypes are capitalized names that would collide with keywords or
// standard library types.
var reservedTypes = map[string]bool{
	"Any": true, "Self": true, "Type": true, "Protocol": true,
	"Int": true, "Bool": true, "Optional": true,
}

// Names enumerates identifiers a, b, ..., z, aa, ab, ... for one program.
// Every name is handed out at most once.
type Names struct {
	n int
}

// NewNames starts a fresh enumeration.
func NewNames() *Names { return &Names{} }

func (ns *Names) next() string {
	for {
		name := spell(ns.n)
		ns.n++
		if !reserved[name] {
			return name
		}
	}
}

// spell maps 0, 1, ..., 25, 26, ... to a, b, ..., z, aa, ...
func spell(n int) string {
	var b []byte
	for n++; n > 0; n = (n - 1) / 26 {
		b = append(b, byte('a'+(n-1)%26))
	}
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}

// Identifier returns the next lowercase name.
func (ns *Names) Identifier() string { return ns.next() }

// TypeName returns the next name, capitalized.
func (ns *Names) TypeName() string {
	for {
		name := ns.next()
		name = strings.ToUpper(name[:1]) + name[1:]
		if !reservedTypes[name] {
			return name
		}
	}
}

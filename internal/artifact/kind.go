package artifact

import "fmt"

// Kind describes the semantic role of an artifact. Kinds are declared by the
// parser collaborator; the model itself only cares about whether a kind's
// children are ordered.
type Kind int

const (
	KindFile Kind = iota
	KindDirectory
	KindCompilationUnit
	KindClass
	KindMethod
	KindStatement
	KindExpression
	KindToken
	KindLine
)

var kindNames = map[Kind]string{
	KindFile:            "file",
	KindDirectory:       "directory",
	KindCompilationUnit: "unit",
	KindClass:           "class",
	KindMethod:          "method",
	KindStatement:       "statement",
	KindExpression:      "expression",
	KindToken:           "token",
	KindLine:            "line",
}

// Kinds lists all declared kinds.
func Kinds() []Kind {
	return []Kind{
		KindFile, KindDirectory, KindCompilationUnit, KindClass,
		KindMethod, KindStatement, KindExpression, KindToken, KindLine,
	}
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind resolves a kind name as used in per-kind configuration keys.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown artifact kind %q", name)
}

// Ordered reports whether child order is semantically significant for this
// kind. Set-valued containers (directories, type bodies, compilation units)
// are matched by the unordered matcher, everything else by the ordered one.
func (k Kind) Ordered() bool {
	switch k {
	case KindDirectory, KindClass, KindCompilationUnit:
		return false
	default:
		return true
	}
}

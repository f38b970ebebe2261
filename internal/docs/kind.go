package docs

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind is the category of a documented item. The zero value, KindAny, is
// only meaningful as a filter and never describes an item.
type Kind uint8

const (
	KindAny Kind = iota
	KindModule
	KindFunction
	KindStruct
	KindEnum
	KindTrait
	KindConstant
	KindTypeAlias
	KindUse
	KindOther
)

// String returns the rustdoc spelling of the kind.
func (k Kind) String() string {
	switch k {
	case KindAny:
		return "any"
	case KindModule:
		return "module"
	case KindFunction:
		return "function"
	case KindStruct:
		return "struct"
	case KindEnum:
		return "enum"
	case KindTrait:
		return "trait"
	case KindConstant:
		return "constant"
	case KindTypeAlias:
		return "type_alias"
	case KindUse:
		return "use"
	case KindOther:
		return "other"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Matches reports whether an item of kind other passes the filter k.
func (k Kind) Matches(other Kind) bool {
	return k == KindAny || k == other
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind parses a kind filter as accepted on the command line. Both the
// rustdoc names ("function", "type_alias") and the Rust keywords ("fn",
// "type") are recognized; "any", "all", "*" and "" select every kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "*", "any", "all":
		return KindAny, nil
	case "module", "mod":
		return KindModule, nil
	case "function", "fn":
		return KindFunction, nil
	case "struct":
		return KindStruct, nil
	case "enum":
		return KindEnum, nil
	case "trait":
		return KindTrait, nil
	case "constant", "const":
		return KindConstant, nil
	case "type_alias", "typealias", "type":
		return KindTypeAlias, nil
	case "use", "import":
		return KindUse, nil
	case "other":
		return KindOther, nil
	}
	return KindAny, fmt.Errorf("unknown item kind %q (want one of: %s)", s, strings.Join(KindNames(), ", "))
}

// KindNames lists the canonical filter names, wildcard first.
func KindNames() []string {
	names := make([]string, 0, int(KindOther)+1)
	for k := KindAny; k <= KindOther; k++ {
		names = append(names, k.String())
	}
	return names
}

// kindFromInner maps the single key of a rustdoc item's "inner" object onto
// a Kind. Anything not modelled explicitly (macros, statics, impls, fields,
// variants...) is KindOther.
func kindFromInner(key string) Kind {
	switch key {
	case "module":
		return KindModule
	case "function":
		return KindFunction
	case "struct":
		return KindStruct
	case "enum":
		return KindEnum
	case "trait":
		return KindTrait
	case "constant":
		return KindConstant
	case "type_alias":
		return KindTypeAlias
	case "use":
		return KindUse
	default:
		return KindOther
	}
}

// Visibility mirrors rustdoc's item visibility.
type Visibility uint8

const (
	VisibilityDefault Visibility = iota
	VisibilityPublic
	VisibilityCrate
	VisibilityRestricted
)

func (v Visibility) String() string {
	switch v {
	case VisibilityPublic:
		return "public"
	case VisibilityCrate:
		return "crate"
	case VisibilityRestricted:
		return "restricted"
	default:
		return "default"
	}
}

// parseVisibility decodes either the string form ("public", "default",
// "crate") or the object form ({"restricted": {...}}).
func parseVisibility(raw json.RawMessage) Visibility {
	if len(raw) == 0 {
		return VisibilityDefault
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		switch s {
		case "public":
			return VisibilityPublic
		case "crate":
			return VisibilityCrate
		default:
			return VisibilityDefault
		}
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil {
		if _, ok := obj["restricted"]; ok {
			return VisibilityRestricted
		}
	}
	return VisibilityDefault
}

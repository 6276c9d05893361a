package elements

// Type is the static type the resolver attaches to expressions. Types are
// immutable values; the invalid marker stands in wherever resolution failed
// so downstream passes never observe an absent type.
type Type struct {
	name     string
	class    *Element
	nullable bool
	invalid  bool
	nullSafe bool
}

// TypeString implements ast.TypeInfo.
func (t *Type) TypeString() string {
	if t.invalid {
		return "<invalid>"
	}
	if t.nullable {
		return t.name + "?"
	}
	return t.name
}

// Invalid implements ast.TypeInfo.
func (t *Type) Invalid() bool { return t.invalid }

// NullSafe implements ast.TypeInfo.
func (t *Type) NullSafe() bool { return t.nullSafe }

// Name returns the bare type name.
func (t *Type) Name() string { return t.name }

// Class returns the class element for class types, nil otherwise.
func (t *Type) Class() *Element { return t.class }

// Nullable reports whether null inhabits the type.
func (t *Type) Nullable() bool { return t.nullable }

// InvalidType returns the best-effort unknown type marker.
func InvalidType(nullSafe bool) *Type {
	return &Type{invalid: true, nullSafe: nullSafe}
}

// BuiltinType creates a named builtin type (int, bool, string, null, nothing).
func BuiltinType(name string, nullSafe bool) *Type {
	return &Type{name: name, nullSafe: nullSafe}
}

// ClassType creates the type of instances of cls.
func ClassType(cls *Element, nullable, nullSafe bool) *Type {
	return &Type{name: cls.Name, class: cls, nullable: nullable, nullSafe: nullSafe}
}

// WithNullable returns the same type with the given nullability.
func (t *Type) WithNullable(nullable bool) *Type {
	if t.invalid || t.nullable == nullable {
		return t
	}
	clone := *t
	clone.nullable = nullable
	return &clone
}

// Same reports structural equality.
func (t *Type) Same(other *Type) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.name == other.name && t.class == other.class &&
		t.nullable == other.nullable && t.invalid == other.invalid
}

// IsSubclassOf walks the superclass chain.
func (t *Type) IsSubclassOf(other *Type) bool {
	if t.invalid || other.invalid {
		return false
	}
	if t.class == nil || other.class == nil {
		return t.name == other.name
	}
	for cls := t.class; cls != nil; cls = cls.Super {
		if cls == other.class {
			return true
		}
	}
	return false
}

// LeastUpperBound merges two types at a control-flow join. Mismatched types
// fall back to the nearest common superclass, or invalid when none exists.
func LeastUpperBound(a, b *Type) *Type {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case a.invalid:
		return a
	case b.invalid:
		return b
	case a.Same(b):
		return a
	}
	nullable := a.nullable || b.nullable
	if a.name == b.name && a.class == b.class {
		return a.WithNullable(nullable)
	}
	if a.class != nil && b.class != nil {
		for cls := a.class; cls != nil; cls = cls.Super {
			for other := b.class; other != nil; other = other.Super {
				if other == cls {
					return ClassType(cls, nullable, a.nullSafe)
				}
			}
		}
	}
	return InvalidType(a.nullSafe || b.nullSafe)
}

// Package selection describes which fields, arguments and fragments a caller
// wants from a root field.
//
// A Spec mirrors the shape of the request it produces:
//
//	{
//	  "select": {"id": true, "user": {"select": {"email": true}}},
//	  "variables": {"limit": 2},
//	  "on": {"Todo": {"select": {"title": true}}}
//	}
//
// Every list in a Spec keeps insertion order, which is the order fields,
// variables and fragments appear in the built document.
package selection

// All is the string marker for "select every scalar and enum field". It means
// the same as the literal true.
const All = "*"

// Spec is one node of a selection. A node without Fields selects the scalar
// and enum fields of its type. A nil *Spec behaves like an empty one.
type Spec struct {
	Fields    []Field
	Variables []Variable
	Fragments []Fragment
}

// Field selects a field by name. A nil Spec stands for true.
type Field struct {
	Name string
	Spec *Spec
}

// Variable is an argument value for the field a node is attached to.
type Variable struct {
	Name  string
	Value any
}

// Fragment is a selection applied only when the value has the given type.
type Fragment struct {
	TypeName string
	Spec     *Spec
}

func New() *Spec {
	return &Spec{}
}

// Field selects leaf fields with the default projection.
func (s *Spec) Field(names ...string) *Spec {
	for _, name := range names {
		s.Child(name, nil)
	}

	return s
}

// Child selects a field with a nested selection. Selecting a name twice
// replaces the earlier selection in place.
func (s *Spec) Child(name string, child *Spec) *Spec {
	for i := range s.Fields {
		if s.Fields[i].Name == name {
			s.Fields[i].Spec = child
			return s
		}
	}
	s.Fields = append(s.Fields, Field{Name: name, Spec: child})

	return s
}

// Var sets an argument value on the field this node selects.
func (s *Spec) Var(name string, value any) *Spec {
	for i := range s.Variables {
		if s.Variables[i].Name == name {
			s.Variables[i].Value = value
			return s
		}
	}
	s.Variables = append(s.Variables, Variable{Name: name, Value: value})

	return s
}

// On adds a type conditional selection for interface and union fields.
func (s *Spec) On(typeName string, child *Spec) *Spec {
	for i := range s.Fragments {
		if s.Fragments[i].TypeName == typeName {
			s.Fragments[i].Spec = child
			return s
		}
	}
	s.Fragments = append(s.Fragments, Fragment{TypeName: typeName, Spec: child})

	return s
}

// HasFields reports whether the node names fields explicitly.
func (s *Spec) HasFields() bool {
	return s != nil && len(s.Fields) > 0
}

// HasVariables reports whether the node carries argument values.
func (s *Spec) HasVariables() bool {
	return s != nil && len(s.Variables) > 0
}

// HasFragments reports whether the node carries type conditional selections.
func (s *Spec) HasFragments() bool {
	return s != nil && len(s.Fragments) > 0
}

// Lookup returns the selection of the named field.
func (s *Spec) Lookup(name string) (*Spec, bool) {
	if s == nil {
		return nil, false
	}
	for _, f := range s.Fields {
		if f.Name == name {
			return f.Spec, true
		}
	}

	return nil, false
}

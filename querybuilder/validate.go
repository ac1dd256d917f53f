package querybuilder

import (
	"slices"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/gqlgo/gqlselect/schema"
	"github.com/gqlgo/gqlselect/selection"
)

// Validate checks spec against field without building anything and reports
// every problem it finds instead of stopping at the first. Keys that Build
// would drop are reported too, so Validate is stricter than a tolerant Build.
// Paths start at the field name.
func Validate(s *schema.Schema, spec *selection.Spec, field *ast.FieldDefinition) gqlerror.List {
	if field == nil {
		return gqlerror.List{gqlerror.Errorf("no field definition to validate against")}
	}

	v := &validator{schema: s}
	v.walk(spec, field, field.Type, ast.Path{ast.PathName(field.Name)})

	return v.errs
}

type validator struct {
	schema *schema.Schema
	errs   gqlerror.List
}

func (v *validator) report(path ast.Path, format string, args ...any) {
	v.errs = append(v.errs, gqlerror.ErrorPathf(slices.Clone(path), format, args...))
}

func (v *validator) walk(spec *selection.Spec, field *ast.FieldDefinition, typ *ast.Type, path ast.Path) {
	def, err := v.schema.ConcreteType(typ)
	if err != nil {
		v.report(path, "%s", err)
		return
	}
	if spec == nil {
		spec = selection.New()
	}

	if spec.HasFragments() && !def.IsCompositeType() {
		v.report(path, "%s %q has no fields to select on", def.Kind, def.Name)
	} else {
		for _, fragment := range spec.Fragments {
			v.walkFragment(fragment, def, path)
		}
	}

	if spec.HasVariables() {
		if field == nil {
			v.report(path, "variables on type condition %q have no field to bind to", def.Name)
		} else {
			for _, variable := range spec.Variables {
				if _, err := schema.ArgumentType(field, variable.Name); err != nil {
					v.report(append(slices.Clone(path), ast.PathName(variable.Name)), "%s", err)
				}
			}
		}
	}

	if field != nil {
		for _, arg := range field.Arguments {
			if !arg.Type.NonNull || arg.DefaultValue != nil {
				continue
			}
			if !slices.ContainsFunc(spec.Variables, func(variable selection.Variable) bool { return variable.Name == arg.Name }) {
				v.report(path, "required argument %q of field %q is not set", arg.Name, field.Name)
			}
		}
	}

	if schema.IsAbstract(def) && !spec.HasFragments() && (def.Kind == ast.Union || !spec.HasFields()) {
		v.report(path, "%s %q is abstract and needs an \"on\" selection", def.Kind, def.Name)
	}

	if !spec.HasFields() {
		return
	}

	if schema.IsLeaf(def) {
		v.report(path, "%s %q has no fields to select", def.Kind, def.Name)
		return
	}

	for _, f := range spec.Fields {
		fieldPath := append(slices.Clone(path), ast.PathName(f.Name))
		if f.Name == typenameField {
			continue
		}

		fieldDef, ok := schema.FieldOrInputField(def, f.Name)
		if !ok {
			v.report(fieldPath, "unknown field %q on type %q", f.Name, def.Name)
			continue
		}
		v.walk(f.Spec, fieldDef, fieldDef.Type, fieldPath)
	}
}

func (v *validator) walkFragment(fragment selection.Fragment, def *ast.Definition, path ast.Path) {
	fragmentPath := append(slices.Clone(path), ast.PathName("on "+fragment.TypeName))

	fragmentDef := v.schema.Type(fragment.TypeName)
	switch {
	case fragmentDef == nil:
		v.report(fragmentPath, "unknown type %q in fragment on %q", fragment.TypeName, def.Name)
		return
	case !fragmentDef.IsCompositeType():
		v.report(fragmentPath, "%s %q cannot be a type condition", fragmentDef.Kind, fragment.TypeName)
		return
	case !v.schema.Overlap(def, fragmentDef):
		v.report(fragmentPath, "fragment on %q can never match type %q", fragment.TypeName, def.Name)
	}

	v.walk(fragment.Spec, nil, ast.NamedType(fragment.TypeName, nil), fragmentPath)
}

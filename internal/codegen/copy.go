package codegen

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/types"
	"strings"
)

// shapeKind says how a value of some type behaves when a getter returns it.
type shapeKind int

const (
	// shapeShared values refer to state the getter cannot copy: pointers,
	// chans, funcs, interfaces, structs holding any of those, and named types
	// whose definition is unknown.
	shapeShared shapeKind = iota
	// shapeValue values are fully copied by assignment.
	shapeValue
	shapeSlice
	shapeArray
	shapeMap
)

// shape is the copy structure of a field type.
type shape struct {
	kind shapeKind
	key  *shape // maps
	elem *shape // slices, arrays and maps
}

var (
	sharedShape = shape{kind: shapeShared}
	valueShape  = shape{kind: shapeValue}
)

// needsCopy reports whether returning a value of this shape as is would hand
// out the config's own storage.
func (s shape) needsCopy() bool {
	switch s.kind {
	case shapeSlice, shapeMap:
		return true
	case shapeArray:
		return s.elem.needsCopy()
	}
	return false
}

// deep reports whether a copy made by copier shares nothing with the
// original.
func (s shape) deep() bool {
	switch s.kind {
	case shapeValue:
		return true
	case shapeSlice, shapeArray:
		return s.elem.deep()
	case shapeMap:
		return s.key.deep() && s.elem.deep()
	}
	return false
}

// basicTypes are the predeclared types copied by assignment.
var basicTypes = map[string]bool{
	"bool": true, "string": true, "byte": true, "rune": true, "uintptr": true,
	"int": true, "int8": true, "int16": true, "int32": true, "int64": true,
	"uint": true, "uint8": true, "uint16": true, "uint32": true, "uint64": true,
	"float32": true, "float64": true, "complex64": true, "complex128": true,
}

// shapeOfExpr classifies a type written in a spec without knowing what its
// named types are. Named types other than the basic ones come out shared.
func shapeOfExpr(typ string) shape {
	expr, err := parser.ParseExpr(typ)
	if err != nil {
		return sharedShape
	}
	return exprShape(expr)
}

func exprShape(expr ast.Expr) shape {
	switch t := expr.(type) {
	case *ast.ParenExpr:
		return exprShape(t.X)
	case *ast.Ident:
		if basicTypes[t.Name] {
			return valueShape
		}
	case *ast.ArrayType:
		elem := exprShape(t.Elt)
		if t.Len == nil {
			return shape{kind: shapeSlice, elem: &elem}
		}
		return shape{kind: shapeArray, elem: &elem}
	case *ast.MapType:
		key, elem := exprShape(t.Key), exprShape(t.Value)
		return shape{kind: shapeMap, key: &key, elem: &elem}
	case *ast.StructType:
		for _, f := range t.Fields.List {
			if exprShape(f.Type).kind != shapeValue {
				return sharedShape
			}
		}
		return valueShape
	}
	return sharedShape
}

// namedTypes reports whether typ mentions a type only the target package can
// resolve. Pointer, chan, func and interface types are shared whatever they
// point to, so names inside them do not count.
func namedTypes(typ string) bool {
	expr, err := parser.ParseExpr(typ)
	if err != nil {
		return false
	}
	return mentionsNamed(expr)
}

func mentionsNamed(expr ast.Expr) bool {
	switch t := expr.(type) {
	case *ast.Ident:
		return !basicTypes[t.Name]
	case *ast.SelectorExpr, *ast.IndexExpr, *ast.IndexListExpr:
		return true
	case *ast.ParenExpr:
		return mentionsNamed(t.X)
	case *ast.ArrayType:
		return mentionsNamed(t.Elt)
	case *ast.MapType:
		return mentionsNamed(t.Key) || mentionsNamed(t.Value)
	case *ast.StructType:
		for _, f := range t.Fields.List {
			if mentionsNamed(f.Type) {
				return true
			}
		}
	}
	return false
}

// shapeOfType classifies a type checked type, following named types to their
// definitions.
func shapeOfType(t types.Type) shape {
	return typeShape(t, make(map[types.Type]bool))
}

func typeShape(t types.Type, visiting map[types.Type]bool) shape {
	t = types.Unalias(t)
	if named, ok := t.(*types.Named); ok {
		if visiting[named] {
			return sharedShape
		}
		visiting[named] = true
		defer delete(visiting, named)
		t = named.Underlying()
	}

	switch u := t.(type) {
	case *types.Basic:
		if u.Kind() == types.Invalid || u.Kind() == types.UnsafePointer {
			return sharedShape
		}
		return valueShape
	case *types.Slice:
		elem := typeShape(u.Elem(), visiting)
		return shape{kind: shapeSlice, elem: &elem}
	case *types.Array:
		elem := typeShape(u.Elem(), visiting)
		return shape{kind: shapeArray, elem: &elem}
	case *types.Map:
		key, elem := typeShape(u.Key(), visiting), typeShape(u.Elem(), visiting)
		return shape{kind: shapeMap, key: &key, elem: &elem}
	case *types.Struct:
		for i := 0; i < u.NumFields(); i++ {
			if typeShape(u.Field(i).Type(), visiting).kind != shapeValue {
				return sharedShape
			}
		}
		return valueShape
	}
	return sharedShape
}

// copier writes the body of a getter that returns a copy of a member.
type copier struct {
	b    strings.Builder
	uses map[string]bool // packages the body calls
}

// body returns the statements of a getter returning src, a value of shape s.
func (c *copier) body(src string, s shape) string {
	c.b.Reset()
	switch {
	case !s.needsCopy():
		return "return " + src
	case s.kind == shapeSlice && !s.elem.needsCopy():
		return "return " + c.clone(src, s)
	case s.kind == shapeMap && !s.elem.needsCopy():
		return "return " + c.clone(src, s)
	}

	if s.kind == shapeArray {
		fmt.Fprintf(&c.b, "out := %s\n", src)
	} else {
		fmt.Fprintf(&c.b, "out := %s\n", c.clone(src, s))
	}
	c.copyElems("out", s, 0)
	c.b.WriteString("return out")
	return c.b.String()
}

// clone is the expression copying the top level of v.
func (c *copier) clone(v string, s shape) string {
	pkg := "slices"
	if s.kind == shapeMap {
		pkg = "maps"
	}
	c.uses[pkg] = true
	return pkg + ".Clone(" + v + ")"
}

// fix replaces v, which still shares storage of shape s, with a copy.
func (c *copier) fix(v string, s shape, depth int) {
	if s.kind == shapeSlice || s.kind == shapeMap {
		fmt.Fprintf(&c.b, "%s = %s\n", v, c.clone(v, s))
	}
	c.copyElems(v, s, depth)
}

// copyElems fixes every element of v, whose top level is already a copy.
func (c *copier) copyElems(v string, s shape, depth int) {
	if s.elem == nil || !s.elem.needsCopy() {
		return
	}
	switch s.kind {
	case shapeSlice, shapeArray:
		i := loopVar("i", depth)
		fmt.Fprintf(&c.b, "for %s := range %s {\n", i, v)
		c.fix(v+"["+i+"]", *s.elem, depth+1)
		c.b.WriteString("}\n")
	case shapeMap:
		k, e := loopVar("k", depth), loopVar("v", depth)
		fmt.Fprintf(&c.b, "for %s, %s := range %s {\n", k, e, v)
		if s.elem.kind != shapeArray && !s.elem.elem.needsCopy() {
			fmt.Fprintf(&c.b, "%s[%s] = %s\n", v, k, c.clone(e, *s.elem))
		} else {
			c.fix(e, *s.elem, depth+1)
			fmt.Fprintf(&c.b, "%s[%s] = %s\n", v, k, e)
		}
		c.b.WriteString("}\n")
	}
}

// loopVar names loop variables so they never collide with the one-letter
// receiver: i0, i1, k0, v0 and so on.
func loopVar(prefix string, depth int) string {
	return fmt.Sprintf("%s%d", prefix, depth)
}

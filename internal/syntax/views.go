package syntax

import (
	"fmt"
	"strings"

	"fortio.org/safecast"
	sitter "github.com/smacker/go-tree-sitter"
)

// Kind classifies container declarations.
type Kind uint8

const (
	KindClass Kind = iota + 1
	KindStruct
	KindRecord
	KindRecordStruct
)

func (k Kind) String() string {
	switch k {
	case KindClass:
		return "class"
	case KindStruct:
		return "struct"
	case KindRecord:
		return "record"
	case KindRecordStruct:
		return "record struct"
	default:
		return "unknown"
	}
}

var containerKinds = map[string]Kind{
	"class_declaration":         KindClass,
	"struct_declaration":        KindStruct,
	"record_declaration":        KindRecord,
	"record_struct_declaration": KindRecordStruct,
}

// scopeNodes are the node types that may (transitively) hold container
// declarations. Everything else is not descended into.
var scopeNodes = map[string]bool{
	"compilation_unit":                  true,
	"declaration_list":                  true,
	"namespace_declaration":             true,
	"file_scoped_namespace_declaration": true,
	"interface_declaration":             true,
}

// Container is a class, struct or record declaration. A Container belongs to
// the Document that produced it.
type Container struct {
	Kind Kind
	Name string
	// Path is the dotted chain of enclosing namespace and container names,
	// e.g. "App.Models.Outer.Inner". Renaming members never changes it.
	Path string
	// Ordinal counts the earlier containers in the unit with the same Path,
	// which happens with partial types.
	Ordinal int
	Start   int
	End     int

	node *sitter.Node
}

// Ref returns the name-based identity of c, valid in every later version of
// the document.
func (c Container) Ref() Ref {
	return Ref{Path: c.Path, Ordinal: c.Ordinal}
}

// Ref identifies a container by name rather than by node.
type Ref struct {
	Path    string
	Ordinal int
}

func (r Ref) String() string {
	if r.Ordinal == 0 {
		return r.Path
	}
	return fmt.Sprintf("%s#%d", r.Path, r.Ordinal+1)
}

// Property is a property declared directly on a container.
type Property struct {
	Name      string
	Type      string
	Start     int
	End       int
	NameStart int
	NameEnd   int
	// Auto is true for auto-implemented properties: an accessor list whose
	// accessors have no bodies.
	Auto bool
	// Explicit is true for explicit interface implementations (I.Name).
	Explicit   bool
	Attributes []Attribute
	// AttributesEnd is the end of the last attribute list, or -1 without one.
	AttributesEnd int
}

// Eligible reports whether the property can be renamed.
func (p Property) Eligible() bool {
	return p.Auto && !p.Explicit
}

// Attribute is one attribute inside an attribute list attached to a member.
// ListStart and ListEnd delimit the enclosing [...] list.
type Attribute struct {
	Name      string
	ListStart int
	ListEnd   int
}

// Import is a using directive. Name is the imported namespace or type
// without a global:: qualifier.
type Import struct {
	Name     string
	Start    int
	End      int
	TopLevel bool
	Global   bool
	Static   bool
	Alias    bool
}

// InsertMode says what surrounds a new top-level using directive.
type InsertMode uint8

const (
	// AfterImport: insert after the last top-level using directive.
	AfterImport InsertMode = iota + 1
	// AfterExternAlias: no using directives, insert after the last extern alias.
	AfterExternAlias
	// BeforeConstruct: no using directives, insert before the first construct.
	BeforeConstruct
	// EndOfUnit: the unit holds nothing but trivia.
	EndOfUnit
)

// Insertion is where a new top-level using directive goes. Anchor is the
// start of the node the insertion is positioned against.
type Insertion struct {
	Offset int
	Anchor int
	Mode   InsertMode
}

// Containers returns every container declaration in preorder.
func (d *Document) Containers() []Container {
	var out []Container
	d.eachContainer(func(c Container) bool {
		out = append(out, c)
		return true
	})
	return out
}

// Lookup re-locates a container by its Ref.
func (d *Document) Lookup(ref Ref) (Container, bool) {
	var found Container
	ok := false
	d.eachContainer(func(c Container) bool {
		if c.Path == ref.Path && c.Ordinal == ref.Ordinal {
			found, ok = c, true
			return false
		}
		return true
	})
	return found, ok
}

// FindContainer returns the first container whose Path equals path.
func (d *Document) FindContainer(path string) (Container, bool) {
	return d.Lookup(Ref{Path: path})
}

// ContainerAt returns the smallest container whose span contains offset.
func (d *Document) ContainerAt(offset int) (Container, bool) {
	pos, err := safecast.Conv[uint32](offset)
	if err != nil || offset >= len(d.src) {
		return Container{}, false
	}

	var best Container
	ok := false
	d.eachContainer(func(c Container) bool {
		if c.node.StartByte() <= pos && pos < c.node.EndByte() {
			if !ok || c.End-c.Start <= best.End-best.Start {
				best, ok = c, true
			}
		}
		return true
	})
	return best, ok
}

// eachContainer walks every container in preorder, numbering containers that
// share a path.
func (d *Document) eachContainer(visit func(Container) bool) {
	seen := make(map[string]int)
	d.walkContainers(d.root, "", func(c Container) bool {
		c.Ordinal = seen[c.Path]
		seen[c.Path]++
		return visit(c)
	})
}

// walkContainers calls visit for each container below n in preorder until
// visit returns false. prefix is the dotted scope of n.
func (d *Document) walkContainers(n *sitter.Node, prefix string, visit func(Container) bool) bool {
	scope := prefix
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		typ := child.Type()

		if kind, ok := containerKinds[typ]; ok {
			name := d.declName(child)
			c := Container{
				Kind:  kind,
				Name:  name,
				Path:  joinPath(scope, name),
				Start: int(child.StartByte()),
				End:   int(child.EndByte()),
				node:  child,
			}
			if !visit(c) {
				return false
			}
			if !d.walkContainers(child, c.Path, visit) {
				return false
			}
			continue
		}

		switch typ {
		case "file_scoped_namespace_declaration":
			// Declarations after a file-scoped namespace are its siblings.
			scope = joinPath(prefix, d.declName(child))
			if !d.walkContainers(child, scope, visit) {
				return false
			}
		case "namespace_declaration":
			if !d.walkContainers(child, joinPath(scope, d.declName(child)), visit) {
				return false
			}
		case "interface_declaration":
			if !d.walkContainers(child, joinPath(scope, d.declName(child)), visit) {
				return false
			}
		default:
			if scopeNodes[typ] {
				if !d.walkContainers(child, scope, visit) {
					return false
				}
			}
		}
	}
	return true
}

// Properties returns the properties declared directly on c, in declaration order.
func (d *Document) Properties(c Container) []Property {
	body := bodyOf(c.node)
	if body == nil {
		return nil
	}

	var props []Property
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		if member.Type() != "property_declaration" {
			continue
		}
		if p, ok := d.property(member); ok {
			props = append(props, p)
		}
	}
	return props
}

func (d *Document) property(n *sitter.Node) (Property, bool) {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		nameNode = lastChildOfType(n, "identifier")
	}
	if nameNode == nil {
		return Property{}, false
	}

	p := Property{
		Name:      d.text(nameNode),
		Start:     int(n.StartByte()),
		End:       int(n.EndByte()),
		NameStart: int(nameNode.StartByte()),
		NameEnd:   int(nameNode.EndByte()),

		AttributesEnd: -1,
	}
	if typ := n.ChildByFieldName("type"); typ != nil {
		p.Type = compact(d.text(typ))
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "attribute_list":
			p.Attributes = append(p.Attributes, d.attributes(child)...)
			p.AttributesEnd = int(child.EndByte())
		case "explicit_interface_specifier":
			p.Explicit = true
		case "accessor_list":
			p.Auto = autoAccessors(child)
		}
	}
	return p, true
}

func (d *Document) attributes(list *sitter.Node) []Attribute {
	var attrs []Attribute
	for i := 0; i < int(list.NamedChildCount()); i++ {
		a := list.NamedChild(i)
		if a.Type() != "attribute" {
			continue
		}
		name := a.ChildByFieldName("name")
		if name == nil && a.NamedChildCount() > 0 {
			name = a.NamedChild(0)
		}
		if name == nil {
			continue
		}
		attrs = append(attrs, Attribute{
			Name:      compact(d.text(name)),
			ListStart: int(list.StartByte()),
			ListEnd:   int(list.EndByte()),
		})
	}
	return attrs
}

// autoAccessors reports whether every accessor in list is bodiless.
func autoAccessors(list *sitter.Node) bool {
	n := 0
	for i := 0; i < int(list.NamedChildCount()); i++ {
		acc := list.NamedChild(i)
		if acc.Type() != "accessor_declaration" {
			continue
		}
		n++
		if acc.ChildByFieldName("body") != nil ||
			firstChildOfType(acc, "block") != nil ||
			firstChildOfType(acc, "arrow_expression_clause") != nil {
			return false
		}
	}
	return n > 0
}

// MemberNames returns the names declared directly in c: members, nested
// types and positional record parameters.
func (d *Document) MemberNames(c Container) []string {
	var names []string
	if params := c.node.ChildByFieldName("parameters"); params != nil {
		for i := 0; i < int(params.NamedChildCount()); i++ {
			if name := params.NamedChild(i).ChildByFieldName("name"); name != nil {
				names = append(names, d.text(name))
			}
		}
	}

	body := bodyOf(c.node)
	if body == nil {
		return names
	}
	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		switch member.Type() {
		case "field_declaration", "event_field_declaration":
			decl := firstChildOfType(member, "variable_declaration")
			if decl == nil {
				continue
			}
			for j := 0; j < int(decl.NamedChildCount()); j++ {
				v := decl.NamedChild(j)
				if v.Type() != "variable_declarator" {
					continue
				}
				name := v.ChildByFieldName("name")
				if name == nil {
					name = firstChildOfType(v, "identifier")
				}
				if name != nil {
					names = append(names, d.text(name))
				}
			}
		case "constructor_declaration", "destructor_declaration", "indexer_declaration", "operator_declaration", "conversion_operator_declaration":
		default:
			if name := member.ChildByFieldName("name"); name != nil && name.Type() == "identifier" {
				names = append(names, d.text(name))
			}
		}
	}
	return names
}

// Imports returns every using directive in the tree, in source order.
func (d *Document) Imports() []Import {
	var out []Import
	d.walkImports(d.root, &out)
	return out
}

func (d *Document) walkImports(n *sitter.Node, out *[]Import) {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch {
		case child.Type() == "using_directive":
			*out = append(*out, d.using(child))
		case scopeNodes[child.Type()] && child.Type() != "interface_declaration":
			d.walkImports(child, out)
		}
	}
}

func (d *Document) using(n *sitter.Node) Import {
	imp := Import{
		Start:    int(n.StartByte()),
		End:      int(n.EndByte()),
		TopLevel: n.Parent() != nil && n.Parent().Type() == "compilation_unit",
	}
	if n.ChildByFieldName("alias") != nil {
		imp.Alias = true
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		switch child.Type() {
		case "global":
			imp.Global = true
		case "static":
			imp.Static = true
		case "=", "name_equals":
			imp.Alias = true
		case "identifier", "qualified_name", "alias_qualified_name", "generic_name":
			imp.Name = strings.TrimPrefix(compact(d.text(child)), "global::")
		}
	}
	return imp
}

// ImportInsertion returns where a new top-level using directive belongs.
func (d *Document) ImportInsertion() Insertion {
	var lastUsing, lastExtern, first *sitter.Node
	for i := 0; i < int(d.root.NamedChildCount()); i++ {
		child := d.root.NamedChild(i)
		typ := child.Type()
		switch {
		case typ == "using_directive":
			lastUsing = child
		case typ == "extern_alias_directive":
			lastExtern = child
		case typ == "comment" || strings.HasPrefix(typ, "preproc"):
		default:
			if first == nil {
				first = child
			}
		}
	}

	switch {
	case lastUsing != nil:
		return Insertion{Offset: int(lastUsing.EndByte()), Anchor: int(lastUsing.StartByte()), Mode: AfterImport}
	case lastExtern != nil:
		return Insertion{Offset: int(lastExtern.EndByte()), Anchor: int(lastExtern.StartByte()), Mode: AfterExternAlias}
	case first != nil:
		return Insertion{Offset: int(first.StartByte()), Anchor: int(first.StartByte()), Mode: BeforeConstruct}
	default:
		return Insertion{Offset: len(d.src), Anchor: len(d.src), Mode: EndOfUnit}
	}
}

func (d *Document) declName(n *sitter.Node) string {
	name := n.ChildByFieldName("name")
	if name == nil {
		name = firstChildOfType(n, "identifier")
	}
	if name == nil {
		return ""
	}
	return compact(d.text(name))
}

func bodyOf(n *sitter.Node) *sitter.Node {
	if body := n.ChildByFieldName("body"); body != nil {
		return body
	}
	return firstChildOfType(n, "declaration_list")
}

func firstChildOfType(n *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if child := n.NamedChild(i); child.Type() == typ {
			return child
		}
	}
	return nil
}

// lastChildOfType returns the last named child of type typ that precedes the
// accessor list or expression body.
func lastChildOfType(n *sitter.Node, typ string) *sitter.Node {
	var last *sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		switch child.Type() {
		case "accessor_list", "arrow_expression_clause":
			return last
		case typ:
			last = child
		}
	}
	return last
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// compact removes all whitespace, so "Newtonsoft . Json" reads "Newtonsoft.Json".
func compact(s string) string {
	return strings.Join(strings.Fields(s), "")
}

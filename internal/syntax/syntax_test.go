package syntax

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const csTestSource = `using System;
using Newtonsoft.Json;

namespace App.Models
{
    public class Person
    {
        public string first_name { get; set; }
        [Obsolete]
        public int Age { get; set; }
        public string full_name => first_name;
        public string nick { get { return "x"; } }
        private string note;

        public class Address
        {
            public string street_line { get; set; }
        }
    }

    public struct Point
    {
        public int x { get; set; }
    }
}
`

func parseTest(t *testing.T, src string) *Document {
	t.Helper()
	doc, err := Parse(context.Background(), []byte(src))
	require.NoError(t, err)
	require.False(t, doc.HasErrors(), "test source must parse cleanly")
	return doc
}

func TestLanguageForFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"Person.cs", CSharp, true},
		{"Script.CSX", CSharp, true},
		{"main.go", "", false},
		{"README", "", false},
	}
	for _, tt := range tests {
		got, ok := LanguageForFile(tt.path)
		assert.Equal(t, tt.ok, ok, tt.path)
		assert.Equal(t, tt.want, got, tt.path)
	}
}

func TestGrammarForLanguage(t *testing.T) {
	t.Parallel()

	lang, ok := GrammarForLanguage(CSharp)
	assert.True(t, ok)
	assert.NotNil(t, lang)

	_, ok = GrammarForLanguage("cobol")
	assert.False(t, ok)
}

func TestParse_CopiesSource(t *testing.T) {
	t.Parallel()

	src := []byte("class A { }\n")
	doc, err := Parse(context.Background(), src)
	require.NoError(t, err)

	src[0] = 'X'
	assert.Equal(t, "class A { }\n", string(doc.Source()))
}

func TestParse_ReportsSyntaxErrors(t *testing.T) {
	t.Parallel()

	doc, err := Parse(context.Background(), []byte("class A { public string x { get; set; \n"))
	require.NoError(t, err)
	assert.True(t, doc.HasErrors())
}

func TestContainers_QualifiedPaths(t *testing.T) {
	t.Parallel()
	doc := parseTest(t, csTestSource)

	var paths []string
	for _, c := range doc.Containers() {
		paths = append(paths, c.Path)
	}
	assert.Equal(t, []string{"App.Models.Person", "App.Models.Person.Address", "App.Models.Point"}, paths)

	cs := doc.Containers()
	assert.Equal(t, KindClass, cs[0].Kind)
	assert.Equal(t, "Person", cs[0].Name)
	assert.Equal(t, KindStruct, cs[2].Kind)
	assert.Equal(t, "struct", cs[2].Kind.String())
}

func TestContainers_FileScopedNamespace(t *testing.T) {
	t.Parallel()
	doc := parseTest(t, "namespace App.Models;\n\npublic record Person\n{\n    public string first_name { get; init; }\n}\n")

	cs := doc.Containers()
	require.Len(t, cs, 1)
	assert.Equal(t, "App.Models.Person", cs[0].Path)
	assert.Equal(t, KindRecord, cs[0].Kind)
}

func TestFindContainer(t *testing.T) {
	t.Parallel()
	doc := parseTest(t, csTestSource)

	c, ok := doc.FindContainer("App.Models.Person.Address")
	require.True(t, ok)
	assert.Equal(t, "Address", c.Name)

	_, ok = doc.FindContainer("App.Models.Address")
	assert.False(t, ok)
}

func TestContainerAt_Innermost(t *testing.T) {
	t.Parallel()
	doc := parseTest(t, csTestSource)

	off := strings.Index(csTestSource, "street_line")
	c, ok := doc.ContainerAt(off)
	require.True(t, ok)
	assert.Equal(t, "App.Models.Person.Address", c.Path)

	off = strings.Index(csTestSource, "Person")
	c, ok = doc.ContainerAt(off)
	require.True(t, ok)
	assert.Equal(t, "App.Models.Person", c.Path)
}

func TestContainerAt_Outside(t *testing.T) {
	t.Parallel()
	doc := parseTest(t, csTestSource)

	_, ok := doc.ContainerAt(strings.Index(csTestSource, "Newtonsoft"))
	assert.False(t, ok)
	_, ok = doc.ContainerAt(-1)
	assert.False(t, ok)
	_, ok = doc.ContainerAt(len(csTestSource) + 10)
	assert.False(t, ok)
}

func TestProperties(t *testing.T) {
	t.Parallel()
	doc := parseTest(t, csTestSource)

	c, ok := doc.FindContainer("App.Models.Person")
	require.True(t, ok)

	props := doc.Properties(c)
	require.Len(t, props, 4)

	assert.Equal(t, "first_name", props[0].Name)
	assert.Equal(t, "string", props[0].Type)
	assert.True(t, props[0].Eligible())
	assert.Equal(t, "first_name", csTestSource[props[0].NameStart:props[0].NameEnd])
	assert.Empty(t, props[0].Attributes)

	assert.Equal(t, "Age", props[1].Name)
	require.Len(t, props[1].Attributes, 1)
	assert.Equal(t, "Obsolete", props[1].Attributes[0].Name)
	assert.Equal(t, "[Obsolete]", csTestSource[props[1].Attributes[0].ListStart:props[1].Attributes[0].ListEnd])
	assert.True(t, props[1].Eligible())

	assert.Equal(t, "full_name", props[2].Name)
	assert.False(t, props[2].Eligible(), "expression-bodied property")

	assert.Equal(t, "nick", props[3].Name)
	assert.False(t, props[3].Eligible(), "accessor with body")
}

func TestProperties_ExplicitInterface(t *testing.T) {
	t.Parallel()
	doc := parseTest(t, "class A : IFoo\n{\n    string IFoo.name { get; set; }\n}\n")

	c, ok := doc.FindContainer("A")
	require.True(t, ok)
	props := doc.Properties(c)
	require.Len(t, props, 1)
	assert.Equal(t, "name", props[0].Name)
	assert.True(t, props[0].Explicit)
	assert.False(t, props[0].Eligible())
}

func TestMemberNames(t *testing.T) {
	t.Parallel()
	doc := parseTest(t, csTestSource)

	c, ok := doc.FindContainer("App.Models.Person")
	require.True(t, ok)
	names := doc.MemberNames(c)
	assert.ElementsMatch(t, []string{"first_name", "Age", "full_name", "nick", "note", "Address"}, names)
}

func TestImports(t *testing.T) {
	t.Parallel()
	src := "global using System.Linq;\nusing static System.Math;\nusing J = Newtonsoft.Json;\n\nnamespace N\n{\n    using System.Text;\n}\n"
	doc := parseTest(t, src)

	imps := doc.Imports()
	require.Len(t, imps, 4)

	assert.Equal(t, "System.Linq", imps[0].Name)
	assert.True(t, imps[0].Global)
	assert.True(t, imps[0].TopLevel)

	assert.Equal(t, "System.Math", imps[1].Name)
	assert.True(t, imps[1].Static)

	assert.Equal(t, "Newtonsoft.Json", imps[2].Name)
	assert.True(t, imps[2].Alias)

	assert.Equal(t, "System.Text", imps[3].Name)
	assert.False(t, imps[3].TopLevel)
	assert.False(t, imps[3].Alias)
}

func TestImports_GlobalQualifierStripped(t *testing.T) {
	t.Parallel()
	doc := parseTest(t, "using global::Newtonsoft.Json;\n\nclass C { }\n")

	imps := doc.Imports()
	require.Len(t, imps, 1)
	assert.Equal(t, "Newtonsoft.Json", imps[0].Name)
	assert.False(t, imps[0].Global)
}

func TestImportInsertion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		src    string
		mode   InsertMode
		marker string // text the insertion offset must precede or follow
	}{
		{"after last using", "using A;\nusing B;\n\nclass C { }\n", AfterImport, "using B;"},
		{"after extern alias", "extern alias X;\n\nclass C { }\n", AfterExternAlias, "extern alias X;"},
		{"before first construct", "// header\nnamespace N\n{\n}\n", BeforeConstruct, "namespace N"},
		{"empty unit", "// nothing here\n", EndOfUnit, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			doc := parseTest(t, tt.src)
			ins := doc.ImportInsertion()
			assert.Equal(t, tt.mode, ins.Mode)

			switch tt.mode {
			case AfterImport, AfterExternAlias:
				assert.True(t, strings.HasSuffix(tt.src[:ins.Offset], tt.marker))
			case BeforeConstruct:
				assert.True(t, strings.HasPrefix(tt.src[ins.Offset:], tt.marker))
			case EndOfUnit:
				assert.Equal(t, len(tt.src), ins.Offset)
			}
		})
	}
}

func TestReplace_LeavesReceiverUnchanged(t *testing.T) {
	t.Parallel()
	doc := parseTest(t, csTestSource)

	c, ok := doc.FindContainer("App.Models.Point")
	require.True(t, ok)
	p := doc.Properties(c)[0]

	next, err := doc.Replace(context.Background(), p.NameStart, p.NameEnd, "X")
	require.NoError(t, err)

	assert.Equal(t, csTestSource, string(doc.Source()))
	assert.Contains(t, string(next.Source()), "public int X { get; set; }")

	// The old view still describes the old document; the new one is found by name.
	assert.Equal(t, "x", doc.Properties(c)[0].Name)
	nc, ok := next.FindContainer("App.Models.Point")
	require.True(t, ok)
	assert.Equal(t, "X", next.Properties(nc)[0].Name)
}

func TestReplace_RejectsBadRange(t *testing.T) {
	t.Parallel()
	doc := parseTest(t, "class A { }\n")

	_, err := doc.Replace(context.Background(), 5, 2, "")
	require.Error(t, err)
	_, err = doc.Replace(context.Background(), 0, 100, "")
	require.Error(t, err)
}

func TestOffset(t *testing.T) {
	t.Parallel()
	doc := parseTest(t, "class A\n{\n    int x;\n}\n")

	off, err := doc.Offset(3, 9)
	require.NoError(t, err)
	assert.Equal(t, "x;", string(doc.Source()[off:off+2]))

	_, err = doc.Offset(9, 1)
	require.Error(t, err)
	_, err = doc.Offset(1, 50)
	require.Error(t, err)
	_, err = doc.Offset(0, 1)
	require.Error(t, err)
}

func TestLineIndent(t *testing.T) {
	t.Parallel()
	doc := parseTest(t, "class A\n{\n    int x;\n}\n")

	off := strings.Index(string(doc.Source()), "int")
	indent, blank := doc.LineIndent(off)
	assert.Equal(t, "    ", indent)
	assert.True(t, blank)

	indent, blank = doc.LineIndent(off + 4)
	assert.Equal(t, "    int ", indent)
	assert.False(t, blank)
}

func TestLookup_PartialTypes(t *testing.T) {
	t.Parallel()
	src := "partial class A\n{\n    public int x { get; set; }\n}\n\npartial class A\n{\n    public int y { get; set; }\n}\n"
	doc := parseTest(t, src)

	cs := doc.Containers()
	require.Len(t, cs, 2)
	assert.Equal(t, Ref{Path: "A", Ordinal: 0}, cs[0].Ref())
	assert.Equal(t, Ref{Path: "A", Ordinal: 1}, cs[1].Ref())
	assert.Equal(t, "A#2", cs[1].Ref().String())

	second, ok := doc.Lookup(Ref{Path: "A", Ordinal: 1})
	require.True(t, ok)
	assert.Equal(t, "y", doc.Properties(second)[0].Name)

	at, ok := doc.ContainerAt(strings.Index(src, "y {"))
	require.True(t, ok)
	assert.Equal(t, 1, at.Ordinal)

	_, ok = doc.Lookup(Ref{Path: "A", Ordinal: 2})
	assert.False(t, ok)
}

package sourcefact_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/depinfer/pkg/sourcefact"
)

var errBrokenMembers = errors.New("unresolvable compound type")

func stubSurface(decls []sourcefact.Declaration, err error) sourcefact.SurfaceFunc {
	return func(context.Context, sourcefact.Language, []byte) ([]sourcefact.Declaration, error) {
		return decls, err
	}
}

const widgetSource = `package com.x.lib;

import com.x.base.Base;
import com.x.model.Model;
import com.x.util.Strings;
import java.util.List;
import kotlin.collections.Map;

public class Widget extends Base {
    public Model model() { return null; }
}
`

func TestExtractor_LibraryFile(t *testing.T) {
	t.Parallel()

	extractor := sourcefact.NewExtractor(sourcefact.WithSurface(stubSurface([]sourcefact.Declaration{{
		Name: "Widget",
		Facts: []sourcefact.Fact{
			{Symbol: "Base", Kind: sourcefact.FactSupertype},
			{Symbol: "Model", Kind: sourcefact.FactMemberType},
			{Symbol: "List<Model>", Kind: sourcefact.FactMemberType},
			{Symbol: "Local", Kind: sourcefact.FactMemberType},
			{Symbol: "int", Kind: sourcefact.FactMemberType},
		},
	}}, nil)))

	unit, err := extractor.Extract(context.Background(), sourcefact.File{
		Path:     "lib/src/main/java/com/x/lib/Widget.java",
		Origin:   sourcefact.OriginLibrary,
		Language: sourcefact.LangJava,
		Content:  []byte(widgetSource),
	})
	require.NoError(t, err)

	assert.Equal(t, "com.x.lib", unit.DeclaredPackage)
	assert.Equal(t, []string{"com.x.base", "com.x.model", "com.x.util"}, unit.ImportedPackages.Sorted())
	assert.Equal(t, []string{"com.x.base", "com.x.model"}, unit.ExportedPackages.Sorted())
}

func TestExtractor_ExportsAreSubsetOfImports(t *testing.T) {
	t.Parallel()

	extractor := sourcefact.NewExtractor(sourcefact.WithSurface(stubSurface([]sourcefact.Declaration{{
		Name:  "Widget",
		Facts: []sourcefact.Fact{{Symbol: "List", Kind: sourcefact.FactMemberType}},
	}}, nil)))

	unit, err := extractor.Extract(context.Background(), sourcefact.File{
		Path: "Widget.java", Language: sourcefact.LangJava, Content: []byte(widgetSource),
	})
	require.NoError(t, err)

	assert.Empty(t, unit.ExportedPackages.Sorted(), "java.util is filtered from exports too")

	for pkg := range unit.ExportedPackages {
		assert.True(t, unit.ImportedPackages.Has(pkg))
	}
}

func TestExtractor_TestFileSkipsSurface(t *testing.T) {
	t.Parallel()

	called := false
	surface := func(context.Context, sourcefact.Language, []byte) ([]sourcefact.Declaration, error) {
		called = true

		return nil, nil
	}

	extractor := sourcefact.NewExtractor(sourcefact.WithSurface(surface))

	unit, err := extractor.Extract(context.Background(), sourcefact.File{
		Path:     "WidgetTest.kt",
		Origin:   sourcefact.OriginTest,
		Language: sourcefact.LangKotlin,
		Content:  []byte("package com.x.lib\n\nimport com.x.testing.Fixture\n"),
	})
	require.NoError(t, err)

	assert.False(t, called)
	assert.Equal(t, []string{"com.x.testing"}, unit.ImportedPackages.Sorted())
	assert.Zero(t, unit.ExportedPackages.Len())
}

const generatorTestSource = `package com.x.gen

import com.x.real.Thing

class GeneratorTest {
    val expected = """
        package com.x.generated

        import com.x.lib.Widget;;
    """.trimIndent()
}
`

func TestExtractor_IndentedDeclarationsAreIgnored(t *testing.T) {
	t.Parallel()

	unit, err := sourcefact.NewExtractor().Extract(context.Background(), sourcefact.File{
		Path:     "GeneratorTest.kt",
		Origin:   sourcefact.OriginTest,
		Language: sourcefact.LangKotlin,
		Content:  []byte(generatorTestSource),
	})
	require.NoError(t, err)

	assert.Equal(t, "com.x.gen", unit.DeclaredPackage)
	assert.Equal(t, []string{"com.x.real"}, unit.ImportedPackages.Sorted())
}

func TestExtractor_StaticImportResolvesToOwningPackage(t *testing.T) {
	t.Parallel()

	unit, err := sourcefact.NewExtractor().Extract(context.Background(), sourcefact.File{
		Path:     "App.java",
		Language: sourcefact.LangJava,
		Content:  []byte("package com.x.app;\nimport static com.x.Util.helper;\n"),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"com.x"}, unit.ImportedPackages.Sorted())
}

func TestExtractor_MissingPackage(t *testing.T) {
	t.Parallel()

	unit, err := sourcefact.NewExtractor().Extract(context.Background(), sourcefact.File{
		Path:     "Script.kt",
		Language: sourcefact.LangKotlin,
		Content:  []byte("import com.x.lib.Widget\n\nfun main() = Unit\n"),
	})
	require.NoError(t, err)

	assert.Empty(t, unit.DeclaredPackage)
	assert.Equal(t, []string{"com.x.lib"}, unit.ImportedPackages.Sorted())
}

func TestExtractor_FirstPackageLineWins(t *testing.T) {
	t.Parallel()

	unit, err := sourcefact.NewExtractor().Extract(context.Background(), sourcefact.File{
		Path:     "A.java",
		Language: sourcefact.LangJava,
		Content:  []byte("package com.first;\r\npackage com.second;\r\n"),
	})
	require.NoError(t, err)

	assert.Equal(t, "com.first", unit.DeclaredPackage)
}

func TestExtractor_MalformedImport(t *testing.T) {
	t.Parallel()

	_, err := sourcefact.NewExtractor().Extract(context.Background(), sourcefact.File{
		Path:     "Broken.java",
		Language: sourcefact.LangJava,
		Content:  []byte("package com.x;\n\nimport com.x.A com.x.B;\n"),
	})
	require.Error(t, err)
	require.ErrorIs(t, err, sourcefact.ErrMalformedDeclaration)

	var malformed *sourcefact.MalformedDeclarationError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, "Broken.java", malformed.Path)
	assert.Equal(t, 3, malformed.Line)
	assert.Equal(t, "import com.x.A com.x.B;", malformed.Text)
}

func TestExtractor_SchemaFile(t *testing.T) {
	t.Parallel()

	called := false
	surface := func(context.Context, sourcefact.Language, []byte) ([]sourcefact.Declaration, error) {
		called = true

		return nil, nil
	}

	unit, err := sourcefact.NewExtractor(sourcefact.WithSurface(surface)).Extract(context.Background(), sourcefact.File{
		Path:     "events.proto",
		Language: sourcefact.LangProto,
		Content: []byte(`syntax = "proto3";
package events;
import "google/protobuf/timestamp.proto";
option java_package = "com.x.events";
option java_package = "com.x.ignored";
`),
	})
	require.NoError(t, err)

	assert.False(t, called)
	assert.Equal(t, "com.x.events", unit.DeclaredPackage)
	assert.Zero(t, unit.ImportedPackages.Len())
	assert.Zero(t, unit.ExportedPackages.Len())
}

func TestExtractor_SchemaWithoutOption(t *testing.T) {
	t.Parallel()

	unit, err := sourcefact.NewExtractor().Extract(context.Background(), sourcefact.File{
		Path: "plain.proto", Language: sourcefact.LangProto, Content: []byte("syntax = \"proto3\";\n"),
	})
	require.NoError(t, err)
	assert.Empty(t, unit.DeclaredPackage)
}

func TestExtractor_DeclarationFailureDropsMembersOnly(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer

	logger := slog.New(slog.NewJSONHandler(&logs, nil))

	extractor := sourcefact.NewExtractor(
		sourcefact.WithLogger(logger),
		sourcefact.WithSurface(stubSurface([]sourcefact.Declaration{
			{
				Name: "Broken",
				Facts: []sourcefact.Fact{
					{Symbol: "Base", Kind: sourcefact.FactSupertype},
					{Symbol: "Model", Kind: sourcefact.FactMemberType},
				},
				Err: errBrokenMembers,
			},
			{
				Name:  "Healthy",
				Facts: []sourcefact.Fact{{Symbol: "Strings", Kind: sourcefact.FactMemberType}},
			},
		}, nil)),
	)

	unit, err := extractor.Extract(context.Background(), sourcefact.File{
		Path: "Widget.java", Language: sourcefact.LangJava, Content: []byte(widgetSource),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"com.x.base", "com.x.util"}, unit.ExportedPackages.Sorted())
	assert.Contains(t, logs.String(), "surface inference degraded")
	assert.Contains(t, logs.String(), "Broken")
}

func TestExtractor_WholeFileSurfaceFailureIsRecovered(t *testing.T) {
	t.Parallel()

	extractor := sourcefact.NewExtractor(sourcefact.WithSurface(stubSurface(nil, errBrokenMembers)))

	unit, err := extractor.Extract(context.Background(), sourcefact.File{
		Path: "Widget.java", Language: sourcefact.LangJava, Content: []byte(widgetSource),
	})
	require.NoError(t, err)

	assert.Equal(t, "com.x.lib", unit.DeclaredPackage)
	assert.Zero(t, unit.ExportedPackages.Len())
	assert.Equal(t, 3, unit.ImportedPackages.Len())
}

func TestExtractor_SurfaceFailureHook(t *testing.T) {
	t.Parallel()

	var failures []*sourcefact.SurfaceInferenceError

	extractor := sourcefact.NewExtractor(
		sourcefact.WithSurface(stubSurface(nil, errBrokenMembers)),
		sourcefact.WithSurfaceFailureHook(func(_ context.Context, err *sourcefact.SurfaceInferenceError) {
			failures = append(failures, err)
		}),
	)

	_, err := extractor.Extract(context.Background(), sourcefact.File{
		Path: "Widget.java", Language: sourcefact.LangJava, Content: []byte(widgetSource),
	})
	require.NoError(t, err)

	require.Len(t, failures, 1)
	assert.Equal(t, "Widget.java", failures[0].Path)
	require.ErrorIs(t, failures[0], sourcefact.ErrSurfaceInference)
	require.ErrorIs(t, failures[0], errBrokenMembers)
}

func TestExtractor_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sourcefact.NewExtractor().Extract(ctx, sourcefact.File{Path: "A.java", Language: sourcefact.LangJava})
	require.ErrorIs(t, err, context.Canceled)
}

func TestExtractor_CustomFilter(t *testing.T) {
	t.Parallel()

	extractor := sourcefact.NewExtractor(sourcefact.WithFilter(sourcefact.NewFilter(nil, []string{"com.x.util"})))

	unit, err := extractor.Extract(context.Background(), sourcefact.File{
		Path: "Widget.java", Language: sourcefact.LangJava, Content: []byte(widgetSource),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"com.x.base", "com.x.model", "java.util", "kotlin.collections"}, unit.ImportedPackages.Sorted())
}

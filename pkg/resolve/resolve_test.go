package resolve_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/depinfer/pkg/project"
	"github.com/Sumatoshi-tech/depinfer/pkg/resolve"
	"github.com/Sumatoshi-tech/depinfer/pkg/strset"
)

type moduleFixture struct {
	id         string
	exported   []string
	imported   []string
	transitive []string
	test       []string
}

func modules(fixtures ...moduleFixture) []*project.Module {
	out := make([]*project.Module, 0, len(fixtures))

	for _, fx := range fixtures {
		module := project.NewModule(fx.id, fx.id)
		module.ExportedPackages = strset.New(fx.exported...)
		module.ImportedPackages = strset.New(fx.imported...)
		module.TransitiveExportedPackages = strset.New(fx.transitive...)
		module.ImportedTestPackages = strset.New(fx.test...)
		out = append(out, module)
	}

	return out
}

func byModule(all []resolve.Dependencies, id string) resolve.Dependencies {
	for _, deps := range all {
		if deps.Module == id {
			return deps
		}
	}

	return resolve.Dependencies{}
}

func TestIndex(t *testing.T) {
	t.Parallel()

	index := resolve.BuildIndex(modules(
		moduleFixture{id: ":b", exported: []string{"com.x.shared", "com.x.b"}},
		moduleFixture{id: ":a", exported: []string{"com.x.shared", "com.x.a"}},
	))

	assert.Equal(t, []string{":a", ":b"}, index.Owners("com.x.shared"))
	assert.Equal(t, []string{":a"}, index.Owners("com.x.a"))
	assert.Empty(t, index.Owners("org.external"))
	assert.Equal(t, map[string][]string{"com.x.shared": {":a", ":b"}}, index.Ambiguous())
	assert.Equal(t, []string{"com.x.a", "com.x.b", "com.x.shared"}, index.Packages())
}

func TestResolve_Kinds(t *testing.T) {
	t.Parallel()

	mods := modules(
		moduleFixture{id: ":base", exported: []string{"com.x.base"}},
		moduleFixture{
			id:         ":lib",
			exported:   []string{"com.x.lib"},
			imported:   []string{"com.x.base"},
			transitive: []string{"com.x.base"},
		},
		moduleFixture{
			id:       ":app",
			exported: []string{"com.x.app"},
			imported: []string{"com.x.lib", "org.external"},
			test:     []string{"com.x.base"},
		},
	)

	all := resolve.ResolveAll(resolve.BuildIndex(mods), mods)
	require.Len(t, all, 3)
	assert.Equal(t, []string{":app", ":base", ":lib"}, []string{all[0].Module, all[1].Module, all[2].Module})

	app := byModule(all, ":app")
	assert.Empty(t, app.API)
	assert.Equal(t, []string{":lib"}, app.Implementation)
	assert.Equal(t, []string{":base"}, app.Test)

	lib := byModule(all, ":lib")
	assert.Equal(t, []string{":base"}, lib.API)
	assert.Equal(t, []string{":base"}, lib.Implementation)

	assert.Zero(t, byModule(all, ":base").Len())
}

func TestResolve_SelfExclusion(t *testing.T) {
	t.Parallel()

	mods := modules(
		moduleFixture{
			id:         ":lib",
			exported:   []string{"com.x.lib", "com.x.lib.internal"},
			imported:   []string{"com.x.lib.internal"},
			transitive: []string{"com.x.lib"},
			test:       []string{"com.x.lib"},
		},
	)

	deps := resolve.Resolve(resolve.BuildIndex(mods), mods[0])
	assert.Zero(t, deps.Len())

	for _, edge := range deps.Edges() {
		assert.NotEqual(t, edge.Consumer, edge.Provider)
	}
}

func TestResolve_AmbiguousOwnershipFansOut(t *testing.T) {
	t.Parallel()

	mods := modules(
		moduleFixture{id: ":one", exported: []string{"com.x.shared"}},
		moduleFixture{id: ":two", exported: []string{"com.x.shared"}},
		moduleFixture{id: ":consumer", imported: []string{"com.x.shared"}},
	)

	deps := resolve.Resolve(resolve.BuildIndex(mods), mods[2])
	assert.Equal(t, []string{":one", ":two"}, deps.Implementation)
}

func TestResolve_OrderingAndDedup(t *testing.T) {
	t.Parallel()

	mods := modules(
		moduleFixture{id: ":b", exported: []string{"com.b.one", "com.b.two"}},
		moduleFixture{id: ":a:z", exported: []string{"com.az"}},
		moduleFixture{id: ":A", exported: []string{"com.upper"}},
		moduleFixture{id: ":a", exported: []string{"com.a"}},
		moduleFixture{id: ":c", imported: []string{"com.b.two", "com.b.one", "com.az", "com.upper", "com.a"}},
	)

	deps := resolve.Resolve(resolve.BuildIndex(mods), mods[4])
	assert.Equal(t, []string{":A", ":a", ":a:z", ":b"}, deps.Implementation)
	assert.True(t, slices.IsSorted(deps.Implementation))
}

func TestDependencies_Edges(t *testing.T) {
	t.Parallel()

	deps := resolve.Dependencies{
		Module:         ":app",
		API:            []string{":model"},
		Implementation: []string{":lib"},
		Test:           []string{":fixtures"},
	}

	assert.Equal(t, []resolve.Edge{
		{Consumer: ":app", Provider: ":model", Kind: resolve.KindAPI},
		{Consumer: ":app", Provider: ":lib", Kind: resolve.KindImplementation},
		{Consumer: ":app", Provider: ":fixtures", Kind: resolve.KindTest},
	}, deps.Edges())

	assert.Equal(t, "testImplementation", resolve.KindTest.Configuration())
}

func TestFindCycles(t *testing.T) {
	t.Parallel()

	all := []resolve.Dependencies{
		{Module: ":a", Implementation: []string{":b"}},
		{Module: ":b", API: []string{":a"}},
		{Module: ":c", Test: []string{":d"}},
		{Module: ":d", Implementation: []string{":c"}},
	}

	assert.Equal(t, [][]string{{":a", ":b"}}, resolve.FindCycles(all))

	_, ok := resolve.BuildOrder(all)
	assert.False(t, ok)

	order, ok := resolve.BuildOrder(all[2:])
	assert.True(t, ok)
	assert.Equal(t, []string{":c", ":d"}, order)
}

package modulestore

import (
	"bytes"
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coursegrid/coursegrid/internal/course"
	"github.com/coursegrid/coursegrid/internal/plugins/builtin"
	"github.com/coursegrid/coursegrid/internal/registry"
)

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New(nil)
	for _, factory := range []registry.DescriptorFactory{
		builtin.CourseFactory{},
		builtin.ChapterFactory{},
		builtin.SequenceFactory{},
		builtin.VerticalFactory{},
		builtin.HTMLFactory{},
		builtin.VideoFactory{},
		builtin.ProblemFactory{},
		builtin.ErrorFactory{},
		builtin.RawFactory{},
	} {
		reg.Register("builtin", factory)
	}
	return reg
}

func courseFS(files map[string]string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for name, content := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(content)}
	}
	return fsys
}

func TestImportCourse(t *testing.T) {
	fsys := courseFS(map[string]string{
		"course.xml": `<course org="edX" course="demo" url_name="2026" graded="true">
			<chapter url_name="week1">
				<sequential url_name="seq1">
					<problem url_name="p1" answer="42">Q</problem>
				</sequential>
			</chapter>
		</course>`,
	})

	store := NewStore()
	importer := NewImporter(newTestRegistry(t), store, nil)

	root, err := importer.ImportCourse(context.Background(), fsys, "", "")
	require.NoError(t, err)
	assert.Empty(t, importer.LoadErrors)

	assert.Equal(t, "course", root.Category())
	assert.Equal(t, 4, store.Count())
	assert.Equal(t, []course.Location{root.Location()}, store.Courses())

	// The inheritance pass reached the leaves.
	problem, err := store.Get(course.NewLocation("edX", "demo", "problem", "p1"))
	require.NoError(t, err)
	assert.Equal(t, "true", problem.Metadata()["graded"])
	assert.True(t, problem.InheritedFields().Contains("graded"))
}

func TestImportMissingCourseFile(t *testing.T) {
	store := NewStore()
	importer := NewImporter(newTestRegistry(t), store, nil)

	_, err := importer.ImportCourse(context.Background(), courseFS(nil), "edX", "demo")
	assert.Error(t, err)
}

func TestImportSubstitutesErrorNodes(t *testing.T) {
	fsys := courseFS(map[string]string{
		"course.xml": `<course org="edX" course="demo" url_name="2026">
			<chapter url_name="week1">
				<html url_name="h1" filename="missing.html"/>
				<html url_name="h2"><p>fine</p></html>
			</chapter>
		</course>`,
	})

	store := NewStore()
	importer := NewImporter(newTestRegistry(t), store, nil)

	root, err := importer.ImportCourse(context.Background(), fsys, "", "")
	require.NoError(t, err, "a broken node must not fail the import")
	require.Len(t, importer.LoadErrors, 1)

	chapter, err := store.Get(course.NewLocation("edX", "demo", "chapter", "week1"))
	require.NoError(t, err)
	children, err := chapter.Children()
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "error", children[0].Category())
	assert.Equal(t, "html", children[1].Category())

	_ = root
}

func TestImportBrokenSiblingsGetDistinctErrorNodes(t *testing.T) {
	fsys := courseFS(map[string]string{
		"course.xml": `<course org="edX" course="demo" url_name="2026">
			<chapter url_name="week1">
				<html url_name="h1" filename="missing1.html"/>
				<html url_name="h2" filename="missing2.html"/>
			</chapter>
		</course>`,
	})

	store := NewStore()
	importer := NewImporter(newTestRegistry(t), store, nil)

	_, err := importer.ImportCourse(context.Background(), fsys, "", "")
	require.NoError(t, err)
	require.Len(t, importer.LoadErrors, 2)
	assert.NotEqual(t, importer.LoadErrors[0].Location, importer.LoadErrors[1].Location)

	chapter, err := store.Get(course.NewLocation("edX", "demo", "chapter", "week1"))
	require.NoError(t, err)
	children, err := chapter.Children()
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "error", children[0].Category())
	assert.Equal(t, "error", children[1].Category())
	assert.NotEqual(t, children[0].Location(), children[1].Location(),
		"every broken sibling keeps its own error node")
}

func TestImportUnknownTagFallsBackToRaw(t *testing.T) {
	fsys := courseFS(map[string]string{
		"course.xml": `<course org="edX" course="demo" url_name="2026">
			<discussion url_name="d1" topic="intro"/>
		</course>`,
	})

	store := NewStore()
	importer := NewImporter(newTestRegistry(t), store, nil)

	root, err := importer.ImportCourse(context.Background(), fsys, "", "")
	require.NoError(t, err)

	children, err := root.Children()
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, "discussion", children[0].Category())
	assert.IsType(t, &builtin.RawDescriptor{}, children[0])
}

func TestImportAppliesPolicy(t *testing.T) {
	fsys := courseFS(map[string]string{
		"course.xml": `<course org="edX" course="demo" url_name="2026">
			<chapter url_name="week1" graded="false"/>
		</course>`,
		"policy.yaml": `
chapter/week1:
  graded: "true"
  due: "2026-06-01"
course/2026:
  showanswer: always
`,
	})

	store := NewStore()
	importer := NewImporter(newTestRegistry(t), store, nil)

	root, err := importer.ImportCourse(context.Background(), fsys, "", "")
	require.NoError(t, err)

	chapter, err := store.Get(course.NewLocation("edX", "demo", "chapter", "week1"))
	require.NoError(t, err)

	// Policy overrides the authored attribute and counts as authored.
	assert.Equal(t, "true", chapter.Metadata()["graded"])
	assert.Equal(t, "2026-06-01", chapter.Metadata()["due"])
	assert.False(t, chapter.InheritedFields().Contains("due"))

	// Policy on the root flows down through inheritance.
	assert.Equal(t, "always", chapter.Metadata()["showanswer"])
	assert.True(t, chapter.InheritedFields().Contains("showanswer"))

	_ = root
}

func TestImportRejectsBadPolicy(t *testing.T) {
	files := map[string]string{
		"course.xml": `<course org="edX" course="demo" url_name="2026"/>`,
	}

	t.Run("malformed key", func(t *testing.T) {
		files["policy.yaml"] = "notakey:\n  graded: \"true\"\n"
		importer := NewImporter(newTestRegistry(t), NewStore(), nil)
		_, err := importer.ImportCourse(context.Background(), courseFS(files), "", "")
		assert.Error(t, err)
	})

	t.Run("unknown node", func(t *testing.T) {
		files["policy.yaml"] = "chapter/ghost:\n  graded: \"true\"\n"
		importer := NewImporter(newTestRegistry(t), NewStore(), nil)
		_, err := importer.ImportCourse(context.Background(), courseFS(files), "", "")
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		files["policy.yaml"] = "\t{{{"
		importer := NewImporter(newTestRegistry(t), NewStore(), nil)
		_, err := importer.ImportCourse(context.Background(), courseFS(files), "", "")
		assert.Error(t, err)
	})
}

func TestExportCourse(t *testing.T) {
	fsys := courseFS(map[string]string{
		"course.xml": `<course org="edX" course="demo" url_name="2026" graded="true">
			<chapter url_name="week1">
				<problem url_name="p1" answer="42">Q</problem>
			</chapter>
		</course>`,
	})

	importer := NewImporter(newTestRegistry(t), NewStore(), nil)
	root, err := importer.ImportCourse(context.Background(), fsys, "", "")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ExportCourse(root, &buf))

	out := buf.String()
	assert.Contains(t, out, `org="edX"`)
	assert.Contains(t, out, `<chapter url_name="week1">`)
	assert.Contains(t, out, `answer="42"`)
	assert.NotContains(t, out, `<chapter url_name="week1" graded=`,
		"inherited metadata is not exported on children")

	// The exported document imports back to an equal course.
	second := NewImporter(newTestRegistry(t), NewStore(), nil)
	reimported, err := second.ImportCourse(context.Background(),
		courseFS(map[string]string{"course.xml": out}), "", "")
	require.NoError(t, err)
	assert.True(t, root.Equals(reimported))
}

func TestExportCourseRequiresRoot(t *testing.T) {
	desc := course.NewBaseDescriptor(nil,
		course.NewLocation("edX", "demo", "chapter", "week1"), nil, course.DescriptorOptions{})

	var buf bytes.Buffer
	assert.Error(t, ExportCourse(desc, &buf))
}

func TestStore(t *testing.T) {
	store := NewStore()
	loc := course.NewLocation("edX", "demo", "html", "h1")
	desc := course.NewBaseDescriptor(nil, loc, nil, course.DescriptorOptions{})

	_, err := store.Get(loc)
	assert.Error(t, err)

	store.Put(desc)
	got, err := store.Get(loc)
	require.NoError(t, err)
	assert.Equal(t, desc, got)
	assert.Equal(t, 1, store.Count())
	assert.Empty(t, store.Courses(), "non-course nodes are not roots")

	rootLoc := course.NewLocation("edX", "demo", "course", "2026")
	store.Put(course.NewBaseDescriptor(nil, rootLoc, nil, course.DescriptorOptions{}))
	store.Put(course.NewBaseDescriptor(nil, rootLoc, nil, course.DescriptorOptions{}))
	assert.Equal(t, []course.Location{rootLoc}, store.Courses(), "replacing a root does not duplicate it")

	locs := store.Locations()
	require.Len(t, locs, 2)
	assert.True(t, locs[0].URL() < locs[1].URL())

	store.Clear()
	assert.Equal(t, 0, store.Count())
	assert.Empty(t, store.Courses())
}

func TestStoreReplace(t *testing.T) {
	live := NewStore()
	oldLoc := course.NewLocation("edX", "demo", "course", "2025")
	live.Put(course.NewBaseDescriptor(nil, oldLoc, nil, course.DescriptorOptions{}))

	// A failed import into the staging store never touches the live one.
	staged := NewStore()
	importer := NewImporter(newTestRegistry(t), staged, nil)
	_, err := importer.ImportCourse(context.Background(), courseFS(nil), "edX", "demo")
	require.Error(t, err)
	_, err = live.Get(oldLoc)
	assert.NoError(t, err, "previous course keeps serving after a failed re-import")

	// A successful import is published wholesale.
	_, err = importer.ImportCourse(context.Background(), courseFS(map[string]string{
		"course.xml": `<course org="edX" course="demo" url_name="2026"/>`,
	}), "", "")
	require.NoError(t, err)
	live.Replace(staged)

	_, err = live.Get(oldLoc)
	assert.Error(t, err)
	newLoc := course.NewLocation("edX", "demo", "course", "2026")
	_, err = live.Get(newLoc)
	assert.NoError(t, err)
	assert.Equal(t, []course.Location{newLoc}, live.Courses())
}

package pipeline

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/vizpipe/internal/logging"
	"github.com/chazu/vizpipe/pkg/filter"
	"github.com/chazu/vizpipe/pkg/format"
	"github.com/chazu/vizpipe/pkg/object"
	"github.com/chazu/vizpipe/pkg/render"
)

func writeTemp(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const polygonXML = `<polygonset name="tri" shape="triangle">
  <coords>0 0 0 1 0 0 0 1 0</coords>
  <indices>0 1 2</indices>
</polygonset>`

const meshXML = `<unstructuredvolume cells="tetrahedra">
  <coords>0 0 0 1 0 0 0 1 0 0 0 1</coords>
  <connections>0 1 2 3</connections>
</unstructuredvolume>`

// cubeField is a 3x3x3 byte volume peaking at its centre.
func cubeField(t *testing.T) string {
	t.Helper()
	var b bytes.Buffer
	b.WriteString("# AVS field file\nndim=3\ndim1=3\ndim2=3\ndim3=3\nveclen=1\ndata=byte\nfield=uniform\n\f\f")
	payload := make([]byte, 27)
	payload[13] = 200
	b.Write(payload)
	path := filepath.Join(t.TempDir(), "cube.fld")
	require.NoError(t, os.WriteFile(path, b.Bytes(), 0o644))
	return path
}

// failing is a filter that always errors.
type failing struct{}

func (failing) Name() string { return "failing" }
func (failing) Filter(object.Object) (object.Object, error) {
	return nil, errors.New("boom")
}

// empty is a mapper that returns no result.
type empty struct{}

func (empty) Name() string                             { return "empty" }
func (empty) Map(object.Object) (object.Object, error) { return nil, nil }

func TestExecNoStagesBindsPolygonRenderer(t *testing.T) {
	p := New()
	p.SetInput(writeTemp(t, "tri.xml", polygonXML))

	require.True(t, p.Exec(), "exec: %v", p.Err())
	assert.Equal(t, RendererBound, p.State())
	assert.True(t, p.HasRenderer())
	assert.IsType(t, &render.PolygonRenderer{}, p.Renderer())
	assert.Equal(t, "polygon", p.Renderer().Name())
	assert.Same(t, p.Object(), p.Renderer().Bound())
	assert.NoError(t, p.Err())
}

func TestExecImportFailureStaysEmpty(t *testing.T) {
	tests := map[string]string{
		"missing file":  filepath.Join(t.TempDir(), "gone.fld"),
		"unknown ext":   writeTemp(t, "notes.txt", "hello"),
		"no xml match":  writeTemp(t, "other.xml", "<svg/>"),
		"bad avs magic": writeTemp(t, "bad.fld", "not avs\n\f\f"),
	}
	for name, path := range tests {
		t.Run(name, func(t *testing.T) {
			p := New()
			p.SetInput(path)
			assert.False(t, p.Exec())
			assert.Equal(t, Empty, p.State())
			require.ErrorIs(t, p.Err(), ErrImportFailed)
			assert.Nil(t, p.Object())
			assert.False(t, p.HasRenderer())
		})
	}
}

func TestExecImportErrorCause(t *testing.T) {
	p := New()
	p.SetInput(writeTemp(t, "other.xml", "<svg/>"))
	p.Exec()
	require.ErrorIs(t, p.Err(), format.ErrUnsupportedFormat)
}

func TestExecStageFailureKeepsLastObject(t *testing.T) {
	p := New()
	p.SetInput(writeTemp(t, "tri.xml", polygonXML))
	outline := filter.Outline{}
	require.NoError(t, p.Connect(outline, failing{}, filter.Translate(1, 0, 0)))

	assert.False(t, p.Exec())
	assert.Equal(t, ObjectReady, p.State())
	require.ErrorIs(t, p.Err(), ErrStageFailed)

	var se *StageError
	require.ErrorAs(t, p.Err(), &se)
	assert.Equal(t, "failing", se.Stage)
	assert.EqualError(t, se.Err, "boom")

	// The outline stage succeeded, so its line set is retained.
	assert.Equal(t, object.KindLine, p.Object().Kind())
	assert.False(t, p.HasRenderer())
}

func TestExecStageWithoutResult(t *testing.T) {
	p := New()
	p.SetInput(writeTemp(t, "tri.xml", polygonXML))
	require.NoError(t, p.Connect(empty{}))

	assert.False(t, p.Exec())
	var se *StageError
	require.ErrorAs(t, p.Err(), &se)
	assert.Equal(t, "empty", se.Stage)
	assert.Equal(t, ObjectReady, p.State())
}

func TestExecUnstructuredHasNoRenderer(t *testing.T) {
	p := New()
	p.SetInput(writeTemp(t, "mesh.xml", meshXML))

	assert.False(t, p.Exec())
	assert.Equal(t, StagesApplied, p.State())
	require.ErrorIs(t, p.Err(), ErrNoRendererAvailable)
	assert.Equal(t, object.KindUnstructuredVolume, p.Object().Kind())
}

func TestExecVolumeThroughMappers(t *testing.T) {
	p := New()
	p.SetInput(cubeField(t))
	require.NoError(t, p.Connect(
		&filter.Threshold{Level: 10},
		&filter.IsoSurface{Level: 100, Cells: 12},
		filter.Translate(0, 0, 5),
	))

	require.True(t, p.Exec(), "exec: %v", p.Err())
	assert.Equal(t, "polygon", p.Renderer().Name())
	poly := p.Object().(*object.Polygon)
	assert.Greater(t, poly.ExternalBounds().Min.Z, 5.0)
}

func TestExecVolumeAutoSelectsRayCast(t *testing.T) {
	p := New()
	p.SetInput(cubeField(t))
	require.True(t, p.Exec(), "exec: %v", p.Err())
	assert.IsType(t, &render.RayCastRenderer{}, p.Renderer())
}

func TestExecTrailingRendererStage(t *testing.T) {
	p := New()
	p.SetInput(cubeField(t))
	lines := render.NewLine()
	require.NoError(t, p.Connect(filter.Outline{}, lines))

	require.True(t, p.Exec(), "exec: %v", p.Err())
	assert.Same(t, lines, p.Renderer())

	// A renderer that rejects the final object fails without auto-selection.
	p = New()
	p.SetInput(cubeField(t))
	require.NoError(t, p.Connect(render.NewImage()))
	assert.False(t, p.Exec())
	assert.Equal(t, StagesApplied, p.State())
	require.ErrorIs(t, p.Err(), ErrStageFailed)
	require.ErrorIs(t, p.Err(), render.ErrKindMismatch)
}

func TestExecObjectStage(t *testing.T) {
	pts := &object.Point{Label: "seed"}
	pts.SetCoords([]float32{1, 2, 3})

	p := New()
	require.NoError(t, p.Connect(pts))
	require.True(t, p.Exec(), "exec: %v", p.Err())
	assert.Equal(t, "point", p.Renderer().Name())
	assert.Same(t, pts, p.Object())
}

func TestConnectValidation(t *testing.T) {
	p := New()
	require.ErrorIs(t, p.Connect(42), ErrInvalidStage)
	require.ErrorIs(t, p.Connect(render.NewPoint(), filter.Outline{}), ErrInvalidStage)
	require.ErrorIs(t, p.Connect(filter.Outline{}, &object.Point{}), ErrInvalidStage)
	assert.Empty(t, p.Stages())

	require.NoError(t, p.Connect(filter.Outline{}))
	require.NoError(t, p.Connect(render.NewLine()))
	require.ErrorIs(t, p.Connect(filter.Outline{}), ErrInvalidStage, "nothing may follow a renderer")
	assert.Len(t, p.Stages(), 2)
}

func TestClassifyAndLookup(t *testing.T) {
	assert.Equal(t, CategoryFilter, Classify(&filter.Threshold{}))
	assert.Equal(t, CategoryMapper, Classify(filter.Outline{}))
	assert.Equal(t, CategoryRenderer, Classify(render.NewPoint()))
	assert.Equal(t, CategoryObject, Classify(&object.Image{}))
	assert.Equal(t, CategoryUnknown, Classify("threshold"))

	first := filter.Translate(1, 0, 0)
	p := New()
	require.NoError(t, p.Connect(first, filter.Scale(2, 2, 2), filter.Outline{}))

	s, ok := p.Lookup(CategoryFilter)
	require.True(t, ok)
	assert.Same(t, first, s)

	_, ok = p.Lookup(CategoryRenderer)
	assert.False(t, ok)
}

func TestReExecAppliesStagesToImportedObject(t *testing.T) {
	p := New()
	p.SetInput(writeTemp(t, "tri.xml", polygonXML))
	require.NoError(t, p.Connect(filter.Translate(1, 0, 0)))

	require.True(t, p.Exec())
	require.True(t, p.Exec())
	ext := p.Object().(*object.Polygon).ExternalBounds()
	assert.InDelta(t, 1, ext.Min.X, 1e-9, "translation applied once per exec")
}

func TestConnectAfterExecUnbindsRenderer(t *testing.T) {
	p := New()
	p.SetInput(writeTemp(t, "tri.xml", polygonXML))
	require.True(t, p.Exec())
	require.Equal(t, RendererBound, p.State())
	require.True(t, p.HasRenderer())

	require.NoError(t, p.Connect(filter.Outline{}))
	assert.Equal(t, ObjectReady, p.State())
	assert.False(t, p.HasRenderer())
	assert.Nil(t, p.Renderer())

	require.True(t, p.Exec())
	assert.Equal(t, "line", p.Renderer().Name())
}

func TestResetAndSetInput(t *testing.T) {
	p := New()
	p.SetInput(writeTemp(t, "tri.xml", polygonXML))
	require.NoError(t, p.Connect(filter.Outline{}))
	require.True(t, p.Exec())

	p.SetInput(writeTemp(t, "mesh.xml", meshXML))
	assert.Equal(t, Empty, p.State())
	assert.Nil(t, p.Object())
	assert.Len(t, p.Stages(), 1)

	p.Reset()
	assert.Empty(t, p.Stages())
	assert.False(t, p.HasRenderer())
}

func TestDisplayAndLogging(t *testing.T) {
	var logs bytes.Buffer
	logger, err := logging.New("debug", "text", &logs)
	require.NoError(t, err)

	var presented render.Renderer
	p := New(
		WithLogger(logger),
		WithDisplay(render.DisplayFunc(func(r render.Renderer) error {
			presented = r
			return nil
		})),
	)
	p.SetInput(writeTemp(t, "tri.xml", polygonXML))
	require.NoError(t, p.Connect(filter.Outline{}))
	require.True(t, p.Exec())

	assert.Same(t, p.Renderer(), presented)
	assert.Contains(t, logs.String(), "import completed")
	assert.Contains(t, logs.String(), "stage=outline")
	assert.Contains(t, logs.String(), "renderer bound")
}

func TestDisplayFailure(t *testing.T) {
	p := New(WithDisplay(render.DisplayFunc(func(render.Renderer) error {
		return errors.New("no screen")
	})))
	p.SetInput(writeTemp(t, "tri.xml", polygonXML))
	assert.False(t, p.Exec())
	assert.Equal(t, RendererBound, p.State())
	assert.EqualError(t, p.Err(), "pipeline: display: no screen")
}

func TestStateStrings(t *testing.T) {
	assert.Equal(t, "empty", Empty.String())
	assert.Equal(t, "renderer-bound", RendererBound.String())
	assert.Equal(t, "mapper", CategoryMapper.String())
}

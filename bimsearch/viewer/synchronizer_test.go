package viewer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krew-solutions/bimsearch-go/bimsearch/element"
	"github.com/krew-solutions/bimsearch-go/bimsearch/viewer"
	"github.com/krew-solutions/bimsearch-go/bimsearch/viewer/viewertest"
)

func items() []element.ResultItem {
	return []element.ResultItem{
		{ID: "c11", ContainerID: "c1", ExternalID: 1},
		{ID: "c12", ContainerID: "c1", ExternalID: 2},
		{ID: "c23", ContainerID: "c2", ExternalID: 3},
	}
}

func TestBuildMapping(t *testing.T) {
	m := viewer.BuildMapping(items())
	assert.Equal(t, viewer.Mapping{"c1": {1, 2}, "c2": {3}}, m)
}

func TestIsolateAppliesMapping(t *testing.T) {
	scene := viewertest.NewScene()
	sync := viewer.NewSynchronizer(scene)

	require.NoError(t, sync.Isolate(items()))

	calls := scene.CallsOf("isolate")
	require.Len(t, calls, 1)
	assert.Equal(t, viewer.Mapping{"c1": {1, 2}, "c2": {3}}, calls[0].Mapping)
	assert.Equal(t, viewer.Mapping{"c1": {1, 2}, "c2": {3}}, sync.Isolated())
}

func TestShowAllSupersedesIsolate(t *testing.T) {
	scene := viewertest.NewScene()
	sync := viewer.NewSynchronizer(scene)

	require.NoError(t, sync.Isolate(items()))
	require.NoError(t, sync.ShowAll())

	assert.Nil(t, sync.Isolated())
	visible := scene.CallsOf("setAllVisible")
	require.Len(t, visible, 1)
	assert.True(t, visible[0].Visible)
}

func TestHoverDoesNotTouchSelectLayer(t *testing.T) {
	scene := viewertest.NewScene()
	sync := viewer.NewSynchronizer(scene)

	require.NoError(t, sync.Select(items()))
	scene.Reset()

	require.NoError(t, sync.Hover("c1", 1))
	require.NoError(t, sync.ClearHover())

	for _, c := range scene.Calls() {
		assert.Equal(t, viewer.LayerHover, c.Layer)
	}
}

func TestHoverDoesNotAlterIsolateMapping(t *testing.T) {
	scene := viewertest.NewScene()
	sync := viewer.NewSynchronizer(scene)

	require.NoError(t, sync.Isolate(items()))
	before := sync.Isolated()

	require.NoError(t, sync.Hover("c2", 3))
	assert.Equal(t, before, sync.Isolated())
	assert.Len(t, scene.CallsOf("isolate"), 1)
}

func TestFitCameraOnlyWhenIsolated(t *testing.T) {
	scene := viewertest.NewScene()
	sync := viewer.NewSynchronizer(scene)

	require.NoError(t, sync.FitCamera())
	assert.Empty(t, scene.CallsOf("fitCameraTo"))

	require.NoError(t, sync.Isolate(items()))
	require.NoError(t, sync.FitCamera())
	assert.Len(t, scene.CallsOf("fitCameraTo"), 1)
}

func TestSceneErrorPropagates(t *testing.T) {
	scene := viewertest.NewScene()
	scene.Err = assert.AnError
	sync := viewer.NewSynchronizer(scene)

	assert.Error(t, sync.Isolate(items()))
	assert.Error(t, sync.ShowAll())
	assert.Error(t, sync.Hover("c1", 1))
}

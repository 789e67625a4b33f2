package systems

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/ombra/engine/assets/loaders"
	"github.com/spaghettifunk/ombra/engine/math"
	"github.com/spaghettifunk/ombra/engine/renderer/metadata"
	"github.com/spaghettifunk/ombra/engine/scene"
)

func intPtr(v int) *int {
	return &v
}

// a pivot with one meshed child declared before it, a light and an
// active camera
func testSceneConfig() *loaders.SceneConfig {
	return &loaders.SceneConfig{
		Name:      "rig",
		Materials: []metadata.MaterialConfig{{Name: "gold"}},
		Meshes: []metadata.MeshConfig{
			{
				Name:         "satellite",
				MaxInstances: 4,
				Primitives: []metadata.PrimitiveConfig{
					{MaterialName: "gold", IndexCount: 720},
				},
			},
		},
		Entities: []loaders.SceneEntityConfig{
			{
				Name:      "satellite_a",
				Transform: math.TransformFromPosition(math.NewVec3(3, 0, 0)),
				Parent:    intPtr(1),
				Mesh:      "satellite",
			},
			{
				Name:      "pivot",
				Transform: math.TransformCreate(),
			},
			{
				Name:      "key_light",
				Transform: math.TransformFromPosition(math.NewVec3(0, 8, 0)),
				Light:     &loaders.LightConfig{Intensity: 3, Color: math.NewVec3(1, 1, 1)},
			},
			{
				Name:      "observer",
				Transform: math.TransformCreate(),
				Camera: &loaders.CameraConfig{
					Yaw:         0.5,
					Pitch:       0.25,
					Distance:    12,
					FieldOfView: math.DegToRad(60),
					NearClip:    0.5,
					FarClip:     500,
					Active:      true,
				},
			},
		},
	}
}

func newSceneSystem(t *testing.T) *SceneSystem {
	t.Helper()
	ss, err := NewSceneSystem(&SceneSystemConfig{FramesInFlight: 2})
	require.NoError(t, err)
	return ss
}

func TestSceneSystemApplyBuildsHierarchy(t *testing.T) {
	ss := newSceneSystem(t)
	require.NoError(t, ss.Apply(testSceneConfig()))

	world := ss.World()
	assert.Equal(t, 4, world.EntityCount())
	assert.Equal(t, "rig", ss.SceneName())

	child, ok := ss.Entity(0)
	require.True(t, ok)
	pivot, ok := ss.Entity(1)
	require.True(t, ok)

	// parent was declared after the child, applied in the second pass
	parent, hasParent := world.Parent(child)
	require.True(t, hasParent)
	assert.Equal(t, pivot, parent)

	meshID, ok := ss.Mesh("satellite")
	require.True(t, ok)
	gotMesh, slot, ok := world.InstanceOf(child)
	require.True(t, ok)
	assert.Equal(t, meshID, gotMesh)
	assert.Equal(t, uint32(0), slot)

	require.Len(t, ss.Lights(), 1)
	lightEntity, ok := ss.Entity(2)
	require.True(t, ok)
	assert.Equal(t, lightEntity, ss.Lights()[0].Entity)
	assert.InDelta(t, 3.0, ss.Lights()[0].Intensity, 1e-6)

	cam := ss.ActiveCamera()
	require.NotNil(t, cam)
	assert.InDelta(t, 12.0, cam.Distance, 1e-6)
}

func TestSceneSystemApplyPropagatesChildTransforms(t *testing.T) {
	ss := newSceneSystem(t)
	cfg := testSceneConfig()
	cfg.Entities[1].Transform = math.TransformFromPosition(math.NewVec3(0, 5, 0))
	require.NoError(t, ss.Apply(cfg))

	world := ss.World()
	require.NoError(t, world.Update())

	child, _ := ss.Entity(0)
	m, err := world.WorldTransform(child)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, m.Data[12], 1e-5)
	assert.InDelta(t, 5.0, m.Data[13], 1e-5)
}

func TestSceneSystemApplyIsAtomicOnFailure(t *testing.T) {
	ss := newSceneSystem(t)
	require.NoError(t, ss.Apply(testSceneConfig()))
	oldWorld := ss.World()

	bad := testSceneConfig()
	bad.Name = "broken"
	bad.Meshes[0].Primitives[0].MaterialName = "ghost"

	err := ss.Apply(bad)
	require.Error(t, err)
	assert.Same(t, oldWorld, ss.World())
	assert.Equal(t, "rig", ss.SceneName())
}

func TestSceneSystemApplySurfacesCapacityExceeded(t *testing.T) {
	ss := newSceneSystem(t)

	cfg := testSceneConfig()
	cfg.Meshes[0].MaxInstances = 1
	cfg.Entities = append(cfg.Entities, loaders.SceneEntityConfig{
		Name:      "satellite_b",
		Transform: math.TransformCreate(),
		Mesh:      "satellite",
	})

	err := ss.Apply(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, scene.ErrCapacityExceeded)
}

func TestSceneSystemIgnoresInactiveCameras(t *testing.T) {
	ss := newSceneSystem(t)
	cfg := testSceneConfig()
	cfg.Entities[3].Camera.Active = false

	require.NoError(t, ss.Apply(cfg))
	assert.Nil(t, ss.ActiveCamera())
}

func TestSceneSystemReapplySwapsWorld(t *testing.T) {
	ss := newSceneSystem(t)
	require.NoError(t, ss.Apply(testSceneConfig()))
	oldWorld := ss.World()

	next := testSceneConfig()
	next.Name = "rig_v2"
	require.NoError(t, ss.Apply(next))

	assert.NotSame(t, oldWorld, ss.World())
	assert.Equal(t, "rig_v2", ss.SceneName())
}

func TestSceneSystemRegistersDefaultMaterial(t *testing.T) {
	ss := newSceneSystem(t)

	cfg := &loaders.SceneConfig{
		Name: "plain",
		Meshes: []metadata.MeshConfig{
			{
				Name:         "cube",
				MaxInstances: 2,
				Primitives: []metadata.PrimitiveConfig{
					{MaterialName: metadata.DefaultMaterialName, IndexCount: 36},
				},
			},
		},
		Entities: []loaders.SceneEntityConfig{
			{Name: "cube_a", Transform: math.TransformCreate(), Mesh: "cube"},
		},
	}
	require.NoError(t, ss.Apply(cfg))

	id, ok := ss.Mesh("cube")
	require.True(t, ok)
	defs := ss.World().MeshDefinitions()
	assert.Equal(t, metadata.DefaultMaterialName, ss.World().MaterialName(defs[id].Primitives[0].Material))
}

package loaders

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spaghettifunk/ombra/engine/math"
	"github.com/spaghettifunk/ombra/engine/renderer/metadata"
)

// On-disk TOML shapes. Angles are authored in degrees and converted to
// radians during validation.

type sceneFile struct {
	Materials []sceneFileMaterial `toml:"materials"`
	Meshes    []sceneFileMesh     `toml:"meshes"`
	Entities  []sceneFileEntity   `toml:"entities"`
}

type sceneFileMaterial struct {
	Name string `toml:"name"`
}

type sceneFileMesh struct {
	Name         string               `toml:"name"`
	MaxInstances uint32               `toml:"max_instances"`
	Primitives   []sceneFilePrimitive `toml:"primitives"`
}

type sceneFilePrimitive struct {
	Material   string `toml:"material"`
	IndexCount uint32 `toml:"index_count"`
}

type sceneFileEntity struct {
	Name        string           `toml:"name"`
	Translation []float32        `toml:"translation"`
	Rotation    []float32        `toml:"rotation"`
	Scale       []float32        `toml:"scale"`
	Parent      *int             `toml:"parent"`
	Mesh        string           `toml:"mesh"`
	Light       *sceneFileLight  `toml:"light"`
	Camera      *sceneFileCamera `toml:"camera"`
}

type sceneFileLight struct {
	Intensity float32   `toml:"intensity"`
	Color     []float32 `toml:"color"`
}

type sceneFileCamera struct {
	Yaw         float32   `toml:"yaw"`
	Pitch       float32   `toml:"pitch"`
	Distance    float32   `toml:"distance"`
	FocusPoint  []float32 `toml:"focus_point"`
	FieldOfView float32   `toml:"fov"`
	NearClip    float32   `toml:"znear"`
	FarClip     float32   `toml:"zfar"`
	Active      bool      `toml:"active"`
}

/** @brief A point light attached to a scene entity. */
type LightConfig struct {
	Intensity float32
	Color     math.Vec3
}

/** @brief An orbit camera attached to a scene entity. Angles in radians. */
type CameraConfig struct {
	Yaw         float32
	Pitch       float32
	Distance    float32
	FocusPoint  math.Vec3
	FieldOfView float32
	NearClip    float32
	FarClip     float32
	Active      bool
}

/**
 * @brief One entity of a scene: a local transform plus optional
 * attachments. Parent refers to another entity by its index within the
 * scene file, which allows children to be declared before their parents.
 */
type SceneEntityConfig struct {
	Name      string
	Transform math.Transform
	Parent    *int
	Mesh      string
	Light     *LightConfig
	Camera    *CameraConfig
}

/** @brief A fully parsed and validated scene description. */
type SceneConfig struct {
	Name      string
	Materials []metadata.MaterialConfig
	Meshes    []metadata.MeshConfig
	Entities  []SceneEntityConfig
}

type SceneLoader struct{}

func (sl *SceneLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	cfg, err := parseScene(buf, name)
	if err != nil {
		return nil, err
	}

	return &metadata.Resource{
		Name:     cfg.Name,
		FullPath: path,
		DataSize: uint64(len(buf)),
		Data:     cfg,
	}, nil
}

func (sl *SceneLoader) Unload(*metadata.Resource) error {
	return nil
}

// parseScene decodes and validates a scene file. The returned config is
// safe to apply: every mesh, material and parent reference resolves, all
// numbers are finite and at most one camera is marked active.
func parseScene(data []byte, name string) (*SceneConfig, error) {
	var file sceneFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("scene %s: %w", name, err)
	}

	cfg := &SceneConfig{
		Name: name,
	}

	materialNames := make(map[string]bool, len(file.Materials))
	for i, m := range file.Materials {
		if m.Name == "" {
			return nil, fmt.Errorf("scene %s: material %d has no name", name, i)
		}
		if materialNames[m.Name] {
			return nil, fmt.Errorf("scene %s: duplicate material name '%s'", name, m.Name)
		}
		materialNames[m.Name] = true
		cfg.Materials = append(cfg.Materials, metadata.MaterialConfig{Name: m.Name})
	}

	meshNames := make(map[string]bool, len(file.Meshes))
	for i, m := range file.Meshes {
		if m.Name == "" {
			return nil, fmt.Errorf("scene %s: mesh %d has no name", name, i)
		}
		if meshNames[m.Name] {
			return nil, fmt.Errorf("scene %s: duplicate mesh name '%s'", name, m.Name)
		}
		if m.MaxInstances == 0 {
			return nil, fmt.Errorf("scene %s: mesh '%s' has max_instances 0", name, m.Name)
		}
		if len(m.Primitives) == 0 {
			return nil, fmt.Errorf("scene %s: mesh '%s' has no primitives", name, m.Name)
		}
		mc := metadata.MeshConfig{
			Name:         m.Name,
			MaxInstances: m.MaxInstances,
			Primitives:   make([]metadata.PrimitiveConfig, 0, len(m.Primitives)),
		}
		for j, p := range m.Primitives {
			materialName := p.Material
			if materialName == "" {
				materialName = metadata.DefaultMaterialName
			} else if !materialNames[materialName] {
				return nil, fmt.Errorf("scene %s: mesh '%s' primitive %d references unknown material '%s'", name, m.Name, j, materialName)
			}
			if p.IndexCount == 0 {
				return nil, fmt.Errorf("scene %s: mesh '%s' primitive %d has index_count 0", name, m.Name, j)
			}
			mc.Primitives = append(mc.Primitives, metadata.PrimitiveConfig{
				MaterialName: materialName,
				IndexCount:   p.IndexCount,
			})
		}
		meshNames[m.Name] = true
		cfg.Meshes = append(cfg.Meshes, mc)
	}

	activeCameraSeen := false
	for i, e := range file.Entities {
		ec := SceneEntityConfig{
			Name: e.Name,
			Mesh: e.Mesh,
		}
		if ec.Name == "" {
			ec.Name = fmt.Sprintf("entity_%d", i)
		}

		transform, err := buildTransform(e.Translation, e.Rotation, e.Scale)
		if err != nil {
			return nil, fmt.Errorf("scene %s: entity '%s': %w", name, ec.Name, err)
		}
		ec.Transform = transform

		if e.Parent != nil {
			p := *e.Parent
			if p < 0 || p >= len(file.Entities) {
				return nil, fmt.Errorf("scene %s: entity '%s' parent index %d out of range", name, ec.Name, p)
			}
			if p == i {
				return nil, fmt.Errorf("scene %s: entity '%s' is its own parent", name, ec.Name)
			}
			ec.Parent = e.Parent
		}

		if ec.Mesh != "" && !meshNames[ec.Mesh] {
			return nil, fmt.Errorf("scene %s: entity '%s' references unknown mesh '%s'", name, ec.Name, ec.Mesh)
		}

		if e.Light != nil {
			light, err := buildLight(e.Light)
			if err != nil {
				return nil, fmt.Errorf("scene %s: entity '%s': %w", name, ec.Name, err)
			}
			ec.Light = light
		}

		if e.Camera != nil {
			camera, err := buildCamera(e.Camera)
			if err != nil {
				return nil, fmt.Errorf("scene %s: entity '%s': %w", name, ec.Name, err)
			}
			if camera.Active {
				if activeCameraSeen {
					return nil, fmt.Errorf("scene %s: multiple active cameras, entity '%s' must not be active", name, ec.Name)
				}
				activeCameraSeen = true
			}
			ec.Camera = camera
		}

		cfg.Entities = append(cfg.Entities, ec)
	}

	return cfg, nil
}

// buildTransform assembles a local transform from optional triples.
// Rotation is an euler triple in degrees applied in x, y, z order.
func buildTransform(translation, rotation, scale []float32) (math.Transform, error) {
	t := math.TransformCreate()

	v, err := toVec3(translation, math.NewVec3Zero(), "translation")
	if err != nil {
		return t, err
	}
	t.Position = v

	r, err := toVec3(rotation, math.NewVec3Zero(), "rotation")
	if err != nil {
		return t, err
	}
	t.Rotation = math.NewQuatFromEuler(math.DegToRad(r.X), math.DegToRad(r.Y), math.DegToRad(r.Z))

	s, err := toVec3(scale, math.NewVec3One(), "scale")
	if err != nil {
		return t, err
	}
	t.Scale = s

	if !t.IsFinite() {
		return t, fmt.Errorf("transform has non-finite components")
	}
	return t, nil
}

func buildLight(l *sceneFileLight) (*LightConfig, error) {
	color, err := toVec3(l.Color, math.NewVec3One(), "light color")
	if err != nil {
		return nil, err
	}
	if !math.IsFinite(l.Intensity) || !color.IsFinite() {
		return nil, fmt.Errorf("light has non-finite components")
	}
	if l.Intensity < 0 {
		return nil, fmt.Errorf("light intensity is negative")
	}
	return &LightConfig{
		Intensity: l.Intensity,
		Color:     color,
	}, nil
}

// buildCamera converts authored degrees to radians and fills the usual
// projection defaults for omitted values.
func buildCamera(c *sceneFileCamera) (*CameraConfig, error) {
	focus, err := toVec3(c.FocusPoint, math.NewVec3Zero(), "camera focus_point")
	if err != nil {
		return nil, err
	}

	cc := &CameraConfig{
		Yaw:         math.DegToRad(c.Yaw),
		Pitch:       math.DegToRad(c.Pitch),
		Distance:    c.Distance,
		FocusPoint:  focus,
		FieldOfView: math.DegToRad(c.FieldOfView),
		NearClip:    c.NearClip,
		FarClip:     c.FarClip,
		Active:      c.Active,
	}

	if !math.IsFinite(cc.Yaw) || !math.IsFinite(cc.Pitch) || !math.IsFinite(cc.Distance) ||
		!focus.IsFinite() || !math.IsFinite(cc.FieldOfView) ||
		!math.IsFinite(cc.NearClip) || !math.IsFinite(cc.FarClip) {
		return nil, fmt.Errorf("camera has non-finite components")
	}

	if cc.Distance <= 0 {
		cc.Distance = 10.0
	}
	if cc.FieldOfView <= 0 {
		cc.FieldOfView = math.DegToRad(45.0)
	}
	if cc.NearClip <= 0 {
		cc.NearClip = 0.1
	}
	if cc.FarClip <= cc.NearClip {
		cc.FarClip = 1000.0
	}

	return cc, nil
}

func toVec3(values []float32, fallback math.Vec3, what string) (math.Vec3, error) {
	if values == nil {
		return fallback, nil
	}
	if len(values) != 3 {
		return fallback, fmt.Errorf("%s must have exactly 3 components, got %d", what, len(values))
	}
	return math.NewVec3(values[0], values[1], values[2]), nil
}

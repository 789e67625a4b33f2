package metadata

/** @brief The name of the default material. */
const DefaultMaterialName string = "default"

/**
 * @brief Binds one primitive of a mesh to a material by name. Names are
 * interned to ids when the scene is applied to the world.
 */
type PrimitiveConfig struct {
	/** @brief The Name of the material this primitive is drawn with. */
	MaterialName string
	/** @brief The number of indices the primitive's indexed draw covers. */
	IndexCount uint32
}

/**
 * @brief Describes a mesh as loaded from a scene file. Immutable after
 * load: MaxInstances fixes the slot capacity the buffer layout is
 * planned with.
 */
type MeshConfig struct {
	/** @brief The Name of the mesh, referenced by scene entities. */
	Name string
	/** @brief The fixed instance capacity of this mesh. */
	MaxInstances uint32
	/** @brief The ordered primitives of this mesh. */
	Primitives []PrimitiveConfig
}

/** @brief A material as declared in a scene file. */
type MaterialConfig struct {
	/** @brief The Name of the material, referenced by primitives. */
	Name string
}

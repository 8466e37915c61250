package scene

// Material is the surface description referenced by a mesh.
type Material struct {
	Name        string
	BaseColor   [4]float32
	Metallic    float32
	Roughness   float32
	DoubleSided bool
}

// Mesh is one primitive's geometry. Skinned meshes carry four joint indices
// and weights per vertex; joint indices address the bound skeleton's bones.
type Mesh struct {
	Name      string
	Positions [][3]float32
	Normals   [][3]float32
	TexCoords [][2]float32
	Joints    [][4]uint16
	Weights   [][4]float32
	Indices   []uint32
	Material  *Material
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

// MaxJoint returns the largest joint index referenced with a non-zero
// weight, or -1 when the mesh has no skin data.
func (m *Mesh) MaxJoint() int {
	highest := -1
	for v, joints := range m.Joints {
		for k, j := range joints {
			if v < len(m.Weights) && m.Weights[v][k] == 0 {
				continue
			}
			if int(j) > highest {
				highest = int(j)
			}
		}
	}
	return highest
}

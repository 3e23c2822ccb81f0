package meshdraw

import (
	"encoding/binary"
	"math"
)

// VertexStride is the byte size of one encoded Vertex.
// Layout:
//
//	position (vec3<f32>) = 12 bytes (location 0)
//	color    (vec4<f32>) = 16 bytes (location 1)
const VertexStride = 28

// IndexSize is the byte size of one index. Indices are always uint32.
const IndexSize = 4

// Vertex is one interleaved vertex record.
type Vertex struct {
	Position [3]float32
	Color    [4]float32
}

// ObjectData is the geometry of one drawable object.
type ObjectData struct {
	Vertices []Vertex
	Indices  []uint32
}

// Triangle returns the red/green/blue triangle drawn by the demo.
func Triangle() ObjectData {
	return ObjectData{
		Vertices: []Vertex{
			{Position: [3]float32{-0.5, -0.5, 0}, Color: [4]float32{1, 0, 0, 1}},
			{Position: [3]float32{0, 0.5, 0}, Color: [4]float32{0, 1, 0, 1}},
			{Position: [3]float32{0.5, -0.5, 0}, Color: [4]float32{0, 0, 1, 1}},
		},
		Indices: []uint32{0, 1, 2},
	}
}

// Quad returns an axis-aligned rectangle with a single colour, as two
// triangles sharing four vertices.
func Quad(x0, y0, x1, y1 float32, color [4]float32) ObjectData {
	return ObjectData{
		Vertices: []Vertex{
			{Position: [3]float32{x0, y0, 0}, Color: color},
			{Position: [3]float32{x0, y1, 0}, Color: color},
			{Position: [3]float32{x1, y1, 0}, Color: color},
			{Position: [3]float32{x1, y0, 0}, Color: color},
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
}

// EncodeVertices packs vertices into the little-endian layout described by
// VertexStride.
func EncodeVertices(vertices []Vertex) []byte {
	buf := make([]byte, len(vertices)*VertexStride)
	for i := range vertices {
		writeVertex(buf[i*VertexStride:], &vertices[i])
	}
	return buf
}

// EncodeIndices packs indices as little-endian uint32 values.
func EncodeIndices(indices []uint32) []byte {
	buf := make([]byte, len(indices)*IndexSize)
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(buf[i*IndexSize:], idx)
	}
	return buf
}

func writeVertex(buf []byte, v *Vertex) {
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(v.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(v.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(v.Position[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(v.Color[0]))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(v.Color[1]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(v.Color[2]))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(v.Color[3]))
}

package meshio

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"encoding/xml"
	"fmt"
	"github.com/notargets/vismesh/vismesh"
	"gonum.org/v1/gonum/spatial/r3"
	"io"
	"math"
	"strconv"
	"strings"
)

// Format selects how DataArray payloads are written
type Format uint8

const (
	ASCII  Format = iota // whitespace separated text
	Binary               // base64 of a UInt32 byte count followed by little-endian data
)

func (f Format) String() string {
	if f == Binary {
		return "binary"
	}
	return "ascii"
}

// ParseFormat maps "ascii" or "binary" to a Format
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "ascii", "":
		return ASCII, nil
	case "binary":
		return Binary, nil
	}
	return ASCII, fmt.Errorf("unknown VTU format %q", s)
}

// XML document model, shared by the reader and the writer
type vtkFile struct {
	XMLName    xml.Name `xml:"VTKFile"`
	Type       string   `xml:"type,attr"`
	Version    string   `xml:"version,attr"`
	ByteOrder  string   `xml:"byte_order,attr"`
	HeaderType string   `xml:"header_type,attr"`
	Grid       vtkGrid  `xml:"UnstructuredGrid"`
}

type vtkGrid struct {
	Piece vtkPiece `xml:"Piece"`
}

type vtkPiece struct {
	NumberOfPoints int          `xml:"NumberOfPoints,attr"`
	NumberOfCells  int          `xml:"NumberOfCells,attr"`
	CellData       vtkArrayList `xml:"CellData"`
	Points         vtkArrayList `xml:"Points"`
	Cells          vtkArrayList `xml:"Cells"`
}

type vtkArrayList struct {
	Arrays []vtkDataArray `xml:"DataArray"`
}

type vtkDataArray struct {
	Type               string `xml:"type,attr"`
	Name               string `xml:"Name,attr,omitempty"`
	NumberOfComponents int    `xml:"NumberOfComponents,attr,omitempty"`
	Format             string `xml:"format,attr"`
	Data               string `xml:",chardata"`
}

func (l vtkArrayList) find(name string) (vtkDataArray, bool) {
	for _, a := range l.Arrays {
		if a.Name == name {
			return a, true
		}
	}
	return vtkDataArray{}, false
}

// WriteVTU writes g as a VTK XML UnstructuredGrid file
func WriteVTU(w io.Writer, g *Grid, format Format) error {
	if err := g.Validate(); err != nil {
		return fmt.Errorf("write VTU: %w", err)
	}

	coords := make([]float64, 0, 3*len(g.Points))
	for _, p := range g.Points {
		coords = append(coords, p.X, p.Y, p.Z)
	}

	var (
		connectivity, offsets []int64
		types                 []uint8
		faces, faceOffsets    []int64
		hasPolyhedra          bool
	)
	for _, c := range g.Cells {
		for _, p := range c.Points {
			connectivity = append(connectivity, int64(p))
		}
		offsets = append(offsets, int64(len(connectivity)))
		types = append(types, c.Type.Info().VTKType)
		if c.Type == vismesh.PolyhedronCell {
			hasPolyhedra = true
			faces = append(faces, int64(len(c.Faces)))
			for _, f := range c.Faces {
				faces = append(faces, int64(len(f)))
				for _, p := range f {
					faces = append(faces, int64(p))
				}
			}
			faceOffsets = append(faceOffsets, int64(len(faces)))
		} else {
			faceOffsets = append(faceOffsets, -1)
		}
	}

	doc := vtkFile{
		Type:       "UnstructuredGrid",
		Version:    "1.0",
		ByteOrder:  "LittleEndian",
		HeaderType: "UInt32",
	}
	piece := &doc.Grid.Piece
	piece.NumberOfPoints = len(g.Points)
	piece.NumberOfCells = len(g.Cells)
	for _, da := range g.CellData {
		piece.CellData.Arrays = append(piece.CellData.Arrays, encodeFloats(da.Name, 0, da.Values, format))
	}
	piece.Points.Arrays = []vtkDataArray{encodeFloats("Points", 3, coords, format)}
	piece.Cells.Arrays = []vtkDataArray{
		encodeInts("connectivity", connectivity, format),
		encodeInts("offsets", offsets, format),
		encodeUint8s("types", types, format),
	}
	if hasPolyhedra {
		piece.Cells.Arrays = append(piece.Cells.Arrays,
			encodeInts("faces", faces, format),
			encodeInts("faceoffsets", faceOffsets, format))
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("write VTU: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func encodeFloats(name string, components int, values []float64, format Format) vtkDataArray {
	da := vtkDataArray{Type: "Float64", Name: name, NumberOfComponents: components, Format: format.String()}
	if format == Binary {
		raw := make([]byte, 8*len(values))
		for i, v := range values {
			binary.LittleEndian.PutUint64(raw[8*i:], math.Float64bits(v))
		}
		da.Data = encodeBinary(raw)
		return da
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	da.Data = strings.Join(parts, " ")
	return da
}

func encodeInts(name string, values []int64, format Format) vtkDataArray {
	da := vtkDataArray{Type: "Int64", Name: name, Format: format.String()}
	if format == Binary {
		raw := make([]byte, 8*len(values))
		for i, v := range values {
			binary.LittleEndian.PutUint64(raw[8*i:], uint64(v))
		}
		da.Data = encodeBinary(raw)
		return da
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatInt(v, 10)
	}
	da.Data = strings.Join(parts, " ")
	return da
}

func encodeUint8s(name string, values []uint8, format Format) vtkDataArray {
	da := vtkDataArray{Type: "UInt8", Name: name, Format: format.String()}
	if format == Binary {
		da.Data = encodeBinary(values)
		return da
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(int(v))
	}
	da.Data = strings.Join(parts, " ")
	return da
}

// encodeBinary encodes the byte count header and the payload as separate
// base64 blocks, as VTK does for uncompressed inline data
func encodeBinary(raw []byte) string {
	var header [4]byte
	binary.LittleEndian.PutUint32(header[:], uint32(len(raw)))
	return base64.StdEncoding.EncodeToString(header[:]) + base64.StdEncoding.EncodeToString(raw)
}

// ReadVTU reads an inline ASCII or binary VTK XML UnstructuredGrid file
func ReadVTU(r io.Reader) (*Grid, error) {
	var doc vtkFile
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("read VTU: %w", err)
	}
	if doc.Type != "UnstructuredGrid" {
		return nil, fmt.Errorf("read VTU: file type %q, want UnstructuredGrid", doc.Type)
	}
	if doc.ByteOrder != "" && doc.ByteOrder != "LittleEndian" {
		return nil, fmt.Errorf("read VTU: byte order %q not supported", doc.ByteOrder)
	}
	if doc.HeaderType != "" && doc.HeaderType != "UInt32" {
		return nil, fmt.Errorf("read VTU: header type %q not supported", doc.HeaderType)
	}
	piece := doc.Grid.Piece
	if piece.NumberOfPoints < 0 || piece.NumberOfCells < 0 {
		return nil, fmt.Errorf("read VTU: %d points and %d cells", piece.NumberOfPoints, piece.NumberOfCells)
	}

	if len(piece.Points.Arrays) != 1 {
		return nil, fmt.Errorf("read VTU: %d point arrays", len(piece.Points.Arrays))
	}
	coords, err := decodeArray(piece.Points.Arrays[0])
	if err != nil {
		return nil, err
	}
	if len(coords) != 3*piece.NumberOfPoints {
		return nil, fmt.Errorf("read VTU: %d coordinates for %d points", len(coords), piece.NumberOfPoints)
	}
	g := &Grid{Points: make([]r3.Vec, piece.NumberOfPoints)}
	for i := range g.Points {
		g.Points[i] = r3.Vec{X: coords[3*i], Y: coords[3*i+1], Z: coords[3*i+2]}
	}

	cellArrays := make(map[string][]float64)
	for _, name := range []string{"connectivity", "offsets", "types", "faces", "faceoffsets"} {
		da, ok := piece.Cells.find(name)
		if !ok {
			continue
		}
		if cellArrays[name], err = decodeArray(da); err != nil {
			return nil, err
		}
	}
	conn, offsets, types := cellArrays["connectivity"], cellArrays["offsets"], cellArrays["types"]
	if len(offsets) != piece.NumberOfCells || len(types) != piece.NumberOfCells {
		return nil, fmt.Errorf("read VTU: %d offsets and %d types for %d cells",
			len(offsets), len(types), piece.NumberOfCells)
	}
	faces, faceOffsets := cellArrays["faces"], cellArrays["faceoffsets"]

	start := 0
	for c := 0; c < piece.NumberOfCells; c++ {
		end := int(offsets[c])
		if end < start || end > len(conn) {
			return nil, fmt.Errorf("read VTU: cell %d offset %d out of range", c, end)
		}
		ct, err := vismesh.CellTypeFromVTK(uint8(types[c]))
		if err != nil {
			return nil, fmt.Errorf("read VTU: cell %d: %w", c, err)
		}
		cell := Cell{Type: ct, Points: toInts(conn[start:end])}
		if err := checkPointIDs(cell.Points, len(g.Points)); err != nil {
			return nil, fmt.Errorf("read VTU: cell %d: %w", c, err)
		}
		if ct == vismesh.PolyhedronCell {
			if cell.Faces, err = polyhedronFaces(faces, faceOffsets, c); err != nil {
				return nil, err
			}
			for _, f := range cell.Faces {
				if err := checkPointIDs(f, len(g.Points)); err != nil {
					return nil, fmt.Errorf("read VTU: cell %d face: %w", c, err)
				}
			}
		}
		g.Cells = append(g.Cells, cell)
		start = end
	}

	for _, da := range piece.CellData.Arrays {
		values, err := decodeArray(da)
		if err != nil {
			return nil, err
		}
		if err := g.AddCellData(da.Name, values); err != nil {
			return nil, fmt.Errorf("read VTU: %w", err)
		}
	}
	return g, nil
}

// polyhedronFaces unpacks the face stream of cell c: a face count followed
// by (n, ids...) per face, ending at faceOffsets[c]
func polyhedronFaces(faces, faceOffsets []float64, c int) ([][]int, error) {
	if c >= len(faceOffsets) {
		return nil, fmt.Errorf("read VTU: polyhedron cell %d without face offsets", c)
	}
	end := int(faceOffsets[c])
	start := 0
	for i := c - 1; i >= 0; i-- {
		if faceOffsets[i] >= 0 {
			start = int(faceOffsets[i])
			break
		}
	}
	if start >= end || end > len(faces) {
		return nil, fmt.Errorf("read VTU: polyhedron cell %d face range [%d, %d) invalid", c, start, end)
	}
	stream := toInts(faces[start:end])
	nFaces, pos := stream[0], 1
	if nFaces < 0 || nFaces > len(stream)-1 {
		return nil, fmt.Errorf("read VTU: polyhedron cell %d face count %d invalid", c, nFaces)
	}
	out := make([][]int, 0, nFaces)
	for f := 0; f < nFaces; f++ {
		if pos >= len(stream) || stream[pos] < 0 || pos+1+stream[pos] > len(stream) {
			return nil, fmt.Errorf("read VTU: polyhedron cell %d face %d truncated", c, f)
		}
		n := stream[pos]
		out = append(out, stream[pos+1:pos+1+n])
		pos += 1 + n
	}
	return out, nil
}

func checkPointIDs(ids []int, numPoints int) error {
	for _, id := range ids {
		if id < 0 || id >= numPoints {
			return fmt.Errorf("point id %d out of range [0, %d)", id, numPoints)
		}
	}
	return nil
}

func decodeArray(da vtkDataArray) ([]float64, error) {
	switch da.Format {
	case "ascii":
		fields := strings.Fields(da.Data)
		values := make([]float64, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("read VTU: array %q: %w", da.Name, err)
			}
			values[i] = v
		}
		return values, nil
	case "binary":
		return decodeBinary(da)
	}
	return nil, fmt.Errorf("read VTU: array %q format %q not supported", da.Name, da.Format)
}

func decodeBinary(da vtkDataArray) ([]float64, error) {
	text := strings.Join(strings.Fields(da.Data), "")
	const headerChars = 8 // base64 length of a 4 byte header
	if len(text) < headerChars {
		return nil, fmt.Errorf("read VTU: array %q: binary data too short", da.Name)
	}
	header, err := base64.StdEncoding.DecodeString(text[:headerChars])
	if err != nil {
		return nil, fmt.Errorf("read VTU: array %q header: %w", da.Name, err)
	}
	raw, err := base64.StdEncoding.DecodeString(text[headerChars:])
	if err != nil {
		return nil, fmt.Errorf("read VTU: array %q: %w", da.Name, err)
	}
	if n := int(binary.LittleEndian.Uint32(header)); n != len(raw) {
		return nil, fmt.Errorf("read VTU: array %q: header says %d bytes, got %d", da.Name, n, len(raw))
	}

	rd := bytes.NewReader(raw)
	var values []float64
	read := func(size int, conv func([]byte) float64) error {
		if len(raw)%size != 0 {
			return fmt.Errorf("read VTU: array %q: %d bytes is not a multiple of %d", da.Name, len(raw), size)
		}
		buf := make([]byte, size)
		values = make([]float64, 0, len(raw)/size)
		for {
			if _, err := io.ReadFull(rd, buf); err == io.EOF {
				return nil
			} else if err != nil {
				return err
			}
			values = append(values, conv(buf))
		}
	}
	le := binary.LittleEndian
	switch da.Type {
	case "Float64":
		err = read(8, func(b []byte) float64 { return math.Float64frombits(le.Uint64(b)) })
	case "Float32":
		err = read(4, func(b []byte) float64 { return float64(math.Float32frombits(le.Uint32(b))) })
	case "Int64":
		err = read(8, func(b []byte) float64 { return float64(int64(le.Uint64(b))) })
	case "UInt64":
		err = read(8, func(b []byte) float64 { return float64(le.Uint64(b)) })
	case "Int32":
		err = read(4, func(b []byte) float64 { return float64(int32(le.Uint32(b))) })
	case "UInt32":
		err = read(4, func(b []byte) float64 { return float64(le.Uint32(b)) })
	case "UInt8":
		err = read(1, func(b []byte) float64 { return float64(b[0]) })
	default:
		return nil, fmt.Errorf("read VTU: array %q type %q not supported", da.Name, da.Type)
	}
	return values, err
}

func toInts(values []float64) []int {
	out := make([]int, len(values))
	for i, v := range values {
		out[i] = int(v)
	}
	return out
}

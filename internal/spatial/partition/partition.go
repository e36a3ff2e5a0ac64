// Package partition holds the static table mapping administrative regions to
// approximate bounding boxes. The primary spatial backend shards its data per
// region, so a query box must first be resolved to the set of regions it
// touches.
package partition

import (
	"strings"

	"sigefgate/internal/spatial/models"
)

// Partition is one region of the primary backend's data. The box is an
// approximation used only for intersection testing: false positives cost an
// empty regional query, false negatives would silently drop data, so the boxes
// err on the generous side.
type Partition struct {
	Code string // two-letter region code, uppercase
	Name string
	Box  models.BoundingBox
}

// Index is a read-only set of partitions, safe for concurrent use.
type Index struct {
	partitions []Partition
}

// NewIndex builds an index over the given partitions.
func NewIndex(partitions []Partition) *Index {
	return &Index{partitions: partitions}
}

// Default returns the index over all 27 federative units.
func Default() *Index {
	return NewIndex(federativeUnits)
}

// All returns every partition in the index.
func (i *Index) All() []Partition {
	return i.partitions
}

// Intersecting returns the partitions whose approximate box overlaps the
// query box. Boundary contact counts as overlap.
func (i *Index) Intersecting(box models.BoundingBox) []Partition {
	var hits []Partition
	for _, p := range i.partitions {
		if box.Intersects(p.Box) {
			hits = append(hits, p)
		}
	}
	return hits
}

// QueryCode renders a partition code the way the primary backend expects it
// in layer names (lowercase).
func (p Partition) QueryCode() string {
	return strings.ToLower(p.Code)
}

// Approximate extents of the 27 federative units, west/south/east/north.
var federativeUnits = []Partition{
	{Code: "AC", Name: "Acre", Box: models.BoundingBox{West: -73.98, South: -11.15, East: -66.64, North: -7.07}},
	{Code: "AL", Name: "Alagoas", Box: models.BoundingBox{West: -38.23, South: -10.49, East: -35.15, North: -8.82}},
	{Code: "AP", Name: "Amapá", Box: models.BoundingBox{West: -54.88, South: -0.04, East: -49.85, North: 4.45}},
	{Code: "AM", Name: "Amazonas", Box: models.BoundingBox{West: -73.79, South: -9.82, East: -56.08, North: 2.24}},
	{Code: "BA", Name: "Bahia", Box: models.BoundingBox{West: -46.62, South: -18.35, East: -37.34, North: -8.54}},
	{Code: "CE", Name: "Ceará", Box: models.BoundingBox{West: -41.42, South: -7.87, East: -37.24, North: -2.79}},
	{Code: "DF", Name: "Distrito Federal", Box: models.BoundingBox{West: -48.28, South: -16.04, East: -47.31, North: -15.50}},
	{Code: "ES", Name: "Espírito Santo", Box: models.BoundingBox{West: -41.88, South: -21.30, East: -39.67, North: -17.89}},
	{Code: "GO", Name: "Goiás", Box: models.BoundingBox{West: -53.24, South: -19.48, East: -45.91, North: -12.39}},
	{Code: "MA", Name: "Maranhão", Box: models.BoundingBox{West: -48.61, South: -10.27, East: -41.84, North: -1.02}},
	{Code: "MT", Name: "Mato Grosso", Box: models.BoundingBox{West: -61.63, South: -18.04, East: -50.22, North: -7.35}},
	{Code: "MS", Name: "Mato Grosso do Sul", Box: models.BoundingBox{West: -58.16, South: -24.07, East: -50.93, North: -17.16}},
	{Code: "MG", Name: "Minas Gerais", Box: models.BoundingBox{West: -51.05, South: -22.92, East: -39.86, North: -14.24}},
	{Code: "PA", Name: "Pará", Box: models.BoundingBox{West: -58.88, South: -9.82, East: -46.04, North: 2.61}},
	{Code: "PB", Name: "Paraíba", Box: models.BoundingBox{West: -38.79, South: -8.20, East: -34.79, North: -6.02}},
	{Code: "PR", Name: "Paraná", Box: models.BoundingBox{West: -54.62, South: -26.72, East: -48.02, North: -22.51}},
	{Code: "PE", Name: "Pernambuco", Box: models.BoundingBox{West: -41.35, South: -9.48, East: -34.80, North: -7.16}},
	{Code: "PI", Name: "Piauí", Box: models.BoundingBox{West: -45.98, South: -10.91, East: -40.38, North: -2.74}},
	{Code: "RJ", Name: "Rio de Janeiro", Box: models.BoundingBox{West: -44.89, South: -23.37, East: -40.96, North: -20.76}},
	{Code: "RN", Name: "Rio Grande do Norte", Box: models.BoundingBox{West: -38.60, South: -6.98, East: -34.96, North: -4.83}},
	{Code: "RS", Name: "Rio Grande do Sul", Box: models.BoundingBox{West: -57.65, South: -33.75, East: -49.69, North: -27.08}},
	{Code: "RO", Name: "Rondônia", Box: models.BoundingBox{West: -66.74, South: -13.70, East: -59.78, North: -7.97}},
	{Code: "RR", Name: "Roraima", Box: models.BoundingBox{West: -64.82, South: 1.16, East: -58.99, North: 5.27}},
	{Code: "SC", Name: "Santa Catarina", Box: models.BoundingBox{West: -53.84, South: -29.35, East: -48.30, North: -25.96}},
	{Code: "SP", Name: "São Paulo", Box: models.BoundingBox{West: -53.11, South: -25.31, East: -44.19, North: -19.79}},
	{Code: "SE", Name: "Sergipe", Box: models.BoundingBox{West: -38.22, South: -11.57, East: -36.42, North: -9.49}},
	{Code: "TO", Name: "Tocantins", Box: models.BoundingBox{West: -50.74, South: -13.47, East: -45.70, North: -5.17}},
}

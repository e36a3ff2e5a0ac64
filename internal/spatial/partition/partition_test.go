package partition_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sigefgate/internal/spatial/models"
	"sigefgate/internal/spatial/partition"
)

func TestDefaultCoversAllFederativeUnits(t *testing.T) {
	index := partition.Default()
	all := index.All()
	assert.Len(t, all, 27)

	seen := make(map[string]bool)
	for _, p := range all {
		assert.False(t, seen[p.Code], "duplicate partition %s", p.Code)
		seen[p.Code] = true
		assert.NoError(t, p.Box.Validate(), "partition %s has a degenerate box", p.Code)
	}
}

func TestIntersectingSinglePartition(t *testing.T) {
	// A small box in central Paraná, clear of every neighbouring extent.
	box := models.BoundingBox{West: -51.5, South: -25.5, East: -51.4, North: -25.4}

	hits := partition.Default().Intersecting(box)
	require.Len(t, hits, 1)
	assert.Equal(t, "PR", hits[0].Code)
	assert.Equal(t, "pr", hits[0].QueryCode())
}

func TestIntersectingMultiplePartitions(t *testing.T) {
	// A box straddling the Paraná / São Paulo border.
	box := models.BoundingBox{West: -49.0, South: -24.5, East: -48.5, North: -23.5}

	hits := partition.Default().Intersecting(box)
	codes := make([]string, 0, len(hits))
	for _, p := range hits {
		codes = append(codes, p.Code)
	}
	assert.Contains(t, codes, "PR")
	assert.Contains(t, codes, "SP")
}

func TestIntersectingNone(t *testing.T) {
	// Middle of the Atlantic.
	box := models.BoundingBox{West: -20.0, South: -20.0, East: -19.0, North: -19.0}
	assert.Empty(t, partition.Default().Intersecting(box))
}

func TestIntersectingBoundaryContact(t *testing.T) {
	index := partition.NewIndex([]partition.Partition{
		{Code: "XX", Box: models.BoundingBox{West: 0, South: 0, East: 10, North: 10}},
	})

	touching := models.BoundingBox{West: 10, South: 0, East: 20, North: 10}
	require.Len(t, index.Intersecting(touching), 1)

	gap := models.BoundingBox{West: 10.5, South: 0, East: 20, North: 10}
	assert.Empty(t, index.Intersecting(gap))
}

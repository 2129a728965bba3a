package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/aster/pkg/models"
)

func TestRankPairs_MergesKindListsByScore(t *testing.T) {
	// Simulates two per-kind scans: each sorted on its own, interleaved when
	// combined.
	pairs := []models.CandidatePair{
		{EntityA: &models.ContactEntity{ID: "p1"}, EntityB: &models.ContactEntity{ID: "p2"}, Score: 0.95},
		{EntityA: &models.ContactEntity{ID: "p3"}, EntityB: &models.ContactEntity{ID: "p4"}, Score: 0.72},
		{EntityA: &models.ContactEntity{ID: "o1"}, EntityB: &models.ContactEntity{ID: "o2"}, Score: 0.88},
		{EntityA: &models.ContactEntity{ID: "o3"}, EntityB: &models.ContactEntity{ID: "o4"}, Score: 0.80},
	}

	rankPairs(pairs)

	scores := make([]float64, len(pairs))
	for i, pair := range pairs {
		scores[i] = pair.Score
	}
	assert.Equal(t, []float64{0.95, 0.88, 0.80, 0.72}, scores)
}

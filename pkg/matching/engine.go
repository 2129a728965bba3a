// Package matching implements contact matching: a weighted confidence score
// plus human-readable reasons for any two canonical entities.
package matching

import (
	"fmt"

	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/normalizers"
)

// Weights tunes the match engine. Each field's weight is also its maximum
// score contribution, so an entity compared against itself scores 1.0
// whenever at least one field is populated.
type Weights struct {
	Email            float64 // weight and exact-match contribution for email
	EmailDomainScore float64 // partial contribution when only the domains match
	Phone            float64
	Name             float64
	Company          float64
	NameReasonCutoff float64 // similarity above which a name reason is emitted
}

// DefaultWeights returns the engine's tuned defaults. These are empirical,
// not derived; deployments override them through configuration.
func DefaultWeights() Weights {
	return Weights{
		Email:            0.9,
		EmailDomainScore: 0.2,
		Phone:            0.9,
		Name:             0.6,
		Company:          0.3,
		NameReasonCutoff: 0.8,
	}
}

// Engine computes match scores and reasons between canonical entities
type Engine struct {
	scorer  *Scorer
	weights Weights
}

// NewEngine creates a match engine with the given weights
func NewEngine(weights Weights) *Engine {
	return &Engine{
		scorer:  NewScorer(),
		weights: weights,
	}
}

// comparable holds the match fields of one entity. Email, phone and company
// are pre-normalized for exact comparison; the name stays raw because
// NameSimilarity normalizes both sides itself.
type comparable struct {
	email   string
	phone   string
	name    string
	company string
}

func normalizeEntity(e *models.ContactEntity) comparable {
	c := comparable{}
	if e.Email != nil {
		c.email = normalizers.NormalizeEmail(*e.Email)
	}
	if e.Phone != nil {
		c.phone = normalizers.NormalizePhone(*e.Phone)
	}
	if e.Name != nil {
		c.name = *e.Name
	}
	if e.Company != nil {
		c.company = normalizers.NormalizeName(*e.Company)
	}
	return c
}

// Score returns a [0,1] confidence that a and b are the same real-world
// identity. Fields absent on either side contribute neither score nor weight,
// so two entities sharing only an email are judged purely on that email.
func (e *Engine) Score(a, b *models.ContactEntity) float64 {
	na, nb := normalizeEntity(a), normalizeEntity(b)

	var score, weight float64
	w := e.weights

	if na.email != "" && nb.email != "" {
		weight += w.Email
		if na.email == nb.email {
			score += w.Email
		} else if da, db := normalizers.EmailDomain(na.email), normalizers.EmailDomain(nb.email); da != "" && da == db {
			// Same organization, weak signal.
			score += w.EmailDomainScore
		}
	}

	if na.phone != "" && nb.phone != "" {
		weight += w.Phone
		score += e.scorer.ExactMatch(na.phone, nb.phone, true) * w.Phone
	}

	if na.name != "" && nb.name != "" {
		weight += w.Name
		score += e.scorer.NameSimilarity(na.name, nb.name) * w.Name
	}

	if na.company != "" && nb.company != "" {
		weight += w.Company
		score += e.scorer.ExactMatch(na.company, nb.company, true) * w.Company
	}

	if weight == 0 {
		return 0
	}
	return score / weight
}

// Reasons re-derives the human-readable evidence tags for a pair. Stored
// verbatim on the merge record for audit review.
func (e *Engine) Reasons(a, b *models.ContactEntity) []string {
	na, nb := normalizeEntity(a), normalizeEntity(b)

	reasons := []string{}

	if na.email != "" && nb.email != "" {
		if na.email == nb.email {
			reasons = append(reasons, "exact_email")
		} else if da, db := normalizers.EmailDomain(na.email), normalizers.EmailDomain(nb.email); da != "" && da == db {
			reasons = append(reasons, "same_email_domain")
		}
	}

	if na.phone != "" && nb.phone != "" && na.phone == nb.phone {
		reasons = append(reasons, "exact_phone")
	}

	if na.name != "" && nb.name != "" {
		if sim := e.scorer.NameSimilarity(na.name, nb.name); sim > e.weights.NameReasonCutoff {
			reasons = append(reasons, fmt.Sprintf("name_similarity_%.0f%%", sim*100))
		}
	}

	if na.company != "" && nb.company != "" && na.company == nb.company {
		reasons = append(reasons, "same_company")
	}

	return reasons
}

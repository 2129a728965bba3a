package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/aster/pkg/models"
)

func strptr(s string) *string {
	return &s
}

func person(name, email, phone, company string) *models.ContactEntity {
	e := &models.ContactEntity{Kind: models.EntityKindPerson}
	if name != "" {
		e.Name = strptr(name)
	}
	if email != "" {
		e.Email = strptr(email)
	}
	if phone != "" {
		e.Phone = strptr(phone)
	}
	if company != "" {
		e.Company = strptr(company)
	}
	return e
}

func TestEngine_Score_SelfIsOne(t *testing.T) {
	engine := NewEngine(DefaultWeights())

	entities := []*models.ContactEntity{
		person("Jane Doe", "jane@acme.io", "0412 345 678", "Acme"),
		person("Jane Doe", "", "", ""),
		person("", "jane@acme.io", "", ""),
	}

	for _, e := range entities {
		assert.InDelta(t, 1.0, engine.Score(e, e), 1e-9)
	}
}

func TestEngine_Score_NoComparableFields(t *testing.T) {
	engine := NewEngine(DefaultWeights())

	// No field populated on both sides means no evidence either way.
	assert.Equal(t, 0.0, engine.Score(person("", "", "", ""), person("", "", "", "")))
	assert.Equal(t, 0.0, engine.Score(person("Jane Doe", "", "", ""), person("", "jane@acme.io", "", "")))
}

func TestEngine_Score_ExactEmailOnly(t *testing.T) {
	engine := NewEngine(DefaultWeights())

	a := person("", "Jane.Doe@Acme.IO", "", "")
	b := person("", "jane.doe@acme.io", "", "")

	assert.InDelta(t, 1.0, engine.Score(a, b), 1e-9)
}

func TestEngine_Score_SameDomainOnly(t *testing.T) {
	engine := NewEngine(DefaultWeights())

	a := person("", "jane@acme.io", "", "")
	b := person("", "bob@acme.io", "", "")

	// Partial domain credit over the full email weight.
	assert.InDelta(t, 0.2/0.9, engine.Score(a, b), 1e-9)
}

func TestEngine_Score_SimilarNameSharedEmail(t *testing.T) {
	engine := NewEngine(DefaultWeights())

	a := person("Jon Smith", "jon@acme.io", "", "")
	b := person("John Smith", "jon@acme.io", "", "")

	// (0.9 + 0.9*0.6) / (0.9 + 0.6)
	assert.InDelta(t, 0.96, engine.Score(a, b), 1e-9)
}

func TestEngine_Score_Symmetric(t *testing.T) {
	engine := NewEngine(DefaultWeights())

	a := person("Jon Smith", "jon@acme.io", "0412 345 678", "Acme")
	b := person("John Smith", "john@acme.io", "+61 412 345 678", "Acme Pty Ltd")

	assert.InDelta(t, engine.Score(a, b), engine.Score(b, a), 1e-9)
}

func TestEngine_Score_Bounds(t *testing.T) {
	engine := NewEngine(DefaultWeights())

	pairs := [][2]*models.ContactEntity{
		{person("Jane Doe", "jane@acme.io", "0412 345 678", "Acme"), person("Robert Roe", "rob@other.org", "0298765432", "Other Org")},
		{person("Jane Doe", "", "", ""), person("Jane Doe", "jane@acme.io", "", "")},
		{person("", "", "0412 345 678", ""), person("", "", "0412 345 678", "")},
	}

	for _, pair := range pairs {
		score := engine.Score(pair[0], pair[1])
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
	}
}

func TestEngine_Score_NameNormalizedBeforeCompare(t *testing.T) {
	engine := NewEngine(DefaultWeights())

	a := person("JANE  DOE", "", "", "")
	b := person("jane doe", "", "", "")

	assert.InDelta(t, 1.0, engine.Score(a, b), 1e-9)
}

func TestEngine_Score_CompanyCaseInsensitive(t *testing.T) {
	engine := NewEngine(DefaultWeights())

	a := person("", "", "", "Acme Pty Ltd")
	b := person("", "", "", "ACME PTY LTD")

	assert.InDelta(t, 1.0, engine.Score(a, b), 1e-9)
}

func TestEngine_Score_PhoneNormalizedBeforeCompare(t *testing.T) {
	engine := NewEngine(DefaultWeights())

	a := person("", "", "0412 345 678", "")
	b := person("", "", "+61 412 345 678", "")

	assert.InDelta(t, 1.0, engine.Score(a, b), 1e-9)
}

func TestEngine_Reasons(t *testing.T) {
	engine := NewEngine(DefaultWeights())

	t.Run("exact email and close name", func(t *testing.T) {
		a := person("Jon Smith", "jon@acme.io", "", "")
		b := person("John Smith", "jon@acme.io", "", "")

		reasons := engine.Reasons(a, b)
		assert.Contains(t, reasons, "exact_email")
		assert.Contains(t, reasons, "name_similarity_90%")
	})

	t.Run("same domain and company", func(t *testing.T) {
		a := person("", "jane@acme.io", "", "Acme")
		b := person("", "bob@acme.io", "", "acme")

		reasons := engine.Reasons(a, b)
		assert.Equal(t, []string{"same_email_domain", "same_company"}, reasons)
	})

	t.Run("exact phone", func(t *testing.T) {
		a := person("", "", "0412 345 678", "")
		b := person("", "", "61412345678", "")

		assert.Equal(t, []string{"exact_phone"}, engine.Reasons(a, b))
	})

	t.Run("dissimilar name emits nothing", func(t *testing.T) {
		a := person("Jane Doe", "", "", "")
		b := person("Robert Roe", "", "", "")

		assert.Empty(t, engine.Reasons(a, b))
	})
}

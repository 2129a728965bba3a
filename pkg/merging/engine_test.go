package merging

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/aster/pkg/models"
)

func strptr(s string) *string {
	return &s
}

func TestFillEmptyFields(t *testing.T) {
	t.Run("loser fills survivor gaps", func(t *testing.T) {
		survivor := &models.ContactEntity{Name: strptr("Jane Doe")}
		loser := &models.ContactEntity{Name: strptr("J. Doe"), Email: strptr("jane@acme.io"), Phone: strptr("+61412345678")}

		changed := fillEmptyFields(survivor, loser)

		assert.True(t, changed)
		assert.Equal(t, "Jane Doe", *survivor.Name)
		assert.Equal(t, "jane@acme.io", *survivor.Email)
		assert.Equal(t, "+61412345678", *survivor.Phone)
		assert.Nil(t, survivor.Company)
	})

	t.Run("survivor values are never overwritten", func(t *testing.T) {
		survivor := &models.ContactEntity{Name: strptr("Jane Doe"), Email: strptr("jane@acme.io")}
		loser := &models.ContactEntity{Name: strptr("J. Doe"), Email: strptr("doe@old.example")}

		changed := fillEmptyFields(survivor, loser)

		assert.False(t, changed)
		assert.Equal(t, "jane@acme.io", *survivor.Email)
	})

	t.Run("empty string counts as a gap", func(t *testing.T) {
		survivor := &models.ContactEntity{Email: strptr("")}
		loser := &models.ContactEntity{Email: strptr("jane@acme.io")}

		assert.True(t, fillEmptyFields(survivor, loser))
		assert.Equal(t, "jane@acme.io", *survivor.Email)
	})

	t.Run("nothing to fill from an empty loser", func(t *testing.T) {
		survivor := &models.ContactEntity{}
		loser := &models.ContactEntity{}

		assert.False(t, fillEmptyFields(survivor, loser))
	})
}

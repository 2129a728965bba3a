package integration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/aster/pkg/models"
)

func TestResolve_NewRecordCreatesEntity(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	s := newStack(t)
	ctx := getTestContext()
	source := uniqueSource("crm")

	result, err := s.resolver.Resolve(ctx, &models.ResolveRequest{
		SourceSystem:   source,
		SourceRecordID: "c-1",
		Name:           "Jane Doe",
		Email:          "jane.resolve.create@" + source + ".example",
	})
	require.NoError(t, err)

	assert.True(t, result.CreatedEntity)
	assert.False(t, result.AlreadyKnown)
	assert.NotEmpty(t, result.EntityID)
	assert.NotEmpty(t, result.IdentifierID)

	entity, err := s.entities.Get(ctx, result.EntityID)
	require.NoError(t, err)
	assert.Equal(t, models.EntityKindPerson, entity.Kind)
	assert.Equal(t, "jane doe", *entity.Name)

	idents, err := s.identifiers.ListByEntity(ctx, result.EntityID)
	require.NoError(t, err)
	require.Len(t, idents, 1)
	assert.Equal(t, source, idents[0].SourceSystem)
	assert.Equal(t, "Jane Doe", *idents[0].RawName)
}

func TestResolve_KnownRecordIsStable(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	s := newStack(t)
	ctx := getTestContext()
	source := uniqueSource("crm")

	req := &models.ResolveRequest{
		SourceSystem:   source,
		SourceRecordID: "c-2",
		Email:          "stable@" + source + ".example",
	}

	first, err := s.resolver.Resolve(ctx, req)
	require.NoError(t, err)

	second, err := s.resolver.Resolve(ctx, req)
	require.NoError(t, err)

	assert.True(t, second.AlreadyKnown)
	assert.False(t, second.CreatedEntity)
	assert.Equal(t, first.EntityID, second.EntityID)
	assert.Equal(t, first.IdentifierID, second.IdentifierID)
}

func TestResolve_StrongMatchAttaches(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	s := newStack(t)
	ctx := getTestContext()
	source := uniqueSource("crm")
	email := "attach@" + source + ".example"

	first, err := s.resolver.Resolve(ctx, &models.ResolveRequest{
		SourceSystem:   source,
		SourceRecordID: "c-3",
		Name:           "Jane Doe",
		Email:          email,
	})
	require.NoError(t, err)

	// Same person observed in a second system: exact email, near-exact name.
	second, err := s.resolver.Resolve(ctx, &models.ResolveRequest{
		SourceSystem:   uniqueSource("billing"),
		SourceRecordID: "b-3",
		Name:           "Jane  DOE",
		Email:          email,
		Phone:          "0412 345 678",
	})
	require.NoError(t, err)

	assert.False(t, second.CreatedEntity)
	assert.Equal(t, first.EntityID, second.EntityID)
	assert.GreaterOrEqual(t, second.AttachedScore, 0.9)
	assert.Contains(t, second.AttachedReason, "exact_email")

	// The attach filled the entity's empty phone slot.
	entity, err := s.entities.Get(ctx, first.EntityID)
	require.NoError(t, err)
	require.NotNil(t, entity.Phone)
	assert.Equal(t, "+61412345678", *entity.Phone)

	idents, err := s.identifiers.ListByEntity(ctx, first.EntityID)
	require.NoError(t, err)
	assert.Len(t, idents, 2)
}

func TestResolve_WeakMatchCreatesNewEntity(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	s := newStack(t)
	ctx := getTestContext()
	source := uniqueSource("crm")

	first, err := s.resolver.Resolve(ctx, &models.ResolveRequest{
		SourceSystem:   source,
		SourceRecordID: "c-4",
		Name:           "Jane Doe",
		Email:          "jane@" + source + ".example",
	})
	require.NoError(t, err)

	second, err := s.resolver.Resolve(ctx, &models.ResolveRequest{
		SourceSystem:   source,
		SourceRecordID: "c-5",
		Name:           "Robert Roe",
		Email:          "rob@elsewhere-" + source + ".example",
	})
	require.NoError(t, err)

	assert.True(t, second.CreatedEntity)
	assert.NotEqual(t, first.EntityID, second.EntityID)
}

func TestResolve_PreviewWritesNothing(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	s := newStack(t)
	ctx := getTestContext()
	source := uniqueSource("crm")

	req := &models.ResolveRequest{
		SourceSystem:   source,
		SourceRecordID: "c-6",
		Email:          "preview@" + source + ".example",
	}

	preview, err := s.resolver.Preview(ctx, req)
	require.NoError(t, err)
	assert.True(t, preview.CreatedEntity)
	assert.Empty(t, preview.EntityID)

	ident, err := s.identifiers.Find(ctx, source, "c-6")
	require.NoError(t, err)
	assert.Nil(t, ident, "preview must not create the identifier")
}

func TestResolve_OrganizationsResolveSeparately(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	s := newStack(t)
	ctx := getTestContext()
	source := uniqueSource("billing")
	email := "accounts@" + source + ".example"

	person, err := s.resolver.Resolve(ctx, &models.ResolveRequest{
		SourceSystem:   source,
		SourceRecordID: "p-1",
		Kind:           models.EntityKindPerson,
		Name:           "Acme Accounts",
		Email:          email,
	})
	require.NoError(t, err)

	// Same fields but a different kind never attaches to the person.
	org, err := s.resolver.Resolve(ctx, &models.ResolveRequest{
		SourceSystem:   source,
		SourceRecordID: "o-1",
		Kind:           models.EntityKindOrganization,
		Name:           "Acme Accounts",
		Email:          email,
	})
	require.NoError(t, err)

	assert.True(t, org.CreatedEntity)
	assert.NotEqual(t, person.EntityID, org.EntityID)
}

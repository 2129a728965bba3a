package resolution

import (
	"net/http"
	"testing"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/aster/pkg/matching"
	"github.com/Ramsey-B/aster/pkg/models"
)

func testService() *Service {
	logger := ectologger.NewEctoLogger(func(msg ectologger.EctoLogMessage) {})
	return NewService(logger, nil, nil, nil, matching.NewEngine(matching.DefaultWeights()), 0.9)
}

func TestService_Prepare_Normalizes(t *testing.T) {
	s := testService()

	candidate, err := s.prepare(&models.ResolveRequest{
		SourceSystem:   "crm",
		SourceRecordID: "c-42",
		Name:           "  Jane   Doe ",
		Email:          "Jane.Doe@Acme.IO",
		Phone:          "0412 345 678",
		Company:        "ACME  Pty Ltd",
	})
	require.NoError(t, err)

	assert.Equal(t, models.EntityKindPerson, candidate.Kind)
	assert.Equal(t, "jane doe", *candidate.Name)
	assert.Equal(t, "jane.doe@acme.io", *candidate.Email)
	assert.Equal(t, "+61412345678", *candidate.Phone)
	assert.Equal(t, "acme pty ltd", *candidate.Company)
}

func TestService_Prepare_KindDefaultsToPerson(t *testing.T) {
	s := testService()

	candidate, err := s.prepare(&models.ResolveRequest{
		SourceSystem:   "crm",
		SourceRecordID: "c-42",
		Email:          "jane@acme.io",
	})
	require.NoError(t, err)
	assert.Equal(t, models.EntityKindPerson, candidate.Kind)
}

func TestService_Prepare_OrganizationKind(t *testing.T) {
	s := testService()

	candidate, err := s.prepare(&models.ResolveRequest{
		SourceSystem:   "billing",
		SourceRecordID: "o-7",
		Kind:           models.EntityKindOrganization,
		Name:           "Acme Pty Ltd",
	})
	require.NoError(t, err)
	assert.Equal(t, models.EntityKindOrganization, candidate.Kind)
}

func TestService_Prepare_Rejections(t *testing.T) {
	s := testService()

	tests := []struct {
		name   string
		req    *models.ResolveRequest
		status int
	}{
		{
			name:   "missing source system",
			req:    &models.ResolveRequest{SourceRecordID: "c-42", Email: "jane@acme.io"},
			status: http.StatusBadRequest,
		},
		{
			name:   "missing source record id",
			req:    &models.ResolveRequest{SourceSystem: "crm", Email: "jane@acme.io"},
			status: http.StatusBadRequest,
		},
		{
			name:   "no identity fields at all",
			req:    &models.ResolveRequest{SourceSystem: "crm", SourceRecordID: "c-42"},
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown kind",
			req:    &models.ResolveRequest{SourceSystem: "crm", SourceRecordID: "c-42", Kind: "robot", Name: "Jane"},
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.prepare(tt.req)
			require.Error(t, err)
			assert.True(t, httperror.IsHTTPError(err))
			assert.Equal(t, tt.status, httperror.GetStatusCode(err))
		})
	}
}

func TestRefineFields(t *testing.T) {
	target := &models.ContactEntity{Name: strPtr("jane doe")}
	candidate := &models.ContactEntity{Name: strPtr("j. doe"), Email: strPtr("jane@acme.io")}

	assert.True(t, refineFields(target, candidate))
	assert.Equal(t, "jane doe", *target.Name)
	assert.Equal(t, "jane@acme.io", *target.Email)

	// A second pass with the same candidate changes nothing.
	assert.False(t, refineFields(target, candidate))
}

func strPtr(s string) *string {
	return &s
}

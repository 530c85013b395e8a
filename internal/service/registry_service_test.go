package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/turno-service/internal/domain"
	apperrors "github.com/spec-kit/turno-service/pkg/util"
)

func newRegistryFixture(t *testing.T) (*RegistryService, *memVisitorRepo) {
	t.Helper()
	visitors := newMemVisitorRepo()
	serviceTypes := newMemServiceTypeRepo()
	serviceTypes.add(domain.ServiceType{ID: "type-1", Name: "Renewal", IsActive: true})
	return NewRegistryService(visitors, serviceTypes, domain.DefaultCategoryPolicy()), visitors
}

func TestRegisterVisitor(t *testing.T) {
	svc, _ := newRegistryFixture(t)

	visitor, err := svc.RegisterVisitor(context.Background(), VisitorInput{
		Document: " 12345678 ",
		Name:     "Ana",
		Category: domain.CategoryPregnancy,
	})
	require.NoError(t, err)
	assert.Equal(t, "12345678", visitor.Document)
	assert.Equal(t, domain.CategoryPregnancy, visitor.Category)
	assert.NotEmpty(t, visitor.ID)
}

func TestRegisterVisitorDefaultsCategory(t *testing.T) {
	svc, _ := newRegistryFixture(t)

	visitor, err := svc.RegisterVisitor(context.Background(), VisitorInput{Document: "111", Name: "Bo"})
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryNone, visitor.Category)
}

func TestRegisterVisitorValidation(t *testing.T) {
	svc, _ := newRegistryFixture(t)

	tests := []struct {
		name  string
		input VisitorInput
	}{
		{"missing document", VisitorInput{Name: "Bo"}},
		{"missing name", VisitorInput{Document: "111"}},
		{"unknown category", VisitorInput{Document: "111", Name: "Bo", Category: "martian"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.RegisterVisitor(context.Background(), tc.input)
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))
		})
	}
}

func TestRegisterVisitorDuplicateDocument(t *testing.T) {
	svc, _ := newRegistryFixture(t)

	_, err := svc.RegisterVisitor(context.Background(), VisitorInput{Document: "111", Name: "Bo"})
	require.NoError(t, err)

	_, err = svc.RegisterVisitor(context.Background(), VisitorInput{Document: "111", Name: "Cy"})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

func TestLookupVisitor(t *testing.T) {
	svc, _ := newRegistryFixture(t)

	registered, err := svc.RegisterVisitor(context.Background(), VisitorInput{Document: "111", Name: "Bo"})
	require.NoError(t, err)

	found, err := svc.LookupVisitor(context.Background(), "111")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, found.ID)

	_, err = svc.LookupVisitor(context.Background(), "999")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestUpdateVisitorCategory(t *testing.T) {
	svc, visitors := newRegistryFixture(t)

	registered, err := svc.RegisterVisitor(context.Background(), VisitorInput{Document: "111", Name: "Bo"})
	require.NoError(t, err)

	require.NoError(t, svc.UpdateVisitorCategory(context.Background(), registered.ID, domain.CategoryElderly))

	stored, err := visitors.GetByID(context.Background(), registered.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryElderly, stored.Category)

	err = svc.UpdateVisitorCategory(context.Background(), registered.ID, "martian")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidationFailed))

	err = svc.UpdateVisitorCategory(context.Background(), "visitor-nope", domain.CategoryElderly)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

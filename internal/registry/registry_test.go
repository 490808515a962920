package registry

import (
	"testing"

	"labtrack/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestDefaultCoversClosedSet(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	for _, want := range domain.KnownEntityTypes() {
		d, ok := reg.Lookup(want)
		require.True(t, ok, "missing descriptor for %s", want)
		require.Equal(t, want, d.EntityType())
		require.Equal(t, string(want), d.Table())
		require.Equal(t, "id", d.IDColumn())
		require.Equal(t, []string{"created_at", "updated_at"}, d.ExcludedOnInsert())
	}
	require.Len(t, reg.Types(), len(domain.KnownEntityTypes()))
}

type bogusDescriptor struct {
	leadDescriptor
	t domain.EntityType
}

func (d *bogusDescriptor) EntityType() domain.EntityType { return d.t }

func TestNewRejectsUnknownTag(t *testing.T) {
	_, err := New(&bogusDescriptor{t: domain.EntityType("invoices")})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown entity type")
}

func TestNewRejectsDuplicateTag(t *testing.T) {
	_, err := New(&leadDescriptor{}, &leadDescriptor{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "duplicate entity type")
}

func TestLookupUnregisteredTag(t *testing.T) {
	reg, err := New(&leadDescriptor{})
	require.NoError(t, err)

	_, ok := reg.Lookup(domain.EntitySamples)
	require.False(t, ok)
}

func TestNullNumeric(t *testing.T) {
	require.Nil(t, NullNumeric(""))
	require.Equal(t, "1180", NullNumeric("1180"))
}

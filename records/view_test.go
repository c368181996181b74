package records_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/customer-records-go/records"
)

func Test_View_ReadsDelegateToLiveRegistry(t *testing.T) {
	registry := records.BuildRecords()
	require.NoError(t, registry.Add(uuid.New(), "Ada Lovelace", "ada@example.com"))

	view := registry.View()

	assert.Equal(t, 1, view.Len())
	assert.True(t, view.Has("Ada Lovelace"))
	assert.Equal(t, []string{"Ada Lovelace"}, view.Names())

	customer, err := view.Customer("Ada Lovelace")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", customer.Email())

	// the view is live, not a point-in-time copy
	require.NoError(t, registry.Add(uuid.New(), "Grace Hopper", ""))
	assert.Equal(t, 2, view.Len())
}

//nolint:funlen
func Test_View_EveryMutation_FailsWithErrReadOnlyView(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(view records.View) error
	}{
		{
			name: "add",
			mutate: func(view records.View) error {
				return view.Add(uuid.New(), "Grace Hopper", "")
			},
		},
		{
			name: "rename",
			mutate: func(view records.View) error {
				return view.Rename("Ada Lovelace", "A. King")
			},
		},
		{
			name: "change_email",
			mutate: func(view records.View) error {
				return view.ChangeEmail("Ada Lovelace", "other@example.com")
			},
		},
		{
			name: "set_attribute",
			mutate: func(view records.View) error {
				return view.SetAttribute("Ada Lovelace", "tier", "gold")
			},
		},
		{
			name: "remove_attribute",
			mutate: func(view records.View) error {
				return view.RemoveAttribute("Ada Lovelace", "tier")
			},
		},
		{
			name: "remove",
			mutate: func(view records.View) error {
				return view.Remove("Ada Lovelace")
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			registry := records.BuildRecords()
			require.NoError(t, registry.Add(uuid.New(), "Ada Lovelace", "ada@example.com"))
			view := registry.View()

			err := tc.mutate(view)

			assert.ErrorIs(t, err, records.ErrReadOnlyView)

			// the failed mutation must not have altered any state
			assert.Equal(t, 1, registry.Len())
			snapshot, snapErr := registry.SnapshotOf("Ada Lovelace")
			require.NoError(t, snapErr)
			assert.Equal(t, "ada@example.com", snapshot.Email)
			assert.Equal(t, uint(1), snapshot.Revision)
			assert.Empty(t, snapshot.Attributes)
		})
	}
}

func Test_View_SatisfiesReaderAndMutator(t *testing.T) {
	registry := records.BuildRecords()

	var reader records.Reader = registry.View()
	var mutator records.Mutator = registry.View()

	assert.Equal(t, 0, reader.Len())
	assert.ErrorIs(t, mutator.Remove("anyone"), records.ErrReadOnlyView)
}

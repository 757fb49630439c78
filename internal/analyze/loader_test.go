package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzer_LoadPackagesMatchesReflect(t *testing.T) {
	loaded, err := NewAnalyzer().LoadPackages("orm-mirror/store", "orm-mirror/warehouse")
	require.NoError(t, err)

	byID := make(map[TypeID]StructInfo)
	for _, s := range loaded {
		byID[s.ID] = s
	}

	// OrderStatus is not a struct
	assert.NotContains(t, byID, TypeID{PkgPath: "orm-mirror/store", Name: "OrderStatus"})
	assert.Contains(t, byID, TypeID{PkgPath: "orm-mirror/warehouse", Name: "Location"})

	reflected := storeStructs(t)

	for _, r := range reflected {
		l, ok := byID[r.ID]
		require.True(t, ok, r.ID.String())
		assert.Equal(t, r, l, r.ID.String())
	}
}

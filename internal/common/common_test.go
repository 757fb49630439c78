package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLastSegment(t *testing.T) {
	assert.Equal(t, "Customer", LastSegment("store.Customer"))
	assert.Equal(t, "Customer", LastSegment("Customer"))
	assert.Equal(t, "Model", LastSegment("a.b.Model"))
	assert.Empty(t, LastSegment("store."))
}

func TestSplitRef(t *testing.T) {
	app, name := SplitRef("store.Customer")
	assert.Equal(t, "store", app)
	assert.Equal(t, "Customer", name)

	app, name = SplitRef("Customer")
	assert.Empty(t, app)
	assert.Equal(t, "Customer", name)
}

func TestSortedKeys(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SortedKeys(map[string]int{"c": 1, "a": 2, "b": 3}))
	assert.Empty(t, SortedKeys(map[string]int{}))
}

func TestFirst(t *testing.T) {
	v, ok := First([]int{3, 4})
	assert.True(t, ok)
	assert.Equal(t, 3, v)

	_, ok = First([]int(nil))
	assert.False(t, ok)
	assert.True(t, IsEmpty([]int(nil)))
}

func TestSnakeCase(t *testing.T) {
	tests := map[string]string{
		"GenericIPAddress":     "generic_ip_address",
		"PositiveSmallInteger": "positive_small_integer",
		"URL":                  "url",
		"ForeignKey":           "foreign_key",
		"ModelA":               "model_a",
		"already_snake":        "already_snake",
	}

	for in, want := range tests {
		assert.Equal(t, want, SnakeCase(in), in)
	}
}

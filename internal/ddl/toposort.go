package ddl

import (
	"slices"

	"github.com/cockroachdb/errors"
)

// errCycle reports tables that reference each other.
var errCycle = errors.New("cycle detected")

// topoSort returns node indices so that every node comes after the nodes
// it depends on. depsFn(i) yields the indices i depends on; self
// dependencies are ignored. Among available nodes the smallest index goes
// first, which keeps the output stable for a given input order.
func topoSort(n int, depsFn func(i int) []int) ([]int, error) {
	if n <= 0 {
		return nil, nil
	}

	indeg := make([]int, n)
	dependents := make([][]int, n)

	for i := range n {
		for _, d := range depsFn(i) {
			if d < 0 || d >= n {
				return nil, errors.Newf("dependency index out of range: %d depends on %d", i, d)
			}

			if d == i {
				continue
			}

			indeg[i]++
			dependents[d] = append(dependents[d], i)
		}
	}

	var ready []int

	for i := range n {
		if indeg[i] == 0 {
			ready = append(ready, i)
		}
	}

	order := make([]int, 0, n)

	for len(ready) > 0 {
		i := ready[0]
		ready = ready[1:]

		order = append(order, i)

		for _, j := range dependents[i] {
			indeg[j]--
			if indeg[j] == 0 {
				k, _ := slices.BinarySearch(ready, j)
				ready = slices.Insert(ready, k, j)
			}
		}
	}

	if len(order) != n {
		return nil, errCycle
	}

	return order, nil
}

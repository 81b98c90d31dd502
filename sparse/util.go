package sparse

import "sort"

// RCM provides an alternate degree-of-freedom reordering of an assembled
// matrix with better bandwidth properties for elimination solvers.  The
// returned slice maps old indices to new ones.
func RCM(A Matrix) []int {
	size, _ := A.Dims()
	degree := func(i int) int { return len(A.SweepRow(i)) }

	byDegree := make([]int, size)
	for i := range byDegree {
		byDegree[i] = i
	}
	sort.SliceStable(byDegree, func(i, j int) bool {
		return degree(byDegree[i]) < degree(byDegree[j])
	})

	order := make([]int, 0, size)
	visited := make([]bool, size)
	for _, start := range byDegree {
		if visited[start] {
			continue
		}
		// breadth-first search across adjacency/connections between dofs.
		// Disconnected blocks restart from the lowest degree unvisited dof.
		visited[start] = true
		level := []int{start}
		for len(level) > 0 {
			order = append(order, level...)
			level = nextRCMLevel(A, visited, level, degree)
		}
	}

	mapping := make([]int, size)
	for pos, i := range order {
		mapping[i] = size - 1 - pos
	}
	return mapping
}

func nextRCMLevel(A Matrix, visited []bool, level []int, degree func(int) int) []int {
	var next []int
	for _, i := range level {
		var tmp []int
		for _, nz := range A.SweepRow(i) {
			if !visited[nz.J] {
				visited[nz.J] = true
				tmp = append(tmp, nz.J)
			}
		}
		sort.SliceStable(tmp, func(a, b int) bool { return degree(tmp[a]) < degree(tmp[b]) })
		next = append(next, tmp...)
	}
	return next
}

// Bandwidth returns the maximum distance of a nonzero from the diagonal.
func Bandwidth(A Matrix) int {
	size, _ := A.Dims()
	bw := 0
	for i := 0; i < size; i++ {
		for _, nz := range A.SweepRow(i) {
			if d := nz.J - nz.I; d > bw {
				bw = d
			} else if -d > bw {
				bw = -d
			}
		}
	}
	return bw
}

package domain

// FloodFill recolors the 4-connected region of cells sharing the start
// cell's canonical color. It returns the changed indices in visit order.
//
// Filling with the region's own color is a no-op and returns nil, so callers
// can skip recording history for it.
func FloodFill(g *Grid, start int, newColor Cell) ([]int, error) {
	startCell, err := g.Get(start)
	if err != nil {
		return nil, err
	}
	target := startCell.Canonical()
	if newColor.Canonical() == target {
		return nil, nil
	}

	visited := make([]bool, g.Len())
	queue := []int{start}
	var changed []int

	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		if visited[i] {
			continue
		}
		visited[i] = true

		if g.cells[i].Canonical() != target {
			continue
		}
		g.cells[i] = newColor
		changed = append(changed, i)

		for _, n := range neighbors(i, g.size) {
			if !visited[n] {
				queue = append(queue, n)
			}
		}
	}
	return changed, nil
}

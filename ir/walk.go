package ir

// ReachableBlocks returns the set of block ids reachable from the entry by
// following successor edges. The traversal keeps its own visited set so a
// cyclic block graph (any loop) terminates.
func (f *Function) ReachableBlocks() map[BlockID]bool {
	visited := make(map[BlockID]bool, len(f.Blocks))
	entry := f.Entry()
	if entry == nil {
		return visited
	}
	queue := []BlockID{entry.ID}
	visited[entry.ID] = true
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, succ := range f.Succs[id] {
			if !visited[succ] {
				visited[succ] = true
				queue = append(queue, succ)
			}
		}
	}
	return visited
}

// postorder returns reachable block ids in depth-first postorder from the
// entry. Used by the dominator computation.
func (f *Function) postorder() []BlockID {
	var order []BlockID
	visited := make(map[BlockID]bool, len(f.Blocks))
	var visit func(id BlockID)
	visit = func(id BlockID) {
		visited[id] = true
		for _, succ := range f.Succs[id] {
			if !visited[succ] {
				visit(succ)
			}
		}
		order = append(order, id)
	}
	if entry := f.Entry(); entry != nil {
		visit(entry.ID)
	}
	return order
}

package brackets

import (
	"errors"
	"fmt"

	"github.com/dominikbraun/graph"
)

var ErrBrokenLinkage = errors.New("bracket linkage is broken")

func slotHash(s *Slot) string {
	return s.UID()
}

// LinkGraph builds the winner-advancement graph of an elimination
// bracket (edge: slot -> slot consuming its winner) and checks that it
// forms a single tree converging on the final.
func LinkGraph(b *Bracket) (graph.Graph[string, *Slot], error) {
	g := graph.New(slotHash, graph.Directed(), graph.PreventCycles())
	for i := range b.Slots {
		if err := g.AddVertex(&b.Slots[i]); err != nil {
			return nil, fmt.Errorf("%w: slot %s: %w", ErrBrokenLinkage, b.Slots[i].UID(), err)
		}
	}
	for i := range b.Slots {
		s := &b.Slots[i]
		if s.Next == nil {
			continue
		}
		if err := g.AddEdge(s.UID(), s.Next.UID()); err != nil {
			return nil, fmt.Errorf("%w: %s -> %s: %w", ErrBrokenLinkage, s.UID(), s.Next.UID(), err)
		}
	}

	if len(b.Slots) <= 1 {
		return g, nil
	}

	preds, err := g.PredecessorMap()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBrokenLinkage, err)
	}
	finals := 0
	for i := range b.Slots {
		s := &b.Slots[i]
		if s.Next == nil {
			finals++
		}
		if s.Round > 1 && len(preds[s.UID()]) != 2 {
			return nil, fmt.Errorf("%w: slot %s is fed by %d slots, expected 2", ErrBrokenLinkage, s.UID(), len(preds[s.UID()]))
		}
	}
	if finals != 1 {
		return nil, fmt.Errorf("%w: %d slots have no successor, expected exactly one final", ErrBrokenLinkage, finals)
	}

	adj, err := g.AdjacencyMap()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBrokenLinkage, err)
	}
	for i := range b.Slots {
		s := &b.Slots[i]
		if s.Round != 1 {
			continue
		}
		if path := pathToFinal(adj, s.UID()); len(path) != b.Rounds {
			return nil, fmt.Errorf("%w: slot %s reaches the final in %d steps, expected %d", ErrBrokenLinkage, s.UID(), len(path), b.Rounds)
		}
	}
	return g, nil
}

// pathToFinal lists the slot UIDs a winner of start passes through,
// start included.
func pathToFinal(adj map[string]map[string]graph.Edge[string], start string) []string {
	path := []string{start}
	seen := map[string]bool{start: true}
	current := start
	for {
		var next string
		for target := range adj[current] {
			next = target
		}
		if next == "" || seen[next] {
			return path
		}
		seen[next] = true
		path = append(path, next)
		current = next
	}
}

package brackets

import (
	"errors"
	"fmt"
	"math/bits"
	"reflect"
	"testing"
)

func makeEntries(n int) []Entry {
	entries := make([]Entry, 0, n)
	for i := range n {
		entries = append(entries, Entry{fmt.Sprintf("p%d", i+1)})
	}
	return entries
}

func TestSeededOrder(t *testing.T) {
	got := SeededOrder(8)
	want := []int{1, 8, 4, 5, 2, 7, 3, 6}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SeededOrder(8) = %v, want %v", got, want)
	}

	for _, size := range []int{2, 4, 16, 32, 64} {
		order := SeededOrder(size)
		if len(order) != size {
			t.Fatalf("SeededOrder(%d) has %d seeds", size, len(order))
		}
		for i := 0; i < size; i += 2 {
			if order[i]+order[i+1] != size+1 {
				t.Fatalf("size %d: seeds %d and %d do not sum to %d", size, order[i], order[i+1], size+1)
			}
		}
	}
}

func TestBracketSizeAndRounds(t *testing.T) {
	for n := 1; n <= 70; n++ {
		b, err := GenerateBracket(makeEntries(n), false)
		if err != nil {
			t.Fatal(err)
		}
		if b.Size < n || b.Size&(b.Size-1) != 0 || (b.Size > 1 && b.Size/2 >= n) {
			t.Fatalf("n=%d: size %d is not the smallest power of two >= n", n, b.Size)
		}
		wantRounds := 0
		if b.Size > 1 {
			wantRounds = bits.Len(uint(b.Size)) - 1
		}
		if b.Rounds != wantRounds {
			t.Fatalf("n=%d: %d rounds, want %d", n, b.Rounds, wantRounds)
		}
		for r := 1; r <= b.Rounds; r++ {
			if got := len(b.Round(r)); got != b.Size>>uint(r) {
				t.Fatalf("n=%d: round %d has %d slots, want %d", n, r, got, b.Size>>uint(r))
			}
		}
	}
}

func TestEmptyAndSingleEntryBracket(t *testing.T) {
	b, err := GenerateBracket(nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if b.Size != 0 || b.Rounds != 0 || len(b.Slots) != 0 {
		t.Fatalf("empty bracket = %+v", b)
	}

	b, err = GenerateBracket(makeEntries(1), false)
	if err != nil {
		t.Fatal(err)
	}
	if b.Size != 1 || b.Rounds != 0 || len(b.Slots) != 1 {
		t.Fatalf("single entry bracket = %+v", b)
	}
	if !reflect.DeepEqual(b.Slots[0].SideA, Entry{"p1"}) || b.Slots[0].SideB != nil {
		t.Fatal("the single entry should be the only side of the only slot")
	}
}

func TestFiveEntryWalkovers(t *testing.T) {
	b, err := GenerateBracket(makeEntries(5), false)
	if err != nil {
		t.Fatal(err)
	}
	if b.Size != 8 || b.Rounds != 3 {
		t.Fatalf("size=%d rounds=%d, want 8 and 3", b.Size, b.Rounds)
	}
	first := b.Round(1)
	if len(first) != 4 {
		t.Fatalf("round 1 has %d slots", len(first))
	}

	playable := 0
	for _, s := range first {
		if s.SeedA+s.SeedB != 9 {
			t.Fatalf("slot %s seeds %d+%d != 9", s.UID(), s.SeedA, s.SeedB)
		}
		if s.IsWalkover {
			if s.SideA == nil {
				t.Fatalf("walkover %s lost its present side", s.UID())
			}
			continue
		}
		playable++
		if s.SeedA != 4 || s.SeedB != 5 {
			t.Fatalf("the only full slot should be seeds 4 vs 5, got %d vs %d", s.SeedA, s.SeedB)
		}
	}
	if playable != 1 || len(b.Walkovers()) != 3 {
		t.Fatalf("playable=%d walkovers=%d, want 1 and 3", playable, len(b.Walkovers()))
	}

	for _, s := range b.Round(2) {
		if s.SideA != nil || s.SideB != nil {
			t.Fatal("walkover winners must not be advanced by the generator")
		}
	}
}

func TestNextSlotLinkage(t *testing.T) {
	b, err := GenerateBracket(makeEntries(8), false)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range b.Slots {
		if s.Round == b.Rounds {
			if s.Next != nil {
				t.Fatal("the final must not link anywhere")
			}
			continue
		}
		want := SlotRef{Round: s.Round + 1, MatchNumber: (s.MatchNumber + 1) / 2}
		if s.Next == nil || *s.Next != want {
			t.Fatalf("slot %s links to %v, want %v", s.UID(), s.Next, want)
		}
	}

	g, err := LinkGraph(b)
	if err != nil {
		t.Fatal(err)
	}
	adj, err := g.AdjacencyMap()
	if err != nil {
		t.Fatal(err)
	}
	if path := pathToFinal(adj, "R1M4"); !reflect.DeepEqual(path, []string{"R1M4", "R2M2", "R3M1"}) {
		t.Fatalf("path = %v", path)
	}
}

func TestDoublesEntryValidation(t *testing.T) {
	_, err := GenerateBracket([]Entry{{"a", "b"}, {"c"}, {"a", "d"}}, true)
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected a GenerationError, got %v", err)
	}
	if len(genErr.Problems) != 2 {
		t.Fatalf("expected 2 problems, got %v", genErr.Problems)
	}
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatal("GenerationError should unwrap to ErrInvalidInput")
	}

	b, err := GenerateBracket([]Entry{{"a", "b"}, {"c", "d", "e"}}, true)
	if err != nil {
		t.Fatal(err)
	}
	slots := b.Slots[0].PlayerSlots()
	if *slots[0] != "a" || *slots[1] != "b" || *slots[2] != "c" || *slots[3] != "d" || *slots[5] != "e" || slots[4] != nil {
		t.Fatal("players were placed in the wrong match slots")
	}
}

func TestLinkGraphRejectsSlotSkippingARound(t *testing.T) {
	link := func(round, number int) *SlotRef { return &SlotRef{Round: round, MatchNumber: number} }
	b := &Bracket{Size: 4, Rounds: 3, Slots: []Slot{
		{Round: 1, MatchNumber: 1, Next: link(2, 1)},
		{Round: 1, MatchNumber: 2, Next: link(2, 1)},
		{Round: 1, MatchNumber: 3, Next: link(3, 1)},
		{Round: 2, MatchNumber: 1, Next: link(3, 1)},
		{Round: 3, MatchNumber: 1},
	}}
	if _, err := LinkGraph(b); !errors.Is(err, ErrBrokenLinkage) {
		t.Fatalf("R1M3 feeds the final directly, got %v", err)
	}
}

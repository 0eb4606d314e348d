package brackets

import (
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"github.com/Dosada05/court-dispatch/models"
)

func rosterOf(men, women, division int) []*models.Player {
	roster := make([]*models.Player, 0, men+women)
	for i := range men {
		roster = append(roster, &models.Player{ID: fmt.Sprintf("m%d", i), Name: fmt.Sprintf("M%d", i), Gender: models.GenderMale, Division: division, IsActive: true})
	}
	for i := range women {
		roster = append(roster, &models.Player{ID: fmt.Sprintf("w%d", i), Name: fmt.Sprintf("W%d", i), Gender: models.GenderFemale, Division: division, IsActive: true})
	}
	return roster
}

func TestPairSameGenderOddDrop(t *testing.T) {
	roster := rosterOf(5, 3, 1)
	roster = append(roster, &models.Player{ID: "x", Gender: models.GenderMale, Division: 1, IsActive: false})
	roster = append(roster, &models.Player{ID: "y", Gender: models.GenderMale, Division: 2, IsActive: true})

	male := models.GenderMale
	g := NewPairingGenerator(rand.New(rand.NewSource(7)))
	res, err := g.PairSameGender(roster, 1, &male)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Pairs) != 2 {
		t.Fatalf("5 men should give 2 pairs, got %d", len(res.Pairs))
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Code != WarningOddPlayerDropped {
		t.Fatalf("expected one odd-player warning, got %+v", res.Warnings)
	}

	seen := map[string]bool{res.Warnings[0].PlayerIDs[0]: true}
	for _, p := range res.Pairs {
		for _, pl := range p {
			if pl.Gender != models.GenderMale || pl.Division != 1 || !pl.IsActive {
				t.Fatalf("player %s should have been filtered out", pl.ID)
			}
			if seen[pl.ID] {
				t.Fatalf("player %s used twice", pl.ID)
			}
			seen[pl.ID] = true
		}
	}
	if len(seen) != 5 {
		t.Fatal("every eligible player must be paired or reported")
	}
}

func TestPairingIsReproducible(t *testing.T) {
	roster := rosterOf(8, 0, 1)
	a, err := NewPairingGenerator(rand.New(rand.NewSource(42))).PairSameGender(roster, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewPairingGenerator(rand.New(rand.NewSource(42))).PairSameGender(roster, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a.Entries(), b.Entries()) {
		t.Fatal("the same seed should give the same pairs")
	}
}

func TestPairSameGenderNotEnoughPlayers(t *testing.T) {
	g := NewPairingGenerator(rand.New(rand.NewSource(1)))
	_, err := g.PairSameGender(rosterOf(1, 0, 1), 1, nil)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	_, err = g.PairSameGender(rosterOf(4, 0, 1), 3, nil)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatal("a filter excluding everyone should be an error")
	}
}

func TestPairMixed(t *testing.T) {
	g := NewPairingGenerator(rand.New(rand.NewSource(3)))
	res, err := g.PairMixed(rosterOf(4, 3, 2), 2, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Pairs) != 3 {
		t.Fatalf("got %d pairs, want 3", len(res.Pairs))
	}
	for _, p := range res.Pairs {
		if p[0].Gender != models.GenderMale || p[1].Gender != models.GenderFemale {
			t.Fatal("mixed pairs should be one male and one female")
		}
	}
	if len(res.Warnings) != 1 || res.Warnings[0].Code != WarningGenderMismatch {
		t.Fatalf("expected a mismatch warning, got %+v", res.Warnings)
	}

	res, err = g.PairMixed(rosterOf(4, 3, 2), 2, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Pairs) != 3 || len(res.Pairs[2]) != 3 {
		t.Fatal("the leftover player should join the last pair as a trio")
	}

	if _, err := g.PairMixed(rosterOf(4, 0, 2), 2, false); !errors.Is(err, ErrInvalidInput) {
		t.Fatal("mixed pairing without women should fail")
	}
}

func TestPairManual(t *testing.T) {
	roster := rosterOf(2, 2, 1)
	roster[3].IsActive = false
	g := NewPairingGenerator(nil)

	_, err := g.PairManual(roster, 1, models.TypeMixedDoubles, [][]string{{"m0", "w0"}, {"m1", "w1"}, {"m0", "zz"}})
	var genErr *GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
	// inactive w1, m0 reused, unknown zz, third pair not mixed
	if len(genErr.Problems) != 4 {
		t.Fatalf("unexpected problems: %v", genErr.Problems)
	}

	roster[3].IsActive = true
	res, err := g.PairManual(roster, 1, models.TypeMixedDoubles, [][]string{{"m0", "w0"}, {"m1", "w1"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Pairs) != 2 {
		t.Fatal("expected 2 pairs")
	}
}

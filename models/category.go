package models

import (
	"fmt"
	"strconv"
	"strings"
)

// TournamentType is the event kind a match belongs to.
type TournamentType string

const (
	TypeMenSingles   TournamentType = "MS"
	TypeWomenSingles TournamentType = "WS"
	TypeMenDoubles   TournamentType = "MD"
	TypeWomenDoubles TournamentType = "WD"
	TypeMixedDoubles TournamentType = "XD"
)

func (t TournamentType) IsValid() bool {
	switch t {
	case TypeMenSingles, TypeWomenSingles, TypeMenDoubles, TypeWomenDoubles, TypeMixedDoubles:
		return true
	}
	return false
}

func (t TournamentType) IsDoubles() bool {
	return t == TypeMenDoubles || t == TypeWomenDoubles || t == TypeMixedDoubles
}

func (t TournamentType) IsMixed() bool {
	return t == TypeMixedDoubles
}

// Gender returns the roster gender filter for single-gender events.
func (t TournamentType) Gender() (Gender, bool) {
	switch t {
	case TypeMenSingles, TypeMenDoubles:
		return GenderMale, true
	case TypeWomenSingles, TypeWomenDoubles:
		return GenderFemale, true
	}
	return "", false
}

// Category is a tournament type crossed with a division, e.g. "MD-2".
type Category struct {
	TournamentType TournamentType `json:"tournament_type"`
	Division       int            `json:"division"`
}

func (c Category) Key() string {
	return fmt.Sprintf("%s-%d", c.TournamentType, c.Division)
}

func (c Category) String() string {
	return c.Key()
}

func ParseCategory(key string) (Category, error) {
	typ, div, ok := strings.Cut(strings.TrimSpace(key), "-")
	if !ok {
		return Category{}, fmt.Errorf("invalid category %q: expected <type>-<division>", key)
	}
	t := TournamentType(strings.ToUpper(typ))
	if !t.IsValid() {
		return Category{}, fmt.Errorf("invalid category %q: unknown tournament type %q", key, typ)
	}
	d, err := strconv.Atoi(div)
	if err != nil || d <= 0 {
		return Category{}, fmt.Errorf("invalid category %q: division must be a positive integer", key)
	}
	return Category{TournamentType: t, Division: d}, nil
}

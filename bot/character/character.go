// Package character defines the finished character model, its validation,
// and its persistence.
package character

import (
	"fmt"
	"sort"
	"strings"
)

// Class is a character's combat discipline.
type Class int

const (
	ClassMartial    Class = 1
	ClassHalfCaster Class = 2
	ClassCaster     Class = 3
)

// Classes returns every class in presentation order.
func Classes() []Class {
	return []Class{ClassMartial, ClassHalfCaster, ClassCaster}
}

// String returns the canonical wire name of the class.
func (c Class) String() string {
	switch c {
	case ClassMartial:
		return "martial"
	case ClassHalfCaster:
		return "half-caster"
	case ClassCaster:
		return "caster"
	}
	return fmt.Sprintf("class(%d)", int(c))
}

// Display returns the human-facing name of the class.
func (c Class) Display() string {
	switch c {
	case ClassMartial:
		return "Martial"
	case ClassHalfCaster:
		return "Half-Caster"
	case ClassCaster:
		return "Caster"
	}
	return c.String()
}

// ID returns the stable numeric identifier stored in the database.
func (c Class) ID() int { return int(c) }

// ParseClass resolves a wire name back to its class.
func ParseClass(s string) (Class, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "martial":
		return ClassMartial, nil
	case "half-caster":
		return ClassHalfCaster, nil
	case "caster":
		return ClassCaster, nil
	}
	return 0, &InvalidClassError{Value: s}
}

// Field keys used by the builder's collected map.
const (
	KeyName        = "name"
	KeySpecies     = "species"
	KeyAppearance  = "appearance"
	KeyLikes       = "likes"
	KeyDislikes    = "dislikes"
	KeyCompanions  = "companions"
	KeyExtra       = "extra"
	KeyMotivations = "motivations"
	KeyAlignment   = "alignment"
	KeyBackstory   = "backstory"
	KeyClass       = "class"
)

// RequiredKeys lists every key a draft must carry before it can be built.
var RequiredKeys = []string{
	KeyName,
	KeySpecies,
	KeyAppearance,
	KeyLikes,
	KeyDislikes,
	KeyCompanions,
	KeyExtra,
	KeyMotivations,
	KeyAlignment,
	KeyBackstory,
	KeyClass,
}

// Character is a fully validated, ready-to-save character.
type Character struct {
	Name        string
	Species     string
	Appearance  string
	Likes       string
	Dislikes    string
	Companions  string
	Extra       string
	Motivations string
	Alignment   string
	Backstory   string
	Class       Class
}

// MissingFieldsError lists the keys a draft is still missing, sorted.
type MissingFieldsError struct {
	Keys []string
}

func (e *MissingFieldsError) Error() string {
	return "character: missing fields: " + strings.Join(e.Keys, ", ")
}

// InvalidClassError reports a class value outside the known set.
type InvalidClassError struct {
	Value string
}

func (e *InvalidClassError) Error() string {
	return fmt.Sprintf("character: invalid class %q", e.Value)
}

// Build validates the collected draft values and assembles a Character.
// Missing or blank keys fail with MissingFieldsError; an unknown class value
// fails with InvalidClassError.
func Build(collected map[string]string) (Character, error) {
	var missing []string
	for _, key := range RequiredKeys {
		if strings.TrimSpace(collected[key]) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return Character{}, &MissingFieldsError{Keys: missing}
	}

	class, err := ParseClass(collected[KeyClass])
	if err != nil {
		return Character{}, err
	}

	return Character{
		Name:        collected[KeyName],
		Species:     collected[KeySpecies],
		Appearance:  collected[KeyAppearance],
		Likes:       collected[KeyLikes],
		Dislikes:    collected[KeyDislikes],
		Companions:  collected[KeyCompanions],
		Extra:       collected[KeyExtra],
		Motivations: collected[KeyMotivations],
		Alignment:   collected[KeyAlignment],
		Backstory:   collected[KeyBackstory],
		Class:       class,
	}, nil
}

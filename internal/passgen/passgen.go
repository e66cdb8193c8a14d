// Package passgen synthesizes random passwords from selectable character
// classes using crypto/rand only.
package passgen

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

const (
	setUpper   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	setLower   = "abcdefghijklmnopqrstuvwxyz"
	setDigits  = "0123456789"
	setSpecial = "`~!@#$%^&*()-_=+[]{}|;:,.<>?"

	// Visually confusable characters removed when AvoidSimilar is set.
	similarChars = "O0oIl1|`'\"~;:.,{}[]()<>\\/"
)

var (
	ErrEmptyPool     = errors.New("passgen: all candidate characters excluded")
	ErrInvalidLength = errors.New("passgen: length must be a positive integer")
)

type Options struct {
	Length              int  `json:"length"`
	Upper               bool `json:"uppercase"`
	Lower               bool `json:"lowercase"`
	Digits              bool `json:"digits"`
	Special             bool `json:"special"`
	AvoidSimilar        bool `json:"avoidSimilar"`
	RequireEachSelected bool `json:"requireEachSelected"`
}

func DefaultOptions() Options {
	return Options{
		Length:              12,
		Upper:               true,
		Lower:               true,
		Digits:              true,
		AvoidSimilar:        true,
		RequireEachSelected: true,
	}
}

// Generate builds a password of opts.Length from the union of the selected
// classes. With RequireEachSelected, one character is drawn from every class
// that survives the similar-character filter, so representation is guaranteed
// and required picks also respect the exclusion.
func Generate(opts Options) (string, error) {
	if opts.Length <= 0 {
		return "", ErrInvalidLength
	}

	var chosen []string
	if opts.Upper {
		chosen = append(chosen, setUpper)
	}
	if opts.Lower {
		chosen = append(chosen, setLower)
	}
	if opts.Digits {
		chosen = append(chosen, setDigits)
	}
	if opts.Special {
		chosen = append(chosen, setSpecial)
	}
	if len(chosen) == 0 {
		chosen = []string{setUpper, setLower}
	}

	exclude := map[rune]bool{}
	if opts.AvoidSimilar {
		for _, r := range similarChars {
			exclude[r] = true
		}
	}

	// Filter each class before any required pick; a class emptied by the
	// exclusion contributes nothing.
	var filtered [][]rune
	for _, set := range chosen {
		var keep []rune
		for _, r := range set {
			if !exclude[r] {
				keep = append(keep, r)
			}
		}
		if len(keep) > 0 {
			filtered = append(filtered, keep)
		}
	}
	if len(filtered) == 0 {
		return "", ErrEmptyPool
	}

	poolSeen := map[rune]bool{}
	var pool []rune
	for _, set := range filtered {
		for _, r := range set {
			if !poolSeen[r] {
				poolSeen[r] = true
				pool = append(pool, r)
			}
		}
	}

	var required []rune
	if opts.RequireEachSelected {
		for _, set := range filtered {
			i, err := randIndex(len(set))
			if err != nil {
				return "", err
			}
			required = append(required, set[i])
		}
	}
	if opts.Length < len(required) {
		return "", fmt.Errorf("passgen: length must be >= number of required character groups (%d)", len(required))
	}

	out := make([]rune, 0, opts.Length)
	for i := 0; i < opts.Length-len(required); i++ {
		j, err := randIndex(len(pool))
		if err != nil {
			return "", err
		}
		out = append(out, pool[j])
	}
	out = append(out, required...)

	if err := shuffle(out); err != nil {
		return "", err
	}
	return string(out), nil
}

// randIndex draws uniformly from [0,n) with rejection sampling to avoid
// modulo bias.
func randIndex(n int) (int, error) {
	if n <= 0 {
		return 0, ErrEmptyPool
	}
	max := uint32(0xffffffff)
	threshold := max - max%uint32(n)
	var buf [4]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			return 0, err
		}
		v := binary.BigEndian.Uint32(buf[:])
		if v < threshold {
			return int(v % uint32(n)), nil
		}
	}
}

func shuffle(arr []rune) error {
	for i := len(arr) - 1; i > 0; i-- {
		j, err := randIndex(i + 1)
		if err != nil {
			return err
		}
		arr[i], arr[j] = arr[j], arr[i]
	}
	return nil
}

// Classes reports which of the selected classes a password actually contains.
// Exposed for the CLI's --verify flag and the tests.
func Classes(pw string) (upper, lower, digits, special bool) {
	for _, r := range pw {
		switch {
		case strings.ContainsRune(setUpper, r):
			upper = true
		case strings.ContainsRune(setLower, r):
			lower = true
		case strings.ContainsRune(setDigits, r):
			digits = true
		default:
			special = true
		}
	}
	return
}

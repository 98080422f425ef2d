package lp

import (
	"strconv"
	"strings"

	"github.com/sadopc/lptrack/internal/apperr"
)

// Difficulty is the categorical weight of a task.
type Difficulty string

const (
	Easy    Difficulty = "Easy"
	EasyMed Difficulty = "Easy-Med"
	Med     Difficulty = "Med"
	MedHard Difficulty = "Med-Hard"
	Hard    Difficulty = "Hard"
)

// Difficulties lists every difficulty from easiest to hardest. Level n
// (1-based) on the command line maps to Difficulties[n-1].
var Difficulties = []Difficulty{Easy, EasyMed, Med, MedHard, Hard}

var basePoints = map[Difficulty]float64{
	Easy:    1,
	EasyMed: 2,
	Med:     4,
	MedHard: 8,
	Hard:    16,
}

var difficultyAliases = map[string]Difficulty{
	"easy":     Easy,
	"easy-med": EasyMed,
	"med":      Med,
	"medium":   Med,
	"med-hard": MedHard,
	"hard":     Hard,
}

// ParseDifficulty accepts a difficulty name (any case, "Medium" meaning Med)
// or a level from 1 to 5.
func ParseDifficulty(s string) (Difficulty, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", apperr.Validationf("difficulty is required")
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 || n > len(Difficulties) {
			return "", apperr.Validationf("difficulty level %d out of range 1-%d", n, len(Difficulties))
		}
		return Difficulties[n-1], nil
	}
	if d, ok := difficultyAliases[strings.ToLower(s)]; ok {
		return d, nil
	}
	return "", apperr.Validationf("unknown difficulty %q (want Easy, Easy-Med, Med, Med-Hard, Hard or 1-5)", s)
}

// BasePoints returns the points earned per hour at difficulty d.
func BasePoints(d Difficulty) (float64, error) {
	b, ok := basePoints[d]
	if !ok {
		if d == "" {
			return 0, apperr.Validationf("difficulty is required")
		}
		return 0, apperr.Validationf("unknown difficulty %q", string(d))
	}
	return b, nil
}

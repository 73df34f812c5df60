package classifierstub

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-creditform/pkg/validation"
)

// Score classes returned in predicted_credit_score.
const (
	ScoreLow     = "Low"
	ScoreAverage = "Average"
	ScoreHigh    = "High"
)

var educationLevels = map[string]int{
	"high school diploma": 0,
	"associate's degree":  1,
	"bachelor's degree":   2,
	"master's degree":     3,
	"doctorate":           4,
}

// Features is the numeric encoding of one applicant.
type Features struct {
	Age         float64
	Female      bool
	Income      float64
	Education   int
	Married     bool
	NumChildren int64
	HomeOwner   bool
}

// Encode maps a validated payload to Features. Categorical values are
// matched case-insensitively.
func Encode(p *validation.Payload) (Features, error) {
	if p == nil {
		return Features{}, fmt.Errorf("classifierstub: payload is required")
	}
	var f Features
	var ok bool
	if f.Age, ok = p.Float("age"); !ok {
		return Features{}, fmt.Errorf("classifierstub: age missing")
	}
	if f.Income, ok = p.Float("income"); !ok {
		return Features{}, fmt.Errorf("classifierstub: income missing")
	}
	if f.NumChildren, ok = p.Int("num_children"); !ok {
		return Features{}, fmt.Errorf("classifierstub: num_children missing")
	}
	gender, _ := p.String("gender")
	f.Female = !strings.EqualFold(gender, "male")
	marital, _ := p.String("marital_status")
	f.Married = !strings.EqualFold(marital, "single")
	home, _ := p.String("home_ownership")
	f.HomeOwner = !strings.EqualFold(home, "rented")

	education, _ := p.String("education")
	level, known := educationLevels[strings.ToLower(education)]
	if !known {
		return Features{}, fmt.Errorf("classifierstub: unknown education %q", education)
	}
	f.Education = level
	return f, nil
}

// Classifier predicts a score class from features.
type Classifier interface {
	Predict(Features) string
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(Features) string

func (fn ClassifierFunc) Predict(f Features) string { return fn(f) }

// RuleTree is a fixed decision tree over income, education, ownership,
// marital status and age. It is deterministic so end-to-end runs are
// reproducible.
type RuleTree struct{}

func (RuleTree) Predict(f Features) string {
	switch {
	case f.Income < 30000:
		return ScoreLow
	case f.Income >= 100000:
		return ScoreHigh
	}

	points := f.Education
	if f.HomeOwner {
		points++
	}
	if f.Married {
		points++
	}
	if f.Age < 25 {
		points--
	}
	if f.NumChildren > 3 {
		points--
	}

	switch {
	case points >= 3:
		return ScoreHigh
	case points >= 1:
		return ScoreAverage
	default:
		return ScoreLow
	}
}

// Package decision picks one of a handful of options at random, optionally
// weighted and optionally avoiding the previous pick.
package decision

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"
)

// Option count bounds, inclusive.
const (
	MinOptions = 2
	MaxOptions = 5
)

// History read limits.
const (
	DefaultHistoryLimit = 10
	MaxHistoryLimit     = 50
)

// TimestampLayout renders record times as local ISO-8601 to the second.
const TimestampLayout = "2006-01-02T15:04:05"

// Request is a validated decision request. Build it with NewRequest.
type Request struct {
	Question  string
	Options   []string
	Weights   []float64
	AvoidLast bool
}

// Record is one decision as kept in history.
type Record struct {
	TS       string   `json:"ts"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Picked   string   `json:"picked"`
}

// NewRequest trims and validates raw input. Options are trimmed and blanks
// dropped before the count and weight checks. Weights, when given, must line
// up with the cleaned options and all be positive and finite.
func NewRequest(question string, options []string, weights []float64, avoidLast bool) (Request, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Request{}, invalid("question is required")
	}

	cleaned := CleanOptions(options)
	switch {
	case len(cleaned) < MinOptions:
		return Request{}, invalid("at least %d options are required", MinOptions)
	case len(cleaned) > MaxOptions:
		return Request{}, invalid("at most %d options are allowed", MaxOptions)
	}

	if weights != nil {
		if len(weights) != len(cleaned) {
			return Request{}, invalid("weights must have the same length as options")
		}
		var total float64
		for _, w := range weights {
			if math.IsInf(w, 0) || math.IsNaN(w) {
				return Request{}, invalid("weights must be finite numbers")
			}
			if !(w > 0) {
				return Request{}, invalid("weights must all be greater than 0")
			}
			total += w
		}
		if math.IsInf(total, 0) {
			return Request{}, invalid("weights must be finite numbers")
		}
		weights = append([]float64(nil), weights...)
	}

	return Request{Question: question, Options: cleaned, Weights: weights, AvoidLast: avoidLast}, nil
}

// CleanOptions trims each option and drops blanks.
func CleanOptions(options []string) []string {
	out := make([]string, 0, len(options))
	for _, o := range options {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Candidates returns the options (and matching weights) eligible for this
// pick. With AvoidLast set, the first option equal to last is removed along
// with its weight, as long as another option remains.
func (r Request) Candidates(last string) ([]string, []float64) {
	options, weights := r.Options, r.Weights
	if !r.AvoidLast || last == "" || len(options) < 2 {
		return options, weights
	}
	idx := -1
	for i, o := range options {
		if o == last {
			idx = i
			break
		}
	}
	if idx < 0 {
		return options, weights
	}

	cand := make([]string, 0, len(options)-1)
	cand = append(append(cand, options[:idx]...), options[idx+1:]...)
	if weights == nil {
		return cand, nil
	}
	w := make([]float64, 0, len(weights)-1)
	w = append(append(w, weights[:idx]...), weights[idx+1:]...)
	return cand, w
}

// Picker draws options. It is safe for concurrent use.
type Picker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewPicker returns a picker seeded with seed, or from the clock when seed
// is zero.
func NewPicker(seed int64) *Picker {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Picker{rng: rand.New(rand.NewSource(seed))} //nolint:gosec // not security sensitive
}

// Pick draws one candidate, uniformly when weights is nil and proportionally
// to weights otherwise. candidates must be non-empty.
func (p *Picker) Pick(candidates []string, weights []float64) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if weights == nil {
		return candidates[p.rng.Intn(len(candidates))]
	}
	// Scale by the largest weight so the total stays finite.
	var largest float64
	for _, w := range weights {
		largest = math.Max(largest, w)
	}
	var total float64
	for _, w := range weights {
		total += w / largest
	}
	x := p.rng.Float64() * total
	for i, w := range weights {
		w /= largest
		if x < w {
			return candidates[i]
		}
		x -= w
	}
	return candidates[len(candidates)-1]
}

// Decide picks for r given the previous pick (empty when there is none).
func Decide(r Request, last string, p *Picker, now time.Time) Record {
	cand, weights := r.Candidates(last)
	return Record{
		TS:       now.Format(TimestampLayout),
		Question: r.Question,
		Options:  append([]string(nil), r.Options...),
		Picked:   p.Pick(cand, weights),
	}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

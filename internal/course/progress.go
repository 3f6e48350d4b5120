package course

import "fmt"

// Progress represents how far a student has gone in a module as a
// done/total pair. Container content types sum the progress of their
// children.
type Progress struct {
	Done  float64
	Total float64
}

// NewProgress creates a progress value, clamping done into [0, total].
func NewProgress(done, total float64) Progress {
	if total < 0 {
		total = 0
	}
	if done < 0 {
		done = 0
	}
	if done > total {
		done = total
	}
	return Progress{Done: done, Total: total}
}

// Add combines two progress values. Combining with a zero-total progress is
// the identity.
func (p Progress) Add(other Progress) Progress {
	return Progress{Done: p.Done + other.Done, Total: p.Total + other.Total}
}

// Frac returns the completed fraction, or 0 for an empty progress.
func (p Progress) Frac() float64 {
	if p.Total == 0 {
		return 0
	}
	return p.Done / p.Total
}

// Complete reports whether all work is done.
func (p Progress) Complete() bool {
	return p.Total > 0 && p.Done >= p.Total
}

// String implements fmt.Stringer.
func (p Progress) String() string {
	return fmt.Sprintf("%g/%g", p.Done, p.Total)
}

// SumProgress aggregates the progress of child modules, skipping children
// that report no progress notion.
func SumProgress(children []Module) *Progress {
	var total Progress
	seen := false
	for _, child := range children {
		if p := child.Progress(); p != nil {
			total = total.Add(*p)
			seen = true
		}
	}
	if !seen {
		return nil
	}
	return &total
}

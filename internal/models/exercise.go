package models

import "time"

// SetEntry is one performed set of a logged exercise.
type SetEntry struct {
	Reps int `json:"reps"`
	// Weight is the load for this set in canonical pounds.
	Weight Optional[float64] `json:"weight_lbs"`
}

// Exercise is one logged exercise outside the hangboard timer, such as a
// campus board or boulder session. Entries are append/delete only.
type Exercise struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Sets int    `json:"sets"`
	Reps int    `json:"reps"`
	// Weight is the headline load in canonical pounds.
	Weight Optional[float64] `json:"weight_lbs"`
	// SetsData holds per-set detail when it was recorded. When present it
	// takes precedence over Sets, Reps and Weight for progress.
	SetsData  []SetEntry `json:"sets_data,omitempty"`
	Grade     string     `json:"grade,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// TotalReps returns the reps performed across all sets.
func (e Exercise) TotalReps() int {
	if len(e.SetsData) > 0 {
		var n int
		for _, s := range e.SetsData {
			n += s.Reps
		}
		return n
	}
	if e.Sets > 0 {
		return e.Sets * e.Reps
	}
	return e.Reps
}

// MaxWeight returns the heaviest load in pounds and whether any was recorded.
func (e Exercise) MaxWeight() (float64, bool) {
	if len(e.SetsData) == 0 {
		return e.Weight.Get()
	}
	var best float64
	var found bool
	for _, s := range e.SetsData {
		if w, ok := s.Weight.Get(); ok && (!found || w > best) {
			best, found = w, true
		}
	}
	return best, found
}

// ExerciseFilter narrows ListExercises. Zero values match everything.
type ExerciseFilter struct {
	Name string
	// Date is a YYYY-MM-DD key evaluated in Location.
	Date     string
	Location *time.Location
	Limit    int
}

// DayRange returns the [start, end) instant range covered by f.Date.
// ok is false when no date filter is set.
func (f ExerciseFilter) DayRange() (start, end time.Time, ok bool, err error) {
	return dayRange(f.Date, f.Location)
}

// Workout is a named, ordered list of exercise names.
type Workout struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Exercises []string  `json:"exercises"`
	CreatedAt time.Time `json:"created_at"`
}

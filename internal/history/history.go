// Package history derives calendar and progress views from stored sessions
// and exercises.
package history

import (
	"sort"
	"time"

	"github.com/claude/betalog/internal/models"
	"github.com/claude/betalog/internal/units"
)

// minSeriesDates is the number of distinct days a series needs before it is reported.
const minSeriesDates = 2

// DateKey returns the YYYY-MM-DD calendar day of t in loc.
func DateKey(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(models.DateLayout)
}

// LoggedDates returns the distinct days that have at least one session or
// exercise, sorted ascending.
func LoggedDates(sessions []models.Session, exercises []models.Exercise, loc *time.Location) []string {
	seen := make(map[string]struct{}, len(sessions)+len(exercises))
	for _, s := range sessions {
		seen[DateKey(s.CompletedAt, loc)] = struct{}{}
	}
	for _, e := range exercises {
		seen[DateKey(e.CreatedAt, loc)] = struct{}{}
	}
	dates := make([]string, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// Point is one day's value in a series.
type Point struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// PresetProgress holds the per-day series for one preset. A series is nil
// when it covers fewer than two days.
type PresetProgress struct {
	PresetName string     `json:"preset_name"`
	Unit       units.Unit `json:"unit"`
	// HangTime is the total seconds under load per day.
	HangTime []Point `json:"hang_time,omitempty"`
	// Weight is the heaviest added weight per day, in Unit.
	Weight []Point `json:"weight,omitempty"`
	// Edge is the smallest edge per day, in millimetres.
	Edge []Point `json:"edge,omitempty"`
}

// HasData reports whether any series is present.
func (p PresetProgress) HasData() bool {
	return len(p.HangTime) > 0 || len(p.Weight) > 0 || len(p.Edge) > 0
}

// ForPreset builds the progress series for sessions named presetName.
func ForPreset(sessions []models.Session, presetName string, u units.Unit, loc *time.Location) PresetProgress {
	weight := map[string]float64{}
	edge := map[string]float64{}
	hang := map[string]float64{}

	for _, s := range sessions {
		if s.PresetName != presetName {
			continue
		}
		day := DateKey(s.CompletedAt, loc)

		if w, ok := s.Config.Weight.Get(); ok {
			if cur, seen := weight[day]; !seen || w > cur {
				weight[day] = w
			}
		}
		if e, ok := s.Config.Edge.Get(); ok {
			if cur, seen := edge[day]; !seen || e < cur {
				edge[day] = e
			}
		}
		if h := s.Config.HangSeconds(); h > 0 {
			hang[day] += float64(h)
		}
	}

	for day, w := range weight {
		weight[day] = units.ToDisplay(w, u)
	}

	return PresetProgress{
		PresetName: presetName,
		Unit:       u,
		HangTime:   series(hang),
		Weight:     series(weight),
		Edge:       series(edge),
	}
}

// Progress builds progress for every preset name found in sessions,
// sorted by name. Presets without enough data are omitted.
func Progress(sessions []models.Session, u units.Unit, loc *time.Location) []PresetProgress {
	names := map[string]struct{}{}
	for _, s := range sessions {
		names[s.PresetName] = struct{}{}
	}
	sorted := make([]string, 0, len(names))
	for n := range names {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)

	var out []PresetProgress
	for _, name := range sorted {
		if p := ForPreset(sessions, name, u, loc); p.HasData() {
			out = append(out, p)
		}
	}
	return out
}

// ExerciseProgress holds the per-day series for one exercise name. A series
// is nil when it covers fewer than two days.
type ExerciseProgress struct {
	Name string     `json:"name"`
	Unit units.Unit `json:"unit"`
	// Weight is the heaviest load per day, in Unit.
	Weight []Point `json:"weight,omitempty"`
	// Reps is the total reps per day.
	Reps []Point `json:"reps,omitempty"`
}

// HasData reports whether any series is present.
func (p ExerciseProgress) HasData() bool {
	return len(p.Weight) > 0 || len(p.Reps) > 0
}

// ForExercise builds the progress series for exercises called name.
func ForExercise(exercises []models.Exercise, name string, u units.Unit, loc *time.Location) ExerciseProgress {
	weight := map[string]float64{}
	reps := map[string]float64{}

	for _, e := range exercises {
		if e.Name != name {
			continue
		}
		day := DateKey(e.CreatedAt, loc)

		if w, ok := e.MaxWeight(); ok {
			if cur, seen := weight[day]; !seen || w > cur {
				weight[day] = w
			}
		}
		if n := e.TotalReps(); n > 0 {
			reps[day] += float64(n)
		}
	}

	for day, w := range weight {
		weight[day] = units.ToDisplay(w, u)
	}

	return ExerciseProgress{
		Name:   name,
		Unit:   u,
		Weight: series(weight),
		Reps:   series(reps),
	}
}

// ExercisesProgress builds progress for every exercise name found, sorted
// by name. Exercises without enough data are omitted.
func ExercisesProgress(exercises []models.Exercise, u units.Unit, loc *time.Location) []ExerciseProgress {
	names := map[string]struct{}{}
	for _, e := range exercises {
		names[e.Name] = struct{}{}
	}
	sorted := make([]string, 0, len(names))
	for n := range names {
		sorted = append(sorted, n)
	}
	sort.Strings(sorted)

	var out []ExerciseProgress
	for _, name := range sorted {
		if p := ForExercise(exercises, name, u, loc); p.HasData() {
			out = append(out, p)
		}
	}
	return out
}

func series(byDay map[string]float64) []Point {
	if len(byDay) < minSeriesDates {
		return nil
	}
	points := make([]Point, 0, len(byDay))
	for d, v := range byDay {
		points = append(points, Point{Date: d, Value: v})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	return points
}

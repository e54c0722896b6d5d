package models

// PresetRequest is the body of preset create and replace calls.
type PresetRequest struct {
	Name   string      `json:"name"`
	Config TimerConfig `json:"config"`
}

// Setting is one key/value pair as exchanged over the API.
type Setting struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// WorkoutRequest is the body of workout create calls.
type WorkoutRequest struct {
	Name      string   `json:"name"`
	Exercises []string `json:"exercises"`
}

// CalendarResponse lists the days that have at least one session or exercise.
type CalendarResponse struct {
	Dates []string `json:"dates"`
}

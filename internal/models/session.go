package models

import "time"

// StartSessionRequest is the body of POST /api/v1/sessions.
type StartSessionRequest struct {
	Exercise   string `json:"exercise"`
	TargetReps int    `json:"target_reps"`
}

// SessionStatus is what the presentation layer renders for a live session.
type SessionStatus struct {
	Exercise      string  `json:"exercise"`
	TargetReps    int     `json:"target_reps"`
	Reps          int     `json:"reps"`
	RepState      string  `json:"rep_state"`
	Status        string  `json:"status"`
	Angle         float64 `json:"angle"`
	PersonVisible bool    `json:"person_visible"`
	Progress      float64 `json:"progress"`
}

// SessionRecord is a persisted session as returned by the API.
type SessionRecord struct {
	ID        string    `json:"id"`
	Exercise  string    `json:"exercise"`
	Reps      int       `json:"reps"`
	CreatedAt time.Time `json:"created_at"`
}

// ExerciseInfo describes one catalog entry.
type ExerciseInfo struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Joints        [3]string `json:"joints"`
	UpThreshold   float64   `json:"up_threshold"`
	DownThreshold float64   `json:"down_threshold"`
}

// ExerciseStats is the derived history summary for one exercise.
type ExerciseStats struct {
	Exercise    string  `json:"exercise"`
	Sessions    int     `json:"sessions"`
	Total       int     `json:"total"`
	Mean        float64 `json:"mean"`
	StdDev      float64 `json:"stddev"`
	BestSession int     `json:"best_session"`
}

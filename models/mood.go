package models

import (
	"time"

	"github.com/google/uuid"
)

// MoodLog is one mood journal entry. MoodValue is on a 0-100 scale; the
// label and color fields are derived from it at creation time.
type MoodLog struct {
	ID        uuid.UUID `json:"id"`
	Date      time.Time `json:"date"`
	MoodValue int       `json:"moodValue"`
	MoodLabel string    `json:"moodLabel"`
	MoodColor string    `json:"moodColor"`
	Tags      []string  `json:"tags,omitempty"`
	Notes     string    `json:"notes,omitempty"`
}

// NewMoodLog creates a mood entry, deriving label and color from the value.
func NewMoodLog(moodValue int, tags []string, notes string) MoodLog {
	return MoodLog{
		ID:        uuid.New(),
		Date:      time.Now(),
		MoodValue: moodValue,
		MoodLabel: MoodLabel(moodValue),
		MoodColor: MoodColor(moodValue),
		Tags:      tags,
		Notes:     notes,
	}
}

// CreateMoodLogRequest is the request body for logging a mood.
type CreateMoodLogRequest struct {
	MoodValue *int     `json:"moodValue" binding:"required,min=0,max=100"`
	Tags      []string `json:"tags"`
	Notes     string   `json:"notes"`
}

// MoodLabel maps a mood value to its display label.
func MoodLabel(moodValue int) string {
	switch {
	case moodValue < 15:
		return "Very Unpleasant"
	case moodValue < 30:
		return "Unpleasant"
	case moodValue < 45:
		return "Slightly Unpleasant"
	case moodValue < 55:
		return "Neutral"
	case moodValue < 70:
		return "Slightly Pleasant"
	case moodValue < 85:
		return "Pleasant"
	default:
		return "Very Pleasant"
	}
}

// MoodColor maps a mood value to its accent color.
func MoodColor(moodValue int) string {
	switch {
	case moodValue < 15:
		return "#8a56e8"
	case moodValue < 30:
		return "#5b7bf7"
	case moodValue < 45:
		return "#4a9be8"
	case moodValue < 55:
		return "#5dc7c2"
	case moodValue < 70:
		return "#7ac555"
	case moodValue < 85:
		return "#a8d06c"
	default:
		return "#f0b840"
	}
}

// MoodBackgroundColor maps a mood value to its background tint.
func MoodBackgroundColor(moodValue int) string {
	switch {
	case moodValue < 15:
		return "#e2d9f7"
	case moodValue < 30:
		return "#dce4fd"
	case moodValue < 45:
		return "#d9ebfd"
	case moodValue < 55:
		return "#e6f7f6"
	case moodValue < 70:
		return "#e8f7df"
	case moodValue < 85:
		return "#f0f9e6"
	default:
		return "#fdf6e6"
	}
}

// MoodDescriptors maps a mood value to suggested descriptor tags.
func MoodDescriptors(moodValue int) []string {
	switch {
	case moodValue < 15:
		return []string{"Distressed", "Miserable", "Overwhelmed"}
	case moodValue < 30:
		return []string{"Sad", "Anxious", "Frustrated"}
	case moodValue < 45:
		return []string{"Uneasy", "Concerned", "Tired"}
	case moodValue < 55:
		return []string{"Calm", "Balanced", "Okay"}
	case moodValue < 70:
		return []string{"Content", "Relaxed", "Satisfied"}
	case moodValue < 85:
		return []string{"Happy", "Optimistic", "Energetic"}
	default:
		return []string{"Grateful", "Joyful", "Excited"}
	}
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Course levels.
const (
	CourseLevelBeginner     = "beginner"
	CourseLevelIntermediate = "intermediate"
	CourseLevelAdvanced     = "advanced"
)

// CourseLevels lists every accepted course level.
var CourseLevels = []string{CourseLevelBeginner, CourseLevelIntermediate, CourseLevelAdvanced}

// Course is a lesson series taught by an artist.
type Course struct {
	ID              uuid.UUID `json:"id" db:"id"`
	Title           string    `json:"title" db:"title"`
	Description     *string   `json:"description,omitempty" db:"description"`
	Level           string    `json:"level" db:"level"`
	ArtistID        uuid.UUID `json:"artist_id" db:"artist_id"`
	DurationMinutes int       `json:"duration_minutes" db:"duration_minutes"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// CourseColumns lists the writable and filterable course columns.
var CourseColumns = []string{"title", "description", "level", "artist_id", "duration_minutes"}

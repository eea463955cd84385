package domain

import (
	"time"

	"github.com/google/uuid"
)

// Artist is a performer or instructor that courses can be attached to.
type Artist struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Country   *string   `json:"country,omitempty" db:"country"`
	Genre     *string   `json:"genre,omitempty" db:"genre"`
	Bio       *string   `json:"bio,omitempty" db:"bio"`
	Website   *string   `json:"website,omitempty" db:"website"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ArtistColumns lists the writable and filterable artist columns.
var ArtistColumns = []string{"name", "country", "genre", "bio", "website"}

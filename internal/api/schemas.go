package api

import (
	"github.com/phrazzld/ensemble-api/internal/domain"
	"github.com/phrazzld/ensemble-api/internal/validation"
)

// ArtistSchema declares the fields accepted when creating or updating an artist.
var ArtistSchema = validation.Schema{Fields: []validation.Field{
	{Name: "name", Type: validation.String, Rules: []validation.Rule{
		validation.RequiredRule(), validation.MinLengthRule(1), validation.MaxLengthRule(100),
	}},
	{Name: "country", Type: validation.String, Rules: []validation.Rule{validation.MaxLengthRule(56)}},
	{Name: "genre", Type: validation.String, Rules: []validation.Rule{validation.MaxLengthRule(50)}},
	{Name: "bio", Type: validation.String, Rules: []validation.Rule{validation.MaxLengthRule(2000)}},
	{Name: "website", Type: validation.String, Rules: []validation.Rule{
		validation.URLRule(), validation.MaxLengthRule(255),
	}},
}}

// CourseSchema declares the fields accepted when creating or updating a course.
var CourseSchema = validation.Schema{Fields: []validation.Field{
	{Name: "title", Type: validation.String, Rules: []validation.Rule{
		validation.RequiredRule(), validation.MinLengthRule(3), validation.MaxLengthRule(120),
	}},
	{Name: "description", Type: validation.String, Rules: []validation.Rule{validation.MaxLengthRule(2000)}},
	{Name: "level", Type: validation.String, Rules: []validation.Rule{
		validation.RequiredRule(), validation.OneOfRule(domain.CourseLevels...),
	}},
	{Name: "artist_id", Type: validation.String, Rules: []validation.Rule{
		validation.RequiredRule(), validation.UUIDRule(),
	}},
	{Name: "duration_minutes", Type: validation.Number, Rules: []validation.Rule{
		validation.RequiredRule(), validation.IntegerRule(), validation.MinRule(1), validation.MaxRule(1440),
	}},
}}

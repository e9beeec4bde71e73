package report

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"net/url"

	"github.com/minewatch/minewatch-api/internal/pkg/storage"
	"github.com/minewatch/minewatch-api/internal/pkg/validator"
)

// MaxImages is the most images a single report may carry
const MaxImages = 10

type textFields struct {
	Title       string `json:"title" validate:"notblank,max=200"`
	Description string `json:"description" validate:"notblank,max=5000"`
}

// Validate checks a prepared submission without touching the network.
// Every failing field is reported, not just the first.
func Validate(in CreateInput, maxPhotoBytes int64) *ValidationError {
	verr := &ValidationError{}

	for field, msg := range validator.Validate(&textFields{Title: in.Title, Description: in.Description}) {
		verr.add(field, msg)
	}

	validateLocation(verr, in.Location)
	validateImages(verr, in.ImageURLs, in.Photos, maxPhotoBytes)

	if len(verr.Fields) == 0 {
		return nil
	}
	return verr
}

func validateLocation(verr *ValidationError, loc *Location) {
	switch {
	case loc == nil:
		verr.add("location", "Location is required")
	case loc.Latitude == 0 && loc.Longitude == 0:
		// An untouched map picker submits 0,0
		verr.add("location", "Please provide or detect your location")
	case math.IsNaN(loc.Latitude) || math.IsNaN(loc.Longitude),
		loc.Latitude < -90 || loc.Latitude > 90,
		loc.Longitude < -180 || loc.Longitude > 180:
		verr.add("location", "Coordinates are out of range")
	}
}

func validateImages(verr *ValidationError, urls []string, photos []PhotoFile, maxPhotoBytes int64) {
	total := len(urls) + len(photos)
	switch {
	case total == 0:
		verr.add("images", "At least one image is required")
		return
	case total > MaxImages:
		verr.add("images", fmt.Sprintf("At most %d images are allowed", MaxImages))
		return
	}

	for i, raw := range urls {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			verr.add(fmt.Sprintf("images[%d]", i), "Invalid image URL")
		}
	}

	for i, p := range photos {
		field := fmt.Sprintf("photos[%d]", i)
		_, _, err := storage.ValidateFile(bytes.NewReader(p.Data), storage.CategoryReport, maxPhotoBytes)
		switch {
		case err == nil:
		case errors.Is(err, storage.ErrFileTooLarge):
			verr.add(field, fmt.Sprintf("%s is larger than %d MB", p.Filename, maxPhotoBytes/(1024*1024)))
		case errors.Is(err, storage.ErrInvalidMimeType):
			verr.add(field, fmt.Sprintf("%s is not a JPEG, PNG, WebP or GIF image", p.Filename))
		case errors.Is(err, storage.ErrEmptyFile):
			verr.add(field, fmt.Sprintf("%s is empty", p.Filename))
		default:
			verr.add(field, err.Error())
		}
	}
}

package exif

import (
	"fmt"
	"strings"
)

const unknown = "Unknown"

// UnsupportedFormatError reports an image whose camera make is not Fujifilm
// on the recipe endpoint. The policy is an explicit check, never a silently
// empty recipe.
type UnsupportedFormatError struct {
	Make string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Make == "" {
		return "image carries no camera make; Fujifilm recipe data requires a Fujifilm image"
	}
	return fmt.Sprintf("camera make %q is not Fujifilm; recipe data is only present in Fujifilm images", e.Make)
}

// RecipeDetails is the fixed subset of maker-note fields that describe an
// in-camera film-simulation recipe. Tag names follow exiftool's output.
type RecipeDetails struct {
	FilmSimulation  string `json:"FilmSimulation"`
	DynamicRange    string `json:"DynamicRange"`
	GrainEffect     string `json:"GrainEffect"`
	ColorChrome     string `json:"ColorChrome"`
	ColorChromeBlue string `json:"ColorChromeBlue"`
	WhiteBalance    string `json:"WhiteBalance"`
	WBShift         string `json:"WBShift"`
	Highlights      string `json:"Highlights"`
	Shadows         string `json:"Shadows"`
	Color           string `json:"Color"`
	Sharpness       string `json:"Sharpness"`
	NoiseReduction  string `json:"NoiseReduction"`
	Clarity         string `json:"Clarity"`
}

// RecipeReport is the full recipe response: the recipe itself plus the shot
// envelope it was captured with.
type RecipeReport struct {
	Filename     string        `json:"filename"`
	Recipe       string        `json:"recipe"`
	Details      RecipeDetails `json:"recipe_details"`
	Date         string        `json:"date"`
	CameraModel  string        `json:"camera_model"`
	LensModel    string        `json:"lens_model"`
	Aperture     string        `json:"aperture"`
	ShutterSpeed string        `json:"shutter_speed"`
	ISO          string        `json:"iso"`
	FocalLength  string        `json:"focal_length"`
}

// IsFujifilm reports whether the record's camera make identifies a Fujifilm
// body.
func IsFujifilm(r Record) bool {
	return strings.Contains(strings.ToUpper(r.String("Make")), "FUJIFILM")
}

// FujiRecipe extracts the Fujifilm recipe subset from a record. It fails
// with UnsupportedFormatError when the camera make is not Fujifilm.
func FujiRecipe(r Record, filename string) (*RecipeReport, error) {
	if !IsFujifilm(r) {
		return nil, &UnsupportedFormatError{Make: r.String("Make")}
	}

	filmSim := r.stringOr(unknown, "FilmMode", "FilmSimulation")

	details := RecipeDetails{
		FilmSimulation:  filmSim,
		DynamicRange:    r.stringOr(unknown, "DynamicRange"),
		GrainEffect:     r.stringOr(unknown, "GrainEffectRoughness", "GrainEffect"),
		ColorChrome:     r.stringOr(unknown, "ColorChromeEffect", "ColorChrome"),
		ColorChromeBlue: r.stringOr(unknown, "ColorChromeFXBlue", "ColorChromeBlue"),
		WhiteBalance:    r.stringOr(unknown, "WhiteBalance"),
		WBShift:         r.stringOr(unknown, "WhiteBalanceFineTune"),
		Highlights:      r.stringOr(unknown, "HighlightTone"),
		Shadows:         r.stringOr(unknown, "ShadowTone"),
		Color:           r.stringOr(unknown, "Saturation"),
		Sharpness:       r.stringOr(unknown, "Sharpness"),
		NoiseReduction:  r.stringOr(unknown, "NoiseReduction"),
		Clarity:         r.stringOr(unknown, "Clarity"),
	}

	return &RecipeReport{
		Filename:     filename,
		Recipe:       recipeName(filmSim),
		Details:      details,
		Date:         r.stringOr("Unknown Date", "DateTimeOriginal"),
		CameraModel:  r.stringOr("Unknown Camera", "Model"),
		LensModel:    r.stringOr("Unknown Lens", "LensModel"),
		Aperture:     r.stringOr(unknown, "Aperture"),
		ShutterSpeed: r.stringOr(unknown, "ShutterSpeed"),
		ISO:          r.stringOr(unknown, "ISO"),
		FocalLength:  r.stringOr(unknown, "FocalLength"),
	}, nil
}

// recipeName trims exiftool's "F0/Provia" style film mode down to the bare
// simulation name.
func recipeName(filmSim string) string {
	if idx := strings.Index(filmSim, "/"); idx >= 0 && idx+1 < len(filmSim) {
		return strings.TrimSpace(filmSim[idx+1:])
	}
	return filmSim
}

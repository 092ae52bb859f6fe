package exif

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// DefaultTemplate is used by the rename endpoint when the caller supplies no
// format string.
const DefaultTemplate = "{date}_{camera}"

// UnresolvedPlaceholderError reports a template placeholder that could not be
// filled from the record. Unresolved placeholders fail the request rather
// than silently substituting blanks.
type UnresolvedPlaceholderError struct {
	Field string
}

func (e *UnresolvedPlaceholderError) Error() string {
	return fmt.Sprintf("template placeholder %q could not be resolved from the image metadata", e.Field)
}

var placeholderRe = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// Fields derives the filename-template vocabulary from a record. Only fields
// the record actually carries are present; resolution against a missing field
// is an error, not a blank.
func Fields(r Record) map[string]string {
	fields := make(map[string]string)

	if date := r.String("DateTimeOriginal"); date != "" {
		fields["date"] = formatDate(date)
	}
	if camera := r.String("Model"); camera != "" {
		fields["camera"] = strings.ReplaceAll(camera, " ", "_")
	}
	if lens := r.String("LensModel"); lens != "" {
		fields["lens"] = strings.ReplaceAll(lens, " ", "_")
	}
	if aperture := r.String("Aperture"); aperture != "" {
		fields["aperture"] = "f" + aperture
	}
	if shutter := r.String("ShutterSpeed"); shutter != "" {
		fields["shutter"] = shutter + "s"
	}
	if iso := r.String("ISO"); iso != "" {
		fields["iso"] = "ISO" + iso
	}
	if focal := r.String("FocalLength"); focal != "" {
		fields["focal"] = strings.ReplaceAll(focal, " ", "")
	}

	return fields
}

// ResolveTemplate substitutes {name} placeholders in tmpl using fields.
// A placeholder with no non-empty field value fails with
// UnresolvedPlaceholderError naming the missing field.
func ResolveTemplate(tmpl string, fields map[string]string) (string, error) {
	var unresolved string
	out := placeholderRe.ReplaceAllStringFunc(tmpl, func(match string) string {
		name := match[1 : len(match)-1]
		value, ok := fields[name]
		if !ok || value == "" {
			if unresolved == "" {
				unresolved = name
			}
			return match
		}
		return value
	})
	if unresolved != "" {
		return "", &UnresolvedPlaceholderError{Field: unresolved}
	}
	return out, nil
}

// ProposeFilename resolves tmpl against the record and re-appends the
// original upload's extension. The result is sanitized for filesystem use.
func ProposeFilename(r Record, tmpl, originalName string) (string, error) {
	if tmpl == "" {
		tmpl = DefaultTemplate
	}

	resolved, err := ResolveTemplate(tmpl, Fields(r))
	if err != nil {
		return "", err
	}

	return sanitizeFilename(resolved) + filepath.Ext(originalName), nil
}

// formatDate makes an exiftool timestamp ("2023:01:15 10:04:00") safe for
// filenames.
func formatDate(date string) string {
	date = strings.ReplaceAll(date, ":", "")
	return strings.ReplaceAll(date, " ", "_")
}

var invalidFilenameChars = strings.NewReplacer(
	"<", "_", ">", "_", ":", "_", `"`, "_", "/", "_",
	`\`, "_", "|", "_", "?", "_", "*", "_",
)

// sanitizeFilename replaces characters that are unsafe in filenames and caps
// the length at 255 bytes.
func sanitizeFilename(name string) string {
	name = invalidFilenameChars.Replace(name)
	if len(name) > 255 {
		name = name[:255]
	}
	return name
}

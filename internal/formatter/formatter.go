// package formatter renders comparison results as plain text, JSON, CSV or Markdown
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/incommon/internal/models"
	"github.com/desertthunder/incommon/internal/services"
	"github.com/desertthunder/incommon/internal/shared"
)

// Format names an export format.
type Format string

const (
	Text     Format = "text"
	JSON     Format = "json"
	CSV      Format = "csv"
	Markdown Format = "markdown"
)

// Ext is the file extension used when an export is written without an explicit name.
func (f Format) Ext() string {
	switch f {
	case Text:
		return "txt"
	case Markdown:
		return "md"
	default:
		return string(f)
	}
}

// Formats lists the supported formats in help-text order.
var Formats = []Format{Text, JSON, CSV, Markdown}

// ParseFormat validates a --format value. "md" and "txt" are accepted as aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return Text, nil
	case "json":
		return JSON, nil
	case "csv":
		return CSV, nil
	case "markdown", "md":
		return Markdown, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, s)
	}
}

// Stars renders a 0-5 rating as full stars plus a trailing half star ("★★★½"). Unrated is "".
func Stars(rating *float64) string {
	if rating == nil {
		return ""
	}
	whole := math.Floor(*rating)
	s := strings.Repeat("★", int(whole))
	if *rating-whole > 0 {
		s += "½"
	}
	return s
}

// Poster returns ref, or the placeholder poster when ref is empty.
func Poster(ref string) string {
	if ref == "" {
		return services.PlaceholderPoster
	}
	return ref
}

// Avatar returns ref, or the placeholder avatar when ref is empty.
func Avatar(ref string) string {
	if ref == "" {
		return services.PlaceholderAvatar
	}
	return ref
}

// Summary is the one-line headline of a comparison.
func Summary(result *models.ComparisonResult) string {
	noun := "films"
	if len(result.Pairs) == 1 {
		noun = "film"
	}
	return fmt.Sprintf("%s and %s have %d %s in common",
		result.IdentityA.DisplayName, result.IdentityB.DisplayName, len(result.Pairs), noun)
}

func ratingString(r *float64) string {
	if r == nil {
		return ""
	}
	return strconv.FormatFloat(*r, 'f', 1, 64)
}

// Side renders one member's view of a film: category and stars.
func Side(r models.Record) string {
	if stars := Stars(r.Rating); stars != "" {
		return fmt.Sprintf("%s %s", r.Category, stars)
	}
	return r.Category.String()
}

// Export renders result in format. site supplies film links.
func Export(result *models.ComparisonResult, format Format, site *services.Site) ([]byte, error) {
	switch format {
	case Text:
		return ExportToText(result)
	case JSON:
		return ExportToJSON(result)
	case CSV:
		return ExportToCSV(result, site)
	case Markdown:
		return ExportToMarkdown(result, site)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
}

// ExportToText converts a ComparisonResult to plain text, one film per line
func ExportToText(result *models.ComparisonResult) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(Summary(result) + "\n\n")

	a, b := result.IdentityA.DisplayName, result.IdentityB.DisplayName
	for i, p := range result.Pairs {
		buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, p.Title()))
		buf.WriteString(fmt.Sprintf("   %s: %s | %s: %s\n", a, Side(p.OwnerA), b, Side(p.OwnerB)))
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts a ComparisonResult to indented JSON
func ExportToJSON(result *models.ComparisonResult) ([]byte, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportToCSV converts a ComparisonResult to CSV with one row per shared film
func ExportToCSV(result *models.ComparisonResult, site *services.Site) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	a, b := result.IdentityA.Handle, result.IdentityB.Handle
	headers := []string{"Key", "Title", "URL", "Poster",
		a + "_category", a + "_rating", b + "_category", b + "_rating"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, p := range result.Pairs {
		record := []string{
			p.Key,
			p.Title(),
			site.FilmURL(p.Key),
			Poster(p.ImageRef()),
			p.OwnerA.Category.String(),
			ratingString(p.OwnerA.Rating),
			p.OwnerB.Category.String(),
			ratingString(p.OwnerB.Rating),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a ComparisonResult to a Markdown table with posters and links
func ExportToMarkdown(result *models.ComparisonResult, site *services.Site) ([]byte, error) {
	var buf bytes.Buffer
	idA, idB := result.IdentityA, result.IdentityB

	buf.WriteString(fmt.Sprintf("# %s & %s\n\n", idA.DisplayName, idB.DisplayName))
	buf.WriteString(fmt.Sprintf("![%s](%s) [%s](%s) · ![%s](%s) [%s](%s)\n\n",
		idA.Handle, Avatar(idA.AvatarRef), idA.DisplayName, site.ProfileURL(idA.Handle),
		idB.Handle, Avatar(idB.AvatarRef), idB.DisplayName, site.ProfileURL(idB.Handle)))
	buf.WriteString(fmt.Sprintf("**%s**\n\n", Summary(result)))

	if len(result.Pairs) == 0 {
		return buf.Bytes(), nil
	}

	buf.WriteString(fmt.Sprintf("| | Film | %s | %s |\n", escapeCell(idA.DisplayName), escapeCell(idB.DisplayName)))
	buf.WriteString("|---|---|---|---|\n")
	for _, p := range result.Pairs {
		title := escapeCell(p.Title())
		buf.WriteString(fmt.Sprintf("| ![%s](%s) | [%s](%s) | %s | %s |\n",
			title, Poster(p.ImageRef()), title, site.FilmURL(p.Key), Side(p.OwnerA), Side(p.OwnerB)))
	}

	return buf.Bytes(), nil
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// WriteExport renders result and writes it to path.
func WriteExport(result *models.ComparisonResult, format Format, site *services.Site, path string) error {
	data, err := Export(result, format, site)
	if err != nil {
		return fmt.Errorf("failed to generate %s: %w", format, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s file: %w", format, err)
	}
	return nil
}

package gyazo

import (
	"cmp"
	"encoding/json"
	"fmt"
	"maps"
	"strings"
	"time"
)

// TimeLayout is the layout used when serializing created_at.
const TimeLayout = "2006-01-02T15:04:05-0700"

// createdAtLayouts are tried in order when decoding created_at.
var createdAtLayouts = []string{
	TimeLayout,
	time.RFC3339Nano,
}

// Image represents a single image hosted on Gyazo.
// Every field is optional; the zero value of a field means the server did not
// return it for this record.
type Image struct {
	CreatedAt    *time.Time
	ImageID      string
	PermalinkURL string
	ThumbURL     string
	Type         string
	URL          string
	OCR          map[string]string
}

// imageJSON is the wire representation of an Image
type imageJSON struct {
	CreatedAt    string            `json:"created_at"`
	ImageID      string            `json:"image_id"`
	PermalinkURL string            `json:"permalink_url"`
	ThumbURL     string            `json:"thumb_url"`
	Type         string            `json:"type"`
	URL          string            `json:"url"`
	OCR          map[string]string `json:"ocr"`
}

// toImage normalizes the wire form: empty values become absent.
func (w imageJSON) toImage() (Image, error) {
	img := Image{
		ImageID:      w.ImageID,
		PermalinkURL: w.PermalinkURL,
		ThumbURL:     w.ThumbURL,
		Type:         w.Type,
		URL:          w.URL,
	}

	if w.CreatedAt != "" {
		t, err := ParseTime(w.CreatedAt)
		if err != nil {
			return Image{}, err
		}
		img.CreatedAt = &t
	}

	if len(w.OCR) > 0 {
		img.OCR = w.OCR
	}

	return img, nil
}

// ParseTime parses an ISO-8601 timestamp with a numeric UTC offset.
func ParseTime(value string) (time.Time, error) {
	var firstErr error
	for _, layout := range createdAtLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, fmt.Errorf("invalid created_at %q: %w", value, firstErr)
}

// ImageFromMap builds an Image from an already decoded JSON object.
func ImageFromMap(data map[string]any) (Image, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Image{}, err
	}
	var img Image
	if err := json.Unmarshal(raw, &img); err != nil {
		return Image{}, err
	}
	return img, nil
}

// UnmarshalJSON implements json.Unmarshaler
func (i *Image) UnmarshalJSON(data []byte) error {
	var w imageJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	img, err := w.toImage()
	if err != nil {
		return err
	}

	*i = img
	return nil
}

// MarshalJSON implements json.Marshaler. Only present fields are emitted.
func (i Image) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.ToMap())
}

// ToMap returns a plain map containing only the present fields
func (i Image) ToMap() map[string]any {
	data := make(map[string]any, 7)

	if i.CreatedAt != nil {
		data["created_at"] = i.CreatedAt.Format(TimeLayout)
	}
	if i.ImageID != "" {
		data["image_id"] = i.ImageID
	}
	if i.PermalinkURL != "" {
		data["permalink_url"] = i.PermalinkURL
	}
	if i.ThumbURL != "" {
		data["thumb_url"] = i.ThumbURL
	}
	if i.Type != "" {
		data["type"] = i.Type
	}
	if i.URL != "" {
		data["url"] = i.URL
	}
	if len(i.OCR) > 0 {
		data["ocr"] = maps.Clone(i.OCR)
	}

	return data
}

// JSON renders the image as JSON with keys sorted. An empty indent produces
// compact output.
func (i Image) JSON(indent string) ([]byte, error) {
	if indent == "" {
		return json.Marshal(i)
	}
	return json.MarshalIndent(i, "", indent)
}

// String returns the compact JSON representation
func (i Image) String() string {
	b, err := i.JSON("")
	if err != nil {
		return fmt.Sprintf("gyazo.Image(%s)", i.ImageID)
	}
	return string(b)
}

// Equal reports whether both images carry the same values.
// Timestamps are compared as instants.
func (i Image) Equal(other Image) bool {
	if (i.CreatedAt == nil) != (other.CreatedAt == nil) {
		return false
	}
	if i.CreatedAt != nil && !i.CreatedAt.Equal(*other.CreatedAt) {
		return false
	}
	return i.ImageID == other.ImageID &&
		i.PermalinkURL == other.PermalinkURL &&
		i.ThumbURL == other.ThumbURL &&
		i.Type == other.Type &&
		i.URL == other.URL &&
		maps.Equal(i.OCR, other.OCR)
}

// Merge combines two views of the same image. Values present on i win; the
// OCR maps are unioned with i's entries winning on collisions.
func (i Image) Merge(other Image) Image {
	merged := Image{
		CreatedAt:    i.CreatedAt,
		ImageID:      cmp.Or(i.ImageID, other.ImageID),
		PermalinkURL: cmp.Or(i.PermalinkURL, other.PermalinkURL),
		ThumbURL:     cmp.Or(i.ThumbURL, other.ThumbURL),
		Type:         cmp.Or(i.Type, other.Type),
		URL:          cmp.Or(i.URL, other.URL),
	}
	if merged.CreatedAt == nil {
		merged.CreatedAt = other.CreatedAt
	}

	if len(i.OCR) > 0 || len(other.OCR) > 0 {
		merged.OCR = make(map[string]string, len(i.OCR)+len(other.OCR))
		maps.Copy(merged.OCR, other.OCR)
		maps.Copy(merged.OCR, i.OCR)
	}

	return merged
}

// Merge is the function form of Image.Merge
func Merge(left, right Image) Image {
	return left.Merge(right)
}

// Filename returns the last path segment of URL, or "" if URL is absent
func (i Image) Filename() string {
	return lastSegment(i.URL)
}

// ThumbFilename returns the last path segment of ThumbURL, or "" if absent
func (i Image) ThumbFilename() string {
	return lastSegment(i.ThumbURL)
}

// LocalCreatedAt returns CreatedAt in the local time zone
func (i Image) LocalCreatedAt() (time.Time, bool) {
	if i.CreatedAt == nil {
		return time.Time{}, false
	}
	return i.CreatedAt.Local(), true
}

func lastSegment(s string) string {
	if s == "" {
		return ""
	}
	return s[strings.LastIndex(s, "/")+1:]
}

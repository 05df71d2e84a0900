package gyazo

import (
	"strconv"
	"time"
)

// UploadOptions holds the optional form fields sent with an upload.
// Zero values are omitted from the request.
type UploadOptions struct {
	// Filename is the name given to the file part; defaults to "image"
	Filename     string
	RefererURL   string
	Title        string
	Desc         string
	CreatedAt    *time.Time
	CollectionID string
}

// formField is one name/value pair of the upload form
type formField struct {
	name  string
	value string
}

// formFields returns the present optional fields in a fixed order
func (o *UploadOptions) formFields() []formField {
	if o == nil {
		return nil
	}

	var fields []formField
	add := func(name, value string) {
		if value != "" {
			fields = append(fields, formField{name: name, value: value})
		}
	}

	add("referer_url", o.RefererURL)
	add("title", o.Title)
	add("desc", o.Desc)
	if o.CreatedAt != nil {
		add("created_at", strconv.FormatInt(o.CreatedAt.Unix(), 10))
	}
	add("collection_id", o.CollectionID)

	return fields
}

func (o *UploadOptions) filename() string {
	if o == nil || o.Filename == "" {
		return "image"
	}
	return o.Filename
}

// OEmbed is the decoded oEmbed document for a Gyazo page.
// Keys follow oembed.com (type, version, url, width, ...).
type OEmbed map[string]any

// String returns the value of a string key, or "" if missing
func (o OEmbed) String(key string) string {
	if v, ok := o[key].(string); ok {
		return v
	}
	return ""
}

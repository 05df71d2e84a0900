package gyazo

import (
	"encoding/json"
	"net/http"
	"slices"
	"strconv"
)

// Pagination headers returned by the list endpoint
const (
	HeaderTotalCount  = "X-Total-Count"
	HeaderCurrentPage = "X-Current-Page"
	HeaderPerPage     = "X-Per-Page"
	HeaderUserType    = "X-User-Type"
)

// ImageCollection is an ordered list of images plus optional paging data.
// TotalCount, CurrentPage and PerPage are nil unless set from one response.
type ImageCollection struct {
	Images      []Image
	TotalCount  *int
	CurrentPage *int
	PerPage     *int
	UserType    string
}

// NewImageCollection creates a collection without paging data
func NewImageCollection(images ...Image) *ImageCollection {
	return &ImageCollection{Images: images}
}

// Len returns the number of images
func (c *ImageCollection) Len() int {
	return len(c.Images)
}

// SetAttributesFromHeaders populates the paging fields from response headers.
// TotalCount, CurrentPage and PerPage are set together: if any of the three
// headers is missing, all three stay nil. A malformed value is an error.
func (c *ImageCollection) SetAttributesFromHeaders(headers http.Header) error {
	total, err := intHeader(headers, HeaderTotalCount)
	if err != nil {
		return err
	}
	current, err := intHeader(headers, HeaderCurrentPage)
	if err != nil {
		return err
	}
	perPage, err := intHeader(headers, HeaderPerPage)
	if err != nil {
		return err
	}

	c.TotalCount, c.CurrentPage, c.PerPage = nil, nil, nil
	if total != nil && current != nil && perPage != nil {
		c.TotalCount = total
		c.CurrentPage = current
		c.PerPage = perPage
	}
	c.UserType = headers.Get(HeaderUserType)
	return nil
}

func intHeader(headers http.Header, name string) (*int, error) {
	value := headers.Get(name)
	if value == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return nil, &DecodeError{Body: []byte(value), Err: err}
	}
	return &n, nil
}

// NumPages returns ceil(TotalCount / PerPage)
func (c *ImageCollection) NumPages() (int, bool) {
	if c.TotalCount == nil || c.PerPage == nil || *c.PerPage <= 0 {
		return 0, false
	}
	return (*c.TotalCount + *c.PerPage - 1) / *c.PerPage, true
}

// HasNextPage reports whether CurrentPage < NumPages.
// The second result is false when any paging field is missing.
func (c *ImageCollection) HasNextPage() (bool, bool) {
	numPages, ok := c.NumPages()
	if !ok || c.CurrentPage == nil {
		return false, false
	}
	return *c.CurrentPage < numPages, true
}

// HasPreviousPage reports whether CurrentPage > 1
func (c *ImageCollection) HasPreviousPage() (bool, bool) {
	if c.CurrentPage == nil {
		return false, false
	}
	return *c.CurrentPage > 1, true
}

// Concat returns left's images followed by right's. The result describes no
// single server page, so only TotalCount is set.
func Concat(left, right *ImageCollection) *ImageCollection {
	images := make([]Image, 0, left.Len()+right.Len())
	images = append(images, left.Images...)
	images = append(images, right.Images...)

	total := len(images)
	return &ImageCollection{Images: images, TotalCount: &total}
}

// Union deduplicates both collections by ThumbURL. Within one collection a
// later duplicate replaces an earlier one. Images present on both sides are
// merged with left's image winning. The result is sorted by CreatedAt,
// newest first; images without CreatedAt go last.
// Images without a ThumbURL have no identity and are all kept.
func Union(left, right *ImageCollection) *ImageCollection {
	leftKeys, leftIndex, images := indexByThumb(left)
	rightKeys, rightIndex, loose := indexByThumb(right)
	images = append(images, loose...)

	for _, key := range leftKeys {
		img := leftIndex[key]
		if other, ok := rightIndex[key]; ok {
			img = img.Merge(other)
		}
		images = append(images, img)
	}
	for _, key := range rightKeys {
		if _, ok := leftIndex[key]; !ok {
			images = append(images, rightIndex[key])
		}
	}

	slices.SortStableFunc(images, func(a, b Image) int {
		switch {
		case a.CreatedAt == nil && b.CreatedAt == nil:
			return 0
		case a.CreatedAt == nil:
			return 1
		case b.CreatedAt == nil:
			return -1
		}
		return b.CreatedAt.Compare(*a.CreatedAt)
	})

	total := len(images)
	return &ImageCollection{Images: images, TotalCount: &total}
}

// indexByThumb keys images by ThumbURL, keeping first-seen key order and the
// last image per key. Images without a ThumbURL are returned separately.
func indexByThumb(c *ImageCollection) ([]string, map[string]Image, []Image) {
	var (
		keys  []string
		loose []Image
	)
	index := make(map[string]Image, c.Len())

	for _, img := range c.Images {
		if img.ThumbURL == "" {
			loose = append(loose, img)
			continue
		}
		if _, ok := index[img.ThumbURL]; !ok {
			keys = append(keys, img.ThumbURL)
		}
		index[img.ThumbURL] = img
	}
	return keys, index, loose
}

// ToList returns the images as plain maps
func (c *ImageCollection) ToList() []map[string]any {
	list := make([]map[string]any, 0, len(c.Images))
	for _, img := range c.Images {
		list = append(list, img.ToMap())
	}
	return list
}

// MarshalJSON encodes the images as a JSON array
func (c *ImageCollection) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.ToList())
}

// UnmarshalJSON decodes a JSON array of images. Paging fields are untouched.
func (c *ImageCollection) UnmarshalJSON(data []byte) error {
	var images []Image
	if err := json.Unmarshal(data, &images); err != nil {
		return err
	}
	c.Images = images
	return nil
}

// JSON renders the images as a JSON array. An empty indent produces compact
// output.
func (c *ImageCollection) JSON(indent string) ([]byte, error) {
	if indent == "" {
		return json.Marshal(c)
	}
	return json.MarshalIndent(c, "", indent)
}

package models

import "encoding/json"

// SearchEntry is one completed search: the stored query image plus the
// ranked result set. Entries are write-once; the auto-incremented ID gives
// the ledger its most-recent-first read order (ORDER BY id DESC).
type SearchEntry struct {
	ID            uint           `json:"-" gorm:"primaryKey"`
	PublicID      string         `json:"id" gorm:"uniqueIndex;not null"`
	UserID        uint           `json:"-" gorm:"index;not null"`
	QueryImageURL string         `json:"query_image_url" gorm:"not null"`
	ExecutedAt    int64          `json:"timestamp" gorm:"not null"` // Unix timestamp
	Total         int            `json:"total" gorm:"not null"`
	Results       []SearchResult `json:"-" gorm:"foreignKey:EntryID;references:ID"`
}

func (SearchEntry) TableName() string {
	return "search_entries"
}

// SearchResult links an entry to one result image at a given rank. Rank 0 is
// the best match; the engine-supplied order is preserved, never re-sorted.
type SearchResult struct {
	ID      uint   `json:"-" gorm:"primaryKey"`
	EntryID uint   `json:"-" gorm:"index;not null"`
	Rank    int    `json:"rank" gorm:"not null"`
	ImageID string `json:"-" gorm:"not null"`
	Image   Image  `json:"image" gorm:"foreignKey:ImageID;references:ID"`
}

func (SearchResult) TableName() string {
	return "search_results"
}

// ResultImages returns the ranked result images in engine order.
func (e *SearchEntry) ResultImages() []Image {
	images := make([]Image, len(e.Results))
	for i, r := range e.Results {
		images[i] = r.Image
	}
	return images
}

// searchEntryJSON is the wire shape of an entry: results appear as a ranked
// image array, matching what the rendering surface consumes.
type searchEntryJSON struct {
	ID            string  `json:"id"`
	QueryImageURL string  `json:"query_image_url"`
	ExecutedAt    int64   `json:"timestamp"`
	Total         int     `json:"total"`
	Results       []Image `json:"results"`
}

func (e SearchEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(searchEntryJSON{
		ID:            e.PublicID,
		QueryImageURL: e.QueryImageURL,
		ExecutedAt:    e.ExecutedAt,
		Total:         e.Total,
		Results:       e.ResultImages(),
	})
}

// UnmarshalJSON rebuilds the rank rows from array order, so a serialized
// entry graph decodes back field-for-field.
func (e *SearchEntry) UnmarshalJSON(data []byte) error {
	var wire searchEntryJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	e.PublicID = wire.ID
	e.QueryImageURL = wire.QueryImageURL
	e.ExecutedAt = wire.ExecutedAt
	e.Total = wire.Total
	e.Results = make([]SearchResult, len(wire.Results))
	for i, img := range wire.Results {
		e.Results[i] = SearchResult{Rank: i, ImageID: img.ID, Image: img}
	}
	return nil
}

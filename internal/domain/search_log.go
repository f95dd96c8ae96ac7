package domain

import "time"

// SearchLog records one served search request.
type SearchLog struct {
	ID            string    `gorm:"type:text;primaryKey" json:"id"`
	Query         string    `gorm:"type:text;not null" json:"query"`
	ExpandedQuery string    `gorm:"type:text" json:"expanded_query"`
	TopK          int       `gorm:"not null" json:"top_k"`
	ResultCount   int       `gorm:"default:0" json:"result_count"`
	TopIndex      *int      `json:"top_index,omitempty"`
	DurationMs    int64     `json:"duration_ms"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
}

// TableName returns the database table name for SearchLog.
// Parameters: none.
// Returns:
//   - string: table name for GORM mapping.
func (SearchLog) TableName() string {
	return "search_logs"
}

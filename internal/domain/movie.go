package domain

// NotAvailable is the provider sentinel used when no streaming provider could be resolved.
const NotAvailable = "No disponible"

// Catalog column names shared by the metadata table and the index builder.
const (
	ColTitle         = "title"
	ColTitleES       = "title_es"
	ColGenre         = "genre"
	ColGenreES       = "genre_es"
	ColDescription   = "description"
	ColDescriptionES = "description_es"
	ColYear          = "year"
	ColProviders     = "providers"
	ColTextES        = "text_es"
)

// CatalogEntry is one movie of the catalog. Index is the row position and the
// join key with the vector index.
//
// Record carries every column of the persisted metadata row, including the
// ones mirrored into the typed fields. Values are never NaN markers.
type CatalogEntry struct {
	Index         int
	Title         string
	TitleES       string
	Genre         string
	GenreES       string
	Description   string
	DescriptionES string
	Year          string
	Providers     string
	TextES        string
	Record        map[string]string
}

// NewCatalogEntry builds an entry from a column-keyed record.
func NewCatalogEntry(index int, record map[string]string) CatalogEntry {
	return CatalogEntry{
		Index:         index,
		Title:         record[ColTitle],
		TitleES:       record[ColTitleES],
		Genre:         record[ColGenre],
		GenreES:       record[ColGenreES],
		Description:   record[ColDescription],
		DescriptionES: record[ColDescriptionES],
		Year:          record[ColYear],
		Providers:     record[ColProviders],
		TextES:        record[ColTextES],
		Record:        record,
	}
}

// Match is a catalog entry paired with its inner-product similarity to a query.
type Match struct {
	Entry CatalogEntry
	Score float32
}

// Enrichment holds the externally resolved display data for one movie.
// Poster and TrailerID are nil when nothing was found.
type Enrichment struct {
	Poster    *string
	TrailerID *string
	WatchOn   []string
}

// EnrichedMovie is one record of a search response.
type EnrichedMovie struct {
	Match
	Enrichment
}

// ToMap flattens the movie into the response shape: every metadata column
// plus score, poster, trailer_id and watch_on.
func (m EnrichedMovie) ToMap() map[string]interface{} {
	out := make(map[string]interface{}, len(m.Entry.Record)+4)
	for k, v := range m.Entry.Record {
		out[k] = v
	}
	out["score"] = m.Score
	out["poster"] = m.Poster
	out["trailer_id"] = m.TrailerID

	watchOn := m.WatchOn
	if len(watchOn) == 0 {
		watchOn = []string{NotAvailable}
	}
	out["watch_on"] = watchOn
	return out
}

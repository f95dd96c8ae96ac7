package service

import "strings"

// DefaultSynonyms is the fixed Spanish thesaurus used for query expansion.
var DefaultSynonyms = map[string][]string{
	"comedia":        {"humor", "divertida"},
	"terror":         {"horror", "miedo"},
	"espacio":        {"astronave", "planeta", "galaxia"},
	"romance":        {"amor", "pareja", "relación"},
	"robots":         {"androides", "ia", "inteligencia artificial"},
	"extraterrestre": {"alien", "alienígena", "ufo"},
	"accion":         {"disparos", "pelea", "lucha"},
	"misterio":       {"suspenso", "enigmas"},
}

// QueryExpansionService appends thesaurus synonyms to search queries.
type QueryExpansionService struct {
	synonyms map[string][]string
}

// NewQueryExpansionService creates an expander. A nil table uses DefaultSynonyms.
func NewQueryExpansionService(synonyms map[string][]string) *QueryExpansionService {
	if synonyms == nil {
		synonyms = DefaultSynonyms
	}
	return &QueryExpansionService{synonyms: synonyms}
}

// Expand returns query followed by the synonyms of every matching token, in
// token order. Without a match the query is returned untouched.
func (s *QueryExpansionService) Expand(query string) string {
	var extra []string
	for _, tok := range strings.Fields(strings.ToLower(query)) {
		extra = append(extra, s.synonyms[tok]...)
	}
	if len(extra) == 0 {
		return query
	}
	return query + " " + strings.Join(extra, " ")
}

package service

import (
	"fmt"
	"strings"

	"github.com/Lukita-it/buscador-semantico/internal/domain"
)

// buildEmbeddingText composes the Spanish text embedded for one catalog entry.
// Missing parts are already "" by the time they reach here.
func buildEmbeddingText(titleES, genreES, descriptionES, providers string) string {
	return fmt.Sprintf("%s. %s. %s. Disponible en: %s", titleES, genreES, descriptionES, providers)
}

// joinProviders renders provider names for the metadata table, falling back
// to the "not available" sentinel.
func joinProviders(names []string) string {
	names = dedupeStrings(names)
	if len(names) == 0 {
		return domain.NotAvailable
	}
	return strings.Join(names, ", ")
}

// dedupeStrings drops empty and repeated values, keeping first occurrences.
func dedupeStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

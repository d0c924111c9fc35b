// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package paginate walks token-paginated Matrix endpoints (room
// hierarchy, room messages) and accumulates results with duplicate
// suppression.
//
// Every page request is capped at [MaxPageSize] items regardless of the
// total the caller asked for. A walk ends when the limit is reached,
// when the server returns an empty page, when the server stops
// returning a continuation token, or when the server returns a token it
// already returned earlier in the walk. A missing token is definitive:
// the walker never retries a page.
package paginate

import (
	"context"
	"fmt"
)

// MaxPageSize is the largest page requested from the server.
const MaxPageSize = 100

// Page is one server response: the items and the token for the next
// page. An empty Next means there are no further pages.
type Page[T any] struct {
	Items []T
	Next  string
}

// Walker accumulates items from a paginated endpoint.
type Walker[T any] struct {
	// Fetch requests one page starting at token ("" for the first page)
	// with at most limit items.
	Fetch func(ctx context.Context, token string, limit int) (Page[T], error)

	// Key identifies an item for duplicate suppression. Items with an
	// empty key are never deduplicated.
	Key func(T) string

	// Keep filters items. Items for which Keep returns false are not
	// counted against the limit. Nil keeps everything. When Keep is
	// set, every page requests MaxPageSize items because the fraction
	// of matching items is unknown.
	Keep func(T) bool

	// MaxPages bounds the number of requests for a walk whose filter
	// rarely matches. Zero means unbounded.
	MaxPages int
}

// Stats describes a finished walk.
type Stats struct {
	Pages      int
	Scanned    int
	Duplicates int
	// Exhausted is true when the walk ended because the server had no
	// more pages, as opposed to reaching the limit or MaxPages.
	Exhausted bool
}

// Walk fetches pages until limit items are collected or the server runs
// out. A limit <= 0 collects every page.
func (w *Walker[T]) Walk(ctx context.Context, limit int) ([]T, Stats, error) {
	var (
		results []T
		stats   Stats
		token   string
	)
	seenKeys := make(map[string]struct{})
	seenTokens := make(map[string]struct{})

	for limit <= 0 || len(results) < limit {
		if w.MaxPages > 0 && stats.Pages >= w.MaxPages {
			return results, stats, nil
		}
		if err := ctx.Err(); err != nil {
			return results, stats, err
		}

		pageSize := MaxPageSize
		if w.Keep == nil && limit > 0 {
			pageSize = min(limit-len(results), MaxPageSize)
		}

		page, err := w.Fetch(ctx, token, pageSize)
		if err != nil {
			return results, stats, fmt.Errorf("fetching page %d: %w", stats.Pages+1, err)
		}
		stats.Pages++

		if len(page.Items) == 0 {
			stats.Exhausted = true
			return results, stats, nil
		}

		for _, item := range page.Items {
			stats.Scanned++
			if w.Keep != nil && !w.Keep(item) {
				continue
			}
			if w.Key != nil {
				if key := w.Key(item); key != "" {
					if _, duplicate := seenKeys[key]; duplicate {
						stats.Duplicates++
						continue
					}
					seenKeys[key] = struct{}{}
				}
			}
			results = append(results, item)
			if limit > 0 && len(results) >= limit {
				return results, stats, nil
			}
		}

		if page.Next == "" {
			stats.Exhausted = true
			return results, stats, nil
		}
		if _, repeated := seenTokens[page.Next]; repeated || page.Next == token {
			stats.Exhausted = true
			return results, stats, nil
		}
		seenTokens[page.Next] = struct{}{}
		token = page.Next
	}
	return results, stats, nil
}

package ygoprodeck

import "github.com/handiism/ygo-card-downloader/internal/model"

// ResolveImageURL returns the first URL populated for the variant.
//
// Image blocks are scanned in upstream order, so the original artwork wins
// over alternate artworks that follow it. The boolean is false when no block
// carries the variant; callers skip the card in that case.
//
// Example:
//
//	url, ok := ResolveImageURL(card, model.VariantCropped)
//	if !ok {
//	    // skip card
//	}
func ResolveImageURL(card model.Card, variant model.Variant) (string, bool) {
	for _, img := range card.Images {
		if url, ok := img.URL(variant); ok {
			return url, true
		}
	}
	return "", false
}

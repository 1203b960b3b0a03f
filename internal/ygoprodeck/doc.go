// Package ygoprodeck retrieves the card catalog from the YGOPRODeck API
// and resolves image URLs for cards.
//
// # Catalog Fetching
//
// Use the Fetcher to download the full catalog in one request:
//
//	fetcher := ygoprodeck.NewFetcher(client, ygoprodeck.DefaultCatalogURL, log)
//	cards, err := fetcher.FetchCatalog(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Image Resolution
//
// Each card carries one or more artwork blocks; ResolveImageURL returns
// the first URL populated for the requested variant:
//
//	url, ok := ygoprodeck.ResolveImageURL(card, model.VariantSmall)
//
// # Catalog Data Format
//
// The endpoint returns {"data": [...]} where each card has "id", "name"
// and "card_images"; every image entry may contain "image_url",
// "image_url_small" and "image_url_cropped".
package ygoprodeck

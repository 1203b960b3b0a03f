package dto

import (
	"errors"

	"github.com/handiism/ygo-card-downloader/internal/model"
)

// ErrMissingData is returned when the catalog body has no "data" field.
var ErrMissingData = errors.New(`catalog response has no "data" field`)

// CatalogResponse is the top-level body of the cardinfo endpoint.
type CatalogResponse struct {
	Data *[]JSONCard `json:"data"`
}

// JSONCard represents a card object from the catalog.
//
// Only the fields needed to locate and name artwork are decoded; everything
// else in the upstream record is ignored.
type JSONCard struct {
	ID     int             `json:"id"`
	Name   string          `json:"name"`
	Images []JSONCardImage `json:"card_images"`
}

// JSONCardImage is one artwork block of a card.
//
// Each URL field is optional upstream.
type JSONCardImage struct {
	ID         *int    `json:"id"`
	URL        *string `json:"image_url"`
	URLSmall   *string `json:"image_url_small"`
	URLCropped *string `json:"image_url_cropped"`
}

// Cards converts the response to model cards, preserving upstream order.
func (r *CatalogResponse) Cards() ([]model.Card, error) {
	if r.Data == nil {
		return nil, ErrMissingData
	}

	cards := make([]model.Card, 0, len(*r.Data))
	for _, jc := range *r.Data {
		cards = append(cards, jc.ToCard())
	}
	return cards, nil
}

// ToCard converts JSONCard to a model.Card.
func (jc *JSONCard) ToCard() model.Card {
	images := make([]model.ImageVariant, 0, len(jc.Images))
	for _, ji := range jc.Images {
		images = append(images, ji.ToImageVariant())
	}

	return model.Card{
		ID:     jc.ID,
		Name:   jc.Name,
		Images: images,
	}
}

// ToImageVariant converts JSONCardImage to a model.ImageVariant.
func (ji *JSONCardImage) ToImageVariant() model.ImageVariant {
	return model.ImageVariant{
		Normal:  deref(ji.URL),
		Small:   deref(ji.URLSmall),
		Cropped: deref(ji.URLCropped),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

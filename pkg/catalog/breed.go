package catalog

import "fmt"

// ImageCDNBaseURL is where reference images are served from.
const ImageCDNBaseURL = "https://cdn2.thecatapi.com/images"

// Weight is a breed's weight range as reported by the API, e.g. "3 - 5".
type Weight struct {
	Imperial string `json:"imperial,omitempty"`
	Metric   string `json:"metric,omitempty"`
}

// Breed is one catalog record. Numeric traits use the API's 1..5 scale;
// zero means the trait is absent.
type Breed struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Description      string  `json:"description"`
	Temperament      string  `json:"temperament,omitempty"`
	ReferenceImageID string  `json:"reference_image_id,omitempty"`
	Origin           string  `json:"origin,omitempty"`
	LifeSpan         string  `json:"life_span,omitempty"`
	Weight           *Weight `json:"weight,omitempty"`
	WikipediaURL     string  `json:"wikipedia_url,omitempty"`
	AffectionLevel   int     `json:"affection_level,omitempty"`
	EnergyLevel      int     `json:"energy_level,omitempty"`
	Intelligence     int     `json:"intelligence,omitempty"`
	SocialNeeds      int     `json:"social_needs,omitempty"`
	ChildFriendly    int     `json:"child_friendly,omitempty"`
	DogFriendly      int     `json:"dog_friendly,omitempty"`
}

// ImageURL returns the CDN URL of the breed's reference image, or "" when
// the breed has none.
func (b Breed) ImageURL() string {
	if b.ReferenceImageID == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s.jpg", ImageCDNBaseURL, b.ReferenceImageID)
}

// Image is a result of the image search endpoint.
type Image struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

package domain

import "time"

// Brewery owns beers. Deleting one cascades to its beers and their images.
type Brewery struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Description    string    `json:"description"`
	FoundationYear *int      `json:"foundation_year,omitempty"`
	WebsiteURL     string    `json:"website_url"`
	City           string    `json:"city"`
	Country        string    `json:"country"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// BeerStyle classifies beers, e.g. "IPA".
type BeerStyle struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	CountryOfOrigin string    `json:"country_of_origin"`
	CreatedAt       time.Time `json:"created_at"`
}

const SortByFoundationYear = "foundation_year"

// BrewerySortColumns lists the accepted brewery sort keys, default first.
func BrewerySortColumns() []string {
	return []string{SortByName, SortByFoundationYear, SortByCreatedAt}
}

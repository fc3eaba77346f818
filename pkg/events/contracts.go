package events

// BeerCreated announces a new beer together with its brewery name so
// projections never need to look the brewery up.
type BeerCreated struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	BreweryID   string `json:"brewery_id"`
	BreweryName string `json:"brewery_name"`
}

func (BeerCreated) EventType() string     { return TypeBeerCreated }
func (e BeerCreated) AggregateID() string { return e.ID }

// BeerUpdated carries the full projected state of the beer, which lets a
// consumer that missed BeerCreated rebuild its row.
type BeerUpdated struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	BreweryID   string `json:"brewery_id"`
	BreweryName string `json:"brewery_name"`
}

func (BeerUpdated) EventType() string     { return TypeBeerUpdated }
func (e BeerUpdated) AggregateID() string { return e.ID }

type BeerDeleted struct {
	ID        string `json:"id"`
	BreweryID string `json:"brewery_id"`
}

func (BeerDeleted) EventType() string     { return TypeBeerDeleted }
func (e BeerDeleted) AggregateID() string { return e.ID }

// BeerOpinionChanged carries absolute values; applying it twice is harmless.
type BeerOpinionChanged struct {
	BeerID        string  `json:"beer_id"`
	OpinionsCount int     `json:"opinions_count"`
	NewBeerRating float64 `json:"new_beer_rating"`
}

func (BeerOpinionChanged) EventType() string     { return TypeBeerOpinionChanged }
func (e BeerOpinionChanged) AggregateID() string { return e.BeerID }

// BeerFavoritesCountChanged carries the absolute favorites count.
type BeerFavoritesCountChanged struct {
	BeerID         string `json:"beer_id"`
	FavoritesCount int    `json:"favorites_count"`
}

func (BeerFavoritesCountChanged) EventType() string     { return TypeBeerFavoritesCountChanged }
func (e BeerFavoritesCountChanged) AggregateID() string { return e.BeerID }

type BreweryUpdated struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (BreweryUpdated) EventType() string     { return TypeBreweryUpdated }
func (e BreweryUpdated) AggregateID() string { return e.ID }

type BreweryDeleted struct {
	ID string `json:"id"`
}

func (BreweryDeleted) EventType() string     { return TypeBreweryDeleted }
func (e BreweryDeleted) AggregateID() string { return e.ID }

type UserCreated struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func (UserCreated) EventType() string     { return TypeUserCreated }
func (e UserCreated) AggregateID() string { return e.ID }

type UserUpdated struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func (UserUpdated) EventType() string     { return TypeUserUpdated }
func (e UserUpdated) AggregateID() string { return e.ID }

type UserDeleted struct {
	ID string `json:"id"`
}

func (UserDeleted) EventType() string     { return TypeUserDeleted }
func (e UserDeleted) AggregateID() string { return e.ID }

type ImageUploaded struct {
	Path string `json:"path"`
	URI  string `json:"uri"`
}

func (ImageUploaded) EventType() string     { return TypeImageUploaded }
func (e ImageUploaded) AggregateID() string { return e.Path }

type ImageDeleted struct {
	URI string `json:"uri"`
}

func (ImageDeleted) EventType() string     { return TypeImageDeleted }
func (e ImageDeleted) AggregateID() string { return e.URI }

// ImagesDeleted reports a delete-by-prefix on the blob store.
type ImagesDeleted struct {
	Paths []string `json:"paths"`
}

func (ImagesDeleted) EventType() string { return TypeImagesDeleted }
func (e ImagesDeleted) AggregateID() string {
	if len(e.Paths) == 0 {
		return ""
	}
	return e.Paths[0]
}

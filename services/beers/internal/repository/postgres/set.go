package postgres

import (
	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/TomWia9/HoppyHub-sub002/pkg/database"
	"github.com/TomWia9/HoppyHub-sub002/pkg/shadow"
	"github.com/TomWia9/HoppyHub-sub002/services/beers/internal/repository"
)

// dialect renders numbered ($1) placeholders for pgx.
var dialect = goqu.Dialect("postgres")

// NewSet binds every beers repository to db. It satisfies repository.Factory.
func NewSet(db database.DBTX) repository.Set {
	return repository.Set{
		Breweries: NewBreweryRepository(db),
		Styles:    NewBeerStyleRepository(db),
		Beers:     NewBeerRepository(db),
		Images:    NewBeerImageRepository(db),
		Users:     shadow.NewPostgresRepository(db),
	}
}

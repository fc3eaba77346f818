package postgres

import (
	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/TomWia9/HoppyHub-sub002/pkg/database"
	"github.com/TomWia9/HoppyHub-sub002/pkg/shadow"
	"github.com/TomWia9/HoppyHub-sub002/services/favorites/internal/repository"
)

var dialect = goqu.Dialect("postgres")

// NewSet binds every favorites repository to db.
func NewSet(db database.DBTX) repository.Set {
	return repository.Set{
		Favorites: NewFavoriteRepository(db),
		Beers:     NewBeerRepository(db),
		Users:     shadow.NewPostgresRepository(db),
	}
}

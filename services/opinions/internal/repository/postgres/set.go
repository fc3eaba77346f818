package postgres

import (
	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/TomWia9/HoppyHub-sub002/pkg/database"
	"github.com/TomWia9/HoppyHub-sub002/pkg/shadow"
	"github.com/TomWia9/HoppyHub-sub002/services/opinions/internal/repository"
)

var dialect = goqu.Dialect("postgres")

// NewSet binds every opinions repository to db. It satisfies repository.Factory.
func NewSet(db database.DBTX) repository.Set {
	return repository.Set{
		Opinions: NewOpinionRepository(db),
		Beers:    NewBeerRepository(db),
		Users:    shadow.NewPostgresRepository(db),
	}
}

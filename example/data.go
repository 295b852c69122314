// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package example

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	yukino "github.com/dark-flames/yukino-dev-sub000"
	"github.com/dark-flames/yukino-dev-sub000/query"
)

// CreateTables creates the tables of the example schema. It is valid in
// SQLite and MySQL.
const CreateTables = `
CREATE TABLE person (
	id integer PRIMARY KEY,
	name text NOT NULL,
	age integer NOT NULL,
	level integer NOT NULL
);
CREATE TABLE pet (
	id integer PRIMARY KEY,
	name text NOT NULL,
	host_id integer NOT NULL REFERENCES person (id)
);
CREATE TABLE toy (
	id integer PRIMARY KEY,
	name text NOT NULL,
	pet_id integer NOT NULL REFERENCES pet (id),
	price text NOT NULL
);
`

var People = []Person{
	{ID: 1, Name: "Alastair", Age: 35, Level: 3},
	{ID: 2, Name: "Ed", Age: 17, Level: 1},
	{ID: 3, Name: "Marco", Age: 42, Level: 3},
	{ID: 4, Name: "Pedro", Age: 28, Level: 2},
	{ID: 5, Name: "Serdar", Age: 12, Level: 1},
	{ID: 6, Name: "Joe", Age: 51, Level: 3},
}

var PetList = []Pet{
	{ID: 1, Name: "Fred", HostID: 1},
	{ID: 2, Name: "Mark", HostID: 2},
	{ID: 3, Name: "Mary", HostID: 3},
	{ID: 4, Name: "James", HostID: 3},
	{ID: 5, Name: "Ringo", HostID: 5},
}

var ToyList = []Toy{
	{ID: 1, Name: "ball", PetID: 1, Price: decimal.RequireFromString("2.50")},
	{ID: 2, Name: "rope", PetID: 1, Price: decimal.RequireFromString("4.00")},
	{ID: 3, Name: "bone", PetID: 3, Price: decimal.RequireFromString("1.25")},
	{ID: 4, Name: "mouse", PetID: 5, Price: decimal.RequireFromString("3.10")},
}

// Seed creates the tables of the example schema on sqldb and fills them.
func Seed(ctx context.Context, sqldb *sql.DB, db *yukino.DB) error {
	if _, err := sqldb.ExecContext(ctx, CreateTables); err != nil {
		return errors.Wrap(err, "cannot create tables")
	}
	tx, err := db.Begin(ctx, nil)
	if err != nil {
		return err
	}
	inserts := []query.Modification{
		query.Insert(Persons, People...),
		query.Insert(Pets, PetList...),
		query.Insert(Toys, ToyList...),
	}
	for _, insert := range inserts {
		if _, err := yukino.Exec(ctx, tx, insert); err != nil {
			tx.Rollback()
			return errors.Wrap(err, "cannot seed tables")
		}
	}
	return tx.Commit()
}

// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

// Package example holds the schema used by the yukino command and by the
// tests: people, the pets they host and the toys of the pets.
//
// Person and Pet are written the way the schema compiler emits entities.
// Toy is defined at run time from its struct tags.
package example

import (
	"github.com/shopspring/decimal"

	"github.com/dark-flames/yukino-dev-sub000/expr"
	"github.com/dark-flames/yukino-dev-sub000/query"
	"github.com/dark-flames/yukino-dev-sub000/schema"
	"github.com/dark-flames/yukino-dev-sub000/value"
	"github.com/dark-flames/yukino-dev-sub000/view"
)

// Person is a row of the person table.
type Person struct {
	ID    int64
	Name  string
	Age   int32
	Level int32
}

// PersonView is the row view of the person table.
type PersonView struct {
	ID    view.ExprView[int64]
	Name  view.ExprView[string]
	Age   view.ExprView[int32]
	Level view.ExprView[int32]
}

var personConverter = value.Record(
	value.FieldOf("ID", value.Int64Converter, func(p Person) int64 { return p.ID }, func(p *Person, v int64) { p.ID = v }),
	value.FieldOf("Name", value.StringConverter, func(p Person) string { return p.Name }, func(p *Person, v string) { p.Name = v }),
	value.FieldOf("Age", value.Int32Converter, func(p Person) int32 { return p.Age }, func(p *Person, v int32) { p.Age = v }),
	value.FieldOf("Level", value.Int32Converter, func(p Person) int32 { return p.Level }, func(p *Person, v int32) { p.Level = v }),
)

type personEntity struct{}

// Persons is the person table.
var Persons query.Keyed[Person, PersonView, int64] = personEntity{}

func (personEntity) TableName() string { return "person" }

func (personEntity) Columns() []string { return []string{"id", "name", "age", "level"} }

func (personEntity) Pure(alias string) PersonView {
	return PersonView{
		ID:    view.ColumnOf(value.Int64Converter, alias, "id"),
		Name:  view.ColumnOf(value.StringConverter, alias, "name"),
		Age:   view.ColumnOf(value.Int32Converter, alias, "age"),
		Level: view.ColumnOf(value.Int32Converter, alias, "level"),
	}
}

func (personEntity) Collect(v PersonView) []expr.Expr {
	return concat(v.ID.Collect(), v.Name.Collect(), v.Age.Collect(), v.Level.Collect())
}

func (personEntity) FromExprs(exprs []expr.Expr) PersonView {
	return PersonView{
		ID:    view.New(value.Int64Converter, view.Tags(view.Orderable), exprs[0]),
		Name:  view.New(value.StringConverter, view.Tags(view.Orderable), exprs[1]),
		Age:   view.New(value.Int32Converter, view.Tags(view.Orderable), exprs[2]),
		Level: view.New(value.Int32Converter, view.Tags(view.Orderable), exprs[3]),
	}
}

func (personEntity) Converter() value.Converter[Person] { return personConverter }

func (personEntity) PrimaryKeyColumns() []string { return []string{"id"} }

func (personEntity) PrimaryKey(v PersonView) view.ExprView[int64] { return v.ID }

func (personEntity) PrimaryKeyOf(p Person) int64 { return p.ID }

// Pet is a row of the pet table; HostID is the id of the person hosting it.
type Pet struct {
	ID     int64
	Name   string
	HostID int64
}

// PetView is the row view of the pet table.
type PetView struct {
	ID     view.ExprView[int64]
	Name   view.ExprView[string]
	HostID view.ExprView[int64]
}

var petConverter = value.Record(
	value.FieldOf("ID", value.Int64Converter, func(p Pet) int64 { return p.ID }, func(p *Pet, v int64) { p.ID = v }),
	value.FieldOf("Name", value.StringConverter, func(p Pet) string { return p.Name }, func(p *Pet, v string) { p.Name = v }),
	value.FieldOf("HostID", value.Int64Converter, func(p Pet) int64 { return p.HostID }, func(p *Pet, v int64) { p.HostID = v }),
)

type petEntity struct{}

// Pets is the pet table.
var Pets query.Keyed[Pet, PetView, int64] = petEntity{}

func (petEntity) TableName() string { return "pet" }

func (petEntity) Columns() []string { return []string{"id", "name", "host_id"} }

func (petEntity) Pure(alias string) PetView {
	return PetView{
		ID:     view.ColumnOf(value.Int64Converter, alias, "id"),
		Name:   view.ColumnOf(value.StringConverter, alias, "name"),
		HostID: view.ColumnOf(value.Int64Converter, alias, "host_id"),
	}
}

func (petEntity) Collect(v PetView) []expr.Expr {
	return concat(v.ID.Collect(), v.Name.Collect(), v.HostID.Collect())
}

func (petEntity) FromExprs(exprs []expr.Expr) PetView {
	return PetView{
		ID:     view.New(value.Int64Converter, view.Tags(view.Orderable), exprs[0]),
		Name:   view.New(value.StringConverter, view.Tags(view.Orderable), exprs[1]),
		HostID: view.New(value.Int64Converter, view.Tags(view.Orderable), exprs[2]),
	}
}

func (petEntity) Converter() value.Converter[Pet] { return petConverter }

func (petEntity) PrimaryKeyColumns() []string { return []string{"id"} }

func (petEntity) PrimaryKey(v PetView) view.ExprView[int64] { return v.ID }

func (petEntity) PrimaryKeyOf(p Pet) int64 { return p.ID }

// PetHost relates every pet to the person hosting it.
var PetHost = query.BelongsTo[Pet, PetView, Person, PersonView, int64]{
	Child:        Pets,
	Parent:       Persons,
	ForeignKey:   func(v PetView) view.ExprView[int64] { return v.HostID },
	ForeignKeyOf: func(p Pet) int64 { return p.HostID },
}

// Toy is a row of the toy table. Its table is defined from the db tags.
type Toy struct {
	ID    int64           `db:"id,pk"`
	Name  string          `db:"name"`
	PetID int64           `db:"pet_id"`
	Price decimal.Decimal `db:"price"`
	// Notes is not stored.
	Notes string
}

// Toys is the toy table.
var Toys = schema.MustDefine[Toy, int64]("toy")

// ToyOwner relates every toy to the pet owning it.
var ToyOwner = query.BelongsTo[Toy, schema.Row, Pet, PetView, int64]{
	Child:        Toys,
	Parent:       Pets,
	ForeignKey:   func(r schema.Row) view.ExprView[int64] { return schema.Col[int64](r, "pet_id") },
	ForeignKeyOf: func(t Toy) int64 { return t.PetID },
}

func concat(lists ...[]expr.Expr) []expr.Expr {
	var out []expr.Expr
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package example

import (
	"context"
	"fmt"
	"sort"

	"github.com/pkg/errors"

	yukino "github.com/dark-flames/yukino-dev-sub000"
	"github.com/dark-flames/yukino-dev-sub000/expr"
	"github.com/dark-flames/yukino-dev-sub000/query"
	"github.com/dark-flames/yukino-dev-sub000/schema"
	"github.com/dark-flames/yukino-dev-sub000/value"
	"github.com/dark-flames/yukino-dev-sub000/view"
)

// Adults returns the people older than 18.
func Adults() *query.SelectBuilder[Person, PersonView] {
	return query.Select(Persons).Filter(func(p PersonView) view.ExprView[bool] {
		return p.Age.GtValue(18)
	})
}

// CountByLevel returns the number of people of each level.
func CountByLevel() *query.Mapped[value.Pair[int32, int64]] {
	byLevel := query.GroupBy(query.Select(Persons), func(p PersonView) view.ExprView[int32] {
		return p.Level
	})
	return query.FoldGroup(byLevel, func(p PersonView) view.ExprView[int64] {
		return view.Count(p.ID)
	})
}

// LevelsByHeadcount returns the levels with more than one person, most
// populated first.
func LevelsByHeadcount() *query.Mapped[value.Pair[int32, int64]] {
	byLevel := query.GroupBy(query.Select(Persons), func(p PersonView) view.ExprView[int32] {
		return p.Level
	}).Filter(func(_ view.ExprView[int32], p PersonView) view.ExprView[bool] {
		return view.Count(p.ID).Ordered().GtValue(1)
	}).Sort(func(level view.ExprView[int32], p PersonView) []view.SortItem {
		return []view.SortItem{view.Count(p.ID).Ordered().Desc(), level.Asc()}
	})
	return query.FoldGroup(byLevel, func(p PersonView) view.ExprView[int64] {
		return view.Count(p.ID)
	})
}

// PetsOfAdults returns the pets hosted by an adult.
func PetsOfAdults() *query.SelectBuilder[Pet, PetView] {
	return PetHost.BelongingToQuery(query.Select(Pets), Adults())
}

// PetsWithHost returns every pet together with its host, ordered by pet.
func PetsWithHost() *query.SelectBuilder[value.Pair[Pet, Person], query.Joined[PetView, PersonView]] {
	return query.JoinParent(PetHost, query.Select(Pets)).Sort(func(j query.Joined[PetView, PersonView]) []view.SortItem {
		return []view.SortItem{j.Child.ID.Asc()}
	})
}

// Hosts returns the people hosting at least one pet.
func Hosts() *query.SelectBuilder[Person, PersonView] {
	return query.Select(Persons).Filter(func(p PersonView) view.ExprView[bool] {
		return view.Exists[Pet](PetHost.BelongingToView(query.Select(Pets), p))
	})
}

// AverageAge returns the average age of every person.
func AverageAge() *query.Folded[float64] {
	return query.Fold(query.Select(Persons), func(p PersonView) view.ExprView[float64] {
		return view.Average(p.Age)
	})
}

// ToysOfPets returns the toys of the given pets.
func ToysOfPets(pets ...Pet) *query.SelectBuilder[Toy, schema.Row] {
	return ToyOwner.BelongingToValues(query.Select(Toys), pets...).Sort(func(r schema.Row) []view.SortItem {
		return []view.SortItem{schema.Col[int64](r, "id").Asc()}
	})
}

// Pipeline is a named query of the example schema.
type Pipeline struct {
	Name        string
	Description string
	// Build returns the statement of the query.
	Build func() (expr.Statement, error)
	// Run runs the query and formats every row it returns.
	Run func(ctx context.Context, ex yukino.Executor) ([]string, error)
}

func pipeline[R any](name, description string, q query.Selection[R]) Pipeline {
	return Pipeline{
		Name:        name,
		Description: description,
		Build: func() (expr.Statement, error) {
			sel, err := q.Build()
			if err != nil {
				return nil, err
			}
			return sel, nil
		},
		Run: func(ctx context.Context, ex yukino.Executor) ([]string, error) {
			rows, err := yukino.All(ctx, ex, q)
			if err != nil {
				return nil, err
			}
			out := make([]string, len(rows))
			for i, r := range rows {
				out[i] = fmt.Sprintf("%+v", r)
			}
			return out, nil
		},
	}
}

// Pipelines returns every named query, sorted by name.
func Pipelines() []Pipeline {
	ps := []Pipeline{
		pipeline[Person]("adults", "people older than 18", Adults()),
		pipeline[value.Pair[int32, int64]]("count-by-level", "number of people of each level", CountByLevel()),
		pipeline[value.Pair[int32, int64]]("levels-by-headcount", "levels with more than one person, most populated first", LevelsByHeadcount()),
		pipeline[Pet]("pets-of-adults", "pets hosted by an adult", PetsOfAdults()),
		pipeline[value.Pair[Pet, Person]]("pets-with-host", "every pet and its host", PetsWithHost()),
		pipeline[Person]("hosts", "people hosting a pet", Hosts()),
		pipeline[float64]("average-age", "average age of every person", AverageAge()),
		pipeline[Toy]("toys-of-fred", "toys of the first pet", ToysOfPets(PetList[0])),
	}
	sort.Slice(ps, func(i, j int) bool { return ps[i].Name < ps[j].Name })
	return ps
}

// Lookup returns the pipeline named name.
func Lookup(name string) (Pipeline, error) {
	for _, p := range Pipelines() {
		if p.Name == name {
			return p, nil
		}
	}
	return Pipeline{}, errors.Errorf("no pipeline named %q", name)
}

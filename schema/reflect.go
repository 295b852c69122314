// Copyright 2023 Canonical Ltd.
// Licensed under Apache 2.0, see LICENCE file for details.

package schema

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/dark-flames/yukino-dev-sub000/value"
)

// Error is returned when a struct type cannot be mapped to a table.
type Error struct {
	// Type is the struct type being defined.
	Type reflect.Type
	// Field is the Go name of the offending field, if any.
	Field string
	// Msg describes the problem.
	Msg string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return "cannot define " + typeName(e.Type) + ": " + e.Msg
	}
	return "cannot define " + typeName(e.Type) + ": field " + e.Field + ": " + e.Msg
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

// field is a struct field mapped to a column.
type field struct {
	name   string
	column string
	index  int
	pk     bool
	conv   value.Erased
}

// info is the reflected mapping of a struct type.
type info struct {
	typ    reflect.Type
	fields []field
	// pk is the index in fields of the primary key field.
	pk int
}

var cacheMutex sync.RWMutex
var cache = make(map[reflect.Type]*info)

// getInfo returns the mapping of t, generating and caching it as required.
func getInfo(t reflect.Type) (*info, error) {
	cacheMutex.RLock()
	in, found := cache[t]
	cacheMutex.RUnlock()
	if found {
		return in, nil
	}

	in, err := generate(t)
	if err != nil {
		return nil, err
	}

	cacheMutex.Lock()
	cache[t] = in
	cacheMutex.Unlock()

	return in, nil
}

// generate reflects the "db" tags of the struct type t.
func generate(t reflect.Type) (*info, error) {
	if t.Kind() != reflect.Struct {
		return nil, &Error{Type: t, Msg: "can only define struct types"}
	}

	in := &info{typ: t, pk: -1}
	seen := make(map[string]string)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		// Fields without a "db" tag are not mapped.
		tag := f.Tag.Get("db")
		if tag == "" {
			continue
		}
		if !f.IsExported() {
			return nil, &Error{Type: t, Field: f.Name, Msg: "field with a db tag is not exported"}
		}
		column, pk, err := parseTag(tag)
		if err != nil {
			return nil, &Error{Type: t, Field: f.Name, Msg: err.Error()}
		}
		if other, ok := seen[column]; ok {
			return nil, &Error{Type: t, Field: f.Name, Msg: "column " + column + " is also mapped by field " + other}
		}
		seen[column] = f.Name
		conv, err := value.ErasedOf(f.Type)
		if err != nil {
			return nil, &Error{Type: t, Field: f.Name, Msg: err.Error()}
		}
		if conv.Width != 1 {
			return nil, &Error{Type: t, Field: f.Name, Msg: "field type must map to a single column"}
		}
		if pk {
			if in.pk != -1 {
				return nil, &Error{Type: t, Field: f.Name, Msg: "more than one primary key field"}
			}
			in.pk = len(in.fields)
		}
		in.fields = append(in.fields, field{name: f.Name, column: column, index: i, pk: pk, conv: conv})
	}
	if len(in.fields) == 0 {
		return nil, &Error{Type: t, Msg: "no field has a db tag"}
	}
	if in.pk == -1 {
		return nil, &Error{Type: t, Msg: "no primary key field, tag one with db:\"<column>,pk\""}
	}
	return in, nil
}

var validColNameRx = regexp.MustCompile(`^([a-zA-Z_])+([a-zA-Z_0-9])*$`)

// parseTag parses the input tag string and returns its column name and
// whether it contains the "pk" option.
func parseTag(tag string) (string, bool, error) {
	options := strings.Split(tag, ",")

	var pk bool
	if len(options) > 2 {
		return "", false, errors.New("too many options in db tag")
	}
	if len(options) == 2 {
		if strings.ToLower(options[1]) != "pk" {
			return "", false, errors.Errorf("unexpected tag value %q", options[1])
		}
		pk = true
	}

	name := options[0]
	if len(name) == 0 {
		return "", false, errors.New("empty db tag")
	}
	if !validColNameRx.MatchString(name) {
		return "", false, errors.Errorf("invalid column name %q in db tag", name)
	}
	return name, pk, nil
}

// Package override force-writes one field across many records of a
// collection. Fields are discovered from the records' JSON form, so the tool
// works on whatever fields the data actually carries, and every write is
// type-checked against what the field already holds.
package override

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"firesafety-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// Collections open to override
const (
	CollectionCustomers       = "customers"
	CollectionExtinguishers   = "extinguishers"
	CollectionInspections     = "inspections"
	CollectionRegisteredUsers = "registeredUsers"
	CollectionTodos           = "todos"
)

var Collections = []string{
	CollectionCustomers,
	CollectionExtinguishers,
	CollectionInspections,
	CollectionRegisteredUsers,
	CollectionTodos,
}

// Field kinds
const (
	KindString     = "string"
	KindNumber     = "number"
	KindBool       = "bool"
	KindStringList = "string-list"
	KindNumberList = "number-list"
	KindObject     = "object"
	KindUnknown    = "unknown" // only null seen so far
)

var (
	ErrUnknownCollection = errors.New("override: unknown collection")
	ErrUnknownField      = errors.New("override: unknown field")
	ErrProtectedField    = errors.New("override: field cannot be overridden")
	ErrTypeMismatch      = errors.New("override: value does not match field type")
)

// Field describes one discovered field.
type Field struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Count int    `json:"count"` // records carrying a non-null value
}

// Op is a single override. When IDs is empty every record in the collection
// is a target. When MatchValue is set only records whose current value
// equals it are written.
type Op struct {
	Collection string   `json:"collection"`
	Field      string   `json:"field"`
	Value      any      `json:"value"`
	IDs        []string `json:"ids,omitempty"`
	MatchValue any      `json:"matchValue,omitempty"`
}

var protected = map[string]bool{"id": true}

// DiscoverFields lists the fields present in a collection, sorted by name.
func DiscoverFields(data *models.AppData, collection string) ([]Field, error) {
	records, err := decode(data, collection)
	if err != nil {
		return nil, err
	}
	return discover(records), nil
}

func discover(records []map[string]any) []Field {
	byName := map[string]*Field{}
	for _, rec := range records {
		for name, v := range rec {
			f, ok := byName[name]
			if !ok {
				f = &Field{Name: name, Kind: KindUnknown}
				byName[name] = f
			}
			if v == nil {
				continue
			}
			f.Count++
			if f.Kind == KindUnknown {
				f.Kind = kindOf(v)
			}
		}
	}

	out := make([]Field, 0, len(byName))
	for _, f := range byName {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func kindOf(v any) string {
	switch x := v.(type) {
	case string:
		return KindString
	case float64:
		return KindNumber
	case bool:
		return KindBool
	case []any:
		if len(x) == 0 {
			return KindUnknown
		}
		if _, ok := x[0].(float64); ok {
			return KindNumberList
		}
		return KindStringList
	case map[string]any:
		return KindObject
	}
	return KindUnknown
}

// Apply performs op on data and returns the number of records written.
// Only admins may override; for anyone else Apply does nothing.
func Apply(data *models.AppData, viewer models.User, op Op) (int, error) {
	if !viewer.IsAdmin() {
		log.Warn().Str("technician_id", viewer.TechnicianID).Msg("⚠️  non-admin override ignored")
		return 0, nil
	}
	if protected[op.Field] {
		return 0, fmt.Errorf("%w: %s", ErrProtectedField, op.Field)
	}

	records, err := decode(data, op.Collection)
	if err != nil {
		return 0, err
	}

	var field *Field
	for _, f := range discover(records) {
		if f.Name == op.Field {
			f := f
			field = &f
			break
		}
	}
	if field == nil {
		return 0, fmt.Errorf("%w: %s.%s", ErrUnknownField, op.Collection, op.Field)
	}

	value, err := Coerce(field.Kind, op.Value)
	if err != nil {
		return 0, err
	}

	targets := make(map[string]bool, len(op.IDs))
	for _, id := range op.IDs {
		targets[id] = true
	}

	affected := 0
	for _, rec := range records {
		id, _ := rec["id"].(string)
		if len(targets) > 0 && !targets[id] {
			continue
		}
		if op.MatchValue != nil && !sameValue(rec[op.Field], op.MatchValue) {
			continue
		}
		rec[op.Field] = value
		affected++
	}
	if affected == 0 {
		return 0, nil
	}

	if err := encode(data, op.Collection, records); err != nil {
		return 0, err
	}
	log.Info().
		Str("collection", op.Collection).
		Str("field", op.Field).
		Int("affected", affected).
		Str("by", viewer.TechnicianID).
		Msg("🛠️  override applied")
	return affected, nil
}

// Coerce converts v to the JSON shape of kind. Strings are accepted for
// numbers, bools and lists when the conversion is lossless. nil always
// passes and clears the field.
func Coerce(kind string, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	mismatch := func() (any, error) {
		return nil, fmt.Errorf("%w: want %s, got %T", ErrTypeMismatch, kind, v)
	}

	switch kind {
	case KindString:
		if s, ok := v.(string); ok {
			return s, nil
		}
		return mismatch()

	case KindNumber:
		switch x := v.(type) {
		case float64:
			return x, nil
		case int:
			return float64(x), nil
		case string:
			n, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
			if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
				return mismatch()
			}
			return n, nil
		}
		return mismatch()

	case KindBool:
		switch x := v.(type) {
		case bool:
			return x, nil
		case string:
			switch strings.ToLower(strings.TrimSpace(x)) {
			case "true", "yes":
				return true, nil
			case "false", "no":
				return false, nil
			}
		}
		return mismatch()

	case KindStringList:
		switch x := v.(type) {
		case []any:
			out := make([]any, len(x))
			for i, e := range x {
				s, ok := e.(string)
				if !ok {
					return mismatch()
				}
				out[i] = s
			}
			return out, nil
		case []string:
			out := make([]any, len(x))
			for i, s := range x {
				out[i] = s
			}
			return out, nil
		case string:
			var out []any
			for _, s := range strings.Split(x, ",") {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
			if out == nil {
				out = []any{}
			}
			return out, nil
		}
		return mismatch()

	case KindNumberList:
		switch x := v.(type) {
		case []any:
			out := make([]any, len(x))
			for i, e := range x {
				n, ok := e.(float64)
				if !ok {
					return mismatch()
				}
				out[i] = n
			}
			return out, nil
		case string:
			out := []any{}
			for _, s := range strings.Split(x, ",") {
				s = strings.TrimSpace(s)
				if s == "" {
					continue
				}
				n, err := strconv.ParseFloat(s, 64)
				if err != nil {
					return mismatch()
				}
				out = append(out, n)
			}
			return out, nil
		}
		return mismatch()

	case KindObject:
		if m, ok := v.(map[string]any); ok {
			return m, nil
		}
		return mismatch()

	case KindUnknown:
		switch v.(type) {
		case string, float64, bool:
			return v, nil
		}
		return mismatch()
	}
	return mismatch()
}

func sameValue(a, b any) bool {
	ra, errA := json.Marshal(a)
	rb, errB := json.Marshal(b)
	return errA == nil && errB == nil && string(ra) == string(rb)
}

func collection(data *models.AppData, name string) (any, error) {
	switch name {
	case CollectionCustomers:
		return &data.Customers, nil
	case CollectionExtinguishers:
		return &data.Extinguishers, nil
	case CollectionInspections:
		return &data.Records, nil
	case CollectionRegisteredUsers:
		return &data.RegisteredUsers, nil
	case CollectionTodos:
		return &data.Todos, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, name)
}

func decode(data *models.AppData, name string) ([]map[string]any, error) {
	target, err := collection(data, name)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(target)
	if err != nil {
		return nil, err
	}
	var records []map[string]any
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// encode writes records back through the typed collection; a value the
// typed field cannot hold fails the whole op and leaves data untouched.
func encode(data *models.AppData, name string, records []map[string]any) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return err
	}

	scratch := &models.AppData{}
	target, err := collection(scratch, name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%w: %v", ErrTypeMismatch, err)
	}

	switch name {
	case CollectionCustomers:
		data.Customers = scratch.Customers
	case CollectionExtinguishers:
		data.Extinguishers = scratch.Extinguishers
	case CollectionInspections:
		data.Records = scratch.Records
	case CollectionRegisteredUsers:
		data.RegisteredUsers = scratch.RegisteredUsers
	case CollectionTodos:
		data.Todos = scratch.Todos
	}
	return nil
}

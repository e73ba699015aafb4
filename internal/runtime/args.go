package runtime

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/google/shlex"
	"github.com/heraldbot/herald/internal/state"
)

// RawArgs holds every word after the command itself, split with shell
// quoting rules. A message with no arguments extracts as an empty list.
type RawArgs []string

func (a *RawArgs) ExtractFrom(_ context.Context, ev *Event, _ *state.Store) error {
	if ev.Message == nil {
		return ErrNoMessage
	}
	words, err := splitArgs(ev.Message.Text)
	if err != nil {
		return err
	}
	*a = words
	return nil
}

// Args parses the words after the command into the fields of T, in
// declaration order. T must be a struct whose fields are strings, bools,
// integers, or floats; a trailing string field receives the unsplit rest,
// and a trailing []string field receives all remaining words.
type Args[T any] struct {
	Value T
}

func (a *Args[T]) ExtractFrom(_ context.Context, ev *Event, _ *state.Store) error {
	if ev.Message == nil {
		return ErrNoMessage
	}
	words, err := splitArgs(ev.Message.Text)
	if err != nil {
		return err
	}

	v := reflect.ValueOf(&a.Value).Elem()
	if v.Kind() != reflect.Struct {
		return fmt.Errorf("%w: Args type %s is not a struct", ErrBadArgument, v.Type())
	}

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		last := i == v.NumField()-1

		if last && field.Kind() == reflect.Slice && field.Type().Elem().Kind() == reflect.String {
			field.Set(reflect.ValueOf(words))
			return nil
		}
		if last && field.Kind() == reflect.String {
			field.SetString(strings.Join(words, " "))
			return nil
		}
		if len(words) == 0 {
			return fmt.Errorf("%w: missing value for %s.%s", ErrBadArgument, v.Type().Name(), v.Type().Field(i).Name)
		}

		word := words[0]
		words = words[1:]
		if err := setArgField(field, word); err != nil {
			return fmt.Errorf("%w: field %s.%s: %v", ErrBadArgument, v.Type().Name(), v.Type().Field(i).Name, err)
		}
	}

	if len(words) > 0 {
		return fmt.Errorf("%w: %d unexpected trailing words", ErrBadArgument, len(words))
	}
	return nil
}

// splitArgs drops the leading command word and splits the rest with
// quoting support.
func splitArgs(text string) ([]string, error) {
	rest := ""
	if i := strings.IndexByte(text, ' '); i >= 0 {
		rest = text[i+1:]
	}
	words, err := shlex.Split(rest)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadArgument, err)
	}
	return words, nil
}

func setArgField(field reflect.Value, word string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(word)
	case reflect.Bool:
		b, err := parseBoolWord(word)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(word, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(word, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(word, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetFloat(f)
	default:
		return fmt.Errorf("unsupported field kind %s", field.Kind())
	}
	return nil
}

func parseBoolWord(word string) (bool, error) {
	switch strings.ToLower(word) {
	case "true", "yes", "y":
		return true, nil
	case "false", "no", "n":
		return false, nil
	default:
		return false, fmt.Errorf("%q is not a boolean", word)
	}
}

package runtime

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestRawArgsSplitsAfterCommand(t *testing.T) {
	session := &recordingSession{}
	var args RawArgs
	err := args.ExtractFrom(context.Background(), msgEvent(session, `/echo one  two "three four"`), newTestStore(t))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	want := RawArgs{"one", "two", "three four"}
	if !reflect.DeepEqual(args, want) {
		t.Fatalf("expected %#v, got %#v", want, args)
	}
}

func TestRawArgsEmptyForBareCommand(t *testing.T) {
	session := &recordingSession{}
	var args RawArgs
	if err := args.ExtractFrom(context.Background(), msgEvent(session, "/echo"), newTestStore(t)); err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(args) != 0 {
		t.Fatalf("expected no arguments, got %#v", args)
	}
}

func TestRawArgsRequiresMessage(t *testing.T) {
	session := &recordingSession{}
	var args RawArgs
	err := args.ExtractFrom(context.Background(), NewEvent(KindTick, nil, session, nil), newTestStore(t))
	if !errors.Is(err, ErrNoMessage) {
		t.Fatalf("expected ErrNoMessage, got %v", err)
	}
}

func TestArgsParsesTypedFields(t *testing.T) {
	type remind struct {
		Minutes int
		Urgent  bool
		Note    string
	}

	session := &recordingSession{}
	var args Args[remind]
	err := args.ExtractFrom(context.Background(), msgEvent(session, "/remind 15 yes water the plants"), newTestStore(t))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	want := remind{Minutes: 15, Urgent: true, Note: "water the plants"}
	if args.Value != want {
		t.Fatalf("expected %#v, got %#v", want, args.Value)
	}
}

func TestArgsTrailingSliceTakesRest(t *testing.T) {
	type tail struct {
		Count int
		Words []string
	}

	session := &recordingSession{}
	var args Args[tail]
	err := args.ExtractFrom(context.Background(), msgEvent(session, "/cmd 2 a b c"), newTestStore(t))
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if args.Value.Count != 2 || !reflect.DeepEqual(args.Value.Words, []string{"a", "b", "c"}) {
		t.Fatalf("unexpected parse: %#v", args.Value)
	}
}

func TestArgsConversionFailureIsBadArgument(t *testing.T) {
	type remind struct {
		Minutes int
	}

	session := &recordingSession{}
	var args Args[remind]
	err := args.ExtractFrom(context.Background(), msgEvent(session, "/remind soon"), newTestStore(t))
	if !errors.Is(err, ErrBadArgument) {
		t.Fatalf("expected ErrBadArgument, got %v", err)
	}
}

func TestArgsMissingValueIsBadArgument(t *testing.T) {
	type remind struct {
		Minutes int
		Urgent  bool
	}

	session := &recordingSession{}
	var args Args[remind]
	err := args.ExtractFrom(context.Background(), msgEvent(session, "/remind 5"), newTestStore(t))
	if !errors.Is(err, ErrBadArgument) {
		t.Fatalf("expected ErrBadArgument, got %v", err)
	}
}

func TestArgsTrailingWordsRejectedWithoutCatchAll(t *testing.T) {
	type remind struct {
		Minutes int
		Urgent  bool
	}

	session := &recordingSession{}
	var args Args[remind]
	err := args.ExtractFrom(context.Background(), msgEvent(session, "/remind 5 yes extra"), newTestStore(t))
	if !errors.Is(err, ErrBadArgument) {
		t.Fatalf("expected ErrBadArgument, got %v", err)
	}
}

func TestArgsBoolWords(t *testing.T) {
	for word, want := range map[string]bool{"true": true, "Yes": true, "y": true, "false": false, "NO": false, "n": false} {
		got, err := parseBoolWord(word)
		if err != nil {
			t.Fatalf("parse %q: %v", word, err)
		}
		if got != want {
			t.Fatalf("parse %q = %v, want %v", word, got, want)
		}
	}
	if _, err := parseBoolWord("maybe"); err == nil {
		t.Fatalf("expected error for non-boolean word")
	}
}

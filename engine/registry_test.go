package engine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/hshahin/webprowl/engine"
	"github.com/hshahin/webprowl/model"
)

type fakeEngine struct {
	calls int
}

func (f *fakeEngine) Fetch(ctx context.Context, url string) (*model.Response, error) {
	f.calls++
	return nil, errors.New("fake")
}

func TestRegisterAndLookup(t *testing.T) {
	fe := &fakeEngine{}
	if err := engine.Register("Fake-One", fe); err != nil {
		t.Fatalf("Register: %v", err)
	}

	got, err := engine.Lookup("fake-one")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got != engine.Engine(fe) {
		t.Error("Lookup returned a different engine than registered")
	}
}

func TestRegister_EmptyName(t *testing.T) {
	err := engine.Register("  ", &fakeEngine{})
	var ce *engine.ContractError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *ContractError, got %v", err)
	}
}

func TestRegister_NilEngine(t *testing.T) {
	var ce *engine.ContractError
	if err := engine.Register("nil-engine", nil); !errors.As(err, &ce) {
		t.Fatalf("expected *ContractError for nil engine, got %v", err)
	}

	// Typed nil must be rejected too.
	var typedNil *fakeEngine
	if err := engine.Register("typed-nil", typedNil); !errors.As(err, &ce) {
		t.Fatalf("expected *ContractError for typed-nil engine, got %v", err)
	}
}

func TestLookup_Unregistered(t *testing.T) {
	if _, err := engine.Lookup("never-registered"); err == nil {
		t.Fatal("expected error for unregistered engine")
	}
}

func TestRegister_Overwrites(t *testing.T) {
	first := &fakeEngine{}
	second := &fakeEngine{}
	if err := engine.Register("overwrite-me", first); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := engine.Register("overwrite-me", second); err != nil {
		t.Fatalf("Register overwrite: %v", err)
	}
	got, err := engine.Lookup("overwrite-me")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got != engine.Engine(second) {
		t.Error("expected second registration to win")
	}
}

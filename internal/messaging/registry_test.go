package messaging

import (
	"context"
	"reflect"
	"testing"
)

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()

	if h := r.Get("status"); h != nil {
		t.Error("Get on empty registry should return nil")
	}

	called := false
	r.Register("status", HandlerFunc(func(ctx context.Context, deviceID string, payload []byte) error {
		called = true
		return nil
	}))

	h := r.Get("status")
	if h == nil {
		t.Fatal("Get returned nil for registered type")
	}
	if err := h.Handle(context.Background(), "front-door-01", nil); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !called {
		t.Error("registered handler was not invoked")
	}
}

func TestRegistryLastWriterWins(t *testing.T) {
	r := NewRegistry()

	var got string
	r.Register("status", HandlerFunc(func(ctx context.Context, deviceID string, payload []byte) error {
		got = "first"
		return nil
	}))
	r.Register("status", HandlerFunc(func(ctx context.Context, deviceID string, payload []byte) error {
		got = "second"
		return nil
	}))

	if err := r.Get("status").Handle(context.Background(), "d", nil); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if got != "second" {
		t.Errorf("invoked %q handler, want the replacement", got)
	}
}

func TestRegistryTypes(t *testing.T) {
	r := NewRegistry()
	noop := HandlerFunc(func(ctx context.Context, deviceID string, payload []byte) error { return nil })

	r.Register("sync", noop)
	r.Register("access", noop)
	r.Register("status", noop)

	want := []string{"access", "status", "sync"}
	if got := r.Types(); !reflect.DeepEqual(got, want) {
		t.Errorf("Types() = %v, want %v", got, want)
	}
}

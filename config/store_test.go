package config

import (
	"bytes"
	"testing"
)

func defaultConfig() map[string]any {
	return map[string]any{
		"node": map[string]any{
			"address": float64(1),
			"gateway": false,
		},
		"radio": map[string]any{
			"channel": float64(0),
		},
	}
}

func TestGetSetDottedPath(t *testing.T) {
	s := New(defaultConfig(), 3)

	v, ok := s.Get("node.address")
	if !ok || v != float64(1) {
		t.Fatalf("node.address = %v, %v", v, ok)
	}

	s.Set("node.address", float64(42))
	v, ok = s.Get("node.address")
	if !ok || v != float64(42) {
		t.Fatalf("after Set, node.address = %v, %v", v, ok)
	}
	if !s.Dirty() {
		t.Fatal("store not marked dirty after Set")
	}
}

func TestSetCreatesIntermediatePath(t *testing.T) {
	s := New(defaultConfig(), 3)
	s.Set("apmode.essid", "mesh-gw")

	v, ok := s.Get("apmode.essid")
	if !ok || v != "mesh-gw" {
		t.Fatalf("apmode.essid = %v, %v", v, ok)
	}
}

func TestGetMissingPathNotFound(t *testing.T) {
	s := New(defaultConfig(), 3)
	if _, ok := s.Get("node.nonsense"); ok {
		t.Fatal("expected missing path to report not found")
	}
}

func TestDeleteRemovesValue(t *testing.T) {
	s := New(defaultConfig(), 3)
	if !s.Delete("radio.channel") {
		t.Fatal("Delete reported false for a present path")
	}
	if _, ok := s.Get("radio.channel"); ok {
		t.Fatal("value still present after Delete")
	}
}

func TestListExcludesHiddenByDefault(t *testing.T) {
	s := New(defaultConfig(), 3)
	names := s.List(false)

	for _, n := range names {
		if n == "%version" {
			t.Fatal("hidden %version key leaked into List(false)")
		}
	}

	want := map[string]bool{"node.address": true, "node.gateway": true, "radio.channel": true}
	for _, n := range names {
		delete(want, n)
	}
	if len(want) != 0 {
		t.Fatalf("List missing entries: %v", want)
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	s := New(defaultConfig(), 3)
	s.Set("node.address", float64(99))

	var buf bytes.Buffer
	if err := s.Save(&buf, false); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if s.Dirty() {
		t.Fatal("store still dirty after Save")
	}

	loaded := Load(&buf, defaultConfig(), 3)
	if loaded.WasReset() {
		t.Fatal("Load reset to defaults on a matching version")
	}
	v, ok := loaded.Get("node.address")
	if !ok || v != float64(99) {
		t.Fatalf("loaded node.address = %v, %v", v, ok)
	}
}

func TestLoadResetsToDefaultsOnVersionMismatch(t *testing.T) {
	s := New(defaultConfig(), 3)
	var buf bytes.Buffer
	if err := s.Save(&buf, true); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded := Load(&buf, defaultConfig(), 4)
	if !loaded.WasReset() {
		t.Fatal("expected reset on version mismatch")
	}
	v, ok := loaded.Get("node.address")
	if !ok || v != float64(1) {
		t.Fatalf("reset store should carry the default node.address, got %v, %v", v, ok)
	}
}

func TestLoadResetsToDefaultsOnCorruptData(t *testing.T) {
	loaded := Load(bytes.NewReader([]byte("not json")), defaultConfig(), 3)
	if !loaded.WasReset() {
		t.Fatal("expected reset on unparseable data")
	}
}

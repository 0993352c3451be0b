package viewer

import (
	"math"
	"testing"

	"github.com/AaronLay10/SentientStage/internal/scene"
)

func TestRegistry_RegisterAndHandle(t *testing.T) {
	registry := NewRegistry()
	registry.Register("cube", NewObject())

	h, ok := registry.Handle("cube")
	if !ok || h == nil {
		t.Fatal("expected handle for cube")
	}
	if _, ok := registry.Handle("nonexistent"); ok {
		t.Error("expected no handle for nonexistent id")
	}

	registry.Register("sphere", NewObject())
	registry.Register("cube", NewObject())
	if ids := registry.IDs(); len(ids) != 2 || ids[0] != "cube" || ids[1] != "sphere" {
		t.Errorf("expected registration order [cube sphere], got %v", ids)
	}
}

func TestRegistry_Unregister(t *testing.T) {
	registry := NewRegistry()
	registry.Register("cube", NewObject())
	registry.Unregister("cube")
	registry.Unregister("cube")

	if registry.Count() != 0 {
		t.Errorf("expected 0 objects, got %d", registry.Count())
	}
	if len(registry.IDs()) != 0 {
		t.Errorf("expected no ids, got %v", registry.IDs())
	}
}

func TestFromDocument(t *testing.T) {
	doc, err := scene.LoadDocument("../../scenes/demo/scene.json")
	if err != nil {
		t.Fatalf("failed to load document: %v", err)
	}

	registry := FromDocument(doc)
	if registry.Count() != len(doc.Nodes) {
		t.Fatalf("expected %d objects, got %d", len(doc.Nodes), registry.Count())
	}

	lamp := registry.Get("lamp")
	if lamp.Position() != (scene.Vec3{2, 1, 0}) {
		t.Errorf("unexpected lamp position %v", lamp.Position())
	}
	if c, ok := lamp.Emissive(); !ok || c != "#ffcc00" {
		t.Errorf("unexpected lamp emissive %q %v", c, ok)
	}

	root := registry.Get("root")
	if _, ok := root.Color(); ok {
		t.Error("root has no material; color should be unavailable")
	}
}

func TestObjectWithoutMaterialIgnoresMaterialWrites(t *testing.T) {
	obj := NewObject()
	obj.SetColor("#ff0000")
	obj.SetOpacity(0.5)
	obj.SetEmissiveIntensity(3)

	if _, ok := obj.Opacity(); ok {
		t.Error("expected opacity to be unavailable")
	}
	snap := obj.Snapshot()
	if snap.Color != "" || snap.Opacity != nil {
		t.Errorf("expected empty material snapshot, got %+v", snap)
	}
}

func TestObjectMaterialChannels(t *testing.T) {
	obj := NewObject().WithMaterial("#FF0000")
	if c, _ := obj.Color(); c != "#ff0000" {
		t.Errorf("expected normalized color #ff0000, got %s", c)
	}
	obj.SetOpacity(0.25)
	if v, ok := obj.Opacity(); !ok || v != 0.25 {
		t.Errorf("expected opacity 0.25, got %v %v", v, ok)
	}
}

func TestSnapshotReportsDegrees(t *testing.T) {
	obj := NewObject()
	obj.SetRotation(scene.Vec3{0, math.Pi / 2, 0})
	snap := obj.Snapshot()
	if math.Abs(snap.Rotation[1]-90) > 1e-9 {
		t.Errorf("expected 90 degrees, got %v", snap.Rotation[1])
	}
}

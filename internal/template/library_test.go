package template

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/inamate/artboard/internal/component"
	"github.com/inamate/artboard/internal/geometry"
)

func writeTemplate(t *testing.T, dir, name string, tpl Template) {
	t.Helper()
	data, err := json.Marshal(tpl)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func heroTemplate() Template {
	title := component.NewNode(component.TypeText, component.WithID("title"),
		component.WithPosition(geometry.Point{X: 10, Y: 10}))
	card := component.NewNode(component.TypeContainer, component.WithID("card"),
		component.WithPosition(geometry.Point{X: 100, Y: 50}),
		component.WithSize(geometry.Size{Width: 300, Height: 200}),
		component.WithChildren(title))
	badge := component.NewNode(component.TypeButton, component.WithID("badge"),
		component.WithPosition(geometry.Point{X: 420, Y: 60}))
	return Template{Name: "Hero", Components: []component.Node{card, badge}}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeTemplate(t, dir, "hero.json", heroTemplate())
	writeTemplate(t, dir, "empty.json", Template{ID: "empty"})
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0o644); err != nil {
		t.Fatal(err)
	}

	lib := NewLibrary(dir)
	err := lib.Load()
	if !errors.Is(err, ErrInvalid) {
		t.Errorf("Load err = %v, want ErrInvalid for the empty template", err)
	}
	if lib.Len() != 1 {
		t.Fatalf("Len = %d, want 1", lib.Len())
	}
	hero, ok := lib.Get("hero")
	if !ok || hero.Name != "Hero" {
		t.Fatalf("Get(hero) = %+v, %v", hero, ok)
	}
	if list := lib.List(); len(list) != 1 || list[0].ID != "hero" {
		t.Errorf("List = %+v", list)
	}
}

func TestInstantiate(t *testing.T) {
	lib := NewLibrary(t.TempDir())
	tpl := heroTemplate()
	tpl.ID = "hero"
	if err := lib.Add(tpl); err != nil {
		t.Fatal(err)
	}

	nodes, err := lib.Instantiate("hero", geometry.Point{X: 0, Y: 20})
	if err != nil {
		t.Fatalf("Instantiate: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("got %d roots", len(nodes))
	}
	if nodes[0].Position != (geometry.Point{X: 0, Y: 20}) {
		t.Errorf("card at %+v, want {0 20}", nodes[0].Position)
	}
	if nodes[1].Position != (geometry.Point{X: 320, Y: 30}) {
		t.Errorf("badge at %+v, want {320 30}", nodes[1].Position)
	}
	if nodes[0].Children[0].Position != (geometry.Point{X: 10, Y: 10}) {
		t.Errorf("child moved to %+v", nodes[0].Children[0].Position)
	}
	for _, n := range nodes {
		for _, id := range component.IDs(n) {
			if id == "card" || id == "title" || id == "badge" {
				t.Errorf("id %q was not regenerated", id)
			}
		}
	}

	again, _ := lib.Instantiate("hero", geometry.Point{})
	if again[0].ID == nodes[0].ID {
		t.Error("two instantiations share ids")
	}

	if _, err := lib.Instantiate("nope", geometry.Point{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown template err = %v", err)
	}
}

func TestAddRejectsInvalidTrees(t *testing.T) {
	lib := NewLibrary(t.TempDir())
	bad := Template{ID: "bad", Components: []component.Node{{ID: "x", Type: component.TypeText}}}
	if err := lib.Add(bad); !errors.Is(err, ErrInvalid) {
		t.Fatalf("err = %v, want ErrInvalid", err)
	}
	if err := lib.Add(Template{Components: heroTemplate().Components}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("missing id err = %v", err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestWatchReloadsAndRemoves(t *testing.T) {
	dir := t.TempDir()
	lib := NewLibrary(dir, WithDebounce(20*time.Millisecond))
	if err := lib.Load(); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := lib.Watch(ctx); err != nil {
		t.Fatalf("Watch: %v", err)
	}

	writeTemplate(t, dir, "hero.json", heroTemplate())
	waitFor(t, func() bool { _, ok := lib.Get("hero"); return ok })

	tpl := heroTemplate()
	tpl.Name = "Hero v2"
	writeTemplate(t, dir, "hero.json", tpl)
	waitFor(t, func() bool { got, _ := lib.Get("hero"); return got.Name == "Hero v2" })

	if err := os.Remove(filepath.Join(dir, "hero.json")); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return lib.Len() == 0 })
}

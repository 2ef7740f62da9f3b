package uitree

import (
	"os"
	"path/filepath"
	"testing"
)

func tree() *Snapshot {
	return &Snapshot{Kids: []*Snapshot{
		{Text: "Caller"},
		{Kids: []*Snapshot{
			{Text: "Answer", CanClick: true},
			{Text: "Decline", CanClick: true},
		}},
	}}
}

func TestPathRoundTrip(t *testing.T) {
	for _, s := range []string{"/", "/0", "/1/1", "/3/0/12"} {
		p, err := ParsePath(s)
		if err != nil {
			t.Fatalf("ParsePath(%q): %v", s, err)
		}
		if got := p.String(); got != s {
			t.Errorf("ParsePath(%q).String() = %q", s, got)
		}
	}
	if _, err := ParsePath("/1/x"); err == nil {
		t.Error("expected error for non-numeric segment")
	}
	if _, err := ParsePath("/-1"); err == nil {
		t.Error("expected error for negative segment")
	}
}

func TestPathAppendDoesNotAlias(t *testing.T) {
	base := make(Path, 1, 4)
	a := base.Append(1)
	b := base.Append(2)
	if a[1] != 1 || b[1] != 2 {
		t.Errorf("aliasing: a=%v b=%v", a, b)
	}
}

func TestResolve(t *testing.T) {
	root := tree()
	if n := Resolve(root, Path{1, 1}); n == nil || n.Label() != "Decline" {
		t.Errorf("Resolve(/1/1) = %v", n)
	}
	if n := Resolve(root, Path{}); n != Node(root) {
		t.Error("empty path should resolve to root")
	}
	if n := Resolve(root, Path{4}); n != nil {
		t.Error("out-of-range path should resolve to nil")
	}
	if n := Resolve(root, Path{0, 0}); n != nil {
		t.Error("path through a leaf should resolve to nil")
	}
}

func TestCaptureDepth(t *testing.T) {
	s := Capture(tree(), 1)
	if len(s.Kids) != 2 {
		t.Fatalf("kids = %d", len(s.Kids))
	}
	if len(s.Kids[1].Kids) != 0 {
		t.Error("capture should stop at depth 1")
	}
	if Capture(nil, 3) != nil {
		t.Error("Capture(nil) should be nil")
	}
}

func TestSnapshotKeepsNullChildPositions(t *testing.T) {
	s := &Snapshot{Kids: []*Snapshot{nil, {Text: "Decline", CanClick: true}}}
	kids := s.Children()
	if len(kids) != 2 {
		t.Fatalf("children = %d, want 2", len(kids))
	}
	if kids[0] != nil {
		t.Errorf("null child = %#v, want untyped nil", kids[0])
	}
	if n := Resolve(s, Path{1}); n == nil || n.Label() != "Decline" {
		t.Errorf("Resolve(/1) = %v", n)
	}
	if n := Resolve(s, Path{0}); n != nil {
		t.Errorf("Resolve(/0) = %#v, want nil", n)
	}
	if n := Resolve(s, Path{0, 0}); n != nil {
		t.Errorf("Resolve(/0/0) = %#v, want nil", n)
	}
	if c := Capture(s, 2); len(c.Kids) != 2 || c.Kids[0] != nil || c.Kids[1].Text != "Decline" {
		t.Errorf("capture = %+v", c.Kids)
	}
}

func TestLoadScreenFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "screen.yaml")
	yamlDoc := `package_name: com.android.incallui
class_name: com.android.incallui.InCallActivity
root:
  children:
    - label: Decline
      clickable: true
`
	if err := os.WriteFile(yamlPath, []byte(yamlDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := LoadScreenFile(yamlPath)
	if err != nil {
		t.Fatalf("LoadScreenFile(yaml): %v", err)
	}
	ev := f.Event()
	if ev.PackageName != "com.android.incallui" || ev.Root == nil {
		t.Fatalf("event = %+v", ev)
	}
	if kid := Resolve(ev.Root, Path{0}); kid == nil || !kid.Clickable() {
		t.Error("decline node not decoded")
	}

	jsonPath := filepath.Join(dir, "screen.json")
	jsonDoc := `{"package_name":"com.android.dialer","root":{"label":"x"}}`
	if err := os.WriteFile(jsonPath, []byte(jsonDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	if f, err := LoadScreenFile(jsonPath); err != nil || f.Root.Text != "x" {
		t.Errorf("LoadScreenFile(json) = %+v, %v", f, err)
	}

	empty := &ScreenFile{PackageName: "p"}
	if empty.Event().Root != nil {
		t.Error("nil root must stay a nil interface")
	}
}

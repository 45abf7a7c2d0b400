package build

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ucg-lang/ucg/pkg/eval"
)

// memLoader serves sources from a map keyed by absolute path and counts
// how often each path is read.
type memLoader struct {
	mu    sync.Mutex
	files map[string]string
	reads map[string]int
}

func newMemLoader(files map[string]string) *memLoader {
	return &memLoader{files: files, reads: map[string]int{}}
}

func (m *memLoader) load(path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	src, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("no such file %s", path)
	}
	m.reads[path]++
	return []byte(src), nil
}

func (m *memLoader) readCount(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads[path]
}

func newTestRegistry(files map[string]string, opts ...Option) (*Registry, *memLoader) {
	loader := newMemLoader(files)
	opts = append([]Option{WithLoader(loader.load)}, opts...)
	return NewRegistry(opts...), loader
}

func TestBuildSimple(t *testing.T) {
	reg, _ := newTestRegistry(map[string]string{
		"/cfg/app.ucg": `
let port = 8000 + 80;
let name = "app";
let server = { name = name, port = port };
`,
	})
	res, err := reg.Build("/cfg/app.ucg")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	server, ok := res.Bindings.AsTuple().Get("server")
	if !ok {
		t.Fatal("server binding missing")
	}
	port, _ := server.AsTuple().Get("port")
	if !port.Equal(eval.Int(8080)) {
		t.Errorf("server.port = %s, want 8080", port.Literal())
	}
}

func TestDuplicateLetIsError(t *testing.T) {
	reg, _ := newTestRegistry(map[string]string{
		"/cfg/app.ucg": "let a = 1;\nlet a = 2;\n",
	})
	_, err := reg.Build("/cfg/app.ucg")
	if !eval.IsNameError(err) {
		t.Fatalf("expected NameError for duplicate let, got %v", err)
	}
}

func TestAssertsRecordedWithoutAborting(t *testing.T) {
	reg, _ := newTestRegistry(map[string]string{
		"/cfg/app_test.ucg": `
let x = 1 + 1;
assert { ok = x == 2, desc = "add" };
assert { ok = x == 3, desc = "broken" };
let after = "still evaluated";
`,
	})
	res, err := reg.Build("/cfg/app_test.ucg")
	if err != nil {
		t.Fatalf("a failing assert must not abort evaluation: %v", err)
	}
	if len(res.Asserts) != 2 {
		t.Fatalf("got %d asserts, want 2", len(res.Asserts))
	}
	if !res.Asserts[0].OK || res.Asserts[0].Desc != "add" {
		t.Errorf("assert 0: %+v", res.Asserts[0])
	}
	if res.Asserts[1].OK || res.Asserts[1].Desc != "broken" {
		t.Errorf("assert 1: %+v", res.Asserts[1])
	}
	if _, ok := res.Bindings.AsTuple().Get("after"); !ok {
		t.Error("statement after the failing assert was not evaluated")
	}
}

func TestAssertShapeIsChecked(t *testing.T) {
	reg, _ := newTestRegistry(map[string]string{
		"/cfg/a.ucg": `assert true;`,
	})
	if _, err := reg.Build("/cfg/a.ucg"); !eval.IsTypeFail(err) {
		t.Fatalf("expected TypeFail for bad assert shape, got %v", err)
	}
}

func TestImportMemoized(t *testing.T) {
	files := map[string]string{
		"/cfg/shared.ucg": `let answer = 42;`,
		"/cfg/a.ucg": `
let one = import "shared.ucg";
let two = import "shared.ucg";
let same = one.answer + two.answer;
`,
		"/cfg/b.ucg": `let s = import "shared.ucg";`,
	}
	reg, loader := newTestRegistry(files)
	resA, err := reg.Build("/cfg/a.ucg")
	if err != nil {
		t.Fatalf("build a: %v", err)
	}
	if _, err := reg.Build("/cfg/b.ucg"); err != nil {
		t.Fatalf("build b: %v", err)
	}
	if got := loader.readCount("/cfg/shared.ucg"); got != 1 {
		t.Errorf("shared.ucg was read %d times, want 1", got)
	}
	one, _ := resA.Bindings.AsTuple().Get("one")
	two, _ := resA.Bindings.AsTuple().Get("two")
	if !one.Equal(two) {
		t.Error("importing the same path twice must return structurally equal tuples")
	}
}

func TestImportRoots(t *testing.T) {
	files := map[string]string{
		"/lib/util.ucg": `let ok = true;`,
		"/cfg/app.ucg":  `let u = import "util.ucg";`,
	}
	reg, _ := newTestRegistry(files, WithImportRoots([]string{"/lib"}))
	res, err := reg.Build("/cfg/app.ucg")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	u, _ := res.Bindings.AsTuple().Get("u")
	if v, _ := u.AsTuple().Get("ok"); !v.Equal(eval.Bool(true)) {
		t.Errorf("import through root broken: %s", u.Literal())
	}
}

func TestImportNotFound(t *testing.T) {
	reg, _ := newTestRegistry(map[string]string{
		"/cfg/app.ucg": `let u = import "missing.ucg";`,
	})
	_, err := reg.Build("/cfg/app.ucg")
	if !eval.IsImportError(err) {
		t.Fatalf("expected ImportError, got %v", err)
	}
}

func TestImportCycle(t *testing.T) {
	reg, _ := newTestRegistry(map[string]string{
		"/cfg/a.ucg": `let b = import "b.ucg";`,
		"/cfg/b.ucg": `let a = import "a.ucg";`,
	})
	_, err := reg.Build("/cfg/a.ucg")
	if !eval.IsImportError(err) {
		t.Fatalf("expected ImportError, got %v", err)
	}
	if !strings.Contains(err.Error(), "import cycle") {
		t.Errorf("cycle not reported: %v", err)
	}
	if !strings.Contains(err.Error(), "a.ucg -> b.ucg -> a.ucg") {
		t.Errorf("cycle chain missing: %v", err)
	}
}

func TestSelfImportCycle(t *testing.T) {
	reg, _ := newTestRegistry(map[string]string{
		"/cfg/a.ucg": `let me = import "a.ucg";`,
	})
	_, err := reg.Build("/cfg/a.ucg")
	if !eval.IsImportError(err) || !strings.Contains(err.Error(), "import cycle") {
		t.Fatalf("self import must cycle, got %v", err)
	}
}

func TestImportErrorWrapsInnerFailure(t *testing.T) {
	reg, _ := newTestRegistry(map[string]string{
		"/cfg/bad.ucg": `let x = 1 + "one";`,
		"/cfg/app.ucg": `let b = import "bad.ucg";`,
	})
	_, err := reg.Build("/cfg/app.ucg")
	if !eval.IsImportError(err) {
		t.Fatalf("expected ImportError, got %v", err)
	}
	// The inner TypeFail must stay reachable through the chain.
	if !strings.Contains(err.Error(), "TypeFail") {
		t.Errorf("inner failure lost: %v", err)
	}
}

func TestOutBuffered(t *testing.T) {
	reg, _ := newTestRegistry(map[string]string{
		"/cfg/app.ucg": `
let cfg = { port = 80 };
out json cfg;
`,
	}, WithConverterCheck(func(name string) bool { return name == "json" }))
	res, err := reg.Build("/cfg/app.ucg")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if res.Out == nil || res.Out.Converter != "json" {
		t.Fatalf("out artifact missing: %+v", res.Out)
	}
	port, _ := res.Out.Value.AsTuple().Get("port")
	if !port.Equal(eval.Int(80)) {
		t.Errorf("out value = %s", res.Out.Value.Literal())
	}
}

func TestTwoOutsIsError(t *testing.T) {
	reg, _ := newTestRegistry(map[string]string{
		"/cfg/app.ucg": "out json { a = 1 };\nout json { b = 2 };\n",
	})
	if _, err := reg.Build("/cfg/app.ucg"); err == nil {
		t.Fatal("a second out statement must be a compile error")
	}
}

func TestUnknownConverterIsError(t *testing.T) {
	reg, _ := newTestRegistry(map[string]string{
		"/cfg/app.ucg": `out nope { a = 1 };`,
	}, WithConverterCheck(func(name string) bool { return name == "json" }))
	_, err := reg.Build("/cfg/app.ucg")
	if err == nil || !strings.Contains(err.Error(), "unknown converter") {
		t.Fatalf("expected unknown converter error, got %v", err)
	}
}

func TestOutForbiddenInImports(t *testing.T) {
	reg, _ := newTestRegistry(map[string]string{
		"/cfg/lib.ucg": `
let a = 1;
out json { a = a };
`,
		"/cfg/app.ucg": `let l = import "lib.ucg";`,
	})
	_, err := reg.Build("/cfg/app.ucg")
	if !eval.IsImportError(err) {
		t.Fatalf("expected ImportError, got %v", err)
	}
	if !strings.Contains(err.Error(), "root files only") {
		t.Errorf("unhelpful error: %v", err)
	}
}

func TestModuleAssertsReachTheDriver(t *testing.T) {
	reg, _ := newTestRegistry(map[string]string{
		"/cfg/a_test.ucg": `
let m = module { n = 1 } => {
	assert { ok = mod.n > 0, desc = "positive" };
	let v = mod.n;
};
let r = m{n = 3};
`,
	})
	res, err := reg.Build("/cfg/a_test.ucg")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(res.Asserts) != 1 || !res.Asserts[0].OK || res.Asserts[0].Desc != "positive" {
		t.Fatalf("module-body assert not recorded: %+v", res.Asserts)
	}
}

func TestConcurrentRootsShareImports(t *testing.T) {
	files := map[string]string{
		"/cfg/shared.ucg": `let n = 1;`,
	}
	const roots = 8
	for i := 0; i < roots; i++ {
		files[fmt.Sprintf("/cfg/root%d.ucg", i)] = `let s = import "shared.ucg";`
	}
	reg, loader := newTestRegistry(files)
	var wg sync.WaitGroup
	errs := make([]error, roots)
	for i := 0; i < roots; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = reg.Build(fmt.Sprintf("/cfg/root%d.ucg", i))
		}(i)
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Fatalf("root %d: %v", i, err)
		}
	}
	if got := loader.readCount("/cfg/shared.ucg"); got != 1 {
		t.Errorf("shared import evaluated %d times under concurrency, want 1", got)
	}
}

func TestRegistryAssertsAggregate(t *testing.T) {
	reg, _ := newTestRegistry(map[string]string{
		"/cfg/helpers.ucg": `
let ok = true;
assert { ok = ok, desc = "helper invariant" };
`,
		"/cfg/a_test.ucg": `
let h = import "helpers.ucg";
assert { ok = h.ok, desc = "root check" };
`,
	})
	if _, err := reg.Build("/cfg/a_test.ucg"); err != nil {
		t.Fatalf("build: %v", err)
	}
	asserts := reg.Asserts()
	if len(asserts) != 2 {
		t.Fatalf("got %d aggregated asserts, want 2", len(asserts))
	}
	paths := map[string]bool{}
	for _, a := range asserts {
		paths[filepath.Base(a.Path)] = true
	}
	if !paths["helpers.ucg"] || !paths["a_test.ucg"] {
		t.Errorf("asserts not attributed to their files: %+v", asserts)
	}
}

func TestDiscoverFiles(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		return path
	}
	write("app.ucg", "let a = 1;")
	write("sub/other.ucg", "let b = 2;")
	write("sub/other_test.ucg", "assert { ok = true, desc = \"\" };")
	write("notes.txt", "not ucg")

	builds, err := DiscoverFiles([]string{dir}, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(builds) != 2 {
		t.Errorf("build discovery found %d files, want 2: %v", len(builds), builds)
	}
	tests, err := DiscoverFiles([]string{dir}, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(tests) != 1 || !strings.HasSuffix(tests[0], "other_test.ucg") {
		t.Errorf("test discovery found %v", tests)
	}
}

func TestBuildFromDisk(t *testing.T) {
	dir := t.TempDir()
	lib := filepath.Join(dir, "lib.ucg")
	app := filepath.Join(dir, "app.ucg")
	if err := os.WriteFile(lib, []byte("let greeting = \"hello\";\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(app, []byte("let l = import \"lib.ucg\";\nlet msg = l.greeting + \" world\";\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	reg := NewRegistry()
	res, err := reg.Build(app)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	msg, _ := res.Bindings.AsTuple().Get("msg")
	if !msg.Equal(eval.Str("hello world")) {
		t.Errorf("msg = %s", msg.Literal())
	}
}

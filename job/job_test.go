package job

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/kbukum/minispark/engine"
	"github.com/kbukum/minispark/errors"
)

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e, err := engine.New(engine.Config{Workers: 4}, engine.WithMetricsWriter(&bytes.Buffer{}))
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Run(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := e.TearDown(); err != nil {
			t.Errorf("TearDown failed: %v", err)
		}
	})
	return e
}

func TestLoadWordcount(t *testing.T) {
	def, err := Load(filepath.Join("testdata", "wordcount.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if def.Name != "wordcount" || len(def.Steps) != 3 {
		t.Fatalf("unexpected definition %+v", def)
	}
	want := []string{filepath.Join("testdata", "a.txt"), filepath.Join("testdata", "b.txt")}
	if !reflect.DeepEqual(def.Inputs["lines"], want) {
		t.Fatalf("expected inputs resolved to %v, got %v", want, def.Inputs["lines"])
	}

	res, err := Run(context.Background(), newEngine(t), def, Builtins(), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Count != 4 {
		t.Fatalf("expected 4 elements, got %d", res.Count)
	}
	if res.RunID == "" {
		t.Fatal("expected a run id")
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{
			name:  "missing name",
			yaml:  "inputs: {a: [x]}\naction: {op: count, target: a}\n",
			field: "name",
		},
		{
			name:  "unknown op",
			yaml:  "name: j\ninputs: {a: [x]}\nsteps: [{name: b, op: reduce, from: a, fn: f}]\naction: {op: count, target: b}\n",
			field: "steps[0].op",
		},
		{
			name:  "forward reference",
			yaml:  "name: j\ninputs: {a: [x]}\nsteps: [{name: b, op: map, from: c, fn: f}, {name: c, op: map, from: a, fn: f}]\naction: {op: count, target: b}\n",
			field: "steps[0].from",
		},
		{
			name:  "duplicate name",
			yaml:  "name: j\ninputs: {a: [x]}\nsteps: [{name: a, op: map, from: a, fn: f}]\naction: {op: count, target: a}\n",
			field: "steps[0].name",
		},
		{
			name:  "join without right side",
			yaml:  "name: j\ninputs: {a: [x]}\nsteps: [{name: b, op: join, from: a, fn: f}]\naction: {op: count, target: b}\n",
			field: "steps[0].with",
		},
		{
			name:  "partitionBy without partitions",
			yaml:  "name: j\ninputs: {a: [x]}\nsteps: [{name: b, op: partitionBy, from: a, fn: hash}]\naction: {op: count, target: b}\n",
			field: "steps[0].partitions",
		},
		{
			name:  "unknown target",
			yaml:  "name: j\ninputs: {a: [x]}\naction: {op: count, target: zz}\n",
			field: "action.target",
		},
		{
			name:  "bad action",
			yaml:  "name: j\ninputs: {a: [x]}\naction: {op: reduce, target: a}\n",
			field: "action.op",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
				t.Fatalf("expected INVALID_INPUT error, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Fatalf("expected error to mention %q, got %v", tt.field, err)
			}
		})
	}
}

func TestParseUnknownKey(t *testing.T) {
	_, err := Parse([]byte("name: j\ninputs: {a: [x]}\nbogus: 1\naction: {op: count, target: a}\n"))
	if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT for unknown key, got %v", err)
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunJoinPrint(t *testing.T) {
	dir := t.TempDir()
	left := writeFile(t, dir, "left.txt", "1\n2\n")
	right := writeFile(t, dir, "right.txt", "2\n3\n")

	def := &Definition{
		Name:   "join",
		Inputs: map[string][]string{"left": {left}, "right": {right}},
		Steps: []Step{
			{Name: "both", Op: OpJoin, From: "left", With: "right", Fn: "equal"},
		},
		Action: Action{Op: ActionPrint, Target: "both"},
	}
	if err := def.Validate(); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	res, err := Run(context.Background(), newEngine(t), def, Builtins(), &out)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if out.String() != "2\n" || res.Count != 1 {
		t.Fatalf("expected one printed element 2, got %q (count %d)", out.String(), res.Count)
	}
}

func TestRunCollectWithArg(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.txt", "apple\nBanana\ncherry\n")

	def := &Definition{
		Name:   "grep",
		Inputs: map[string][]string{"in": {in}},
		Steps: []Step{
			{Name: "up", Op: OpMap, From: "in", Fn: "upper"},
			{Name: "an", Op: OpFilter, From: "up", Fn: "contains", Arg: "AN"},
		},
		Action: Action{Op: ActionCollect, Target: "an"},
	}
	res, err := Run(context.Background(), newEngine(t), def, Builtins(), nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !reflect.DeepEqual(res.Elements, []any{"BANANA"}) {
		t.Fatalf("unexpected elements %v", res.Elements)
	}
}

func TestRunUnknownFunction(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.txt", "a\n")
	def := &Definition{
		Name:   "bad",
		Inputs: map[string][]string{"in": {in}},
		Steps:  []Step{{Name: "x", Op: OpMap, From: "in", Fn: "reverse"}},
		Action: Action{Op: ActionCount, Target: "x"},
	}
	_, err := Run(context.Background(), newEngine(t), def, Builtins(), nil)
	if !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestRunMissingInput(t *testing.T) {
	def := &Definition{
		Name:   "missing",
		Inputs: map[string][]string{"in": {filepath.Join(t.TempDir(), "gone.txt")}},
		Action: Action{Op: ActionCount, Target: "in"},
	}
	_, err := Run(context.Background(), newEngine(t), def, Builtins(), nil)
	if !errors.HasCode(err, errors.ErrCodeFileOpen) {
		t.Fatalf("expected FILE_OPEN, got %v", err)
	}
}

func TestBuiltins(t *testing.T) {
	reg := Builtins()
	if got := reg.List(OpMap); !reflect.DeepEqual(got, []string{"identity", "lower", "trim", "upper"}) {
		t.Fatalf("unexpected map builtins %v", got)
	}

	hash, err := reg.Partition("hash")
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range []int{1, 3, 8} {
		if p := hash("word", n, nil); p >= uint64(n) {
			t.Fatalf("hash returned %d for %d partitions", p, n)
		}
	}
	if hash("word", 8, nil) != hash("word", 8, nil) {
		t.Fatal("expected hash to be deterministic")
	}

	pair, _ := reg.Join("pair")
	v, ok := pair("a", "b", nil)
	if !ok || !reflect.DeepEqual(v, []any{"a", "b"}) {
		t.Fatalf("unexpected pair result %v", v)
	}

	custom := NewRegistry()
	custom.RegisterFilter("short", func(e any, _ any) bool { return len(e.(string)) < 3 })
	names := custom.List(OpFilter)
	sort.Strings(names)
	if !reflect.DeepEqual(names, []string{"short"}) {
		t.Fatalf("unexpected filters %v", names)
	}
}

func TestLoadHCLMatchesYAML(t *testing.T) {
	fromYAML, err := Load(filepath.Join("testdata", "wordcount.yaml"))
	if err != nil {
		t.Fatalf("Load yaml failed: %v", err)
	}
	fromHCL, err := Load(filepath.Join("testdata", "wordcount.hcl"))
	if err != nil {
		t.Fatalf("Load hcl failed: %v", err)
	}
	if !reflect.DeepEqual(fromYAML, fromHCL) {
		t.Fatalf("expected identical definitions\nyaml: %+v\nhcl:  %+v", fromYAML, fromHCL)
	}

	res, err := Run(context.Background(), newEngine(t), fromHCL, Builtins(), &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if res.Count != 4 {
		t.Fatalf("expected 4 elements, got %d", res.Count)
	}
}

func TestParseHCLReadsEnv(t *testing.T) {
	t.Setenv("MINISPARK_TEST_BUCKET", "logs")
	src := `
name = "env"
input "lines" {
  paths = ["s3://${env.MINISPARK_TEST_BUCKET}/a.txt"]
}
step "up" {
  op   = "map"
  from = "lines"
  fn   = "upper"
}
action {
  op     = "print"
  target = "up"
}
`
	def, err := ParseHCL([]byte(src), "env.hcl")
	if err != nil {
		t.Fatalf("ParseHCL failed: %v", err)
	}
	if got := def.Inputs["lines"]; len(got) != 1 || got[0] != "s3://logs/a.txt" {
		t.Fatalf("expected env interpolation, got %v", got)
	}
}

func TestParseHCLRejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "syntax",
			src:  `name = `,
			want: "hcl",
		},
		{
			name: "unknown attribute",
			src:  "name = \"j\"\ncolor = \"red\"\ninput \"a\" {\n  paths = [\"x\"]\n}\naction {\n  op = \"count\"\n  target = \"a\"\n}\n",
			want: "color",
		},
		{
			name: "missing action",
			src:  "name = \"j\"\ninput \"a\" {\n  paths = [\"x\"]\n}\n",
			want: "action",
		},
		{
			name: "duplicate input",
			src:  "name = \"j\"\ninput \"a\" {\n  paths = [\"x\"]\n}\ninput \"a\" {\n  paths = [\"y\"]\n}\naction {\n  op = \"count\"\n  target = \"a\"\n}\n",
			want: "duplicate",
		},
		{
			name: "bad op",
			src:  "name = \"j\"\ninput \"a\" {\n  paths = [\"x\"]\n}\nstep \"b\" {\n  op = \"reduce\"\n  from = \"a\"\n  fn = \"f\"\n}\naction {\n  op = \"count\"\n  target = \"b\"\n}\n",
			want: "op",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseHCL([]byte(tt.src), "job.hcl")
			if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
				t.Fatalf("expected INVALID_INPUT, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestExpandInputs(t *testing.T) {
	def := &Definition{Inputs: map[string][]string{
		"logs":  {"data/*.txt", "extra.txt"},
		"empty": {"none/*"},
	}}
	glob := func(_ context.Context, p string) ([]string, error) {
		switch p {
		case "data/*.txt":
			return []string{"data/a.txt", "data/b.txt"}, nil
		case "none/*":
			return nil, errors.NotFound("input", p)
		}
		return []string{p}, nil
	}

	err := def.ExpandInputs(context.Background(), glob)
	if !errors.HasCode(err, errors.ErrCodeNotFound) {
		t.Fatalf("expected NOT_FOUND from the empty pattern, got %v", err)
	}

	delete(def.Inputs, "empty")
	if err := def.ExpandInputs(context.Background(), glob); err != nil {
		t.Fatalf("ExpandInputs failed: %v", err)
	}
	want := []string{"data/a.txt", "data/b.txt", "extra.txt"}
	if !reflect.DeepEqual(def.Inputs["logs"], want) {
		t.Fatalf("expected %v, got %v", want, def.Inputs["logs"])
	}
}

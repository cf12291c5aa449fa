package compile_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap/zaptest"

	"twc/compile"
	"twc/config"
	"twc/designsystem"
	"twc/state"
)

func newContext(t *testing.T) context.Context {
	t.Helper()
	ctx := state.ContextWithEnv(context.Background())
	env := state.EnvFromContext(ctx)
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Build.Banner = ""
	env.Cfg = cfg
	env.Log = zaptest.NewLogger(t)
	return ctx
}

// run executes a single command the way the application does and returns
// what it wrote to standard output.
func run(t *testing.T, ctx context.Context, cmd *cli.Command, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	root := &cli.Command{Name: "twc", Writer: &buf, Commands: []*cli.Command{cmd}}
	err := root.Run(ctx, append([]string{"twc", cmd.Name}, args...))
	return buf.String(), err
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func buildCommand() *cli.Command {
	return &cli.Command{Name: "build", Flags: compile.BuildFlags(), Action: compile.Run}
}

func TestBuild(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"index.html": `<div class="underline nonsense-xyz p-4"></div>`,
		"app.js":     `el.className = "flex"`,
	})
	out := filepath.Join(dir, "out.css")

	if _, err := run(t, newContext(t), buildCommand(), "--output", out, filepath.Join(dir, "index.html")); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	want := ".underline {\n  text-decoration-line: underline;\n}\n\n.p-4 {\n  padding: calc(var(--spacing) * 4);\n}\n"
	if string(data) != want {
		t.Errorf("got:\n%s\nwant:\n%s", data, want)
	}
}

func TestBuildOptions(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"index.html": `<div class="p-4 flex underline"></div>`,
		"theme.css": `@import "tailwindcss";
@utility content-auto {
  content-visibility: auto;
}`,
		"page.html": `<p class="content-auto">`,
	})
	ctx := newContext(t)
	env := state.EnvFromContext(ctx)
	env.Cfg.Build.Banner = `{{ .App }}: {{ .Rules }}/{{ .Candidates }}`

	got, err := run(t, ctx, buildCommand(),
		"--input", filepath.Join(dir, "theme.css"),
		"--sort", "natural",
		"--important",
		dir)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(got, "/* twc: 4/4 */\n\n") {
		t.Errorf("unexpected banner in:\n%s", got)
	}
	// natural order: content-auto, flex, p-4, underline
	order := []string{".content-auto", ".flex", ".p-4", ".underline"}
	last := -1
	for _, sel := range order {
		i := strings.Index(got, sel+" {")
		if i < 0 || i < last {
			t.Fatalf("%s is missing or out of order in:\n%s", sel, got)
		}
		last = i
	}
	if strings.Count(got, "!important") != 4 {
		t.Errorf("important was not applied everywhere:\n%s", got)
	}
}

func TestBuildErrors(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.html": `<b class="flex">`})

	tests := []struct {
		name string
		args []string
	}{
		{"no content", nil},
		{"bad sort", []string{"--sort", "random", dir}},
		{"missing input", []string{"--input", filepath.Join(dir, "nope.css"), dir}},
		{"missing content", []string{filepath.Join(dir, "nope")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := run(t, newContext(t), buildCommand(), tt.args...); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestBuildCharset(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.txt": "flex"})
	ctx := newContext(t)

	if _, err := run(t, ctx, buildCommand(), "--charset", "windows-1251", dir); err != nil {
		t.Fatal(err)
	}
	if state.EnvFromContext(ctx).CodePage == nil {
		t.Error("charset was not applied")
	}

	ctx = newContext(t)
	if _, err := run(t, ctx, buildCommand(), "--charset", "no-such-charset", dir); err != nil {
		t.Fatal(err)
	}
	if state.EnvFromContext(ctx).CodePage != nil {
		t.Error("unknown charset must fall back to UTF-8")
	}
}

func TestAssemble(t *testing.T) {
	rules := []string{".a {\n  x: y;\n}\n", ".b {\n  x: z;\n}\n"}
	tests := []struct {
		banner string
		rules  []string
		want   string
	}{
		{"", nil, ""},
		{"hi", nil, "/* hi */\n"},
		{"", rules, ".a {\n  x: y;\n}\n\n.b {\n  x: z;\n}\n"},
		{"a */ b", rules[:1], "/* a * / b */\n\n.a {\n  x: y;\n}\n"},
	}
	for _, tt := range tests {
		if got := string(compile.Assemble(tt.banner, tt.rules)); got != tt.want {
			t.Errorf("Assemble(%q) = %q, want %q", tt.banner, got, tt.want)
		}
	}
}

func TestClasses(t *testing.T) {
	cmd := &cli.Command{
		Name:   "classes",
		Flags:  append(compile.InputFlags(), &cli.BoolFlag{Name: "modifiers"}),
		Action: compile.Classes,
	}
	got, err := run(t, newContext(t), cmd, "--modifiers")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(got, "\n")
	has := func(prefix string) bool {
		for _, l := range lines {
			if l == prefix || strings.HasPrefix(l, prefix+"\t") {
				return true
			}
		}
		return false
	}
	for _, name := range []string{"underline", "p-4", "w-1/2", "bg-red-500"} {
		if !has(name) {
			t.Errorf("%s is not listed", name)
		}
	}
}

func TestWriteVariants(t *testing.T) {
	var buf bytes.Buffer
	list := []designsystem.VariantEntry{
		{Name: "hover"},
		{Name: "group", HasDash: true, IsCompound: true, Values: []string{"hover", "focus"}},
	}
	if err := compile.WriteVariants(&buf, list, true); err != nil {
		t.Fatal(err)
	}
	if want := "hover\ngroup-*\thover focus\n"; buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestVariants(t *testing.T) {
	cmd := &cli.Command{
		Name:   "variants",
		Flags:  append(compile.InputFlags(), &cli.BoolFlag{Name: "selectors"}),
		Action: compile.Variants,
	}
	got, err := run(t, newContext(t), cmd, "--selectors")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"hover\n\t@media (hover: hover) { &:hover }\n", "focus\n\t&:focus\n", "\ngroup-*\t"} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}
}

func TestCandidates(t *testing.T) {
	cmd := &cli.Command{Name: "candidates", Flags: compile.CandidatesFlags(), Action: compile.Candidates}
	got, err := run(t, newContext(t), cmd, "underline", "not-a-class")
	if err != nil {
		t.Fatal(err)
	}
	if want := ".underline {\n  text-decoration-line: underline;\n}\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	got, err = run(t, newContext(t), cmd, "--explain", "hover:underline", "nope")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"candidate: \"hover:underline\"\n  static underline\n  variant static hover\n\n",
		"candidate: \"nope\"\n  does not parse\n\n",
		".hover\\:underline:hover",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in:\n%s", want, got)
		}
	}

	if _, err := run(t, newContext(t), cmd); err == nil {
		t.Error("expected error without candidates")
	}
}

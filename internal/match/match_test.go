package match

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reviewgate/internal/lang"
)

func lines(hits []Hit) []int {
	out := make([]int, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.Line)
	}
	return out
}

func src(parts ...string) string {
	return strings.Join(parts, "\n") + "\n"
}

func TestPatternFirstExprWinsAndExcludes(t *testing.T) {
	p := &Pattern{
		Exprs: []Expr{
			{Label: "API key", Regex: regexp.MustCompile(`(?i)api_key\s*=\s*["'][^"']{8,}`), Confidence: 95},
			{Label: "secret", Regex: regexp.MustCompile(`(?i)(api_key|secret)\s*=\s*["']`)},
		},
		Exclude:      []*regexp.Regexp{regexp.MustCompile(`os\.getenv`)},
		SkipComments: true,
	}
	f := NewFile("settings.py", lang.Python, src(
		`API_KEY = "abcdef123456"`,
		`# API_KEY = "abcdef123456"`,
		`API_KEY = "abcdef123456" if not os.getenv("CI") else ""`,
		`SECRET = "x"`,
	))
	hits, err := p.Match(f)
	require.NoError(t, err)
	require.Equal(t, []int{1, 4}, lines(hits))
	assert.Equal(t, "API key", hits[0].Vars["label"])
	assert.Equal(t, 95, hits[0].Confidence)
	assert.Equal(t, "secret", hits[1].Vars["label"])
	assert.Zero(t, hits[1].Confidence)
}

func TestPatternAggregatesAboveThreshold(t *testing.T) {
	p := &Pattern{
		Exprs:               []Expr{{Regex: regexp.MustCompile(`^\s*print\(`)}},
		MatchCode:           true,
		AggregateOver:       3,
		AggregateConfidence: 80,
		AggregateMessage:    "{count} print() statements found",
	}

	three := NewFile("a.py", lang.Python, src("print(1)", "print(2)", "x = 'print('", "print(3)"))
	hits, err := p.Match(three)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 4}, lines(hits))

	four := NewFile("b.py", lang.Python, src("x = 1", "print(1)", "print(2)", "print(3)", "print(4)"))
	hits, err = p.Match(four)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 2, hits[0].Line)
	assert.Equal(t, 80, hits[0].Confidence)
	assert.Equal(t, "4", hits[0].Vars["count"])
	assert.Equal(t, "{count} print() statements found", hits[0].Message)
}

func TestWindowBoundaryIsInclusive(t *testing.T) {
	w := &Window{
		Trigger:     regexp.MustCompile(`^\s*def\s+\w+\(request`),
		Corroborate: regexp.MustCompile(`@login_required`),
		Before:      5,
	}
	atBoundary := NewFile("views.py", lang.Python, src(
		"@login_required",
		"# a",
		"# b",
		"# c",
		"# d",
		"def view(request):",
	))
	hits, err := w.Match(atBoundary)
	require.NoError(t, err)
	assert.Empty(t, hits)

	oneFurther := NewFile("views.py", lang.Python, src(
		"@login_required",
		"# a",
		"# b",
		"# c",
		"# d",
		"# e",
		"def view(request):",
	))
	hits, err = w.Match(oneFurther)
	require.NoError(t, err)
	assert.Equal(t, []int{7}, lines(hits))
}

func TestWindowAfterAndClipping(t *testing.T) {
	w := &Window{
		Label:       "findMany",
		Trigger:     regexp.MustCompile(`\.findMany\(`),
		Corroborate: regexp.MustCompile(`tenantId`),
		After:       2,
	}
	f := NewFile("svc.ts", lang.TypeScript, src(
		"const a = await prisma.user.findMany({",
		"  where: { tenantId },",
		"});",
		"const b = await prisma.post.findMany({",
		"  take: 10,",
	))
	hits, err := w.Match(f)
	require.NoError(t, err)
	require.Equal(t, []int{4}, lines(hits))
	assert.Equal(t, "findMany", hits[0].Vars["label"])
}

func TestWindowIgnoresCommentedCorroborationButHonorsSuppressNear(t *testing.T) {
	w := &Window{
		Trigger:      regexp.MustCompile(`@Get\(`),
		Corroborate:  regexp.MustCompile(`@UseGuards\(`),
		SuppressNear: regexp.MustCompile(`(?i)example`),
		Before:       3,
	}
	commented := NewFile("c.ts", lang.TypeScript, src("// @UseGuards(AuthGuard)", "@Get('/users')"))
	hits, err := w.Match(commented)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, lines(hits))

	example := NewFile("c.ts", lang.TypeScript, src("// example endpoint", "@Get('/users')"))
	hits, err = w.Match(example)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestBlockBraces(t *testing.T) {
	b := &Block{Trigger: regexp.MustCompile(`catch\s*(\([^)]*\))?\s*\{`)}
	tests := []struct {
		name string
		code string
		want []int
	}{
		{"single line empty", "try { run() } catch (e) {}", []int{1}},
		{"exactly at ceiling", src("try {", "  run();", "} catch (e) {", "", "}"), []int{3}},
		{"over ceiling", src("try {", "} catch (e) {", "", "", "}"), []int{}},
		{"comment only", src("try {", "} catch (e) {", "  // expected when offline", "}"), []int{}},
		{"trailing comment on trigger", src("try {", "} catch (e) { // ignore", "}"), []int{}},
		{"comment after closing brace", src("try {", "} catch (e) {", "} // handled upstream"), []int{2}},
		{"comment before trigger", src("try {", "/* swallow */ } catch (e) {", "}"), []int{2}},
		{"comment before closing brace", src("try {", "} catch (e) {", "  /* ok */ }"), []int{}},
		{"statement", src("try {", "} catch (e) {", "  log(e);", "}"), []int{}},
		{"noop semicolon", src("try {", "} catch (e) {", "  ;", "}"), []int{2}},
		{"braces in string", src("try {", "} catch (e) {", "  msg = '}';", "}"), []int{}},
		{"two triggers", src("try { a() } catch (e) {}", "try { b() } catch (e) { report(e) }"), []int{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := b.Match(NewFile("x.ts", lang.TypeScript, tt.code))
			require.NoError(t, err)
			assert.Equal(t, tt.want, lines(hits))
		})
	}
}

func TestBlockIgnoresCommentsOutsideBlock(t *testing.T) {
	b := &Block{Label: "error check", Trigger: regexp.MustCompile(`if\s+err\s*!=\s*nil\s*\{`)}
	tests := []struct {
		name string
		code string
		want []int
	}{
		{"bare", src("if err != nil {", "}"), []int{1}},
		{"comment after close", src("if err != nil {", "} // TODO: handle later"), []int{1}},
		{"comment before trigger", src("/* load */ if err != nil {", "}"), []int{1}},
		{"single line with trailing comment", "if err != nil {} // later", []int{1}},
		{"comment inside", src("if err != nil {", "\t// tolerated", "}"), []int{}},
		{"comment inside single line", "if err != nil { /* tolerated */ }", []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := b.Match(NewFile("x.go", lang.Go, tt.code))
			require.NoError(t, err)
			assert.Equal(t, tt.want, lines(hits))
		})
	}
}

func TestBlockIndented(t *testing.T) {
	b := &Block{Trigger: regexp.MustCompile(`^\s*except\b[^:]*:`)}
	tests := []struct {
		name string
		code string
		want []int
	}{
		{"pass", src("try:", "    run()", "except ValueError:", "    pass", "done()"), []int{3}},
		{"inline pass", src("try:", "    run()", "except: pass"), []int{3}},
		{"ellipsis", src("try:", "    run()", "except Exception as e:", "    ..."), []int{3}},
		{"comment", src("try:", "    run()", "except Exception:", "    # best effort", "    pass"), []int{}},
		{"trailing comment", src("try:", "    run()", "except Exception:  # fine", "    pass"), []int{}},
		{"statement", src("try:", "    run()", "except Exception:", "    log.warning('x')"), []int{}},
		{"ceiling", src("try:", "    run()", "except Exception:", "", "", "    pass"), []int{}},
		{"dedent ends block", src("def f():", "    try:", "        run()", "    except KeyError:", "        pass", "    return 1"), []int{4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := b.Match(NewFile("x.py", lang.Python, tt.code))
			require.NoError(t, err)
			assert.Equal(t, tt.want, lines(hits))
		})
	}
}

func TestBlockGoErrCheck(t *testing.T) {
	b := &Block{Trigger: regexp.MustCompile(`if\s+err\s*!=\s*nil\s*\{`)}
	f := NewFile("main.go", lang.Go, src(
		"if err != nil {",
		"}",
		"if err != nil {",
		"\treturn err",
		"}",
	))
	hits, err := b.Match(f)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, lines(hits))
}

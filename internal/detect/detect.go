// Package detect resolves which framework a source file is written against,
// from its own imports first and from project-level manifests otherwise.
package detect

import (
	"bufio"
	"encoding/json"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"reviewgate/internal/lang"
)

// Framework ids. They are the values rule scopes and config refer to.
const (
	Django  = "django"
	Flask   = "flask"
	FastAPI = "fastapi"
	NestJS  = "nestjs"
	Express = "express"
	Next    = "nextjs"
	React   = "react"
	Vue     = "vue"
	Gin     = "gin"
	Echo    = "echo"
	Chi     = "chi"
	Fiber   = "fiber"
	Spring  = "spring"
)

var frameworkLanguages = map[string][]lang.Language{
	Django:  {lang.Python},
	Flask:   {lang.Python},
	FastAPI: {lang.Python},
	NestJS:  {lang.TypeScript, lang.JavaScript},
	Express: {lang.TypeScript, lang.JavaScript},
	Next:    {lang.TypeScript, lang.JavaScript},
	React:   {lang.TypeScript, lang.JavaScript},
	Vue:     {lang.TypeScript, lang.JavaScript},
	Gin:     {lang.Go},
	Echo:    {lang.Go},
	Chi:     {lang.Go},
	Fiber:   {lang.Go},
	Spring:  {lang.Java},
}

// Frameworks maps a language to the framework in use for it.
type Frameworks map[lang.Language]string

// Known reports whether id is a framework this package can resolve.
func Known(id string) bool {
	_, ok := frameworkLanguages[normalize(id)]
	return ok
}

// Declared turns config-declared framework ids into per-language entries.
// Unknown ids are ignored. The backend wins when both cover a language.
func Declared(backend, frontend string) Frameworks {
	out := Frameworks{}
	for _, id := range []string{frontend, backend} {
		id = normalize(id)
		for _, l := range frameworkLanguages[id] {
			out[l] = id
		}
	}
	return out
}

func normalize(id string) string {
	id = strings.ToLower(strings.TrimSpace(id))
	switch id {
	case "next", "next.js":
		return Next
	case "nest", "nest.js":
		return NestJS
	case "spring-boot", "springboot":
		return Spring
	}
	return id
}

// Project inspects dependency manifests at root. Backend frameworks take
// priority over frontend ones for the same language.
func Project(root string) Frameworks {
	out := Frameworks{}

	deps := readPackageJSONDeps(root)
	for _, c := range []struct {
		dep string
		id  string
	}{
		{"@nestjs/core", NestJS},
		{"express", Express},
		{"next", Next},
		{"react", React},
		{"vue", Vue},
	} {
		if _, ok := deps[c.dep]; ok {
			setLanguages(out, c.id)
			break
		}
	}

	python := append(readFileLines(root, "requirements.txt"), readFileLines(root, "pyproject.toml")...)
	for _, id := range []string{Django, FastAPI, Flask} {
		if containsPythonPackage(python, id) {
			setLanguages(out, id)
			break
		}
	}

	gomod := strings.Join(readFileLines(root, "go.mod"), "\n")
	for _, c := range []struct {
		module string
		id     string
	}{
		{"github.com/gin-gonic/gin", Gin},
		{"github.com/labstack/echo", Echo},
		{"github.com/go-chi/chi", Chi},
		{"github.com/gofiber/fiber", Fiber},
	} {
		if strings.Contains(gomod, c.module) {
			setLanguages(out, c.id)
			break
		}
	}

	for _, name := range []string{"pom.xml", "build.gradle", "build.gradle.kts"} {
		if strings.Contains(strings.Join(readFileLines(root, name), "\n"), "springframework") {
			setLanguages(out, Spring)
			break
		}
	}
	return out
}

func setLanguages(out Frameworks, id string) {
	for _, l := range frameworkLanguages[id] {
		out[l] = id
	}
}

type signature struct {
	id string
	re *regexp.Regexp
}

// Ordered: the first signature found in a file decides.
var signatures = map[lang.Language][]signature{
	lang.Python: {
		{Django, regexp.MustCompile(`(?m)^\s*(from|import)\s+django\b`)},
		{FastAPI, regexp.MustCompile(`(?m)^\s*(from|import)\s+fastapi\b`)},
		{Flask, regexp.MustCompile(`(?m)^\s*(from|import)\s+flask\b`)},
	},
	lang.TypeScript: jsSignatures,
	lang.JavaScript: jsSignatures,
	lang.Go: {
		{Gin, regexp.MustCompile(`"github\.com/gin-gonic/gin"`)},
		{Echo, regexp.MustCompile(`"github\.com/labstack/echo(/v\d+)?"`)},
		{Chi, regexp.MustCompile(`"github\.com/go-chi/chi(/v\d+)?"`)},
		{Fiber, regexp.MustCompile(`"github\.com/gofiber/fiber(/v\d+)?"`)},
	},
	lang.Java: {
		{Spring, regexp.MustCompile(`(?m)^\s*import\s+org\.springframework\.`)},
	},
}

var jsSignatures = []signature{
	{NestJS, regexp.MustCompile(`(from\s+|require\(\s*)['"]@nestjs/`)},
	{Express, regexp.MustCompile(`(from\s+|require\(\s*)['"]express['"]`)},
	{Next, regexp.MustCompile(`(from\s+|require\(\s*)['"]next(/[\w-]+)*['"]`)},
	{Vue, regexp.MustCompile(`(from\s+|require\(\s*)['"]vue['"]`)},
	{React, regexp.MustCompile(`(from\s+|require\(\s*)['"]react(-dom)?['"]`)},
}

// File returns the framework a file's own imports point at, or "".
func File(l lang.Language, content string) string {
	for _, sig := range signatures[l] {
		if sig.re.MatchString(content) {
			return sig.id
		}
	}
	return ""
}

// Memo resolves and remembers one framework per file path for a scan.
// Precedence: file signature, then config-declared, then project manifests.
type Memo struct {
	project  Frameworks
	declared Frameworks

	mu     sync.Mutex
	byPath map[string]string
}

func NewMemo(project, declared Frameworks) *Memo {
	return &Memo{project: project, declared: declared, byPath: map[string]string{}}
}

func (m *Memo) Resolve(path string, l lang.Language, content string) string {
	m.mu.Lock()
	fw, ok := m.byPath[path]
	m.mu.Unlock()
	if ok {
		return fw
	}

	fw = File(l, content)
	if fw == "" {
		fw = m.declared[l]
	}
	if fw == "" {
		fw = m.project[l]
	}

	m.mu.Lock()
	m.byPath[path] = fw
	m.mu.Unlock()
	return fw
}

func fileExists(dir, name string) bool {
	info, err := os.Stat(filepath.Join(dir, name))
	return err == nil && !info.IsDir()
}

// readPackageJSONDeps returns the merged dependencies and devDependencies of
// root/package.json, or nil when absent or unparseable.
func readPackageJSONDeps(root string) map[string]string {
	data, err := os.ReadFile(filepath.Join(root, "package.json"))
	if err != nil {
		return nil
	}

	var pkg struct {
		Dependencies    map[string]string `json:"dependencies"`
		DevDependencies map[string]string `json:"devDependencies"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil
	}

	merged := make(map[string]string, len(pkg.Dependencies)+len(pkg.DevDependencies))
	maps.Copy(merged, pkg.Dependencies)
	maps.Copy(merged, pkg.DevDependencies)
	return merged
}

func readFileLines(root, name string) []string {
	if !fileExists(root, name) {
		return nil
	}
	f, err := os.Open(filepath.Join(root, name))
	if err != nil {
		return nil
	}
	defer func() { _ = f.Close() }()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// containsPythonPackage matches requirement lines such as "Django>=4.2" and
// pyproject entries such as `"fastapi[all]==0.110",`.
func containsPythonPackage(lines []string, pkg string) bool {
	for _, line := range lines {
		line = strings.ToLower(strings.Trim(line, `"', `))
		if extractPythonPackage(line) == pkg {
			return true
		}
	}
	return false
}

// extractPythonPackage strips extras and version specifiers:
// "flask[async]==3.0" → "flask".
func extractPythonPackage(line string) string {
	if idx := strings.IndexByte(line, '['); idx != -1 {
		line = line[:idx]
	}
	for _, sep := range []string{"==", ">=", "<=", "~=", "!=", "<", ">", ";", " "} {
		if idx := strings.Index(line, sep); idx != -1 {
			line = line[:idx]
		}
	}
	return strings.TrimSpace(line)
}

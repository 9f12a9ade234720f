package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initTestRepo(t *testing.T) (string, func(args ...string)) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test",
			"GIT_AUTHOR_EMAIL=test@test.com",
			"GIT_COMMITTER_NAME=test",
			"GIT_COMMITTER_EMAIL=test@test.com",
		)
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v\n%s", args, out)
	}
	run("init")
	run("config", "user.email", "test@test.com")
	run("config", "user.name", "test")
	writeFile(t, dir, "app.py", "import os\n\ndef handler():\n    return 1\n")
	run("add", "app.py")
	run("commit", "-m", "initial")
	return dir, run
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(dir, name)), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestRepoRoot(t *testing.T) {
	dir, _ := initTestRepo(t)
	root, err := RepoRoot(context.Background(), dir)
	require.NoError(t, err)

	wantAbs, _ := filepath.EvalSymlinks(dir)
	gotAbs, _ := filepath.EvalSymlinks(root)
	assert.Equal(t, wantAbs, gotAbs)
}

func TestRepoRootNotARepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	_, err := RepoRoot(context.Background(), t.TempDir())
	assert.Error(t, err)
}

func TestChangedFilesExcludesDeletedAndUntracked(t *testing.T) {
	dir, run := initTestRepo(t)
	ctx := context.Background()

	writeFile(t, dir, "lib.py", "x = 1\n")
	run("add", "lib.py")
	run("commit", "-m", "lib")

	writeFile(t, dir, "app.py", "import os\n\ndef handler():\n    return 2\n")
	run("rm", "-q", "lib.py")
	writeFile(t, dir, "new.py", "y = 2\n")

	files, err := ChangedFiles(ctx, dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"app.py"}, files)

	untracked, err := UntrackedFiles(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"new.py"}, untracked)
}

func TestStagedFiles(t *testing.T) {
	dir, run := initTestRepo(t)
	ctx := context.Background()

	files, err := StagedFiles(ctx, dir)
	require.NoError(t, err)
	assert.Empty(t, files)

	writeFile(t, dir, "staged.py", "print(1)\n")
	run("add", "staged.py")

	files, err = StagedFiles(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"staged.py"}, files)
}

func TestChangedLines(t *testing.T) {
	dir, _ := initTestRepo(t)
	writeFile(t, dir, "app.py", "import os\nimport sys\n\ndef handler():\n    return 2\n")

	got, err := ChangedLines(context.Background(), dir, "", false)
	require.NoError(t, err)
	require.Contains(t, got, "app.py")
	ranges := got["app.py"]
	assert.True(t, ranges.Contains(2))
	assert.True(t, ranges.Contains(5))
	assert.False(t, ranges.Contains(1))
	assert.False(t, ranges.Contains(4))
}

func TestParseChangedLines(t *testing.T) {
	patch := `diff --git a/svc/users.ts b/svc/users.ts
index 1111111..2222222 100644
--- a/svc/users.ts
+++ b/svc/users.ts
@@ -3,0 +4,2 @@ export class Users {
+  a();
+  b();
@@ -10 +11,0 @@ export class Users {
-  gone();
diff --git a/old.py b/old.py
deleted file mode 100644
index 3333333..0000000
--- a/old.py
+++ /dev/null
@@ -1 +0,0 @@
-x = 1
`
	got, err := parseChangedLines([]byte(patch))
	require.NoError(t, err)
	assert.Equal(t, map[string]LineRanges{"svc/users.ts": {{Start: 4, End: 5}}}, got)

	empty, err := parseChangedLines(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestWholeFile(t *testing.T) {
	assert.True(t, LineRanges{WholeFile}.Contains(1))
	assert.True(t, LineRanges{WholeFile}.Contains(1_000_000))
	assert.False(t, LineRanges{}.Contains(1))
}

func TestParseLines(t *testing.T) {
	assert.Empty(t, parseLines(""))
	assert.Equal(t, []string{"a.go", "b/c.py"}, parseLines("a.go\n\n  b/c.py  \n"))
}

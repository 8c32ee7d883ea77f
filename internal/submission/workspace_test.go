package submission

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Al-assad/potamoi-experiment/internal/fcid"
	"gotest.tools/v3/assert"
)

func TestWorkspaceForLayout(t *testing.T) {
	ws := WorkspaceFor("/tmp/pota", fcid.New("c1", "ns1"))
	assert.Equal(t, ws.Dir, filepath.Join("/tmp/pota", "ns1@c1"))
	assert.Equal(t, ws.PodTemplatePath(), filepath.Join(ws.Dir, "flink-podtemplate.yaml"))
	assert.Equal(t, ws.LogConfDir(), filepath.Join(ws.Dir, "log-conf"))
}

func TestWorkspaceEnsureWithoutTemplateDir(t *testing.T) {
	root := t.TempDir()
	ws := WorkspaceFor(root, fcid.New("c1", "ns1"))

	assert.NilError(t, ws.Ensure(""))

	info, err := os.Stat(ws.LogConfDir())
	assert.NilError(t, err)
	assert.Assert(t, info.IsDir())
}

func TestWorkspaceEnsureCopiesLogConfTemplates(t *testing.T) {
	root := t.TempDir()
	templateDir := t.TempDir()
	assert.NilError(t, os.WriteFile(filepath.Join(templateDir, "log4j-console.properties"), []byte("rootLogger.level=INFO"), 0o644))
	assert.NilError(t, os.Mkdir(filepath.Join(templateDir, "ignored-subdir"), 0o755))

	ws := WorkspaceFor(root, fcid.New("c1", "ns1"))
	assert.NilError(t, ws.Ensure(templateDir))

	copied, err := os.ReadFile(filepath.Join(ws.LogConfDir(), "log4j-console.properties"))
	assert.NilError(t, err)
	assert.Equal(t, string(copied), "rootLogger.level=INFO")

	_, err = os.Stat(filepath.Join(ws.LogConfDir(), "ignored-subdir"))
	assert.Assert(t, os.IsNotExist(err))
}

func TestWorkspacePurgeRemovesDir(t *testing.T) {
	root := t.TempDir()
	ws := WorkspaceFor(root, fcid.New("c1", "ns1"))
	assert.NilError(t, ws.Ensure(""))

	assert.NilError(t, ws.Purge())
	_, err := os.Stat(ws.Dir)
	assert.Assert(t, os.IsNotExist(err))
}

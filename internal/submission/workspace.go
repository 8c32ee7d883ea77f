package submission

import (
	"io"
	"os"
	"path/filepath"

	"github.com/Al-assad/potamoi-experiment/internal/fcid"
	"github.com/Al-assad/potamoi-experiment/internal/operrors"
)

const podTemplateFileName = "flink-podtemplate.yaml"
const logConfDirName = "log-conf"

// Workspace is the per-cluster local directory
// "<localTmpDir>/<namespace>@<clusterId>/". It is created before launch
// and left in place after, so trackers and re-submission can reuse it.
type Workspace struct {
	Dir string
}

// WorkspaceFor returns the Workspace path for id under root, without
// touching the filesystem.
func WorkspaceFor(root string, id fcid.Fcid) Workspace {
	return Workspace{Dir: filepath.Join(root, id.Namespace+"@"+id.ClusterId)}
}

// PodTemplatePath is where podtemplate.Dump writes this workspace's
// synthesized pod spec.
func (w Workspace) PodTemplatePath() string {
	return filepath.Join(w.Dir, podTemplateFileName)
}

// LogConfDir is the workspace's Log4j template subdirectory.
func (w Workspace) LogConfDir() string {
	return filepath.Join(w.Dir, logConfDirName)
}

// Ensure creates the workspace directory tree (and its log-conf
// subdirectory) if absent, copying Log4j template files from
// logConfTemplateDir.
func (w Workspace) Ensure(logConfTemplateDir string) error {
	if err := os.MkdirAll(w.LogConfDir(), 0o755); err != nil {
		return &operrors.IOErr{Msg: "create workspace " + w.Dir, Cause: err}
	}
	if logConfTemplateDir == "" {
		return nil
	}
	entries, err := os.ReadDir(logConfTemplateDir)
	if err != nil {
		return &operrors.IOErr{Msg: "read log4j template dir " + logConfTemplateDir, Cause: err}
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := copyFile(filepath.Join(logConfTemplateDir, entry.Name()), filepath.Join(w.LogConfDir(), entry.Name())); err != nil {
			return &operrors.IOErr{Msg: "copy log4j template " + entry.Name(), Cause: err}
		}
	}
	return nil
}

// Purge removes the workspace directory tree. This is an explicit,
// separate operation from KillCluster so a transient launcher failure
// cannot take the log history with it.
func (w Workspace) Purge() error {
	if err := os.RemoveAll(w.Dir); err != nil {
		return &operrors.IOErr{Msg: "purge workspace " + w.Dir, Cause: err}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

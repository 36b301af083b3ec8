package testhelpers

import (
	"os"
	"path/filepath"
	"testing"
)

// Scene is a test fixture: a temporary Git repository the test process has
// chdir'd into, torn down via t.Cleanup.
type Scene struct {
	Dir    string
	Repo   *GitRepo
	oldDir string
}

// SceneSetup is a function type for setting up a scene.
type SceneSetup func(*Scene) error

// NewScene creates a new test scene with a temporary directory and Git
// repository, changes into it and registers cleanup.
func NewScene(t *testing.T, setup SceneSetup) *Scene {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "taskstack-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}

	oldDir, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get current directory: %v", err)
	}

	repo, err := NewGitRepo(tmpDir)
	if err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("Failed to create Git repo: %v", err)
	}

	scene := &Scene{
		Dir:    tmpDir,
		Repo:   repo,
		oldDir: oldDir,
	}

	if err := os.Chdir(tmpDir); err != nil {
		os.RemoveAll(tmpDir)
		t.Fatalf("Failed to change directory: %v", err)
	}

	if err := scene.writeDefaultConfig(); err != nil {
		os.Chdir(oldDir)
		os.RemoveAll(tmpDir)
		t.Fatalf("Failed to write config file: %v", err)
	}

	if setup != nil {
		if err := setup(scene); err != nil {
			os.Chdir(oldDir)
			os.RemoveAll(tmpDir)
			t.Fatalf("Setup failed: %v", err)
		}
	}

	t.Cleanup(func() {
		os.Chdir(oldDir)
		if os.Getenv("DEBUG") == "" {
			os.RemoveAll(tmpDir)
		}
	})

	return scene
}

// writeDefaultConfig initializes the repository for taskstack with the
// default base and prefix.
func (s *Scene) writeDefaultConfig() error {
	configPath := filepath.Join(s.Dir, ".git", "taskstack.yml")
	config := "base: main\nprefix: task/\n"
	return os.WriteFile(configPath, []byte(config), 0644)
}

// BasicSceneSetup creates a scene with a single commit on main.
func BasicSceneSetup(scene *Scene) error {
	return scene.Repo.CreateChangeAndCommit("base.txt", "base", "initial commit")
}

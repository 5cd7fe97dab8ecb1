package cmd

/*****************************************************************************************************************/

import (
	"os"
	"path/filepath"
	"testing"
)

/*****************************************************************************************************************/

func TestRunBuildDatabaseMissingConfig(t *testing.T) {
	dir := t.TempDir()
	params := RunBuildDatabaseParams{
		OutPath:     filepath.Join(dir, "out.json"),
		ConfigPath:  filepath.Join(dir, "does-not-exist.json"),
		StorePath:   filepath.Join(dir, "store.db"),
		Concurrency: 4,
		Quiet:       true,
	}

	if err := RunBuildDatabase(params); err == nil {
		t.Errorf("RunBuildDatabase() with a missing config should return an error")
	}
}

/*****************************************************************************************************************/

func TestRunBuildDatabaseMalformedConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.json")
	if err := os.WriteFile(configPath, []byte("not json"), 0644); err != nil {
		t.Fatalf("WriteFile() returned unexpected error: %v", err)
	}

	params := RunBuildDatabaseParams{
		OutPath:     filepath.Join(dir, "out.json"),
		ConfigPath:  configPath,
		StorePath:   filepath.Join(dir, "store.db"),
		Concurrency: 4,
		Quiet:       true,
	}

	if err := RunBuildDatabase(params); err == nil {
		t.Errorf("RunBuildDatabase() with malformed config JSON should return an error")
	}
}

/*****************************************************************************************************************/

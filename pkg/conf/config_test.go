package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type testConfig struct {
	Server struct {
		ListenAddress string
	}
	Uploads struct {
		Dir        string
		Extensions []string
	}
}

func TestParseConfigDefaultsAndEnv(t *testing.T) {
	t.Setenv("CONFTEST_SERVER_LISTENADDRESS", ":9090")

	config := &testConfig{}
	err := ParseConfig(config,
		EnvPrefix("CONFTEST"),
		Defaults(map[string]interface{}{
			"Server.ListenAddress": ":8080",
			"Uploads.Dir":          "static/uploads",
			"Uploads.Extensions":   []string{"png", "jpg"},
		}),
	)
	if err != nil {
		t.Fatal("Failed to parse config:", err)
	}

	expected := &testConfig{}
	expected.Server.ListenAddress = ":9090"
	expected.Uploads.Dir = "static/uploads"
	expected.Uploads.Extensions = []string{"png", "jpg"}

	if diff := cmp.Diff(expected, config); diff != "" {
		t.Fatalf("Unexpected config (-want +got):\n%s", diff)
	}
}

func TestParseConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "server:\n  listenaddress: 127.0.0.1:5000\nuploads:\n  dir: /var/lib/raport\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	config := &testConfig{}
	if err := ParseConfig(config, EnvPrefix("CONFTEST_FILE"), ConfigFile(path)); err != nil {
		t.Fatal("Failed to parse config:", err)
	}
	if config.Server.ListenAddress != "127.0.0.1:5000" {
		t.Fatalf("Invalid listen address: %s", config.Server.ListenAddress)
	}
	if config.Uploads.Dir != "/var/lib/raport" {
		t.Fatalf("Invalid uploads dir: %s", config.Uploads.Dir)
	}
}

func TestParseConfigMissingFile(t *testing.T) {
	config := &testConfig{}
	err := ParseConfig(config, ConfigFile(filepath.Join(t.TempDir(), "missing.yaml")))
	if err == nil {
		t.Fatal("Expected error for missing config file")
	}
}

package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/smartfarm/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"SMARTFARM_CONFIG",
	"SMARTFARM_ENV_FILE",
	"SMARTFARM_ADDR",
	"SMARTFARM_LOG_LEVEL",
	"SMARTFARM_UPSTREAM_URL",
	"SMARTFARM_UPSTREAM_USER",
	"SMARTFARM_UPSTREAM_PASS",
	"SMARTFARM_UPSTREAM_DB",
	"SMARTFARM_UPSTREAM_TIMEOUT_MS",
	"SMARTFARM_TABLES",
	"SMARTFARM_METRICS_ENABLED",
}

func clearConfigEnvVars() {
	for _, k := range configEnvVars {
		_ = os.Unsetenv(k)
	}
}

func setCredentials() {
	_ = os.Setenv("SMARTFARM_UPSTREAM_USER", "envuser")
	_ = os.Setenv("SMARTFARM_UPSTREAM_PASS", "envpass")
	_ = os.Setenv("SMARTFARM_UPSTREAM_DB", "envdb")
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		// Keep a stray ./.env out of the picture.
		_ = os.Setenv("SMARTFARM_ENV_FILE", writeTempFile(t, "empty.env", ""))
		defer clearConfigEnvVars()

		convey.Convey("When no credentials are provided", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then loading fails with an invalid config error", func() {
				convey.So(cfg, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When credentials come from the environment", func() {
			setCredentials()
			cfg, err := config.Load(ctx)

			convey.Convey("Then defaults fill the rest", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.UpstreamUser, convey.ShouldEqual, "envuser")
				convey.So(cfg.UpstreamPass, convey.ShouldEqual, "envpass")
				convey.So(cfg.UpstreamDB, convey.ShouldEqual, "envdb")
				convey.So(cfg.Addr, convey.ShouldEqual, ":5001")
				convey.So(cfg.Tables, convey.ShouldResemble, []string{"moisture", "dht22"})
			})
		})

		convey.Convey("When env vars override scalar and list values", func() {
			setCredentials()
			_ = os.Setenv("SMARTFARM_ADDR", ":8080")
			_ = os.Setenv("SMARTFARM_UPSTREAM_TIMEOUT_MS", "2500")
			_ = os.Setenv("SMARTFARM_TABLES", "moisture")
			_ = os.Setenv("SMARTFARM_METRICS_ENABLED", "false")

			cfg, err := config.Load(ctx)

			convey.Convey("Then the environment wins", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.UpstreamTimeoutMS, convey.ShouldEqual, 2500)
				convey.So(cfg.Tables, convey.ShouldResemble, []string{"moisture"})
				convey.So(cfg.MetricsEnabled, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			path := writeTempFile(t, "relay.yaml", `
addr: ":9090"
upstream_url: "http://sensors.internal/rest/"
upstream_user: "fileuser"
upstream_pass: "filepass"
upstream_db: "filedb"
tables:
  - moisture
  - dht22
  - ph
`)
			_ = os.Setenv("SMARTFARM_CONFIG", path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then values come from the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.UpstreamURL, convey.ShouldEqual, "http://sensors.internal/rest/")
				convey.So(cfg.UpstreamUser, convey.ShouldEqual, "fileuser")
				convey.So(cfg.Tables, convey.ShouldResemble, []string{"moisture", "dht22", "ph"})
			})

			convey.Convey("And env vars take precedence over the file", func() {
				_ = os.Setenv("SMARTFARM_UPSTREAM_USER", "envuser")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.UpstreamUser, convey.ShouldEqual, "envuser")
				convey.So(cfg.UpstreamDB, convey.ShouldEqual, "filedb")
			})
		})

		convey.Convey("When the YAML file does not exist", func() {
			_ = os.Setenv("SMARTFARM_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
			_, err := config.Load(ctx)

			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When credentials come from a .env file", func() {
			path := writeTempFile(t, "relay.env", "SMARTFARM_UPSTREAM_USER=dotuser\nSMARTFARM_UPSTREAM_PASS=dotpass\nSMARTFARM_UPSTREAM_DB=dotdb\n")
			_ = os.Setenv("SMARTFARM_ENV_FILE", path)
			defer func() {
				_ = os.Unsetenv("SMARTFARM_UPSTREAM_USER")
				_ = os.Unsetenv("SMARTFARM_UPSTREAM_PASS")
				_ = os.Unsetenv("SMARTFARM_UPSTREAM_DB")
			}()

			cfg, err := config.Load(ctx)

			convey.Convey("Then they are picked up", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.UpstreamUser, convey.ShouldEqual, "dotuser")
				convey.So(cfg.UpstreamPass, convey.ShouldEqual, "dotpass")
				convey.So(cfg.UpstreamDB, convey.ShouldEqual, "dotdb")
			})
		})

		convey.Convey("When an explicit .env file is missing", func() {
			_ = os.Setenv("SMARTFARM_ENV_FILE", filepath.Join(t.TempDir(), "nope.env"))
			_, err := config.Load(ctx)

			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})
	})
}

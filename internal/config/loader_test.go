package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/rayyanhq/mutabaa/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.RosterURL, convey.ShouldEqual, "http://localhost:8000")
				convey.So(cfg.RosterTimeoutMS, convey.ShouldEqual, 10_000)
				convey.So(cfg.PageSize, convey.ShouldEqual, 25)
				convey.So(cfg.MaxPageSize, convey.ShouldEqual, 200)
				convey.So(cfg.Collation, convey.ShouldEqual, "ar")
				convey.So(cfg.ApplyConcurrency, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("MUTABAA_ROSTER_URL", "https://mutabaa.example.org")
			_ = os.Setenv("MUTABAA_PAGE_SIZE", "50")
			_ = os.Setenv("MUTABAA_APPLY_CONCURRENCY", "8")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.RosterURL, convey.ShouldEqual, "https://mutabaa.example.org")
				convey.So(cfg.PageSize, convey.ShouldEqual, 50)
				convey.So(cfg.ApplyConcurrency, convey.ShouldEqual, 8)
				convey.So(cfg.Collation, convey.ShouldEqual, "ar") // untouched default
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			yamlContent := `
roster_url: "https://file.example.org"
page_size: 40
collation: "en"
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("MUTABAA_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from the YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.RosterURL, convey.ShouldEqual, "https://file.example.org")
				convey.So(cfg.PageSize, convey.ShouldEqual, 40)
				convey.So(cfg.Collation, convey.ShouldEqual, "en")
				convey.So(cfg.ApplyConcurrency, convey.ShouldEqual, 4) // default
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
roster_url: "https://file.example.org"
page_size: 40
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("MUTABAA_CONFIG", tmpFile)
			_ = os.Setenv("MUTABAA_PAGE_SIZE", "60")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.PageSize, convey.ShouldEqual, 60)                          // env wins
				convey.So(cfg.RosterURL, convey.ShouldEqual, "https://file.example.org") // from file
			})
		})

		convey.Convey("When loading config with an invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("MUTABAA_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with a non-existent file", func() {
			_ = os.Setenv("MUTABAA_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the roster URL is emptied", func() {
			_ = os.Setenv("MUTABAA_ROSTER_URL", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the page size is not positive", func() {
			_ = os.Setenv("MUTABAA_PAGE_SIZE", "0")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the page-size cap is below the default page size", func() {
			_ = os.Setenv("MUTABAA_MAX_PAGE_SIZE", "10")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"MUTABAA_CONFIG",
		"MUTABAA_LOG_LEVEL",
		"MUTABAA_ROSTER_URL",
		"MUTABAA_ROSTER_TIMEOUT_MS",
		"MUTABAA_PAGE_SIZE",
		"MUTABAA_MAX_PAGE_SIZE",
		"MUTABAA_COLLATION",
		"MUTABAA_APPLY_CONCURRENCY",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "mutabaa-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}

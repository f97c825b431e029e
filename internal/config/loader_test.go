package config_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/juraj-juraj/BRIA-project/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load the eyes-open/eyes-closed protocol", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, "")
				convey.So(cfg.SampleRate, convey.ShouldEqual, 500)
				convey.So(cfg.Channels, convey.ShouldResemble, []int{0, 1, 2, 3, 4, 5, 6, 7})
				convey.So(cfg.ChannelNames[0], convey.ShouldEqual, "fp1")
				convey.So(len(cfg.Phases), convey.ShouldEqual, 4)
				convey.So(cfg.GuardMargin(), convey.ShouldEqual, time.Second)
				convey.So(cfg.PollInterval(), convey.ShouldEqual, 10*time.Millisecond)
				convey.So(cfg.OutputPrefix, convey.ShouldEqual, "measure")
				convey.So(cfg.Cue.FrequencyHz, convey.ShouldEqual, 800)
				convey.So(cfg.CueDuration(), convey.ShouldEqual, 200*time.Millisecond)
				convey.So(cfg.Source.Kind, convey.ShouldEqual, config.SourceSynthetic)
			})

			convey.Convey("Then the phases convert to rest and coded phases", func() {
				phases := cfg.PhaseList()
				convey.So(phases[0].IsRest(), convey.ShouldBeTrue)
				convey.So(phases[0].Duration, convey.ShouldEqual, 5*time.Second)
				code, ok := phases[1].Code()
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(code, convey.ShouldEqual, 1)
				convey.So(phases[1].Duration, convey.ShouldEqual, 20*time.Second)
				code, _ = phases[3].Code()
				convey.So(code, convey.ShouldEqual, 2)
			})

			convey.Convey("Then labels invert the event dictionary", func() {
				convey.So(cfg.Labels(), convey.ShouldResemble, map[int]string{1: "open_eye", 2: "closed_eye"})
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("BRIA_ADDR", ":8080")
			_ = os.Setenv("BRIA_SAMPLE_RATE", "250")
			_ = os.Setenv("BRIA_POLL_INTERVAL_MS", "5")
			_ = os.Setenv("BRIA_CUE_ENABLED", "false")
			_ = os.Setenv("BRIA_SOURCE_SEED", "42")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.SampleRate, convey.ShouldEqual, 250)
				convey.So(cfg.PollIntervalMS, convey.ShouldEqual, 5)
				convey.So(cfg.Cue.Enabled, convey.ShouldBeFalse)
				convey.So(cfg.Source.Seed, convey.ShouldEqual, 42)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
sample_rate: 250
channels: [2, 0]
channel_names: [oz, fp1]
phases:
  - duration_seconds: 3
  - duration_seconds: 5
    event_code: 1
event_labels:
  open_eye: 1
output_dir: /tmp/bria
source:
  kind: replay
  replay_path: /tmp/bria/previous.edf
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("BRIA_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file and replace collections", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.SampleRate, convey.ShouldEqual, 250)
				convey.So(cfg.Channels, convey.ShouldResemble, []int{2, 0})
				convey.So(cfg.ChannelNames, convey.ShouldResemble, []string{"oz", "fp1"})
				convey.So(len(cfg.Phases), convey.ShouldEqual, 2)
				convey.So(cfg.Phases[0].EventCode, convey.ShouldBeNil)
				convey.So(*cfg.Phases[1].EventCode, convey.ShouldEqual, 1)
				convey.So(cfg.EventLabels, convey.ShouldResemble, map[string]int{"open_eye": 1})
				convey.So(cfg.Source.Kind, convey.ShouldEqual, config.SourceReplay)
				convey.So(cfg.Source.ReplayPath, convey.ShouldEqual, "/tmp/bria/previous.edf")
				convey.So(cfg.OutputPrefix, convey.ShouldEqual, "measure") // From defaults
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
addr: ":9090"
sample_rate: 250
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("BRIA_CONFIG", tmpFile)
			_ = os.Setenv("BRIA_ADDR", ":8080") // This should override the file
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")   // Overridden by env
				convey.So(cfg.SampleRate, convey.ShouldEqual, 250) // From file
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("BRIA_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("BRIA_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("BRIA_GUARD_MARGIN_MS", "not_a_number")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the poll interval exceeds the window budget", func() {
			_ = os.Setenv("BRIA_POLL_INTERVAL_MS", "250")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "poll_interval_ms")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func TestConfigValidate(t *testing.T) {
	convey.Convey("Given a default config", t, func() {
		cfg := config.New()

		convey.Convey("It validates", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("A non-positive sample rate is rejected", func() {
			cfg.SampleRate = 0
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("An empty protocol is rejected", func() {
			cfg.Phases = nil
			convey.So(cfg.Validate(), convey.ShouldNotBeNil)
		})

		convey.Convey("A channel outside the board is rejected", func() {
			cfg.Channels = []int{0, 99}
			cfg.ChannelNames = []string{"a", "b"}
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("A phase code without a label is rejected", func() {
			code := 7
			cfg.Phases = append(cfg.Phases, config.PhaseConfig{DurationSeconds: 1, EventCode: &code})
			convey.So(cfg.Validate().Error(), convey.ShouldContainSubstring, "event code 7")
		})

		convey.Convey("Two labels sharing a code are rejected", func() {
			cfg.EventLabels["blink"] = 1
			convey.So(cfg.Validate(), convey.ShouldNotBeNil)
		})

		convey.Convey("A replay source requires a path", func() {
			cfg.Source.Kind = config.SourceReplay
			convey.So(cfg.Validate(), convey.ShouldNotBeNil)
		})

		convey.Convey("An unknown source kind is rejected", func() {
			cfg.Source.Kind = "usb"
			convey.So(cfg.Validate().Error(), convey.ShouldContainSubstring, "usb")
		})

		convey.Convey("A zero poll interval is rejected", func() {
			cfg.PollIntervalMS = 0
			err := cfg.Validate()
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "poll_interval_ms")
		})

		convey.Convey("The largest poll interval is accepted", func() {
			cfg.PollIntervalMS = 100
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("A capacity factor below one is rejected", func() {
			cfg.CapacityFactor = 0.5
			convey.So(cfg.Validate(), convey.ShouldNotBeNil)
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"BRIA_CONFIG",
		"BRIA_ADDR",
		"BRIA_SAMPLE_RATE",
		"BRIA_POLL_INTERVAL_MS",
		"BRIA_GUARD_MARGIN_MS",
		"BRIA_CUE_ENABLED",
		"BRIA_SOURCE_SEED",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "bria-config-*.yaml")
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

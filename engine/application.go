package engine

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/ombra/engine/core"
)

type ApplicationConfig struct {
	// The application name used in windowing, if applicable.
	Name string `toml:"name"`
	// Window starting position x axis, if applicable.
	StartPosX uint32 `toml:"start_pos_x"`
	// Window starting position y axis, if applicable.
	StartPosY uint32 `toml:"start_pos_y"`
	// Window starting width, if applicable.
	StartWidth uint32 `toml:"start_width"`
	// Window starting height, if applicable.
	StartHeight uint32 `toml:"start_height"`
	// Name of the scene loaded at startup, resolved under assets/scenes.
	Scene string `toml:"scene"`
	// How many frames the renderer may prepare concurrently.
	FramesInFlight uint32 `toml:"frames_in_flight"`
	// Frame rate cap for the main loop. Zero leaves the loop uncapped.
	TargetFPS uint32 `toml:"target_fps"`
	// One of debug, info, warn, error. Empty keeps the OMBRA_LOG_LEVEL value.
	LogLevel string `toml:"log_level"`
}

// DefaultApplicationConfig returns the configuration used when no
// application file is present on disk.
func DefaultApplicationConfig() *ApplicationConfig {
	return &ApplicationConfig{
		Name:           "Ombra",
		StartPosX:      100,
		StartPosY:      100,
		StartWidth:     1280,
		StartHeight:    720,
		Scene:          "demo",
		FramesInFlight: 2,
	}
}

// LoadApplicationConfig reads a TOML application file from disk. Fields left
// out of the file keep their defaults, so a config may list only overrides.
func LoadApplicationConfig(path string) (*ApplicationConfig, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		core.LogError("failed to read application config '%s': %s", path, err)
		return nil, err
	}

	config := DefaultApplicationConfig()
	if err := toml.Unmarshal(buf, config); err != nil {
		err = fmt.Errorf("failed to parse application config '%s': %w", path, err)
		core.LogError(err.Error())
		return nil, err
	}

	if err := config.validate(); err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	return config, nil
}

func (c *ApplicationConfig) validate() error {
	if c.Name == "" {
		return fmt.Errorf("application config needs a name")
	}
	if c.StartWidth == 0 || c.StartHeight == 0 {
		return fmt.Errorf("application config window size %dx%d is not usable", c.StartWidth, c.StartHeight)
	}
	if c.Scene == "" {
		return fmt.Errorf("application config needs a startup scene")
	}
	if c.FramesInFlight == 0 {
		return fmt.Errorf("application config needs at least one frame in flight")
	}
	return nil
}

// Package profile loads the agent definition a session runs with and
// builds the system prompt from it.
package profile

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the profile looked up in the working directory when no
// explicit path is given.
const DefaultFile = "agent.yaml"

var (
	// ErrInvalidProfile indicates a malformed profile document.
	ErrInvalidProfile = errors.New("invalid profile")
)

// Profile describes the agent presented to the user.
type Profile struct {
	Name         string `yaml:"name"`
	Description  string `yaml:"description"`
	Instructions string `yaml:"instructions"`
	// Model overrides the configured completion model when set.
	Model    string `yaml:"model"`
	Greeting string `yaml:"greeting"`
}

// Default returns the built-in profile.
func Default() Profile {
	return Profile{
		Name:        "termagent",
		Description: "A terminal research assistant with web and workspace tools.",
		Greeting:    "Ask me anything. I can search the web, fetch pages and work with files in this directory.",
	}
}

// Load reads the profile at path. An empty path looks for DefaultFile and
// falls back to Default when it does not exist; an explicit path must exist.
func Load(path string) (Profile, error) {
	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Profile{}, fmt.Errorf("read profile %s: %w", path, err)
	}
	p, err := Decode(data)
	if err != nil {
		return Profile{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Decode parses a YAML profile. Empty fields take their defaults.
func Decode(data []byte) (Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	p = p.normalize()
	return p, nil
}

func (p Profile) normalize() Profile {
	def := Default()
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	p.Instructions = strings.TrimSpace(p.Instructions)
	p.Model = strings.TrimSpace(p.Model)
	p.Greeting = strings.TrimSpace(p.Greeting)
	if p.Name == "" {
		p.Name = def.Name
	}
	if p.Description == "" {
		p.Description = def.Description
	}
	return p
}

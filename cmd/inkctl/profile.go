package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"inkwell/api/internal/client"
)

const (
	defaultServer = "http://localhost:8787"
	defaultPublic = "http://localhost:8788"
)

// Profile holds the connection settings for one inkwell deployment.
type Profile struct {
	Server string `yaml:"server"`
	Public string `yaml:"public"`
	Key    string `yaml:"key"`
}

func defaultProfilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".inkctl.yaml"
	}
	return filepath.Join(home, ".inkctl.yaml")
}

// loadProfile reads path. A missing file is an empty profile unless the path
// was given explicitly.
func loadProfile(path string, explicit bool) (Profile, error) {
	var profile Profile
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) && !explicit {
		return profile, nil
	}
	if err != nil {
		return profile, fmt.Errorf("failed to read profile: %w", err)
	}
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return profile, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}
	return profile, nil
}

// merge fills empty fields of p from the later sources, in order.
func (p Profile) merge(sources ...Profile) Profile {
	for _, src := range sources {
		p.Server = firstNonEmpty(p.Server, src.Server)
		p.Public = firstNonEmpty(p.Public, src.Public)
		p.Key = firstNonEmpty(p.Key, src.Key)
	}
	return p
}

func envProfile() Profile {
	return Profile{
		Server: os.Getenv("INKCTL_SERVER"),
		Public: os.Getenv("INKCTL_PUBLIC"),
		Key:    os.Getenv("INKCTL_KEY"),
	}
}

// resolveProfile applies flags over environment over the profile file over
// the built-in defaults.
func resolveProfile(cmd *cobra.Command) (Profile, error) {
	path, _ := cmd.Flags().GetString("config")
	explicit := path != ""
	if !explicit {
		path = defaultProfilePath()
	}
	fromFile, err := loadProfile(path, explicit)
	if err != nil {
		return Profile{}, err
	}

	server, _ := cmd.Flags().GetString("server")
	public, _ := cmd.Flags().GetString("public")
	key, _ := cmd.Flags().GetString("key")
	fromFlags := Profile{Server: server, Public: public, Key: key}

	return fromFlags.merge(envProfile(), fromFile, Profile{Server: defaultServer, Public: defaultPublic}), nil
}

func apiClient(cmd *cobra.Command) (*client.Client, error) {
	profile, err := resolveProfile(cmd)
	if err != nil {
		return nil, err
	}
	return client.New(profile.Server, profile.Key, nil), nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

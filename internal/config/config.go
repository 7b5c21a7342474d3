// Copyright © 2025 Steve Taranto staranto@gmail.com
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/apex/log"
	"gopkg.in/yaml.v3"
)

// FileName is the name of the config file searched for in the standard
// locations.
const FileName = "randuser.yaml"

type Type struct {
	Source    string
	Namespace string
	Data      map[string]interface{}
}

var Config Type

// Load reads the config file and makes it the active Config. An optional
// namespace (the subcommand name) is used to prefer "ns.key" over "key".
func Load(ns ...string) (Type, error) {
	path, err := getConfigPath()
	if err != nil {
		return Type{}, err
	}

	bytes, err := os.ReadFile(path)
	if err != nil {
		return Type{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var data map[string]interface{}
	if err := yaml.Unmarshal(bytes, &data); err != nil {
		return Type{}, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	Config = Type{
		Source: path,
		Data:   data,
	}
	if len(ns) > 0 {
		Config.Namespace = ns[0]
	}

	return Config, nil
}

// get traverses the map using a dotted key path. The namespaced key wins over
// the bare key.
func (cfg *Type) get(kspec string) (any, error) {
	candidateKeys := []string{kspec}
	if cfg.Namespace != "" {
		candidateKeys = []string{cfg.Namespace + "." + kspec, kspec}
	}

	for _, key := range candidateKeys {
		var current interface{} = cfg.Data

		success := true
		for _, segment := range strings.Split(key, ".") {
			m, ok := current.(map[string]interface{})
			if !ok {
				success = false
				break
			}
			current, ok = m[segment]
			if !ok {
				success = false
				break
			}
		}

		if success {
			return current, nil
		}
	}

	return nil, fmt.Errorf("no valid path found among: %v", candidateKeys)
}

// ensureLoaded loads the config file on first use.
func ensureLoaded() {
	if Config.Source == "" && len(Config.Data) == 0 {
		ns := Config.Namespace
		_, _ = Load(ns)
	}
}

func GetString(key string, defaultValue ...string) (string, error) {
	ensureLoaded()

	val, err := Config.get(key)
	if err != nil {
		if len(defaultValue) == 1 {
			return defaultValue[0], nil
		}
		return "", err
	}

	s, ok := val.(string)
	if !ok {
		return "", errors.New("value is not a string")
	}

	return s, nil
}

func GetInt(key string, defaultValue ...int) (int, error) {
	ensureLoaded()

	val, err := Config.get(key)
	if err != nil {
		if len(defaultValue) == 1 {
			return defaultValue[0], nil
		}
		return 0, err
	}

	// YAML numbers may be unmarshaled as int/float64 depending on content.
	switch v := val.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, errors.New("value is not an int")
	}
}

func GetBool(key string, defaultValue ...bool) (bool, error) {
	ensureLoaded()

	val, err := Config.get(key)
	if err != nil {
		if len(defaultValue) == 1 {
			return defaultValue[0], nil
		}
		return false, err
	}

	b, ok := val.(bool)
	if !ok {
		return false, errors.New("value is not a bool")
	}
	return b, nil
}

// GetDuration accepts either a Go duration string ("750ms") or a bare number,
// which is taken as milliseconds.
func GetDuration(key string, defaultValue ...time.Duration) (time.Duration, error) {
	ensureLoaded()

	val, err := Config.get(key)
	if err != nil {
		if len(defaultValue) == 1 {
			return defaultValue[0], nil
		}
		return 0, err
	}

	switch v := val.(type) {
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("value is not a duration: %w", err)
		}
		return d, nil
	case int:
		return time.Duration(v) * time.Millisecond, nil
	case float64:
		return time.Duration(v * float64(time.Millisecond)), nil
	default:
		return 0, errors.New("value is not a duration")
	}
}

// GetStringSlice returns a list value. A scalar string is returned as a single
// element list.
func GetStringSlice(key string) ([]string, error) {
	ensureLoaded()

	val, err := Config.get(key)
	if err != nil {
		return nil, err
	}

	switch v := val.(type) {
	case string:
		return []string{v}, nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, errors.New("list element is not a string")
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, errors.New("value is not a list")
	}
}

func getConfigPath() (string, error) {
	// An explicit path must exist.
	if p, ok := os.LookupEnv("RANDUSER_CFG"); ok && p != "" {
		if fileInfo, err := os.Stat(p); err == nil && !fileInfo.IsDir() {
			log.Debugf("using config file: %s", p)
			return p, nil
		}
		return "", fmt.Errorf("config file not found: %s", p)
	}

	var candidates []string = []string{
		os.Getenv("XDG_CONFIG_HOME"),
		os.Getenv("APPDATA"),
		os.Getenv("HOME"),
	}

	for _, c := range candidates {
		if c == "" {
			continue
		}
		file := filepath.Join(c, FileName)
		if fileInfo, err := os.Stat(file); err == nil {
			if !fileInfo.IsDir() {
				log.Debugf("using config file: %s", file)
				return file, nil
			}
		}
	}
	return "", fmt.Errorf("no config file found in standard locations")
}

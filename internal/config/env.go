// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"os"
	"regexp"

	"github.com/joho/godotenv"
)

var (
	envVarWithDefaultPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*):-([^}]*)\}`)
	envVarBracedPattern      = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)
	envVarSimplePattern      = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

// LoadDotEnv loads key=value pairs from a .env file (if present) into the
// process environment. Existing environment variables are never overwritten.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

// expandEnvVars resolves ${VAR}, ${VAR:-default} and $VAR references against
// the process environment. Unresolved ${VAR} references (no default, not
// set) are left as empty strings, mirroring shell behavior.
func expandEnvVars(raw string) string {
	raw = envVarWithDefaultPattern.ReplaceAllStringFunc(raw, func(match string) string {
		parts := envVarWithDefaultPattern.FindStringSubmatch(match)
		name, def := parts[1], parts[2]
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return def
	})
	raw = envVarBracedPattern.ReplaceAllStringFunc(raw, func(match string) string {
		name := envVarBracedPattern.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})
	raw = envVarSimplePattern.ReplaceAllStringFunc(raw, func(match string) string {
		name := envVarSimplePattern.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})
	return raw
}

/*
 * Copyright 2024 The Langstack Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"fmt"
	"os"
	"os/user"
	"path"
	"strings"

	"github.com/imdario/mergo"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

var Config *Conf
var ViperConfig *viper.Viper

// Settings loaded from an env-style `langstack.env` file. Admin email and
// licence key have no defaults and must be supplied by the operator.
type Conf struct {
	AdminEmail  string `mapstructure:"admin_email"`
	LicenseKey  string `mapstructure:"license_key"`
	BaseConfig  string `mapstructure:"base_config"`
	OutputDir   string `mapstructure:"output_dir"`
	HelmCommand string `mapstructure:"helm_command"`
}

// Error returned when a required configuration field is missing or empty
type InvalidConfigError struct {
	Field string
}

func (e InvalidConfigError) Error() string {
	return fmt.Sprintf("Required configuration field '%s' is missing or empty", e.Field)
}

func init() {
	ViperConfig = initViper("LANGSTACK")
}

func initViper(appName string) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(appName)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetConfigName("langstack")
	v.SetConfigType("env")

	// add look-up paths (from highest priority to lowest)
	// current working directory
	cwd, err := os.Getwd()
	if err == nil {
		v.AddConfigPath(cwd)
	}

	// user's home dir (if we can retrieve it)
	usr, err := user.Current()
	if err == nil {
		v.AddConfigPath(path.Join(usr.HomeDir, ".langstack"))
	}

	v.AddConfigPath("/etc/langstack")

	// add the directory containing this binary
	v.AddConfigPath(".")

	return v
}

// Returns the config defaults that apply when the env file doesn't set a value
func defaultConfig() *Conf {
	return &Conf{
		BaseConfig:  "langsmith_base.yaml",
		OutputDir:   ".",
		HelmCommand: "helm",
	}
}

// Load/Reload the configuration
func Load(viperConfig *viper.Viper) error {
	var newConf *Conf

	err := viperConfig.ReadInConfig()
	if err != nil {
		return errors.Wrapf(err, "Error loading configuration")
	}

	err = viperConfig.Unmarshal(&newConf)
	if err != nil {
		return errors.Wrapf(err, "Error unmarshalling config")
	}

	// fill in any unset fields with defaults
	err = mergo.Merge(newConf, defaultConfig())
	if err != nil {
		return errors.WithStack(err)
	}

	err = newConf.Validate()
	if err != nil {
		return errors.WithStack(err)
	}

	Config = newConf

	return nil
}

// Makes sure the operator supplied the fields we can't invent values for
func (c *Conf) Validate() error {
	if strings.TrimSpace(c.AdminEmail) == "" {
		return InvalidConfigError{Field: "admin_email"}
	}

	if strings.TrimSpace(c.LicenseKey) == "" {
		return InvalidConfigError{Field: "license_key"}
	}

	return nil
}

// Package config loads mads settings from mads.yaml files and the environment.
package config

// Config is the merged configuration.
type Config struct {
	Logs      Logs   `yaml:"logs" json:"logs" mapstructure:"logs"`
	GitHub    GitHub `yaml:"github" json:"github" mapstructure:"github"`
	ImageHost string `yaml:"image_host" json:"image_host" mapstructure:"image_host"`
	SES       SES    `yaml:"ses" json:"ses" mapstructure:"ses"`
	Kube      Kube   `yaml:"kube" json:"kube" mapstructure:"kube"`
	AWS       AWS    `yaml:"aws" json:"aws" mapstructure:"aws"`

	// ConfigFile is the last file merged, empty when only defaults and environment were used.
	ConfigFile string `yaml:"-" json:"-" mapstructure:"-"`
}

type Logs struct {
	Level string `yaml:"level" json:"level" mapstructure:"level"`
	File  string `yaml:"file" json:"file" mapstructure:"file"`
}

// GitHub configures the GitHub App used for installation tokens and commit statuses.
type GitHub struct {
	Org            string `yaml:"org" json:"org" mapstructure:"org"`
	AppID          int64  `yaml:"app_id" json:"app_id" mapstructure:"app_id"`
	InstallationID int64  `yaml:"installation_id" json:"installation_id" mapstructure:"installation_id"`
	PrivateKey     string `yaml:"private_key" json:"-" mapstructure:"private_key"`
	SecretID       string `yaml:"secret_id" json:"secret_id" mapstructure:"secret_id"`
	APIURL         string `yaml:"api_url" json:"api_url" mapstructure:"api_url"`
}

type SES struct {
	SendIdentity string `yaml:"send_identity" json:"send_identity" mapstructure:"send_identity"`
	FromName     string `yaml:"from_name" json:"from_name" mapstructure:"from_name"`
}

type Kube struct {
	Region string `yaml:"region" json:"region" mapstructure:"region"`
}

type AWS struct {
	Region string `yaml:"region" json:"region" mapstructure:"region"`
}

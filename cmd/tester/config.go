package main

import "github.com/kelseyhightower/envconfig"

type Config struct {
	ServerURL string `envconfig:"SERVER_URL" default:"http://localhost:3000"`
	Username  string `envconfig:"TESTER_USERNAME" default:"probe"`
	Room      string `envconfig:"TESTER_ROOM" default:"smoke"`
	Message   string `envconfig:"TESTER_MESSAGE" default:"hello from the smoke tester"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}

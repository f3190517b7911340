package config

import (
	"testing"

	"github.com/avelis/sensorhub"
)

func TestBuild(t *testing.T) {
	yaml := `
title: Build Test
port: 4321
database: build.db
alert:
  webhook_url: https://hooks.example.com/build
  temperature_threshold: 28
  humidity_threshold: 25
  timeout: 3s
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	sh, err := sensorhub.New(Build(cfg)...)
	if err != nil {
		t.Fatalf("New(Build(cfg)...) error = %v", err)
	}

	if sh.Port() != 4321 {
		t.Errorf("Port() = %d, want 4321", sh.Port())
	}
	if sh.Database() != "build.db" {
		t.Errorf("Database() = %q, want build.db", sh.Database())
	}
}

func TestBuild_NoWebhook(t *testing.T) {
	cfg, err := Parse([]byte("port: 3000\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	// an empty webhook URL must not produce a WithAlertWebhook option,
	// which would fail validation
	if _, err := sensorhub.New(Build(cfg)...); err != nil {
		t.Fatalf("New(Build(cfg)...) error = %v", err)
	}
}

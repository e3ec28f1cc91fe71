// Package config loads the immutable server and drone configuration.
//
// The original aggregator read configuration through a lazily
// initialized global singleton (a Mutex<Option<Value>> filled in on
// first access). Per the redesign notes this is replaced with one
// ServerConfig value built once in main and passed down explicitly,
// so every component is constructed with its dependencies instead of
// reaching into process-wide state.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds every recognized option from spec.md §6.
type ServerConfig struct {
	ReplyerPort      int     `yaml:"replyer_port"`
	DronesPort       int     `yaml:"drones_port"`
	ObjectPort       int     `yaml:"object_port"`
	NotificationPort int     `yaml:"notification_port"`
	FirstPort        int     `yaml:"first_port"`
	ClientLimit      int     `yaml:"client_limit"`
	HBDisconnect     int     `yaml:"hb_disconnect"`
	NotifyPeriodMs   int     `yaml:"notify_period"`
	TimeoutLimit     int     `yaml:"timeout_limit"`
	Map              string  `yaml:"map"`
	Grid             string  `yaml:"grid"`
	MapOffset        float64 `yaml:"map_offset"`
	CollisionPlusEps float64 `yaml:"collisionPlusEps"`
	CollisionMinusEps float64 `yaml:"collisionMinusEps"`
	COR              float64 `yaml:"COR"`
	MiS              float64 `yaml:"mi_s"`
	MiD              float64 `yaml:"mi_d"`
	MinimalDist      float64 `yaml:"minimalDist"`
	CollisionLoopTime float64 `yaml:"collisionLoopTime"`
	WindMatrix       string  `yaml:"wind_matrix"`
	WindBias         string  `yaml:"wind_bias"`
	WindTurbulence   float64 `yaml:"wind_turbulence"`
	Temperature      float64 `yaml:"temperature"`
	Pressure         float64 `yaml:"pressure"`
	QExit            bool    `yaml:"q_exit"`

	DronesConfigDir string `yaml:"drones_config_dir"`
	ConfigUploadDir string `yaml:"config_upload_dir"`
	AssetsDir       string `yaml:"assets_dir"`
	LogDir          string `yaml:"log_dir"`

	PhysicsEngineExe   string `yaml:"physics_engine_exe"`
	ControllerExe      string `yaml:"controller_exe"`
	ObjectPhysicsExe   string `yaml:"object_physics_exe"`
}

// Defaults returns the configuration baseline used whenever a key is
// absent from the YAML file (original source had no defaults and
// panicked on a missing key; we keep the repo runnable out of the box).
func Defaults() ServerConfig {
	return ServerConfig{
		ReplyerPort:       9000,
		DronesPort:        9090,
		ObjectPort:        9100,
		NotificationPort:  9200,
		FirstPort:         10000,
		ClientLimit:       16,
		HBDisconnect:      5,
		NotifyPeriodMs:    200,
		TimeoutLimit:      10,
		Map:               "map.obj",
		Grid:              "10,10,10",
		MapOffset:         50.0,
		CollisionPlusEps:  0.05,
		CollisionMinusEps: -0.05,
		COR:               0.3,
		MiS:               0.6,
		MiD:               0.4,
		MinimalDist:       0.25,
		CollisionLoopTime: 0.02,
		WindMatrix:        "0,0,0;0,0,0;0,0,0",
		WindBias:          "0,0,0",
		WindTurbulence:    0.0,
		Temperature:       288.15,
		Pressure:          101325.0,
		QExit:             false,
		DronesConfigDir:   "configs/drones",
		ConfigUploadDir:   "configs/uploaded",
		AssetsDir:         "assets",
		LogDir:            "logs",
		PhysicsEngineExe:  "../UAV_physics_engine/build/uav",
		ControllerExe:     "../UAV_controller/build/controller",
		ObjectPhysicsExe:  "../UAV_drop_physic/build/drop",
	}
}

// Load reads a YAML file over the defaults, so a partial config file
// only needs to mention the keys it overrides.
func Load(path string) (ServerConfig, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return ServerConfig{}, fmt.Errorf("read server config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return ServerConfig{}, fmt.Errorf("parse server config: %w", err)
	}
	return cfg, nil
}

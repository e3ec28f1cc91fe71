package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// DroneConfig is the parsed per-UAV XML definition: airframe physical
// parameters plus the collision hull mesh and the cargo/ammo specs
// that the session manager's shoot/drop commands consume.
//
// Grounded on original_source/src/config.rs's DroneConfig/Inertia/
// Rotor/PID/Control structs, extended with Mesh/CargoSlots/AmmoSlots
// per spec.md §3 ("hull mesh as a 3×N matrix ... per-slot cargo
// specs, per-slot ammo specs").
type DroneConfig struct {
	XMLName xml.Name `xml:"drone"`

	Name       string `xml:"name"`
	Type       string `xml:"type"`
	MeshFile   string `xml:"mesh"`
	Inertia    xmlInertia `xml:"inertia"`
	Rotors     xmlRotors  `xml:"rotors"`
	Control    xmlControl `xml:"control"`
	MixerText  string     `xml:"mixer"`
	CargoSlots []CargoSpec `xml:"cargoSlots>cargo"`
	AmmoSlots  []AmmoSpec  `xml:"ammoSlots>ammo"`
}

type xmlInertia struct {
	Mass float64 `xml:"mass"`
	Ix   float64 `xml:"Ix"`
	Iy   float64 `xml:"Iy"`
	Iz   float64 `xml:"Iz"`
	Ixy  float64 `xml:"Ixy"`
	Ixz  float64 `xml:"Ixz"`
	Iyz  float64 `xml:"Iyz"`
}

type xmlRotors struct {
	Rotor []xmlRotor `xml:"rotor"`
}

type xmlRotor struct {
	Position     string  `xml:"position"`
	ForceCoeff   float64 `xml:"forceCoff"`
	TorqueCoeff  float64 `xml:"torqueCoff"`
	Direction    int     `xml:"direction"`
	TimeConstant float64 `xml:"timeConstant"`
}

type xmlControl struct {
	MaxSpeed   float64 `xml:"maxSpeed"`
	HoverSpeed float64 `xml:"hoverSpeed"`
}

// CargoSpec describes one tetherable payload slot: the rope the
// cargo engine builds when "drop" is issued for this slot.
type CargoSpec struct {
	Length float64  `xml:"length,attr"`
	K      float64  `xml:"k,attr"`
	B      float64  `xml:"b,attr"`
	HookX  float64  `xml:"hookX,attr"`
	HookY  float64  `xml:"hookY,attr"`
	HookZ  float64  `xml:"hookZ,attr"`
	Mass   float64  `xml:"mass,attr"`
	CS     float64  `xml:"cs,attr"`
	Radius float64  `xml:"radius,attr"`
	Model  string   `xml:"model,attr"`
}

// AmmoSpec describes one "shoot" slot: a projectile launched with no
// tether, added straight to the object registry.
type AmmoSpec struct {
	Mass   float64 `xml:"mass,attr"`
	Speed  float64 `xml:"speed,attr"`
	CS     float64 `xml:"cs,attr"`
	Radius float64 `xml:"radius,attr"`
	Model  string  `xml:"model,attr"`
}

// Mixer parses the comma-separated mixer matrix text.
func (c *DroneConfig) Mixer() ([]float64, error) {
	parts := strings.Split(c.MixerText, ",")
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("parse mixer component %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// ParseDroneConfig reads and decodes a drone XML definition file.
func ParseDroneConfig(path string) (*DroneConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read drone config: %w", err)
	}
	var cfg DroneConfig
	if err := xml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse drone config: %w", err)
	}
	return &cfg, nil
}

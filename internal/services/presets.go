package services

import "strings"

// Preset is a named port selection offered to clients.
type Preset struct {
	Label    string `json:"label" yaml:"label"`
	Ports    string `json:"ports" yaml:"ports"`
	Protocol string `json:"protocol" yaml:"protocol"`
}

var presets = []Preset{
	{Label: "Common TCP", Ports: "21,22,23,25,80,443", Protocol: "tcp"},
	{Label: "Web Ports", Ports: "80,443,8080,8443", Protocol: "tcp"},
	{Label: "Remote Access", Ports: "21,22,23", Protocol: "tcp"},
	{Label: "Databases", Ports: "3306,5432,1433,27017", Protocol: "tcp"},
	{Label: "Common UDP", Ports: "53,123,161,5060", Protocol: "udp"},
	{Label: "Top 100", Ports: "1-100", Protocol: "tcp"},
}

// Presets returns the built-in port presets.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

// FindPreset looks a preset up by label, ignoring case and surrounding space.
func FindPreset(label string) (Preset, bool) {
	label = strings.TrimSpace(label)
	for _, p := range presets {
		if strings.EqualFold(p.Label, label) {
			return p, true
		}
	}
	return Preset{}, false
}

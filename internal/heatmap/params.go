package heatmap

// Mode selects which data set the feed serves.
type Mode string

const (
	ModeTemperature Mode = "temperature"
	ModeOccupancy   Mode = "occupancy"
	ModePower       Mode = "power"
)

// Modes lists the supported visualization modes in cycle order.
func Modes() []Mode {
	return []Mode{ModeTemperature, ModeOccupancy, ModePower}
}

// NextMode returns the mode after m in cycle order.
func NextMode(m Mode) Mode {
	modes := Modes()
	for i, mm := range modes {
		if mm == m {
			return modes[(i+1)%len(modes)]
		}
	}
	return modes[0]
}

// ValidMode reports whether m is a known mode.
func ValidMode(m Mode) bool {
	for _, mm := range Modes() {
		if mm == m {
			return true
		}
	}
	return false
}

// Params are the extension's visualization parameters, owned exclusively by
// the extension instance and mutated only through its methods.
type Params struct {
	Enabled   bool
	Intensity float64
	Mode      Mode
}

// DefaultParams returns the parameters a fresh (or just-unloaded) extension
// carries.
func DefaultParams() Params {
	return Params{Enabled: false, Intensity: 0.5, Mode: ModeTemperature}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

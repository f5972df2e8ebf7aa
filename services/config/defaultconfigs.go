package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Key: device ID (same value placed in ctx under CtxDeviceKey)
// Val: YAML overriding Default() for that board
// -----------------------------------------------------------------------------

const cfgPico = `
device: pico
log_level: info
scheduler:
  period_ms: 1750
  step_ms: 500
  initial_on_ms: 20
  reset_on_ms: 20
energy:
  deepest: 3
  counter: 3
  adc: 3
  link: 1
  timer: 1
tap:
  window_ms: 280
`

// The host simulator runs the counter from the 32 kHz crystal so that short
// periods still resolve.
const cfgSim = `
device: sim
log_level: debug
energy:
  deepest: 4
  counter: 2
  link_standing: false
`

var embeddedConfigs = map[string][]byte{
	"pico": []byte(cfgPico),
	"sim":  []byte(cfgSim),
}

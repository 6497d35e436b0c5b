package handlers

import (
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/paperoll/backend/internal/sim"
)

// presetConfig is the JSON shape stored in the presets table and accepted by
// the session/preset endpoints: both halves optional, defaults fill the rest.
type presetConfig struct {
	Roll  *sim.RollConfig  `json:"roll,omitempty"`
	Cloth *sim.ClothConfig `json:"cloth,omitempty"`
}

// decodePresetConfig parses a stored/submitted preset payload into concrete
// configs, falling back to defaults for any half that is absent.
func decodePresetConfig(raw json.RawMessage) (sim.RollConfig, sim.ClothConfig, error) {
	rollCfg := sim.DefaultRollConfig()
	clothCfg := sim.DefaultClothConfig()
	if len(raw) == 0 {
		return rollCfg, clothCfg, nil
	}

	var pc presetConfig
	if err := json.Unmarshal(raw, &pc); err != nil {
		return rollCfg, clothCfg, fmt.Errorf("invalid preset config: %w", err)
	}
	if pc.Roll != nil {
		rollCfg = *pc.Roll
	}
	if pc.Cloth != nil {
		clothCfg = *pc.Cloth
	}
	return rollCfg, clothCfg, nil
}

var presetNameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{0,63}$`)

// validPresetName keeps preset names URL-safe and short.
func validPresetName(name string) bool {
	return presetNameRe.MatchString(name)
}

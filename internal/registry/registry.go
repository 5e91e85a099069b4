// Package registry holds the static catalog of dashboard controls and the
// subtitle parsing rules shared by the state store and the behavior reporter.
package registry

import (
	"regexp"
	"strconv"

	"homesync/internal/domain"
)

var (
	temperaturePattern = regexp.MustCompile(`(\d+)°C`)
	amountPattern      = regexp.MustCompile(`(\d+)ml`)
)

// Default returns the built-in control catalog in display order. Callers get
// a fresh slice on every call; the returned actions are session-local state.
func Default() []domain.Action {
	return []domain.Action{
		{ID: "water", Name: "喝水", Type: domain.ActionDrinkWater, Subtitle: "2200ml / 3000ml"},
		{ID: "faucet", Name: "纯净水", Type: domain.ActionWaterPurifier, Subtitle: "水质优"},
		{ID: "light", Name: "客厅灯", Type: domain.ActionToggleLight, Subtitle: "暖白光 · 80%"},
		{ID: "door", Name: "入户门", Type: domain.ActionUnlockDoor, Subtitle: "已锁止"},
		{ID: "ac", Name: "全屋空调", Type: domain.ActionToggleAC, Subtitle: "24°C · 自动"},
		{ID: "heater", Name: "热水器", Type: domain.ActionToggleHeater, Subtitle: "恒温 45°C"},
	}
}

// Temperature extracts the first °C reading embedded in a subtitle,
// e.g. "24°C · 自动" yields 24.
func Temperature(subtitle string) (int, bool) {
	return firstNumber(temperaturePattern, subtitle)
}

// Amount extracts the first ml quantity embedded in a subtitle,
// e.g. "2200ml / 3000ml" yields 2200.
func Amount(subtitle string) (int, bool) {
	return firstNumber(amountPattern, subtitle)
}

func firstNumber(re *regexp.Regexp, s string) (int, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

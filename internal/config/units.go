package config

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// parseUnitsJSON reads a JSON object mapping function identities to units.
// A value is either a unit label or an object with "label" and "divisor".
// Object keys are taken literally, so dotted identities need no escaping.
func parseUnitsJSON(raw string) ([]UnitOverride, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("invalid JSON")
	}
	root := gjson.Parse(raw)
	if !root.IsObject() {
		return nil, fmt.Errorf("expected a JSON object, got %s", root.Type)
	}

	var (
		units []UnitOverride
		err   error
	)
	root.ForEach(func(key, value gjson.Result) bool {
		u := UnitOverride{Function: strings.TrimSpace(key.String())}
		switch {
		case value.Type == gjson.String:
			u.Label = strings.TrimSpace(value.String())
		case value.IsObject():
			u.Label = strings.TrimSpace(value.Get("label").String())
			if d := value.Get("divisor"); d.Exists() {
				if d.Type != gjson.Number {
					err = fmt.Errorf("%s: divisor must be a number", key.String())
					return false
				}
				u.Divisor = d.Float()
			}
		default:
			err = fmt.Errorf("%s: expected a label or an object, got %s", key.String(), value.Type)
			return false
		}
		units = append(units, u)
		return true
	})
	if err != nil {
		return nil, err
	}
	return units, nil
}

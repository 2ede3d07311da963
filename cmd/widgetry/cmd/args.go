package cmd

import (
	"fmt"
	"strings"
)

// flags holds parsed --name value pairs. Boolean flags map to "true".
type flags map[string]string

func (f flags) has(name string) bool {
	_, ok := f[name]
	return ok
}

// parseArgs splits args into positional arguments and flags. Names in
// valued take a value ("--url X" or "--url=X"); names in switches do not.
func parseArgs(args []string, valued, switches []string) ([]string, flags, error) {
	isValued := make(map[string]bool, len(valued))
	for _, v := range valued {
		isValued[v] = true
	}
	isSwitch := make(map[string]bool, len(switches))
	for _, s := range switches {
		isSwitch[s] = true
	}

	var pos []string
	out := make(flags)
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "--") {
			pos = append(pos, arg)
			continue
		}
		name, value, hasValue := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		switch {
		case isSwitch[name]:
			if hasValue {
				return nil, nil, fmt.Errorf("--%s takes no value", name)
			}
			out[name] = "true"
		case isValued[name]:
			if !hasValue {
				if i+1 >= len(args) {
					return nil, nil, fmt.Errorf("--%s requires a value", name)
				}
				i++
				value = args[i]
			}
			out[name] = value
		default:
			return nil, nil, fmt.Errorf("unknown flag --%s", name)
		}
	}
	return pos, out, nil
}

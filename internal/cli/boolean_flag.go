package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	toggleFlagTypeName        = "bool"
	toggleFlagTrueLiteral     = "true"
	toggleFlagAcceptedValues  = "true, false, yes, no, on, off, 1, 0"
	toggleFlagInvalidValueFmt = "invalid boolean value %q for --%s; accepted values: %s"
	argumentTerminator        = "--"
)

var toggleFlagLiterals = map[string]bool{
	"true":  true,
	"t":     true,
	"1":     true,
	"yes":   true,
	"y":     true,
	"on":    true,
	"false": false,
	"f":     false,
	"0":     false,
	"no":    false,
	"n":     false,
	"off":   false,
}

// toggleFlagDefinition describes an on/off flag that also accepts a
// space-separated literal such as "--copy no".
type toggleFlagDefinition struct {
	name         string
	target       *bool
	defaultValue bool
	usage        string
}

func parseToggleLiteral(input string) (bool, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return true, true
	}
	parsed, ok := toggleFlagLiterals[normalized]
	return parsed, ok
}

type toggleFlagValue struct {
	target  *bool
	flagKey string
}

func (value *toggleFlagValue) Set(input string) error {
	parsed, ok := parseToggleLiteral(input)
	if !ok || value == nil || value.target == nil {
		flagKey := ""
		if value != nil {
			flagKey = value.flagKey
		}
		return fmt.Errorf(toggleFlagInvalidValueFmt, input, flagKey, toggleFlagAcceptedValues)
	}
	*value.target = parsed
	return nil
}

func (value *toggleFlagValue) String() string {
	if value == nil || value.target == nil {
		return strconv.FormatBool(false)
	}
	return strconv.FormatBool(*value.target)
}

func (value *toggleFlagValue) Type() string {
	return toggleFlagTypeName
}

func registerToggleFlags(flagSet *pflag.FlagSet, definitions ...toggleFlagDefinition) {
	if flagSet == nil {
		return
	}
	for _, definition := range definitions {
		if definition.target == nil {
			continue
		}
		*definition.target = definition.defaultValue
		flagSet.Var(&toggleFlagValue{target: definition.target, flagKey: definition.name}, definition.name, definition.usage)
		if lookup := flagSet.Lookup(definition.name); lookup != nil {
			lookup.DefValue = strconv.FormatBool(definition.defaultValue)
			lookup.NoOptDefVal = toggleFlagTrueLiteral
		}
	}
}

// normalizeToggleFlagArguments joins "--flag literal" pairs into "--flag=literal"
// for every toggle flag known to command or its subcommands.
func normalizeToggleFlagArguments(command *cobra.Command, arguments []string) []string {
	if command == nil || len(arguments) == 0 {
		return arguments
	}
	toggleNames := map[string]struct{}{}
	collectToggleFlagNames(command, toggleNames)
	if len(toggleNames) == 0 {
		return arguments
	}
	normalized := make([]string, 0, len(arguments))
	for index := 0; index < len(arguments); index++ {
		currentArgument := arguments[index]
		if currentArgument == argumentTerminator {
			normalized = append(normalized, arguments[index:]...)
			break
		}
		flagName, isLongFlag := strings.CutPrefix(currentArgument, argumentTerminator)
		if isLongFlag && !strings.Contains(flagName, "=") && index+1 < len(arguments) {
			if _, known := toggleNames[flagName]; known {
				nextArgument := arguments[index+1]
				if !strings.HasPrefix(nextArgument, "-") && nextArgument != "" {
					if _, literal := parseToggleLiteral(nextArgument); literal {
						normalized = append(normalized, fmt.Sprintf("--%s=%s", flagName, nextArgument))
						index++
						continue
					}
				}
			}
		}
		normalized = append(normalized, currentArgument)
	}
	return normalized
}

func collectToggleFlagNames(command *cobra.Command, target map[string]struct{}) {
	visit := func(flagSet *pflag.FlagSet) {
		flagSet.VisitAll(func(flag *pflag.Flag) {
			if _, isToggle := flag.Value.(*toggleFlagValue); isToggle {
				target[flag.Name] = struct{}{}
			}
		})
	}
	visit(command.PersistentFlags())
	visit(command.Flags())
	for _, child := range command.Commands() {
		collectToggleFlagNames(child, target)
	}
}

package config

import (
	"os"
	"strconv"
)

// setenv copies each set, non-empty variable into its target.
func setenv(targets map[string]*string) {
	for name, dst := range targets {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
}

// setenvInt ignores values that do not parse as integers.
func setenvInt(name string, dst *int) {
	if n, err := strconv.Atoi(os.Getenv(name)); err == nil {
		*dst = n
	}
}

func mergeString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

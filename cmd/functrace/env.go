package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables that set process-wide tracing defaults. Flags
// override them, and a .env file in the working directory fills in the ones
// the environment leaves unset.
const (
	envIndent      = "FUNCTRACE_INDENT"
	envEagerForce  = "FUNCTRACE_EAGER_FORCING"
	envMonitorPort = "FUNCTRACE_MONITOR_PORT"
)

func loadEnv() {
	_ = godotenv.Load()
}

func envInt(name string, fallback int) int {
	value, ok := os.LookupEnv(name)
	if !ok {
		return fallback
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ignoring %s=%q: %s\n", name, value, err)
		return fallback
	}

	return n
}

func envBool(name string, fallback bool) bool {
	value, ok := os.LookupEnv(name)
	if !ok {
		return fallback
	}

	b, err := strconv.ParseBool(value)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ignoring %s=%q: %s\n", name, value, err)
		return fallback
	}

	return b
}

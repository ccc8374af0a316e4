package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Fantasim/hdada/internal/api"
)

var version = "dev"

type command struct {
	name  string
	usage string
	run   func(args []string) error
}

var commands = []command{
	{"mnemonic", "Generate a new BIP-39 mnemonic", runMnemonic},
	{"validate", "Check a mnemonic's words and checksum", runValidate},
	{"init", "Derive an address bundle, store it and export it", runInit},
	{"export", "Export a stored bundle or a derived key", runExport},
	{"sign", "Sign a message with a derived key", runSign},
	{"verify", "Verify an Ed25519 signature", runVerify},
	{"inspect", "Decode a Shelley address", runInspect},
	{"keystore", "Manage encrypted mnemonics (create, list, delete)", runKeystore},
	{"serve", "Start the localhost HTTP API", runServe},
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	name := os.Args[1]
	switch name {
	case "version", "-version", "--version":
		fmt.Printf("hdada %s\n", version)
		return
	case "help", "-h", "--help":
		printUsage()
		return
	}

	api.Version = version

	for _, c := range commands {
		if c.name != name {
			continue
		}
		if err := c.run(os.Args[2:]); err != nil {
			slog.Error(name+" failed", "error", err)
			fmt.Fprintf(os.Stderr, "hdada %s: %v\n", name, err)
			os.Exit(1)
		}
		return
	}

	fmt.Fprintf(os.Stderr, "unknown command: %s\n", name)
	printUsage()
	os.Exit(1)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage: hdada <command> [flags]")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-9s %s\n", c.name, c.usage)
	}
	fmt.Fprintf(os.Stderr, "  %-9s %s\n", "version", "Print version information")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Configuration is read from HDADA_* environment variables and .env.")
}

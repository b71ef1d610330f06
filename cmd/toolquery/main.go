// Command toolquery answers questions with the tools of several MCP
// backends.
//
// Usage:
//
//	toolquery query "What are the latest trends in AI?"
//	toolquery chat
//	toolquery tools --search pdf
//	toolquery backends
//
// Configuration is read from the environment and an optional .env file; see
// package config.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			fmt.Println(ferr.Message)
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	parser := flags.NewParser(newOptions(os.Stdin, os.Stdout), flags.HelpFlag|flags.PassDoubleDash)
	_, err := parser.ParseArgs(args)
	return err
}

package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/nlpstudio/textlab/internal/cli"
)

func main() {
	_ = godotenv.Load()
	if err := cli.Execute(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// cmd/launchpad/main.go
package main

import "github.com/rovshanmuradov/launchpad-sdk/internal/cli"

func main() {
	cli.Execute()
}

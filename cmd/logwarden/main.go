// Command logwarden bans addresses that request suspicious paths, as seen in
// web server access logs.
package main

import (
	"context"
	"os"

	"github.com/roach88/logwarden/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

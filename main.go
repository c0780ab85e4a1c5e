// Socialgraph - social follow graph with feeds and distance queries.
//
// Socialgraph stores users, their follows and their recent posts, and
// answers relationship, distance and feed queries from the command line
// or over MCP.
package main

import (
	"fmt"
	"os"

	"github.com/Benny93/socialgraph-go/cmd"
)

func main() {
	cli := cmd.NewCLI()

	if err := cli.Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

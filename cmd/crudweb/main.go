// Command crudweb serves and edits a single records table.
package main

import "github.com/mesh-intelligence/crudweb/internal/cli"

func main() {
	cli.Execute()
}

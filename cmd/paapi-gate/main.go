// Command paapi-gate serves the Product Advertising API 5.0 through a
// batch HTTP API, MCP tools and a command line.
package main

import "github.com/Sentinel-Gate/paapigate/cmd/paapi-gate/cmd"

func main() {
	cmd.Execute()
}

package main

import "github.com/jstewartrr/sm-mcp-gateway-v2/cmd"

func main() {
	cmd.Execute()
}

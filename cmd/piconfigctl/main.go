// Command piconfigctl is the command-line configuration panel.
package main

import "github.com/micro-nova/piconfig-go/internal/cli"

func main() {
	cli.Execute()
}

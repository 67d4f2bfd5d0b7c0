// layerctl inspects and manages on-disk MTProto client session state.
package main

import "github.com/ankit-chaubey/layer/cmd/layerctl/commands"

func main() {
	commands.Execute()
}

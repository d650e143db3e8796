// Command fitpress runs the fitness blog server and its maintenance tasks.
package main

import (
	"os"
)

func main() {
	if err := rootCMD.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"github.com/mjacobson/drspin/pkg/cmd"
)

func main() {
	cmd.Execute()
}

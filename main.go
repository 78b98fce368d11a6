package main

import "github.com/frahmantamala/vendor-portal/cmd"

func main() {
	cmd.Execute()
}

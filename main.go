package main

import "github.com/TelioTortay/ATEMLogger/cmd"

func main() {
	cmd.Execute()
}

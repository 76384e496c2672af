package main

import "github.com/jemaltech/app2automate/cmd"

func main() {
	cmd.Execute()
}

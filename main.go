package main

import "github.com/frahmantamala/expense-portal/cmd"

func main() {
	cmd.Execute()
}

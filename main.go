/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/harjot20022001/bug-tracker/cmd"

func main() {
	cmd.Execute()
}

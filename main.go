/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/Bekawhite/DigitalLab/cmd"

func main() {
	cmd.Execute()
}

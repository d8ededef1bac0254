/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/recipebox/webapp/cmd"

func main() {
	cmd.Execute()
}

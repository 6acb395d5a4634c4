// Package main is the entry point for the towerstats CLI tool, which
// reconciles a shared game session log and computes leaderboards from it.
package main

import "github.com/lcrespin/towerstats/cmd"

func main() {
	cmd.Execute()
}

// Command proofhost runs the proof task orchestrator and talks to a running instance.
package main

func main() {
	Execute()
}

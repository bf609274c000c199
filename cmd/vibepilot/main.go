// VibePilot wraps an AI coding assistant in a pseudo-terminal and answers
// its known interactive prompts automatically, according to policy.
package main

func main() {
	Execute()
}

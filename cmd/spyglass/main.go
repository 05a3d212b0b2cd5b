// Spyglass - interactive AWS resource browser
// List. Inspect. Act.
package main

func main() {
	Execute()
}

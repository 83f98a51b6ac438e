// Command overtime classifies DBR timesheet files from the command line.
package main

func main() {
	Execute()
}

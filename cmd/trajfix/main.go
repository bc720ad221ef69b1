// Command trajfix finds recorded trajectories, flags and repairs tracking
// jumps in them, and renders the result as charts.
package main

func main() {
	Execute()
}

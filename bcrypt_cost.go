//go:build !race

package taskdesk

func passwordHashCost() int {
	return 10
}

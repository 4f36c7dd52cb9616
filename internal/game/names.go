package game

import "math/rand/v2"

var (
	firstNames = []string{
		"Alex", "Jordan", "Taylor", "Morgan", "Casey", "Riley", "Avery", "Quinn",
		"Sage", "River", "Blake", "Cameron", "Dakota", "Emery", "Finley", "Harper",
		"Hayden", "Jamie", "Kai", "Logan", "Noah", "Parker", "Phoenix", "Reese",
		"Rowan", "Skylar", "Tyler", "Zion",
	}
	lastNames = []string{
		"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis",
		"Rodriguez", "Martinez", "Hernandez", "Lopez", "Wilson", "Anderson", "Thomas",
		"Taylor", "Moore", "Jackson", "Martin", "Lee", "Thompson", "White", "Harris",
		"Sanchez", "Clark", "Ramirez", "Lewis", "Robinson",
	}
)

// randomUserName picks the display name of the simulated requester
func randomUserName(r *rand.Rand) string {
	return firstNames[r.IntN(len(firstNames))] + " " + lastNames[r.IntN(len(lastNames))]
}

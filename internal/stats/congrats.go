package stats

import "fmt"

// CongratulationsMessage returns the report headline for a weekly
// completion count. Bucket boundaries are part of the product contract:
// 0, 1, 2-3, 4-7, 8-15, 16 and up.
func CongratulationsMessage(count int) string {
	switch {
	case count == 0:
		return "Pas de tâches cette semaine. Prêt à repartir ? 💭"
	case count == 1:
		return "Bravo ! 1 tâche complétée. Chaque pas compte ! 🎊"
	case count <= 3:
		return fmt.Sprintf("Super ! %d tâches. Tu prends de l'élan ! 🎉", count)
	case count <= 7:
		return fmt.Sprintf("Excellent ! %d tâches. Belle lancée ! 🌟", count)
	case count <= 15:
		return fmt.Sprintf("Incroyable ! %d tâches. Machine à productivité ! 🚀", count)
	default:
		return fmt.Sprintf("WOW ! %d tâches. Tu es en feu ! 🏆", count)
	}
}

package scoring

import "fmt"

type errWeightSum float64

func (e errWeightSum) Error() string {
	return fmt.Sprintf("scoring weights must sum to 1, got %.3f", float64(e))
}

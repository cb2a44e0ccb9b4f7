package reputation

import "math"

// Lissage bayésien : tant qu'un utilisateur a peu d'avis, son score est tiré
// vers la note neutre. L'a priori équivaut à 5 avis neutres (5/10) de poids 1.
const (
	priorMean   = 5.0
	priorWeight = 5.0

	// NeutralScore est le score publié d'un utilisateur sans aucun avis.
	NeutralScore = 50
)

// ComputeScore dérive le score publié (0-100) des agrégats courants.
// weightTotal <= 0 signifie aucune évidence : score neutre.
func ComputeScore(weightedSum, weightTotal float64) int {
	if weightTotal <= 0 {
		return NeutralScore
	}

	mean := (priorMean*priorWeight + weightedSum) / (priorWeight + weightTotal)

	score := int(math.Round(mean * 10))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

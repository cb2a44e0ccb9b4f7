package reputation

import "math"

// Paramètres du modèle de poids. Le poids d'un avis est figé au moment de la
// soumission : il n'est jamais recalculé quand le score de l'auteur évolue,
// ce qui évite de propager des recalculs en cascade sur tout le graphe d'avis.
const (
	weightAlpha    = 0.6 // facteur d'expérience (logarithmique)
	weightMaxExtra = 4.0 // l'expérience seule plafonne le poids de base à 5x
	verifyFactor   = 0.5 // bonus par niveau de vérification

	// Plafond absolu : base maximale + 5 niveaux de vérification.
	weightFinalCap = 1 + weightMaxExtra + 5*verifyFactor

	weightFloor = 0.1
)

// ComputeWeight calcule le poids d'influence d'un avis à partir de l'état
// courant de son auteur : score publié (0-100), nombre d'avis donnés et
// niveau de vérification du badge.
func ComputeWeight(authorScore, givenCount, verifyLevel int) float64 {
	base := 1 + weightAlpha*math.Log(1+float64(givenCount))
	if base > 1+weightMaxExtra {
		base = 1 + weightMaxExtra
	}

	badgeMul := 1 + float64(verifyLevel)*verifyFactor
	scoreMul := 0.75 + float64(authorScore)/100*0.5

	weight := base * badgeMul * scoreMul
	if weight > weightFinalCap {
		weight = weightFinalCap
	}
	if weight <= 0 {
		// Ne devrait jamais arriver, tous les termes sont strictement positifs.
		weight = weightFloor
	}
	return weight
}

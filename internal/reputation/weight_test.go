package reputation

import (
	"math"
	"testing"
)

func TestComputeWeightNouveauCompte(t *testing.T) {
	// Aucun avis donné, score neutre, pas de badge : poids de référence 1.0.
	w := ComputeWeight(NeutralScore, 0, 0)
	if math.Abs(w-1.0) > 1e-9 {
		t.Fatalf("poids attendu 1.0, obtenu %v", w)
	}
}

func TestComputeWeightBornes(t *testing.T) {
	scores := []int{0, 1, 25, 50, 75, 100}
	counts := []int{0, 1, 5, 50, 1000, 1_000_000}
	levels := []int{0, 1, 2, 5, 20}

	for _, s := range scores {
		for _, c := range counts {
			for _, v := range levels {
				w := ComputeWeight(s, c, v)
				if w <= 0 {
					t.Errorf("ComputeWeight(%d, %d, %d) = %v, doit être strictement positif", s, c, v, w)
				}
				if w > weightFinalCap {
					t.Errorf("ComputeWeight(%d, %d, %d) = %v, dépasse le plafond %v", s, c, v, w, weightFinalCap)
				}
			}
		}
	}
}

func TestComputeWeightPlafond(t *testing.T) {
	w := ComputeWeight(100, 1_000_000, 10)
	if math.Abs(w-weightFinalCap) > 1e-9 {
		t.Fatalf("poids attendu au plafond %v, obtenu %v", weightFinalCap, w)
	}
}

func TestComputeWeightCroissantAvecExperience(t *testing.T) {
	prev := ComputeWeight(NeutralScore, 0, 0)
	for _, c := range []int{1, 3, 10, 50, 200} {
		w := ComputeWeight(NeutralScore, c, 0)
		if w < prev {
			t.Fatalf("le poids doit croître avec l'expérience : %v < %v pour %d avis donnés", w, prev, c)
		}
		prev = w
	}
}

func TestComputeWeightScoreBasReduit(t *testing.T) {
	bas := ComputeWeight(10, 5, 0)
	haut := ComputeWeight(90, 5, 0)
	if bas >= haut {
		t.Fatalf("un auteur mal noté doit peser moins : %v >= %v", bas, haut)
	}
}

func TestComputeWeightBadgeVerification(t *testing.T) {
	sans := ComputeWeight(NeutralScore, 5, 0)
	avec := ComputeWeight(NeutralScore, 5, 1)
	if math.Abs(avec-sans*1.5) > 1e-9 {
		t.Fatalf("un niveau de vérification doit multiplier par 1.5 : %v vs %v", avec, sans)
	}
}

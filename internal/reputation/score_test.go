package reputation

import "testing"

func TestComputeScoreSansAvis(t *testing.T) {
	if got := ComputeScore(0, 0); got != NeutralScore {
		t.Fatalf("score attendu %d sans avis, obtenu %d", NeutralScore, got)
	}
	if got := ComputeScore(0, -1); got != NeutralScore {
		t.Fatalf("score attendu %d pour un total négatif, obtenu %d", NeutralScore, got)
	}
}

func TestComputeScorePremierAvis(t *testing.T) {
	// Un seul avis 10/10 de poids 1 : le lissage retient le score vers 50.
	// (5*5 + 10) / (5 + 1) = 5.8333 -> 58.
	if got := ComputeScore(10, 1); got != 58 {
		t.Fatalf("score attendu 58, obtenu %d", got)
	}
}

func TestComputeScoreConvergence(t *testing.T) {
	// Beaucoup d'avis identiques : le score converge vers la note brute.
	prev := NeutralScore
	for _, n := range []float64{1, 5, 20, 100, 1000} {
		got := ComputeScore(10*n, n)
		if got < prev {
			t.Fatalf("le score doit converger en montant : %d < %d pour n=%v", got, prev, n)
		}
		prev = got
	}
	if prev != 100 {
		t.Fatalf("score attendu 100 à la limite, obtenu %d", prev)
	}

	if got := ComputeScore(1000, 1000); got != 10 {
		t.Fatalf("avec 1000 avis à 1/10 le score doit valoir 10, obtenu %d", got)
	}
}

func TestComputeScoreBornes(t *testing.T) {
	cases := []struct {
		weightedSum, weightTotal float64
	}{
		{0.1, 0.1},
		{10, 1},
		{1, 1},
		{75, 7.5},
		{100000, 10000},
		{0.5, 7.5},
	}
	for _, c := range cases {
		got := ComputeScore(c.weightedSum, c.weightTotal)
		if got < 0 || got > 100 {
			t.Errorf("ComputeScore(%v, %v) = %d, hors bornes [0,100]", c.weightedSum, c.weightTotal, got)
		}
	}
}

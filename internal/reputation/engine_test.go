package reputation_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sync"
	"testing"

	"confiancy_back_end/internal/reputation"
	"confiancy_back_end/internal/store"
)

func newTestEngine(t *testing.T, userIDs ...int64) (*reputation.Engine, *store.Store) {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatalf("ouverture base de test: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	for _, id := range userIDs {
		if err := st.CreateProfile(context.Background(), id, fmt.Sprintf("user%d", id)); err != nil {
			t.Fatalf("création profil %d: %v", id, err)
		}
	}
	return reputation.NewEngine(st, nil), st
}

func TestSubmitReviewPremierAvis(t *testing.T) {
	engine, st := newTestEngine(t, 1, 2)
	ctx := context.Background()

	res, err := engine.SubmitReview(ctx, 1, 2, 10, "très fiable")
	if err != nil {
		t.Fatalf("soumission: %v", err)
	}
	if res.Score != 58 || res.ReviewCount != 1 {
		t.Fatalf("état attendu {58 1}, obtenu %+v", res)
	}

	// Le poids d'un nouvel auteur au score neutre vaut 1.0 et il est figé
	// sur l'avis.
	review, err := st.GetReview(ctx, 1, 2)
	if err != nil {
		t.Fatalf("lecture avis: %v", err)
	}
	if review == nil {
		t.Fatal("l'avis doit exister après soumission")
	}
	if math.Abs(review.Weight-1.0) > 1e-9 {
		t.Fatalf("poids attendu 1.0, obtenu %v", review.Weight)
	}

	author, err := st.GetUserAggregate(ctx, 1)
	if err != nil {
		t.Fatalf("lecture auteur: %v", err)
	}
	if author.GivenCount != 1 {
		t.Fatalf("compteur d'avis donnés attendu 1, obtenu %d", author.GivenCount)
	}
	if author.Score != reputation.NeutralScore || author.ReviewCount != 0 {
		t.Fatalf("le score de l'auteur ne doit pas bouger : %+v", author)
	}
}

func TestSubmitReviewValidation(t *testing.T) {
	engine, _ := newTestEngine(t, 1, 2)
	ctx := context.Background()

	if _, err := engine.SubmitReview(ctx, 1, 1, 8, ""); !errors.Is(err, reputation.ErrSelfReview) {
		t.Fatalf("auto-évaluation : attendu ErrSelfReview, obtenu %v", err)
	}
	for _, rating := range []int{0, -3, 11} {
		if _, err := engine.SubmitReview(ctx, 1, 2, rating, ""); !errors.Is(err, reputation.ErrInvalidRating) {
			t.Fatalf("note %d : attendu ErrInvalidRating, obtenu %v", rating, err)
		}
	}
	if _, err := engine.SubmitReview(ctx, 0, 2, 8, ""); !errors.Is(err, reputation.ErrInvalidUser) {
		t.Fatalf("auteur 0 : attendu ErrInvalidUser, obtenu %v", err)
	}
	if _, err := engine.SubmitReview(ctx, 1, 999, 8, ""); !errors.Is(err, reputation.ErrUnknownUser) {
		t.Fatalf("cible inconnue : attendu ErrUnknownUser, obtenu %v", err)
	}
}

func TestSubmitReviewDoublon(t *testing.T) {
	engine, _ := newTestEngine(t, 1, 2)
	ctx := context.Background()

	if _, err := engine.SubmitReview(ctx, 1, 2, 8, "bien"); err != nil {
		t.Fatalf("première soumission: %v", err)
	}
	if _, err := engine.SubmitReview(ctx, 1, 2, 3, "changé d'avis"); !errors.Is(err, reputation.ErrDuplicateReview) {
		t.Fatalf("doublon : attendu ErrDuplicateReview, obtenu %v", err)
	}

	// L'échec ne doit laisser aucune trace sur les agrégats.
	res, err := engine.GetUserScore(ctx, 2)
	if err != nil {
		t.Fatalf("lecture score: %v", err)
	}
	if res.ReviewCount != 1 {
		t.Fatalf("nombre d'avis attendu 1 après doublon rejeté, obtenu %d", res.ReviewCount)
	}
}

func TestRetractReviewRestaureLEtat(t *testing.T) {
	engine, st := newTestEngine(t, 1, 2, 3)
	ctx := context.Background()

	if _, err := engine.SubmitReview(ctx, 1, 2, 9, ""); err != nil {
		t.Fatalf("soumission: %v", err)
	}
	// L'auteur gagne de l'expérience entre temps : le retrait doit reverser
	// le poids figé, pas le poids recalculé.
	if _, err := engine.SubmitReview(ctx, 1, 3, 7, ""); err != nil {
		t.Fatalf("seconde soumission: %v", err)
	}

	res, err := engine.RetractReview(ctx, 1, 2)
	if err != nil {
		t.Fatalf("retrait: %v", err)
	}
	if res.Score != reputation.NeutralScore || res.ReviewCount != 0 {
		t.Fatalf("état attendu {%d 0}, obtenu %+v", reputation.NeutralScore, res)
	}

	target, err := st.GetUserAggregate(ctx, 2)
	if err != nil {
		t.Fatalf("lecture cible: %v", err)
	}
	if target.WeightedSum != 0 || target.WeightTotal != 0 || target.ReviewCount != 0 {
		t.Fatalf("agrégats non remis à zéro : %+v", target)
	}

	author, err := st.GetUserAggregate(ctx, 1)
	if err != nil {
		t.Fatalf("lecture auteur: %v", err)
	}
	if author.GivenCount != 1 {
		t.Fatalf("compteur d'avis donnés attendu 1 après retrait, obtenu %d", author.GivenCount)
	}
}

func TestRetractReviewIdempotent(t *testing.T) {
	engine, _ := newTestEngine(t, 1, 2)
	ctx := context.Background()

	if _, err := engine.SubmitReview(ctx, 1, 2, 6, ""); err != nil {
		t.Fatalf("soumission: %v", err)
	}
	if _, err := engine.RetractReview(ctx, 1, 2); err != nil {
		t.Fatalf("premier retrait: %v", err)
	}

	res, err := engine.RetractReview(ctx, 1, 2)
	if err != nil {
		t.Fatalf("second retrait (aucun avis) : %v", err)
	}
	if res.Score != reputation.NeutralScore || res.ReviewCount != 0 {
		t.Fatalf("état attendu {%d 0}, obtenu %+v", reputation.NeutralScore, res)
	}
}

func TestResoumissionApresRetrait(t *testing.T) {
	engine, _ := newTestEngine(t, 1, 2)
	ctx := context.Background()

	if _, err := engine.SubmitReview(ctx, 1, 2, 2, "déçu"); err != nil {
		t.Fatalf("soumission: %v", err)
	}
	if _, err := engine.RetractReview(ctx, 1, 2); err != nil {
		t.Fatalf("retrait: %v", err)
	}

	res, err := engine.SubmitReview(ctx, 1, 2, 10, "il s'est rattrapé")
	if err != nil {
		t.Fatalf("resoumission: %v", err)
	}
	if res.ReviewCount != 1 {
		t.Fatalf("nombre d'avis attendu 1 après resoumission, obtenu %d", res.ReviewCount)
	}
}

func TestRetractReviewReversible(t *testing.T) {
	engine, st := newTestEngine(t, 1, 2, 3)
	ctx := context.Background()

	// Deux avis sur la cible, on n'en retire qu'un : les agrégats doivent
	// revenir exactement à la contribution restante.
	if _, err := engine.SubmitReview(ctx, 1, 3, 9, ""); err != nil {
		t.Fatalf("soumission 1->3: %v", err)
	}
	avant, err := st.GetUserAggregate(ctx, 3)
	if err != nil {
		t.Fatalf("lecture agrégats: %v", err)
	}

	if _, err := engine.SubmitReview(ctx, 2, 3, 4, ""); err != nil {
		t.Fatalf("soumission 2->3: %v", err)
	}
	if _, err := engine.RetractReview(ctx, 2, 3); err != nil {
		t.Fatalf("retrait 2->3: %v", err)
	}

	apres, err := st.GetUserAggregate(ctx, 3)
	if err != nil {
		t.Fatalf("relecture agrégats: %v", err)
	}
	if math.Abs(apres.WeightedSum-avant.WeightedSum) > 1e-9 ||
		math.Abs(apres.WeightTotal-avant.WeightTotal) > 1e-9 ||
		apres.ReviewCount != avant.ReviewCount || apres.Score != avant.Score {
		t.Fatalf("le retrait doit reverser exactement : avant %+v, après %+v", avant, apres)
	}
}

func TestSubmitReviewConcurrent(t *testing.T) {
	const authors = 50
	ids := make([]int64, 0, authors+1)
	var target int64 = 100
	ids = append(ids, target)
	for i := int64(1); i <= authors; i++ {
		ids = append(ids, i)
	}

	engine, st := newTestEngine(t, ids...)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, authors)
	for i := int64(1); i <= authors; i++ {
		wg.Add(1)
		go func(author int64) {
			defer wg.Done()
			if _, err := engine.SubmitReview(ctx, author, target, 10, ""); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("soumission concurrente: %v", err)
	}

	agg, err := st.GetUserAggregate(ctx, target)
	if err != nil {
		t.Fatalf("lecture agrégats: %v", err)
	}
	if agg.ReviewCount != authors {
		t.Fatalf("nombre d'avis attendu %d, obtenu %d", authors, agg.ReviewCount)
	}
	// Chaque auteur est un nouveau compte : poids 1.0 chacun.
	if math.Abs(agg.WeightTotal-authors) > 1e-9 {
		t.Fatalf("poids total attendu %d, obtenu %v", authors, agg.WeightTotal)
	}
	want := reputation.ComputeScore(agg.WeightedSum, agg.WeightTotal)
	if agg.Score != want {
		t.Fatalf("score stocké %d incohérent avec les agrégats (%d attendu)", agg.Score, want)
	}
}

func TestListReviewsForTarget(t *testing.T) {
	engine, _ := newTestEngine(t, 1, 2, 3)
	ctx := context.Background()

	if _, err := engine.SubmitReview(ctx, 1, 3, 8, "sérieux"); err != nil {
		t.Fatalf("soumission: %v", err)
	}
	if _, err := engine.SubmitReview(ctx, 2, 3, 5, ""); err != nil {
		t.Fatalf("soumission: %v", err)
	}

	reviews, err := engine.ListReviewsForTarget(ctx, 3)
	if err != nil {
		t.Fatalf("liste: %v", err)
	}
	if len(reviews) != 2 {
		t.Fatalf("2 avis attendus, obtenu %d", len(reviews))
	}
	for _, r := range reviews {
		if r.TargetID != 3 {
			t.Fatalf("avis pour la mauvaise cible : %+v", r)
		}
	}
}

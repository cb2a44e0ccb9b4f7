package reputation

import (
	"context"
	"errors"
	"log"
	"time"
)

// Notifier prévient la cible qu'elle a reçu un avis. Best-effort : l'envoi
// est fait hors transaction et un échec n'est jamais propagé à l'appelant.
type Notifier interface {
	NotifyNewReview(targetID, authorID int64, rating int, comment string)
}

// Result est l'état publié de la cible après une opération. Removed
// indique si un retrait a réellement touché un avis.
type Result struct {
	Score       int  `json:"score"`
	ReviewCount int  `json:"review_count"`
	Removed     bool `json:"-"`
}

const (
	// Nombre d'essais d'une transaction quand la base signale un conflit.
	maxTxRetries = 3
	retryBackoff = 25 * time.Millisecond
)

// Engine orchestre les soumissions et retraits d'avis : validation, calcul du
// poids, read-modify-write transactionnel des agrégats et recalcul du score.
type Engine struct {
	store    Store
	notifier Notifier

	// OnScoreChange est appelé après chaque commit avec le nouvel état de la
	// cible (publication temps réel, invalidation de cache). Optionnel.
	OnScoreChange func(targetID int64, score, reviewCount int)
}

func NewEngine(store Store, notifier Notifier) *Engine {
	return &Engine{store: store, notifier: notifier}
}

// SubmitReview enregistre un avis de author vers target et renvoie le nouvel
// état de la cible. L'insertion de l'avis, la mise à jour des agrégats de la
// cible et l'incrément du compteur d'avis donnés de l'auteur sont atomiques.
func (e *Engine) SubmitReview(ctx context.Context, authorID, targetID int64, rating int, comment string) (Result, error) {
	if authorID <= 0 || targetID <= 0 {
		return Result{}, ErrInvalidUser
	}
	if authorID == targetID {
		return Result{}, ErrSelfReview
	}
	if rating < 1 || rating > 10 {
		return Result{}, ErrInvalidRating
	}

	var res Result
	err := e.withRetry(ctx, func(tx Tx) error {
		author, err := tx.UserAggregate(authorID)
		if err != nil {
			return err
		}
		verifyLevel, err := tx.VerifyLevel(authorID)
		if err != nil {
			return err
		}

		weight := ComputeWeight(author.Score, author.GivenCount, verifyLevel)

		if err := tx.InsertReview(Review{
			AuthorID:  authorID,
			TargetID:  targetID,
			Rating:    rating,
			Comment:   comment,
			Weight:    weight,
			CreatedAt: time.Now().UTC(),
		}); err != nil {
			return err
		}

		target, err := tx.UserAggregate(targetID)
		if err != nil {
			return err
		}

		weightedSum := target.WeightedSum + float64(rating)*weight
		weightTotal := target.WeightTotal + weight
		count := target.ReviewCount + 1
		score := ComputeScore(weightedSum, weightTotal)

		if err := tx.UpdateAggregate(targetID, weightedSum, weightTotal, count, score); err != nil {
			return err
		}
		if err := tx.SetGivenCount(authorID, author.GivenCount+1); err != nil {
			return err
		}

		res = Result{Score: score, ReviewCount: count}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	log.Printf("⭐ Avis de %d pour %d : %d/10. Nouveau score : %d%% (%d avis)",
		authorID, targetID, rating, res.Score, res.ReviewCount)

	if e.notifier != nil {
		go e.notifier.NotifyNewReview(targetID, authorID, rating, comment)
	}
	if e.OnScoreChange != nil {
		e.OnScoreChange(targetID, res.Score, res.ReviewCount)
	}
	return res, nil
}

// RetractReview supprime l'avis de author vers target et reverse exactement
// sa contribution aux agrégats de la cible. Retirer un avis inexistant est un
// no-op qui réussit : l'opération est idempotente.
func (e *Engine) RetractReview(ctx context.Context, authorID, targetID int64) (Result, error) {
	if authorID <= 0 || targetID <= 0 {
		return Result{}, ErrInvalidUser
	}

	var (
		res     Result
		removed bool
	)
	err := e.withRetry(ctx, func(tx Tx) error {
		removed = false

		review, err := tx.Review(authorID, targetID)
		if err != nil {
			return err
		}

		target, err := tx.UserAggregate(targetID)
		if err != nil {
			return err
		}

		if review == nil {
			res = Result{Score: target.Score, ReviewCount: target.ReviewCount}
			return nil
		}

		if err := tx.DeleteReview(authorID, targetID); err != nil {
			return err
		}

		weightedSum := target.WeightedSum - float64(review.Rating)*review.Weight
		weightTotal := target.WeightTotal - review.Weight
		count := target.ReviewCount - 1
		if weightedSum < 0 {
			weightedSum = 0
		}
		if weightTotal < 0 {
			weightTotal = 0
		}
		if count < 0 {
			count = 0
		}

		var score int
		if weightTotal <= 0 || count <= 0 {
			// Plus aucun avis : retour exact à l'état neutre plutôt que de
			// laisser traîner des résidus de flottants.
			weightedSum, weightTotal, count = 0, 0, 0
			score = NeutralScore
		} else {
			score = ComputeScore(weightedSum, weightTotal)
		}

		if err := tx.UpdateAggregate(targetID, weightedSum, weightTotal, count, score); err != nil {
			return err
		}

		author, err := tx.UserAggregate(authorID)
		switch {
		case errors.Is(err, ErrUnknownUser):
			// L'auteur a pu être purgé entre-temps, son compteur n'existe plus.
			log.Printf("⚠️ Auteur %d introuvable lors du retrait de l'avis (%d -> %d)", authorID, authorID, targetID)
		case err != nil:
			return err
		default:
			given := author.GivenCount - 1
			if given < 0 {
				given = 0
			}
			if err := tx.SetGivenCount(authorID, given); err != nil {
				return err
			}
		}

		removed = true
		res = Result{Score: score, ReviewCount: count}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	res.Removed = removed

	if removed {
		log.Printf("🗑️ Avis de %d pour %d retiré. Nouveau score : %d%% (%d avis)",
			authorID, targetID, res.Score, res.ReviewCount)
		if e.OnScoreChange != nil {
			e.OnScoreChange(targetID, res.Score, res.ReviewCount)
		}
	}
	return res, nil
}

// GetUserScore renvoie l'état publié d'un utilisateur. Lecture seule, hors
// transaction.
func (e *Engine) GetUserScore(ctx context.Context, userID int64) (Result, error) {
	if userID <= 0 {
		return Result{}, ErrInvalidUser
	}
	agg, err := e.store.GetUserAggregate(ctx, userID)
	if err != nil {
		return Result{}, err
	}
	return Result{Score: agg.Score, ReviewCount: agg.ReviewCount}, nil
}

// ListReviewsForTarget renvoie les avis actifs visant un utilisateur, du plus
// récent au plus ancien.
func (e *Engine) ListReviewsForTarget(ctx context.Context, targetID int64) ([]Review, error) {
	if targetID <= 0 {
		return nil, ErrInvalidUser
	}
	return e.store.ListReviewsForTarget(ctx, targetID)
}

// withRetry relance la transaction un nombre borné de fois quand la base
// signale un conflit de sérialisation, puis laisse remonter ErrConflict.
func (e *Engine) withRetry(ctx context.Context, fn func(tx Tx) error) error {
	var err error
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err = e.store.WithTx(ctx, fn)
		if !errors.Is(err, ErrConflict) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryBackoff << attempt):
		}
	}
	return err
}

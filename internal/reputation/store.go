package reputation

import (
	"context"
	"errors"
	"time"
)

// Erreurs renvoyées par le moteur. Les handlers HTTP les traduisent en codes
// de statut ; tout le reste est une erreur serveur.
var (
	ErrSelfReview      = errors.New("impossible de laisser un avis sur soi-même")
	ErrInvalidRating   = errors.New("la note doit être comprise entre 1 et 10")
	ErrInvalidUser     = errors.New("identifiant utilisateur invalide")
	ErrDuplicateReview = errors.New("un avis existe déjà pour cet utilisateur")
	ErrUnknownUser     = errors.New("utilisateur inconnu")

	// ErrConflict est renvoyée quand la base n'a pas pu sérialiser la
	// transaction dans le délai imparti. Transitoire : le client peut réessayer.
	ErrConflict = errors.New("conflit d'écriture, réessayez")
)

// Aggregate regroupe les compteurs de réputation d'un utilisateur. Seul le
// moteur a le droit de les modifier, et uniquement dans une transaction.
type Aggregate struct {
	UserID      int64   `json:"user_id"`
	WeightedSum float64 `json:"weighted_sum"`
	WeightTotal float64 `json:"weight_total"`
	ReviewCount int     `json:"review_count"`
	GivenCount  int     `json:"given_count"`
	Score       int     `json:"score"`
}

// Review est un avis actif, identifié par la paire (auteur, cible).
// Le poids est celui calculé à la soumission, jamais recalculé ensuite.
type Review struct {
	AuthorID  int64     `json:"author_id"`
	TargetID  int64     `json:"target_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	Weight    float64   `json:"weight"`
	CreatedAt time.Time `json:"created_at"`
}

// Store est le contrat de persistance du moteur. WithTx exécute fn dans une
// transaction qui sérialise les read-modify-write concurrents visant la même
// cible : deux soumissions pour le même utilisateur ne peuvent pas
// s'entrelacer. Si fn renvoie une erreur, tout est annulé.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	GetUserAggregate(ctx context.Context, userID int64) (Aggregate, error)
	GetReview(ctx context.Context, authorID, targetID int64) (*Review, error)
	ListReviewsForTarget(ctx context.Context, targetID int64) ([]Review, error)
}

// Tx expose les opérations disponibles à l'intérieur d'une transaction.
type Tx interface {
	// UserAggregate renvoie ErrUnknownUser si l'utilisateur n'a pas de ligne.
	UserAggregate(userID int64) (Aggregate, error)

	// VerifyLevel renvoie le niveau de vérification du badge (0 si aucun badge).
	VerifyLevel(userID int64) (int, error)

	// Review renvoie (nil, nil) si la paire n'a pas d'avis actif.
	Review(authorID, targetID int64) (*Review, error)

	// InsertReview renvoie ErrDuplicateReview si la paire existe déjà.
	InsertReview(r Review) error

	DeleteReview(authorID, targetID int64) error

	UpdateAggregate(userID int64, weightedSum, weightTotal float64, reviewCount, score int) error

	SetGivenCount(userID int64, givenCount int) error
}

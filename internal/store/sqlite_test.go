package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"confiancy_back_end/internal/reputation"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatalf("ouverture base de test: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestOpenAppliqueLeSchema(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	id, err := st.CreateCredentials(ctx, "alice@example.com", "hash", "123456789012")
	if err != nil {
		t.Fatalf("création credentials: %v", err)
	}
	if err := st.CreateProfile(ctx, id, "alice"); err != nil {
		t.Fatalf("création profil: %v", err)
	}

	user, err := st.UserByID(ctx, id)
	if err != nil {
		t.Fatalf("lecture profil: %v", err)
	}
	if user == nil {
		t.Fatal("profil introuvable après création")
	}
	if user.Score != reputation.NeutralScore {
		t.Fatalf("score initial attendu %d, obtenu %d", reputation.NeutralScore, user.Score)
	}
	if user.Badges.Verify != 0 || user.Badges.Premium || user.Badges.Staff {
		t.Fatalf("badges initiaux inattendus : %+v", user.Badges)
	}
}

func TestCreateCredentialsEmailDejaPris(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if _, err := st.CreateCredentials(ctx, "bob@example.com", "h1", "c1"); err != nil {
		t.Fatalf("première création: %v", err)
	}
	if _, err := st.CreateCredentials(ctx, "bob@example.com", "h2", "c2"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("attendu ErrEmailTaken, obtenu %v", err)
	}
}

func TestCreateProfilePseudoDejaPris(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if err := st.CreateProfile(ctx, 1, "charlie"); err != nil {
		t.Fatalf("première création: %v", err)
	}
	if err := st.CreateProfile(ctx, 2, "Charlie"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("la casse ne distingue pas les pseudos : attendu ErrUsernameTaken, obtenu %v", err)
	}

	taken, err := st.UsernameExists(ctx, "CHARLIE")
	if err != nil {
		t.Fatalf("vérification pseudo: %v", err)
	}
	if !taken {
		t.Fatal("le pseudo doit être signalé comme pris")
	}
}

func TestWithTxAnnuleEnCasDErreur(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	if err := st.CreateProfile(ctx, 1, "dave"); err != nil {
		t.Fatalf("création profil: %v", err)
	}

	boom := errors.New("boom")
	err := st.WithTx(ctx, func(tx reputation.Tx) error {
		if err := tx.InsertReview(reputation.Review{
			AuthorID: 2, TargetID: 1, Rating: 5, Weight: 1, CreatedAt: time.Now(),
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("l'erreur de la fonction doit remonter, obtenu %v", err)
	}

	review, err := st.GetReview(ctx, 2, 1)
	if err != nil {
		t.Fatalf("lecture avis: %v", err)
	}
	if review != nil {
		t.Fatal("l'insertion doit être annulée avec la transaction")
	}
}

func TestInsertReviewDoublonMappeLErreur(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	insert := func() error {
		return st.WithTx(ctx, func(tx reputation.Tx) error {
			return tx.InsertReview(reputation.Review{
				AuthorID: 1, TargetID: 2, Rating: 7, Weight: 1, CreatedAt: time.Now(),
			})
		})
	}
	if err := insert(); err != nil {
		t.Fatalf("première insertion: %v", err)
	}
	if err := insert(); !errors.Is(err, reputation.ErrDuplicateReview) {
		t.Fatalf("attendu ErrDuplicateReview, obtenu %v", err)
	}
}

func TestUserAggregateInconnu(t *testing.T) {
	st := newTestStore(t)

	err := st.WithTx(context.Background(), func(tx reputation.Tx) error {
		_, err := tx.UserAggregate(42)
		return err
	})
	if !errors.Is(err, reputation.ErrUnknownUser) {
		t.Fatalf("attendu ErrUnknownUser, obtenu %v", err)
	}
}

func TestVerifyLevelSansBadge(t *testing.T) {
	st := newTestStore(t)

	var level int
	err := st.WithTx(context.Background(), func(tx reputation.Tx) error {
		var err error
		level, err = tx.VerifyLevel(42)
		return err
	})
	if err != nil {
		t.Fatalf("lecture niveau: %v", err)
	}
	if level != 0 {
		t.Fatalf("niveau attendu 0 sans ligne badges, obtenu %d", level)
	}
}

func TestLinkProviderDejaLie(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	id1, err := st.CreateCredentials(ctx, "eve@example.com", "h", "c")
	if err != nil {
		t.Fatalf("création credentials: %v", err)
	}
	id2, err := st.CreateCredentials(ctx, "mallory@example.com", "h", "c")
	if err != nil {
		t.Fatalf("création credentials: %v", err)
	}

	if err := st.LinkProvider(ctx, id1, "discord", "d-123", "eve@discord.test"); err != nil {
		t.Fatalf("liaison: %v", err)
	}
	if err := st.LinkProvider(ctx, id2, "discord", "d-123", "mallory@discord.test"); !errors.Is(err, ErrOAuthLinked) {
		t.Fatalf("attendu ErrOAuthLinked, obtenu %v", err)
	}

	creds, err := st.CredentialsByProvider(ctx, "discord", "d-123")
	if err != nil {
		t.Fatalf("recherche par fournisseur: %v", err)
	}
	if creds == nil || creds.ID != id1 {
		t.Fatalf("le compte lié doit être %d, obtenu %+v", id1, creds)
	}
}

func TestPurgeAccount(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	id, err := st.CreateCredentials(ctx, "frank@example.com", "h", "c")
	if err != nil {
		t.Fatalf("création credentials: %v", err)
	}
	if err := st.CreateProfile(ctx, id, "frank"); err != nil {
		t.Fatalf("création profil: %v", err)
	}
	if err := st.WithTx(ctx, func(tx reputation.Tx) error {
		return tx.InsertReview(reputation.Review{
			AuthorID: 99, TargetID: id, Rating: 3, Weight: 1, CreatedAt: time.Now(),
		})
	}); err != nil {
		t.Fatalf("insertion avis: %v", err)
	}

	if err := st.PurgeAccount(ctx, id); err != nil {
		t.Fatalf("purge: %v", err)
	}

	if creds, _ := st.CredentialsByEmail(ctx, "frank@example.com"); creds != nil {
		t.Fatal("les credentials doivent disparaître")
	}
	if user, _ := st.UserByID(ctx, id); user != nil {
		t.Fatal("le profil doit disparaître")
	}
	if reviews, _ := st.ReceivedReviews(ctx, id); len(reviews) != 0 {
		t.Fatal("les avis visant le compte doivent disparaître")
	}
}

func TestPurgeAccountDecrementeLesAuteurs(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	// Trois profils : deux auteurs et la cible purgée. Le second auteur a
	// aussi un avis sur un quatrième compte, qui doit survivre.
	for i, username := range []string{"auteur1", "auteur2", "cible", "autre"} {
		id, err := st.CreateCredentials(ctx, username+"@example.com", "h", "c")
		if err != nil {
			t.Fatalf("création credentials %d: %v", i, err)
		}
		if err := st.CreateProfile(ctx, id, username); err != nil {
			t.Fatalf("création profil %s: %v", username, err)
		}
	}

	if err := st.WithTx(ctx, func(tx reputation.Tx) error {
		for _, r := range []reputation.Review{
			{AuthorID: 1, TargetID: 3, Rating: 8, Weight: 1, CreatedAt: time.Now()},
			{AuthorID: 2, TargetID: 3, Rating: 5, Weight: 1, CreatedAt: time.Now()},
			{AuthorID: 2, TargetID: 4, Rating: 7, Weight: 1, CreatedAt: time.Now()},
		} {
			if err := tx.InsertReview(r); err != nil {
				return err
			}
		}
		if err := tx.SetGivenCount(1, 1); err != nil {
			return err
		}
		return tx.SetGivenCount(2, 2)
	}); err != nil {
		t.Fatalf("mise en place des avis: %v", err)
	}

	if err := st.PurgeAccount(ctx, 3); err != nil {
		t.Fatalf("purge: %v", err)
	}

	// given_count compte les avis actifs : les avis effacés avec la cible
	// ne doivent plus y figurer.
	agg1, err := st.GetUserAggregate(ctx, 1)
	if err != nil {
		t.Fatalf("lecture auteur 1: %v", err)
	}
	if agg1.GivenCount != 0 {
		t.Fatalf("auteur 1 : given_count attendu 0, obtenu %d", agg1.GivenCount)
	}

	agg2, err := st.GetUserAggregate(ctx, 2)
	if err != nil {
		t.Fatalf("lecture auteur 2: %v", err)
	}
	if agg2.GivenCount != 1 {
		t.Fatalf("auteur 2 : given_count attendu 1, obtenu %d", agg2.GivenCount)
	}
	if reviews, _ := st.ReceivedReviews(ctx, 4); len(reviews) != 1 {
		t.Fatal("l'avis visant un autre compte doit survivre à la purge")
	}
}

func TestAccountsByEmailDomain(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	id1, _ := st.CreateCredentials(ctx, "a@jetable.fr", "h", "c")
	id2, _ := st.CreateCredentials(ctx, "b@jetable.fr", "h", "c")
	if _, err := st.CreateCredentials(ctx, "c@example.com", "h", "c"); err != nil {
		t.Fatalf("création credentials: %v", err)
	}

	ids, err := st.AccountsByEmailDomain(ctx, "jetable.fr")
	if err != nil {
		t.Fatalf("recherche domaine: %v", err)
	}
	if len(ids) != 2 || ids[0] != id1 || ids[1] != id2 {
		t.Fatalf("comptes attendus [%d %d], obtenu %v", id1, id2, ids)
	}
}

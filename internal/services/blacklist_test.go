package services

import (
	"path/filepath"
	"testing"
)

func TestNormalizeEmail(t *testing.T) {
	cases := map[string]string{
		"User+tag@Gmail.com":    "user@gmail.com",
		"  alice@example.com  ": "alice@example.com",
		"bob+a+b@mail.fr":       "bob@mail.fr",
		"charlie@mail.fr":       "charlie@mail.fr",
	}
	for in, want := range cases {
		if got := NormalizeEmail(in); got != want {
			t.Errorf("NormalizeEmail(%q) = %q, attendu %q", in, got, want)
		}
	}
}

func TestIsEmailBlacklistedDomaineJetable(t *testing.T) {
	if !IsEmailBlacklisted("spam@yopmail.com") {
		t.Error("yopmail.com doit être refusé")
	}
	if IsEmailBlacklisted("alice@example.com") {
		t.Error("example.com ne doit pas être refusé")
	}
	if !IsEmailBlacklisted("sans-domaine") {
		t.Error("une adresse sans domaine doit être refusée")
	}
}

func TestBlacklistDomainPersiste(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blacklist.json")
	t.Setenv("BLACKLIST_PATH", path)
	LoadBlacklist()

	if err := BlacklistDomain("Mechant.fr"); err != nil {
		t.Fatalf("ajout domaine: %v", err)
	}
	if !IsEmailBlacklisted("x@mechant.fr") {
		t.Fatal("le domaine ajouté doit être refusé")
	}

	// Rechargement depuis le fichier : la liste doit survivre
	blacklist.domains = map[string]bool{}
	LoadBlacklist()
	if !IsEmailBlacklisted("x@mechant.fr") {
		t.Fatal("le domaine doit survivre au rechargement")
	}

	if err := UnblacklistDomain("mechant.fr"); err != nil {
		t.Fatalf("retrait domaine: %v", err)
	}
	if IsEmailBlacklisted("x@mechant.fr") {
		t.Fatal("le domaine retiré ne doit plus être refusé")
	}
}

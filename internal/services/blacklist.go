package services

import (
	"encoding/json"
	"log"
	"os"
	"sort"
	"strings"
	"sync"
)

// Domaines d'adresses jetables refusés à l'inscription. La liste embarquée
// couvre les fournisseurs les plus courants ; elle est complétée par la liste
// noire persistée, gérée par l'équipe.
var disposableDomains = map[string]bool{
	"yopmail.com":        true,
	"yopmail.fr":         true,
	"yopmail.net":        true,
	"jetable.org":        true,
	"jetable.fr.nf":      true,
	"mailinator.com":     true,
	"guerrillamail.com":  true,
	"guerrillamail.net":  true,
	"sharklasers.com":    true,
	"10minutemail.com":   true,
	"10minutemail.net":   true,
	"temp-mail.org":      true,
	"tempmail.dev":       true,
	"tempail.com":        true,
	"throwawaymail.com":  true,
	"trashmail.com":      true,
	"trashmail.fr":       true,
	"maildrop.cc":        true,
	"getnada.com":        true,
	"dispostable.com":    true,
	"mail-temporaire.fr": true,
	"mohmal.com":         true,
	"emailondeck.com":    true,
	"fakeinbox.com":      true,
	"mytemp.email":       true,
}

// Blacklist gère les domaines refusés ajoutés par l'équipe, persistés dans un
// fichier JSON.
type Blacklist struct {
	mu      sync.RWMutex
	path    string
	domains map[string]bool
}

var blacklist = &Blacklist{domains: make(map[string]bool)}

// LoadBlacklist charge la liste noire persistée. À appeler au démarrage.
func LoadBlacklist() {
	path := os.Getenv("BLACKLIST_PATH")
	if path == "" {
		path = "blacklist.json"
	}

	blacklist.mu.Lock()
	defer blacklist.mu.Unlock()
	blacklist.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Println("⚠️ Lecture liste noire impossible:", err)
		}
		return
	}

	var domains []string
	if err := json.Unmarshal(data, &domains); err != nil {
		log.Println("⚠️ Liste noire corrompue, ignorée:", err)
		return
	}

	for _, d := range domains {
		blacklist.domains[strings.ToLower(d)] = true
	}
	log.Printf("✅ Liste noire chargée : %d domaine(s)", len(domains))
}

func (b *Blacklist) save() error {
	domains := make([]string, 0, len(b.domains))
	for d := range b.domains {
		domains = append(domains, d)
	}
	sort.Strings(domains)

	data, err := json.MarshalIndent(domains, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(b.path, data, 0o644)
}

// NormalizeEmail met l'adresse en minuscules et retire la sous-adresse
// (tout ce qui suit un +) : user+tag@gmail.com et user@gmail.com sont le
// même compte.
func NormalizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))

	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return email
	}

	local, domain := email[:at], email[at+1:]
	if plus := strings.Index(local, "+"); plus >= 0 {
		local = local[:plus]
	}
	return local + "@" + domain
}

// EmailDomain renvoie le domaine d'une adresse, en minuscules.
func EmailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}

// IsEmailBlacklisted refuse les domaines jetables connus et ceux mis en liste
// noire par l'équipe.
func IsEmailBlacklisted(email string) bool {
	domain := EmailDomain(email)
	if domain == "" {
		return true
	}
	if disposableDomains[domain] {
		return true
	}

	blacklist.mu.RLock()
	defer blacklist.mu.RUnlock()
	return blacklist.domains[domain]
}

// BlacklistDomain ajoute un domaine à la liste noire et la persiste.
func BlacklistDomain(domain string) error {
	domain = strings.ToLower(strings.TrimSpace(domain))

	blacklist.mu.Lock()
	defer blacklist.mu.Unlock()

	blacklist.domains[domain] = true
	return blacklist.save()
}

// UnblacklistDomain retire un domaine de la liste noire.
func UnblacklistDomain(domain string) error {
	domain = strings.ToLower(strings.TrimSpace(domain))

	blacklist.mu.Lock()
	defer blacklist.mu.Unlock()

	delete(blacklist.domains, domain)
	return blacklist.save()
}

// BlacklistedDomains liste les domaines mis en liste noire par l'équipe,
// triés.
func BlacklistedDomains() []string {
	blacklist.mu.RLock()
	defer blacklist.mu.RUnlock()

	domains := make([]string, 0, len(blacklist.domains))
	for d := range blacklist.domains {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	return domains
}

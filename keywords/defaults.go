package keywords

// Built-in per-language defaults. Keyword lists are written in their natural
// form here and normalised on construction.

// DefaultTeamConfigs returns the built-in team-page configuration for the
// languages the clinic corpus is dominated by.
func DefaultTeamConfigs() TeamConfigs {
	cfgs := TeamConfigs{
		"de": {
			TeamKeywords: []string{
				"team", "about", "staff", "person", "uber uns", "ueber uns",
				"mitarbeiter", "unser team", "praxis", "unsere praxis",
			},
			CookieButtonKeywords: []string{
				"accept", "ok", "agree", "zustimmen", "verstanden", "akzeptieren",
			},
			PreferredPaths: []string{"team", "ueber-uns", "uber-uns", "mitarbeiter"},
			ExcludeKeywords: []string{
				"image", "contact", "kontakt", "anreise", "anfahrt", "impressum", "datenschutz", "agb",
				"stellen", "karriere", "bewerbung", "jobs", "mitteilung", "forum", "rechtliches",
				"notfall", "sprechzeiten", "leistungen", "dienstleistungen", "gallery", "galerie",
				"blog", "news", "aktuelles", "veranstaltungen", "bilder", "video",
				"artikel", "aktionen", "feedback", "bewertung", "rezensionen", "preise",
				"kosten", "tarife", "termin", "vereinbaren", "formular", "newsletter", "gutschein",
				"partner", "links", "faq", "haufige-fragen", "careers", "emploi",
			},
			KeywordWeights: map[string]int{
				"unser team": 20, "team": 20, "staff": 10, "mitarbeiter": 10,
				"praxis": 6, "about": 8, "about us": 8,
			},
		},
		"fr": {
			TeamKeywords: []string{
				"équipe", "notre équipe", "vétérinaire", "nos vétérinaires", "notre clinique",
				"notre cabinet", "cabinet", "clinique", "staff", "team", "about", "about us",
				"personnel", "l'équipe", "veterinaires", "le cabinet", "la clinique",
				"a propos", "presentation", "qui sommes nous", "specialistes", "nos specialistes",
			},
			CookieButtonKeywords: []string{
				"accept", "ok", "agree", "accepter", "j'accepte", "d'accord", "autoriser", "consentir",
			},
			PreferredPaths: []string{"equipe", "notre-equipe", "presentation", "veterinaires"},
			ExcludeKeywords: []string{
				"contact", "centre", "mentions", "confidentialité", "cookies", "faq", "blog",
				"actualites", "galerie", "image", "photos", "media", "videos", "article", "agenda",
				"evenements", "temoignage", "avis", "plan", "rendez-vous", "rdv", "devis", "tarif",
				"charte", "mentions-legales", "accueil", "urgence", "soins", "forum", "gallery",
				"partenaires", "partner", "emplois", "offres", "services", "formulaire",
				"conditions", "form", "newsletter", "chirurgie", "ophtalmologie", "histoire",
				"garde", "referer", "recrutement",
			},
			KeywordWeights: map[string]int{
				"equipe": 55, "notre equipe": 55, "presentation": 45, "specialistes": 45,
				"cabinet": 25, "clinique": 20, "team": 10, "staff": 10, "personnel": 8,
				"about": 8, "about us": 10, "a propos": 6,
			},
		},
		"it": {
			TeamKeywords: []string{
				"il nostro team", "team", "staff", "personale", "collaboratori",
				"chi siamo", "chi sono", "presentazione", "su di me", "lo studio", "studio",
				"ambulatorio", "clinica", "about",
			},
			CookieButtonKeywords: []string{
				"accept", "ok", "agree", "accetta", "d'accordo", "consenti", "ho capito",
				"accettare", "accetto", "accettazione",
			},
			PreferredPaths: []string{
				"il nostro team", "team", "staff", "collaboratori", "personale", "la nostra squadra",
			},
			ExcludeKeywords: []string{
				"contact", "contatto", "centro", "note", "privacy", "cookie", "faq", "blog",
				"notizie", "galleria", "foto", "image", "images", "immagini", "media", "video",
				"articolo", "agenda", "eventi", "testimonianza", "recensioni", "mappa",
				"appuntamento", "preventivo", "tariffa", "carta", "note-legali", "home",
				"urgenza", "cure", "forum", "legale", "partner", "lavoro", "offerte", "servizi",
				"modulo", "condizioni", "newsletter", "chirurgia", "oftalmologia", "storia",
				"guardia", "referente", "reclutamento", "emergenza",
			},
			KeywordWeights: map[string]int{
				"il nostro team": 35, "team": 20, "staff": 30, "personale": 15,
				"collaboratori": 15, "ambulatorio": 8, "studio": 12, "lo studio": 12,
				"chi siamo": 12,
			},
		},
		"en": {
			TeamKeywords: []string{
				"team", "our team", "about", "about us", "staff", "our staff",
				"meet the team", "our people", "veterinarians", "our vets", "who we are",
			},
			CookieButtonKeywords: []string{
				"accept", "agree", "consent", "allow", "ok", "yes", "got it", "i understand",
			},
			PreferredPaths: []string{"team", "our-team", "about-us", "about", "staff"},
			ExcludeKeywords: []string{
				"contact", "careers", "jobs", "vacancies", "join", "legal", "privacy",
				"terms", "cookies", "faq", "blog", "news", "events", "gallery", "images",
				"photos", "media", "videos", "pricing", "prices", "fees", "appointment",
				"booking", "form", "newsletter", "emergency", "services", "partners",
				"testimonials", "reviews", "history",
			},
			KeywordWeights: map[string]int{
				"our team": 25, "meet the team": 25, "team": 20, "staff": 15,
				"about us": 10, "about": 8, "veterinarians": 10,
			},
		},
	}
	for _, cfg := range cfgs {
		cfg.normalize()
	}
	return cfgs
}

// cookieButtons covers languages beyond the team-config set; consent banners
// show up in more languages than team pages get located in.
var cookieButtons = map[string][]string{
	"en": {"accept", "agree", "consent", "allow", "ok", "yes"},
	"de": {"akzeptieren", "zustimmen", "erlauben", "ok", "ja"},
	"fr": {"accepter", "consentir", "autoriser", "ok", "oui"},
	"it": {"accettare", "consentire", "autorizzare", "ok", "si"},
	"es": {"aceptar", "consentir", "permitir", "ok", "si"},
	"pt": {"aceitar", "consentir", "permitir", "ok", "sim"},
	"nl": {"accepteren", "toestaan", "instemmen", "ok", "ja"},
	"pl": {"zaakceptowac", "zgodzic", "zezwolic", "ok", "tak"},
	"cs": {"prijmout", "souhlasit", "povolit", "ok", "ano"},
	"ro": {"accepta", "consimti", "permite", "ok", "da"},
}

// CookieButtonKeywords returns consent-button phrases for a language merged
// with the English set.
func CookieButtonKeywords(lang string) []string {
	out := append([]string(nil), cookieButtons[lang]...)
	if lang != FallbackLang {
		for _, kw := range cookieButtons[FallbackLang] {
			out = appendUnique(out, kw)
		}
	}
	return out
}

// servicePages lists keywords whose anchor text marks a treatments/services
// page; the specialization scan expands those links into the combined text.
var servicePages = map[string][]string{
	"de": {
		"leistungen", "unsere leistungen", "leistungsangebot", "leistungsspektrum",
		"angebot", "dienstleistungen", "tierarztliche leistungen", "behandlungen",
		"therapie", "services", "behandlungsangebot", "unser angebot",
	},
	"fr": {
		"prestations", "nos prestations", "offres de soins", "services", "nos services",
		"offres", "soins", "traitements", "soins veterinaires", "prestations veterinaires",
	},
	"it": {
		"servizi", "i nostri servizi", "offerte", "prestazioni", "prestazioni veterinarie",
		"trattamenti", "cure", "servizi clinici", "servizi offerti",
	},
	"en": {
		"services", "our services", "veterinary services", "treatments", "care",
		"treatment options", "vet services",
	},
}

// ServicePageKeywords resolves service-page anchors for a language, falling
// back to English when uncovered.
func ServicePageKeywords(lang string) []string {
	if kws, ok := servicePages[lang]; ok {
		return kws
	}
	return servicePages[FallbackLang]
}

// DefaultAnimalKeywords returns the built-in specialization table. The
// curated CSV tables override these when configured; entries here are kept
// in normalised form.
func DefaultAnimalKeywords() Table {
	return Table{
		"de": {
			"small animals": {"kleintier", "kleintiere", "hund", "hunde", "katze", "katzen", "heimtier", "nagetier", "kaninchen", "meerschweinchen"},
			"large animals": {"grosstier", "grosstiere", "nutztier", "nutztiere", "rind", "rinder", "kuh", "schwein", "schaf", "ziege", "landwirtschaft"},
			"horses":        {"pferd", "pferde", "pony", "ponys", "fohlen", "esel", "pferdepraxis", "pferdeklinik"},
		},
		"fr": {
			"small animals": {"petit animal", "petits animaux", "chien", "chiens", "chat", "chats", "animaux de compagnie", "lapin", "rongeur"},
			"large animals": {"grand animal", "grands animaux", "animaux de rente", "bovin", "bovins", "vache", "porc", "mouton", "chevre"},
			"horses":        {"cheval", "chevaux", "poney", "poulain", "ane", "equin", "equine"},
		},
		"it": {
			"small animals": {"piccoli animali", "cane", "cani", "gatto", "gatti", "animali da compagnia", "coniglio", "roditore"},
			"large animals": {"grandi animali", "animali da reddito", "bovino", "bovini", "mucca", "maiale", "pecora", "capra"},
			"horses":        {"cavallo", "cavalli", "pony", "puledro", "asino", "equino", "equina"},
		},
		"en": {
			"small animals": {"small animal", "small animals", "dog", "dogs", "cat", "cats", "pet", "pets", "rabbit", "rodent", "companion animal"},
			"large animals": {"large animal", "large animals", "farm animal", "livestock", "cattle", "cow", "pig", "sheep", "goat"},
			"horses":        {"horse", "horses", "pony", "foal", "donkey", "equine"},
		},
	}
}

// DefaultClinicKeywords returns the built-in clinic markers.
func DefaultClinicKeywords() BinaryTable {
	return BinaryTable{
		"de": {"tierarzt", "tierarztin", "tierarztpraxis", "tierklinik", "kleintierpraxis", "veterinar", "tiermedizin", "sprechstunde"},
		"fr": {"veterinaire", "cabinet veterinaire", "clinique veterinaire", "medecine veterinaire", "consultation"},
		"it": {"veterinario", "veterinaria", "ambulatorio veterinario", "clinica veterinaria", "medicina veterinaria"},
		"en": {"veterinarian", "veterinary", "veterinary clinic", "veterinary practice", "animal hospital", "vet clinic"},
	}
}

// DefaultNonClinicKeywords returns the built-in non-clinic markers: shops,
// grooming, shelters and similar businesses that surface in the search
// results but treat no patients.
func DefaultNonClinicKeywords() BinaryTable {
	return BinaryTable{
		"de": {"tierhandlung", "zoohandlung", "tierbedarf", "hundesalon", "tierpension", "tierheim", "hundeschule", "futter", "zubehor"},
		"fr": {"animalerie", "toilettage", "pension pour animaux", "refuge", "ecole canine", "nourriture", "accessoires"},
		"it": {"negozio di animali", "toelettatura", "pensione per animali", "rifugio", "scuola cinofila", "mangimi", "accessori"},
		"en": {"pet shop", "pet store", "grooming", "boarding", "kennel", "shelter", "dog school", "pet food", "pet supplies"},
	}
}

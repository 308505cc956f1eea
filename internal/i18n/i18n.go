// Package i18n provides the localized chart labels of the statistics pages.
package i18n

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Label message ids, in English.
const (
	EngineStats     = "Engine stats"
	SearchPage      = "Search page"
	TotalServerTime = "Total server time"
	TimeSec         = "Time (sec)"
	RequestsPercent = "Percentage of requests"
	PageLoads       = "Page loads (sec)"
	PreparationTime = "Preparation time (sec)"
	RequestTime     = "Request time (sec)"
	ParsingTime     = "Parsing time (sec)"
	Errors          = "Errors"
	ErrorPercentage = "Error percentage"
	OtherErrors     = "Other errors"
	RequestsErrors  = "Requests errors"
	TimeoutErrors   = "Timeout errors"
	Scores          = "Scores"
	NumberOfResults = "Number of results"
	ScoresPerResult = "Scores per result"
)

// supported lists the translated languages in negotiation order.
var supported = []language.Tag{language.French, language.German}

var translations = map[language.Tag]map[string]string{
	language.French: {
		EngineStats:     "Statistiques des moteurs",
		SearchPage:      "Page de recherche",
		TotalServerTime: "Temps total du serveur",
		TimeSec:         "Temps (sec)",
		RequestsPercent: "Pourcentage des requêtes",
		PageLoads:       "Chargement des pages (sec)",
		PreparationTime: "Temps de préparation (sec)",
		RequestTime:     "Temps de requête (sec)",
		ParsingTime:     "Temps d'analyse (sec)",
		Errors:          "Erreurs",
		ErrorPercentage: "Pourcentage d'erreurs",
		OtherErrors:     "Autres erreurs",
		RequestsErrors:  "Erreurs de requête",
		TimeoutErrors:   "Délais dépassés",
		Scores:          "Scores",
		NumberOfResults: "Nombre de résultats",
		ScoresPerResult: "Scores par résultat",
	},
	language.German: {
		EngineStats:     "Suchmaschinenstatistik",
		SearchPage:      "Suchseite",
		TotalServerTime: "Gesamte Serverzeit",
		TimeSec:         "Zeit (Sek.)",
		RequestsPercent: "Anteil der Anfragen",
		PageLoads:       "Ladezeit (Sek.)",
		PreparationTime: "Vorbereitungszeit (Sek.)",
		RequestTime:     "Anfragezeit (Sek.)",
		ParsingTime:     "Verarbeitungszeit (Sek.)",
		Errors:          "Fehler",
		ErrorPercentage: "Fehleranteil",
		OtherErrors:     "Andere Fehler",
		RequestsErrors:  "Anfragefehler",
		TimeoutErrors:   "Zeitüberschreitungen",
		Scores:          "Punktzahlen",
		NumberOfResults: "Anzahl der Ergebnisse",
		ScoresPerResult: "Punktzahl pro Ergebnis",
	},
}

// Catalog holds every supported language; English falls through to the message ids.
type Catalog struct {
	cat     *catalog.Builder
	matcher language.Matcher
	tags    []language.Tag
}

// New builds the catalog with def as the fallback language.
func New(def language.Tag) (*Catalog, error) {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	tags := []language.Tag{def}
	if def != language.English {
		tags = append(tags, language.English)
	}
	for _, tag := range supported {
		for id, text := range translations[tag] {
			if err := b.SetString(tag, id, text); err != nil {
				return nil, fmt.Errorf("catalog %s: %w", tag, err)
			}
		}
		if tag != def {
			tags = append(tags, tag)
		}
	}
	return &Catalog{cat: b, matcher: language.NewMatcher(tags), tags: tags}, nil
}

// Translator returns the translator best matching the first usable Accept-Language
// style preference, e.g. a ?lang= value followed by the request header.
// No usable preference selects the default language.
func (c *Catalog) Translator(prefs ...string) *Translator {
	tag := c.tags[0]
	for _, pref := range prefs {
		wanted, _, err := language.ParseAcceptLanguage(pref)
		if err != nil || len(wanted) == 0 {
			continue
		}
		_, idx, _ := c.matcher.Match(wanted...)
		tag = c.tags[idx]
		break
	}
	return &Translator{p: message.NewPrinter(tag, message.Catalog(c.cat))}
}

// Translator formats label ids for one language.
type Translator struct {
	p *message.Printer
}

// T returns the localized label for an English message id.
func (t *Translator) T(msg string) string {
	return t.p.Sprintf(msg)
}

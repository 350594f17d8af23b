package agent

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Locale groups every natural-language string the crew emits or looks for.
type Locale struct {
	Code     string
	Language language.Tag

	// SearchTrigger is matched case-insensitively against generated text.
	SearchTrigger string
	// SearchMarker precedes the query inside generated text.
	SearchMarker       string
	SearchResultsLabel string

	TagKnowledgeBase  string
	TagInternetSearch string
	TagFileAnalyzed   string
	TaskCompleted     string

	// WorkerPrompt takes instructions, persona, task and file summary.
	WorkerPrompt string
	// SynthesisPrompt takes the coordinator name, the combined worker block,
	// the original task and the file summary.
	SynthesisPrompt string

	FileNote          string
	KnowledgeBaseNote string
	SummaryPrompt     string

	// Roster lists the manager first, then the delegated roles in order.
	Roster []Spec
}

// Romanian is the default locale.
var Romanian = Locale{
	Code:     "ro",
	Language: language.Romanian,

	SearchTrigger:      "căutați pe internet",
	SearchMarker:       "căutați pe internet pentru ",
	SearchResultsLabel: "Rezultatele căutării pe internet: ",

	TagKnowledgeBase:  "[S-a folosit baza de cunoștințe]",
	TagInternetSearch: "[S-a folosit căutarea pe internet]",
	TagFileAnalyzed:   "[S-a analizat fișierul încărcat]",
	TaskCompleted:     "Sarcină completată. Răspuns: ",

	WorkerPrompt: "Instrucțiuni: %s\n" +
		"Povestea personajului: %s\n" +
		"Sarcină: %s\n" +
		"Rezumatul fișierului: %s\n" +
		"Analizați informațiile furnizate și oferiți perspective. " +
		"Dacă aveți nevoie de informații externe, scrieți „căutați pe internet pentru <interogare>.”. " +
		"Răspundeți în limba română.\n" +
		"Răspuns:",

	SynthesisPrompt: "Ca %s, revizuiți următoarele rezultate ale echipei și oferiți o analiză finală și recomandări:\n\n" +
		"%s\n\n" +
		"Sarcina originală: %s\n" +
		"Rezumatul fișierului: %s\n\n" +
		"Oferiți un rezumat cuprinzător și recomandări finale bazate pe rezultatele echipei și sarcina originală.\n" +
		"Folosiți căutarea pe internet dacă sunt necesare informații suplimentare " +
		"(scrieți „căutați pe internet pentru <interogare>.”). Răspundeți în limba română.",

	FileNote:          "\n\nUn fișier a fost încărcat. Iată un rezumat al conținutului său: %s",
	KnowledgeBaseNote: "\n\nInformațiile din baza de cunoștințe sunt disponibile pentru această sarcină.",
	SummaryPrompt:     "Rezumați următorul text într-o manieră concisă:\n\n%s\n\nRezumat:",

	Roster: []Spec{
		{
			Name:         "Manager",
			Instructions: "Coordonați echipa și oferiți o analiză finală bazată pe contribuțiile tuturor agenților.",
			Persona:      "Sunteți un manager experimentat în domeniul licitațiilor, cu o vastă experiență în coordonarea echipelor multidisciplinare.",
		},
		{
			Name:         "Cercetător",
			Instructions: "Cercetați și furnizați informații detaliate despre aspectele tehnice ale licitațiilor.",
			Persona:      "Sunteți un expert în cercetarea și analiza informațiilor despre licitații.",
		},
		{
			Name:         "Scriitor",
			Instructions: "Creați conținut clar și convingător pentru documentele licitației.",
			Persona:      "Sunteți un scriitor talentat cu experiență în redactarea documentelor pentru licitații.",
		},
		{
			Name:         "Analist",
			Instructions: "Analizați datele și tendințele pieței relevante pentru licitație.",
			Persona:      "Sunteți un analist de date cu experiență în interpretarea informațiilor de piață pentru licitații.",
		},
		{
			Name:         "Expert Financiar",
			Instructions: "Oferiți analize și sfaturi financiare legate de licitație.",
			Persona:      "Sunteți un expert financiar cu o vastă experiență în aspectele economice ale licitațiilor.",
		},
	},
}

// English mirrors Romanian for English-speaking users.
var English = Locale{
	Code:     "en",
	Language: language.English,

	SearchTrigger:      "search the internet",
	SearchMarker:       "search the internet for ",
	SearchResultsLabel: "Internet search results: ",

	TagKnowledgeBase:  "[knowledge-base-used]",
	TagInternetSearch: "[internet-search-used]",
	TagFileAnalyzed:   "[file-analyzed]",
	TaskCompleted:     "Task completed. Answer: ",

	WorkerPrompt: "Instructions: %s\n" +
		"Persona: %s\n" +
		"Task: %s\n" +
		"File summary: %s\n" +
		"Analyze the provided information and offer insights. " +
		"If you need external information, write \"search the internet for <query>.\". " +
		"Answer in English.\n" +
		"Answer:",

	SynthesisPrompt: "As %s, review the following team results and provide a final analysis and recommendations:\n\n" +
		"%s\n\n" +
		"Original task: %s\n" +
		"File summary: %s\n\n" +
		"Provide a comprehensive summary and final recommendations based on the team results and the original task.\n" +
		"Search the internet if additional information is needed " +
		"(write \"search the internet for <query>.\"). Answer in English.",

	FileNote:          "\n\nA file was uploaded. Here is a summary of its content: %s",
	KnowledgeBaseNote: "\n\nKnowledge base information is available for this task.",
	SummaryPrompt:     "Summarize the following text concisely:\n\n%s\n\nSummary:",

	Roster: []Spec{
		{
			Name:         "Manager",
			Instructions: "Coordinate the team and provide a final analysis based on the contributions of every agent.",
			Persona:      "You are a manager experienced in public tenders, with broad experience coordinating multidisciplinary teams.",
		},
		{
			Name:         "Researcher",
			Instructions: "Research and provide detailed information about the technical aspects of the tender.",
			Persona:      "You are an expert in researching and analyzing tender information.",
		},
		{
			Name:         "Writer",
			Instructions: "Create clear and persuasive content for the tender documents.",
			Persona:      "You are a talented writer experienced in drafting tender documents.",
		},
		{
			Name:         "Analyst",
			Instructions: "Analyze the data and market trends relevant to the tender.",
			Persona:      "You are a data analyst experienced in interpreting market information for tenders.",
		},
		{
			Name:         "Financial Expert",
			Instructions: "Provide financial analysis and advice related to the tender.",
			Persona:      "You are a financial expert with broad experience in the economic aspects of tenders.",
		},
	},
}

// Locales lists every supported locale. Their rosters are aligned by position.
var Locales = []Locale{Romanian, English}

// LocalizeRole maps a role name from any supported locale to the name the
// same roster position has in l.
func (l Locale) LocalizeRole(name string) (string, bool) {
	for _, other := range Locales {
		for i, spec := range other.Roster {
			if spec.Name == name && i < len(l.Roster) {
				return l.Roster[i].Name, true
			}
		}
	}
	return "", false
}

// LocaleByCode returns the locale registered under code.
func LocaleByCode(code string) (Locale, error) {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "", "ro", "ro-ro", "romanian":
		return Romanian, nil
	case "en", "en-us", "en-gb", "english":
		return English, nil
	}
	return Locale{}, fmt.Errorf("unsupported locale %q", code)
}

// HasSearchTrigger reports whether text asks for a web search.
func (l Locale) HasSearchTrigger(text string) bool {
	lower := cases.Lower(l.Language)
	return strings.Contains(lower.String(norm.NFC.String(text)), lower.String(norm.NFC.String(l.SearchTrigger)))
}

// SearchQuery extracts the query following the last search marker, up to
// the first period. Without a marker the text itself is cut at its first
// period.
func (l Locale) SearchQuery(text string) string {
	rest := text
	if i := strings.LastIndex(text, l.SearchMarker); i >= 0 {
		rest = text[i+len(l.SearchMarker):]
	}
	if j := strings.IndexByte(rest, '.'); j >= 0 {
		rest = rest[:j]
	}
	return rest
}

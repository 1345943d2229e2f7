package models

// CategoryBookmarked is a pseudo-category whose entries duplicate real
// subjects for the bookmarks filter UI. It must never contribute to
// question totals or the totals double count.
const CategoryBookmarked = "bookmarked"

type Subject struct {
	APIName     string `json:"api_name"`
	DisplayName string `json:"display_name"`
	Questions   int    `json:"questions"`
	Category    string `json:"category"`
}

type SubjectCatalog []Subject

// TotalQuestions sums the question counts of all real subjects.
func (c SubjectCatalog) TotalQuestions() int {
	total := 0
	for _, s := range c {
		if s.Category == CategoryBookmarked {
			continue
		}
		total += s.Questions
	}
	return total
}

// QuestionsFor looks up a subject's question count by API name. The second
// return reports whether the subject is known to the catalog.
func (c SubjectCatalog) QuestionsFor(apiName string) (int, bool) {
	for _, s := range c {
		if s.APIName == apiName {
			return s.Questions, true
		}
	}
	return 0, false
}

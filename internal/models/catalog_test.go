package models

import "testing"

func TestSubjectCatalog_TotalQuestions(t *testing.T) {
	catalog := SubjectCatalog{
		{APIName: "anatomy", Questions: 100, Category: "preclinical"},
		{APIName: "pharmacology", Questions: 80, Category: "paraclinical"},
		{APIName: "bookmarked", Questions: 40, Category: CategoryBookmarked},
	}

	if got := catalog.TotalQuestions(); got != 180 {
		t.Errorf("Expected 180 total questions (bookmarked excluded), got %d", got)
	}

	if got := (SubjectCatalog{}).TotalQuestions(); got != 0 {
		t.Errorf("Expected 0 for empty catalog, got %d", got)
	}
}

func TestSubjectCatalog_QuestionsFor(t *testing.T) {
	catalog := SubjectCatalog{
		{APIName: "anatomy", Questions: 100, Category: "preclinical"},
	}

	n, ok := catalog.QuestionsFor("anatomy")
	if !ok || n != 100 {
		t.Errorf("Expected (100, true), got (%d, %v)", n, ok)
	}

	n, ok = catalog.QuestionsFor("astrology")
	if ok || n != 0 {
		t.Errorf("Expected (0, false) for unknown subject, got (%d, %v)", n, ok)
	}
}

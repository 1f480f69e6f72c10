package lf

import "go.uber.org/zap"

const (
	FieldModule        = "module"
	FieldToken         = "token"
	FieldIdentifier    = "identifier"
	FieldProjectSlug   = "project_slug"
	FieldGitlabProject = "gitlab_project_id"
	FieldIssueID       = "issue_id"
	FieldIssueIID      = "issue_iid"
	FieldNoteID        = "note_id"
	FieldReviewStatus  = "review_status"
	FieldSearchTerms   = "search_terms"
)

func Module(module string) zap.Field {
	return zap.String(FieldModule, module)
}

func Token(token string) zap.Field {
	return zap.String(FieldToken, token)
}

func Identifier(identifier string) zap.Field {
	return zap.String(FieldIdentifier, identifier)
}

func ProjectSlug(slug string) zap.Field {
	return zap.String(FieldProjectSlug, slug)
}

func GitlabProject(ID int) zap.Field {
	return zap.Int(FieldGitlabProject, ID)
}

func IssueID(ID uint) zap.Field {
	return zap.Uint(FieldIssueID, ID)
}

func IssueIID(IID int) zap.Field {
	return zap.Int(FieldIssueIID, IID)
}

func NoteID(ID uint) zap.Field {
	return zap.Uint(FieldNoteID, ID)
}

func ReviewStatus(status string) zap.Field {
	return zap.String(FieldReviewStatus, status)
}

func SearchTerms(terms string) zap.Field {
	return zap.String(FieldSearchTerms, terms)
}

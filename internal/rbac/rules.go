package rbac

const (
	RoleLearner = "learner"
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

const (
	PermQuizCreate      = "quiz:create"
	PermQuizView        = "quiz:view"
	PermAnswerCreate    = "answer:create"
	PermAnswerModerate  = "answer:moderate"
	PermReviewCreate    = "review:create"
	PermAnswerersList   = "answerers:list"
	PermProgressViewOwn = "progress:view-own"
	PermProgressViewAll = "progress:view-all"
	PermTokenIssue      = "auth:issue"
	PermEventsRead      = "events:read"
)

// Default policy.
var RolePermissions = map[string][]string{
	RoleLearner: {
		PermQuizView,
		PermAnswerCreate,
		PermReviewCreate,
		PermProgressViewOwn,
	},
	RoleTeacher: {
		PermQuizCreate,
		PermQuizView,
		PermAnswerModerate,
		PermAnswerersList,
		"progress:*",
	},
	RoleAdmin: {
		"*", // everything
	},
}

func KnownRole(role string) bool {
	_, ok := RolePermissions[role]
	return ok
}

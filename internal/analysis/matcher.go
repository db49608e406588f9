package analysis

import "github.com/spigell/career-quiz/internal/quiz"

// MatchCourses returns the catalog courses associated with at least one of
// the profession identifiers, in catalog order. The result is never nil.
func MatchCourses(professionIDs []string, catalog []quiz.Course) []quiz.Course {
	matched := make([]quiz.Course, 0)
	if len(professionIDs) == 0 {
		return matched
	}

	wanted := make(map[string]struct{}, len(professionIDs))
	for _, id := range professionIDs {
		wanted[id] = struct{}{}
	}

	for _, course := range catalog {
		for _, id := range course.AssociatedProfessionIDs {
			if _, ok := wanted[id]; ok {
				matched = append(matched, course)
				break
			}
		}
	}

	return matched
}
